// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestPolicyFromConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Equal(t, DefaultPolicy(), PolicyFromConfig())

	viper.Set("policy.session_event_cutover", 5)
	assert.Equal(t, 5, PolicyFromConfig().SessionEventCutover)
}
