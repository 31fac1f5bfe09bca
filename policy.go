// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import "github.com/spf13/viper"

// Policy holds the knobs that are deliberately configuration, not logic.
type Policy struct {
	// SessionEventCutover is the remote version ordinal at which the
	// extended channel takes over session-event delivery. Remotes older
	// than the cutover keep sending session events through the base
	// channel even while an extended sink is live; everything else is
	// suppressed on the base side as soon as extended delivery starts.
	SessionEventCutover int
}

func DefaultPolicy() Policy {
	return Policy{SessionEventCutover: 2}
}

// PolicyFromConfig reads the policy from viper, falling back to defaults
// for anything unset.
func PolicyFromConfig() Policy {
	p := DefaultPolicy()
	if viper.IsSet("policy.session_event_cutover") {
		p.SessionEventCutover = viper.GetInt("policy.session_event_cutover")
	}
	return p
}
