// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"sync"

	"github.com/spf13/viper"
)

// CapabilityLevel is the environment-determined tier ordinal fixed before
// any controller is constructed. Higher tiers keep every lower tier's
// behavior and add richer wire paths.
type CapabilityLevel int

const (
	// TierBase speaks every operation directly on the base channel,
	// including the dedicated queue-mutation primitive. No extended
	// channel exists at this tier.
	TierBase CapabilityLevel = iota

	// TierExtendedChannel negotiates the extended channel after
	// construction. The classic verb set is dedicated; prepare-family,
	// URI playback and mode switches ride on reserved custom actions, and
	// queue mutation falls back to reserved generic commands.
	TierExtendedChannel

	// TierDirectURI adds a dedicated play-from-URI method and answers the
	// rating-type query without the extended channel.
	TierDirectURI

	// TierDirectPrepare adds dedicated prepare-family methods.
	TierDirectPrepare

	maxTier = TierDirectPrepare
)

var (
	levelOnce    sync.Once
	processLevel CapabilityLevel
)

// ProcessLevel resolves the capability level for this process, once. The
// config key capability.tier pins it; without config the highest known tier
// is assumed.
func ProcessLevel() CapabilityLevel {
	levelOnce.Do(func() {
		processLevel = maxTier
		if viper.IsSet("capability.tier") {
			processLevel = clampLevel(CapabilityLevel(viper.GetInt("capability.tier")))
		}
	})
	return processLevel
}

func clampLevel(level CapabilityLevel) CapabilityLevel {
	if level < TierBase {
		return TierBase
	}
	if level > maxTier {
		return maxTier
	}
	return level
}
