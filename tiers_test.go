// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeaturesForLevel(t *testing.T) {
	tests := []struct {
		name  string
		level CapabilityLevel
		want  tierFeatures
	}{
		{
			name:  "base tier speaks everything directly",
			level: TierBase,
			want: tierFeatures{
				queueMutationPrimitive: true,
				directPlayFromURI:      true,
				directPrepare:          true,
				directModeSwitches:     true,
			},
		},
		{
			name:  "extended channel tier trades primitives for negotiation",
			level: TierExtendedChannel,
			want: tierFeatures{
				negotiatesExtendedChannel: true,
				stateViaExtended:          true,
				ratingTypeViaExtended:     true,
			},
		},
		{
			name:  "direct URI tier regains the URI method",
			level: TierDirectURI,
			want: tierFeatures{
				negotiatesExtendedChannel: true,
				stateViaExtended:          true,
				directPlayFromURI:         true,
			},
		},
		{
			name:  "direct prepare tier adds the prepare family",
			level: TierDirectPrepare,
			want: tierFeatures{
				negotiatesExtendedChannel: true,
				stateViaExtended:          true,
				directPlayFromURI:         true,
				directPrepare:             true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, featuresForLevel(tt.level))
		})
	}
}

// Within the negotiating tiers a higher level only ever gains direct wire
// paths, never loses one.
func TestNegotiatingTiersGrowMonotonically(t *testing.T) {
	prev := featuresForLevel(TierExtendedChannel)
	for level := TierDirectURI; level <= maxTier; level++ {
		f := featuresForLevel(level)
		assert.True(t, f.negotiatesExtendedChannel, "level %d", level)
		if prev.directPlayFromURI {
			assert.True(t, f.directPlayFromURI, "level %d", level)
		}
		if prev.directPrepare {
			assert.True(t, f.directPrepare, "level %d", level)
		}
		prev = f
	}
}

func TestClampLevel(t *testing.T) {
	assert.Equal(t, TierBase, clampLevel(-5))
	assert.Equal(t, TierBase, clampLevel(TierBase))
	assert.Equal(t, TierExtendedChannel, clampLevel(TierExtendedChannel))
	assert.Equal(t, maxTier, clampLevel(maxTier))
	assert.Equal(t, maxTier, clampLevel(maxTier+10))
}
