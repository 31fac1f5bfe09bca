// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

// tierFeatures is the per-tier behavior table. One controllerProxy type
// reads these flags instead of a variant class per tier; the externally
// visible surface is identical everywhere, only wire encodings and fast
// paths differ.
type tierFeatures struct {
	// negotiatesExtendedChannel requests the extended channel right after
	// construction and replays pending registrations when it arrives.
	negotiatesExtendedChannel bool

	// queueMutationPrimitive sends queue edits as dedicated wire methods.
	// Without it they are encoded as reserved generic commands.
	queueMutationPrimitive bool

	// directPlayFromURI / directPrepare send those verbs as dedicated
	// methods. Without them the verb rides on a reserved custom action.
	directPlayFromURI bool
	directPrepare     bool

	// directModeSwitches sends repeat/shuffle/captioning switches as
	// dedicated methods instead of reserved custom actions.
	directModeSwitches bool

	// ratingTypeViaExtended answers the rating-type query through the
	// extended channel when it is up.
	ratingTypeViaExtended bool

	// stateViaExtended answers playback-state, repeat, shuffle and
	// captioning queries through the extended channel when it is up.
	stateViaExtended bool
}

func featuresForLevel(level CapabilityLevel) tierFeatures {
	f := tierFeatures{}
	if level >= TierExtendedChannel {
		f.negotiatesExtendedChannel = true
		f.stateViaExtended = true
		f.ratingTypeViaExtended = true
	} else {
		// The base tier has the full dedicated method set, queue
		// primitive included, and nothing to negotiate.
		f.queueMutationPrimitive = true
		f.directPlayFromURI = true
		f.directPrepare = true
		f.directModeSwitches = true
	}
	if level >= TierDirectURI {
		f.directPlayFromURI = true
		f.ratingTypeViaExtended = false
	}
	if level >= TierDirectPrepare {
		f.directPrepare = true
	}
	return f
}
