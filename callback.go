// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/mediastate"
)

// Callback receives session updates. Set the funcs you care about and leave
// the rest nil. Every invocation happens on the dispatch queue chosen at
// registration, one at a time, in the order the session produced the
// events.
//
// A Callback value identifies its registration: the same *Callback cannot
// be registered twice concurrently, and unregistering uses the same
// pointer.
type Callback struct {
	// OnSessionEvent handles custom events named by the session owner.
	OnSessionEvent func(name string, extras *bundle.Bundle)

	OnPlaybackStateChanged func(state *mediastate.PlaybackState)
	OnMetadataChanged      func(md *mediastate.Metadata)
	OnQueueChanged         func(queue []mediastate.QueueItem)
	OnQueueTitleChanged    func(title string)
	OnExtrasChanged        func(extras *bundle.Bundle)
	OnAudioInfoChanged     func(info *mediastate.PlaybackInfo)
	OnRepeatModeChanged    func(mode int)
	OnShuffleModeChanged   func(enabled bool)
	OnCaptioningChanged    func(enabled bool)

	// OnSessionReady fires once the extended channel is up, or right after
	// registration when it already was.
	OnSessionReady func()

	// OnSessionDestroyed is terminal: the session is gone and no further
	// callback will fire for this registration.
	OnSessionDestroyed func()
}
