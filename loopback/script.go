// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package loopback

import (
	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

// Scripting surface: tests and demos drive the session from here. Every
// setter stores the snapshot and emits the matching change event.

func (h *Host) SetPlaybackState(s mediastate.PlaybackState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	h.emit(eventForState(h.state))
}

func (h *Host) SetMetadata(m mediastate.Metadata) {
	h.mu.Lock()
	defer h.mu.Unlock()
	snapshot := m
	h.metadata = &snapshot
	ev := snapshot
	h.emit(transport.Event{Kind: transport.EventMetadata, Metadata: &ev})
}

func (h *Host) SetQueue(items []mediastate.QueueItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = make([]mediastate.QueueItem, len(items))
	copy(h.queue, items)
	for _, item := range items {
		if item.ID > h.nextItemID {
			h.nextItemID = item.ID
		}
	}
	h.emitQueueLocked()
}

func (h *Host) SetQueueTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queueTitle = title
	h.emit(transport.Event{Kind: transport.EventQueueTitle, QueueTitle: title})
}

func (h *Host) SetExtras(extras *bundle.Bundle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extras = extras
	h.emit(transport.Event{Kind: transport.EventExtras, Extras: extras})
}

func (h *Host) SetRepeatMode(mode int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.repeatMode = mode
	h.emit(transport.Event{Kind: transport.EventRepeatMode, RepeatMode: mode})
}

func (h *Host) SetShuffleModeEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shuffle = enabled
	h.emit(transport.Event{Kind: transport.EventShuffleMode, ShuffleEnabled: enabled})
}

func (h *Host) SetCaptioningEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captioning = enabled
	h.emit(transport.Event{Kind: transport.EventCaptioning, CaptioningEnabled: enabled})
}

// EmitSessionEvent sends a session-owner custom event to every sink entitled
// to it.
func (h *Host) EmitSessionEvent(name string, extras *bundle.Bundle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emit(transport.Event{Kind: transport.EventSession, Name: name, Extras: extras})
}

// Queue returns a copy of the current queue, for assertions.
func (h *Host) Queue() []mediastate.QueueItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]mediastate.QueueItem, len(h.queue))
	copy(out, h.queue)
	return out
}

// State returns the current playback state snapshot.
func (h *Host) State() mediastate.PlaybackState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
