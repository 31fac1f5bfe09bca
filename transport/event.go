// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package transport

import (
	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/mediastate"
)

// EventKind tags the payload carried by an Event.
type EventKind int

const (
	// EventSession is a custom event named by the session owner, data: Name + Extras
	EventSession EventKind = iota
	// EventPlaybackState, data: State
	EventPlaybackState
	// EventMetadata, data: Metadata
	EventMetadata
	// EventQueue, data: Queue
	EventQueue
	// EventQueueTitle, data: QueueTitle
	EventQueueTitle
	// EventExtras, data: Extras
	EventExtras
	// EventVolume, data: Info
	EventVolume
	// EventRepeatMode, data: RepeatMode
	EventRepeatMode
	// EventShuffleMode, data: ShuffleEnabled
	EventShuffleMode
	// EventCaptioning, data: CaptioningEnabled
	EventCaptioning
	// EventSessionReady carries no payload; synthesized locally when the
	// extended channel becomes available
	EventSessionReady
	// EventDestroyed is terminal; nothing follows it for a registration
	EventDestroyed
)

var eventKindNames = map[EventKind]string{
	EventSession:       "session",
	EventPlaybackState: "playbackState",
	EventMetadata:      "metadata",
	EventQueue:         "queue",
	EventQueueTitle:    "queueTitle",
	EventExtras:        "extras",
	EventVolume:        "volume",
	EventRepeatMode:    "repeatMode",
	EventShuffleMode:   "shuffleMode",
	EventCaptioning:    "captioning",
	EventSessionReady:  "sessionReady",
	EventDestroyed:     "destroyed",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is the tagged union delivered to event sinks. Only the fields
// matching Kind are set; consumers switch on Kind and read typed fields, no
// payload casting involved.
type Event struct {
	Kind EventKind

	Name   string
	Extras *bundle.Bundle

	State      *mediastate.PlaybackState
	Metadata   *mediastate.Metadata
	Queue      []mediastate.QueueItem
	QueueTitle string
	Info       *mediastate.PlaybackInfo

	RepeatMode        int
	ShuffleEnabled    bool
	CaptioningEnabled bool
}
