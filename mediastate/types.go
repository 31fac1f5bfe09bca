// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package mediastate holds the value snapshots a session reports: playback
// state, track metadata, the play queue and volume attributes. Snapshots are
// immutable by convention; the controller hands them out and never mutates
// them after construction.
package mediastate

// Playback states.
const (
	StateNone = iota
	StateStopped
	StatePaused
	StatePlaying
	StateFastForwarding
	StateRewinding
	StateBuffering
	StateError
	StateConnecting
	StateSkippingToPrevious
	StateSkippingToNext
	StateSkippingToQueueItem
)

// Repeat modes.
const (
	RepeatModeNone = iota
	RepeatModeOne
	RepeatModeAll
)

// Rating styles.
const (
	RatingNone = iota
	RatingHeart
	RatingThumbUpDown
	Rating3Stars
	Rating4Stars
	Rating5Stars
	RatingPercentage
)

// Session capability flags, reported by the Flags query. Optional operations
// are gated on these.
const (
	FlagHandlesQueueCommands int64 = 1 << iota
	FlagHandlesMediaButtons
	FlagHandlesTransportControls
)

// Volume handling reported in PlaybackInfo.
const (
	PlaybackTypeLocal = iota + 1
	PlaybackTypeRemote
)

const (
	VolumeControlFixed = iota
	VolumeControlRelative
	VolumeControlAbsolute
)

// PlaybackState is a point-in-time transport report.
type PlaybackState struct {
	State        int     `cbor:"state"`
	PositionMs   int64   `cbor:"position_ms"`
	Speed        float64 `cbor:"speed"`
	Actions      int64   `cbor:"actions"`
	ErrorMessage string  `cbor:"error,omitempty"`
	UpdateTimeMs int64   `cbor:"update_time_ms"`
	ActiveItemID int64   `cbor:"active_item_id"`
}

// Metadata describes the current item. Unknown fields ride in Extras on the
// session side; this core treats the whole struct as opaque.
type Metadata struct {
	MediaID    string `cbor:"media_id"`
	Title      string `cbor:"title"`
	Artist     string `cbor:"artist,omitempty"`
	Album      string `cbor:"album,omitempty"`
	DurationMs int64  `cbor:"duration_ms"`
	ArtURI     string `cbor:"art_uri,omitempty"`
}

// MediaDescription identifies an item for queue mutation and play-from
// requests.
type MediaDescription struct {
	MediaID  string `cbor:"media_id"`
	Title    string `cbor:"title,omitempty"`
	Subtitle string `cbor:"subtitle,omitempty"`
	URI      string `cbor:"uri,omitempty"`
}

// QueueItem is a queue entry with its session-assigned id. The id is what
// SkipToQueueItem addresses.
type QueueItem struct {
	Description MediaDescription `cbor:"description"`
	ID          int64            `cbor:"id"`
}

// Rating is a user rating in one of the rating styles.
type Rating struct {
	Style   int     `cbor:"style"`
	Rated   bool    `cbor:"rated"`
	Value   float64 `cbor:"value,omitempty"`
	ThumbUp bool    `cbor:"thumb_up,omitempty"`
}

// PlaybackInfo reports how volume is handled for the session's output.
type PlaybackInfo struct {
	PlaybackType  int `cbor:"playback_type"`
	AudioStream   int `cbor:"audio_stream"`
	VolumeControl int `cbor:"volume_control"`
	MaxVolume     int `cbor:"max_volume"`
	CurrentVolume int `cbor:"current_volume"`
}
