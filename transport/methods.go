// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package transport

// MethodID enumerates the wire methods a session channel can carry. Not
// every tier of remote session implements every method; the controller's
// feature table decides which ones it sends.
type MethodID int

const (
	MethodUnknown MethodID = iota

	// Queries (round trip).
	MethodGetPlaybackState
	MethodGetMetadata
	MethodGetQueue
	MethodGetQueueTitle
	MethodGetExtras
	MethodGetRatingType
	MethodGetRepeatMode
	MethodIsShuffleModeEnabled
	MethodIsCaptioningEnabled
	MethodGetFlags
	MethodGetPlaybackInfo
	MethodGetSessionActivity
	MethodGetPackageName

	// Commands (one way).
	MethodSetVolumeTo
	MethodAdjustVolume
	MethodSendCommand
	MethodSendMediaButton
	MethodAddQueueItem
	MethodAddQueueItemAt
	MethodRemoveQueueItem
	MethodRemoveQueueItemAt

	// Transport-control verbs (one way).
	MethodPrepare
	MethodPrepareFromMediaID
	MethodPrepareFromSearch
	MethodPrepareFromURI
	MethodPlay
	MethodPlayFromMediaID
	MethodPlayFromSearch
	MethodPlayFromURI
	MethodPause
	MethodStop
	MethodSeekTo
	MethodFastForward
	MethodRewind
	MethodSkipToNext
	MethodSkipToPrevious
	MethodSkipToQueueItem
	MethodSetRating
	MethodSetRepeatMode
	MethodSetShuffleModeEnabled
	MethodSetCaptioningEnabled
	MethodSendCustomAction
)

var methodNames = map[MethodID]string{
	MethodGetPlaybackState:      "GetPlaybackState",
	MethodGetMetadata:           "GetMetadata",
	MethodGetQueue:              "GetQueue",
	MethodGetQueueTitle:         "GetQueueTitle",
	MethodGetExtras:             "GetExtras",
	MethodGetRatingType:         "GetRatingType",
	MethodGetRepeatMode:         "GetRepeatMode",
	MethodIsShuffleModeEnabled:  "IsShuffleModeEnabled",
	MethodIsCaptioningEnabled:   "IsCaptioningEnabled",
	MethodGetFlags:              "GetFlags",
	MethodGetPlaybackInfo:       "GetPlaybackInfo",
	MethodGetSessionActivity:    "GetSessionActivity",
	MethodGetPackageName:        "GetPackageName",
	MethodSetVolumeTo:           "SetVolumeTo",
	MethodAdjustVolume:          "AdjustVolume",
	MethodSendCommand:           "SendCommand",
	MethodSendMediaButton:       "SendMediaButton",
	MethodAddQueueItem:          "AddQueueItem",
	MethodAddQueueItemAt:        "AddQueueItemAt",
	MethodRemoveQueueItem:       "RemoveQueueItem",
	MethodRemoveQueueItemAt:     "RemoveQueueItemAt",
	MethodPrepare:               "Prepare",
	MethodPrepareFromMediaID:    "PrepareFromMediaID",
	MethodPrepareFromSearch:     "PrepareFromSearch",
	MethodPrepareFromURI:        "PrepareFromURI",
	MethodPlay:                  "Play",
	MethodPlayFromMediaID:       "PlayFromMediaID",
	MethodPlayFromSearch:        "PlayFromSearch",
	MethodPlayFromURI:           "PlayFromURI",
	MethodPause:                 "Pause",
	MethodStop:                  "Stop",
	MethodSeekTo:                "SeekTo",
	MethodFastForward:           "FastForward",
	MethodRewind:                "Rewind",
	MethodSkipToNext:            "SkipToNext",
	MethodSkipToPrevious:        "SkipToPrevious",
	MethodSkipToQueueItem:       "SkipToQueueItem",
	MethodSetRating:             "SetRating",
	MethodSetRepeatMode:         "SetRepeatMode",
	MethodSetShuffleModeEnabled: "SetShuffleModeEnabled",
	MethodSetCaptioningEnabled:  "SetCaptioningEnabled",
	MethodSendCustomAction:      "SendCustomAction",
}

func (m MethodID) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return "Unknown"
}
