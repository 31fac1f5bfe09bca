// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

// TransportControls is the verb surface of a controller. Verbs are one-way:
// the session answers through playback-state events, never through a return
// value. Verbs a tier lacks a dedicated wire method for are encoded as
// reserved custom actions with identical remote semantics.
type TransportControls struct {
	proxy *controllerProxy
}

func (t *TransportControls) Prepare() error {
	if t.proxy.features.directPrepare {
		return t.proxy.send("prepare", transport.MethodPrepare, nil)
	}
	return t.customAction(transport.ActionPrepare, nil)
}

func (t *TransportControls) PrepareFromMediaID(mediaID string, extras *bundle.Bundle) error {
	if mediaID == "" {
		return fmt.Errorf("%w: media id may not be empty", ErrInvalidArgument)
	}
	args := bundle.New().PutString(transport.KeyMediaID, mediaID)
	if extras != nil {
		args.PutBundle(transport.KeyExtras, extras)
	}
	if t.proxy.features.directPrepare {
		return t.proxy.send("prepareFromMediaID", transport.MethodPrepareFromMediaID, args)
	}
	return t.customAction(transport.ActionPrepareFromMediaID, args)
}

func (t *TransportControls) PrepareFromSearch(query string, extras *bundle.Bundle) error {
	args := bundle.New().PutString(transport.KeySearchQuery, query)
	if extras != nil {
		args.PutBundle(transport.KeyExtras, extras)
	}
	if t.proxy.features.directPrepare {
		return t.proxy.send("prepareFromSearch", transport.MethodPrepareFromSearch, args)
	}
	return t.customAction(transport.ActionPrepareFromSearch, args)
}

func (t *TransportControls) PrepareFromURI(uri string, extras *bundle.Bundle) error {
	if uri == "" {
		return fmt.Errorf("%w: uri may not be empty", ErrInvalidArgument)
	}
	args := bundle.New().PutString(transport.KeyURI, uri)
	if extras != nil {
		args.PutBundle(transport.KeyExtras, extras)
	}
	if t.proxy.features.directPrepare {
		return t.proxy.send("prepareFromURI", transport.MethodPrepareFromURI, args)
	}
	return t.customAction(transport.ActionPrepareFromURI, args)
}

func (t *TransportControls) Play() error {
	return t.proxy.send("play", transport.MethodPlay, nil)
}

func (t *TransportControls) PlayFromMediaID(mediaID string, extras *bundle.Bundle) error {
	if mediaID == "" {
		return fmt.Errorf("%w: media id may not be empty", ErrInvalidArgument)
	}
	args := bundle.New().PutString(transport.KeyMediaID, mediaID)
	if extras != nil {
		args.PutBundle(transport.KeyExtras, extras)
	}
	return t.proxy.send("playFromMediaID", transport.MethodPlayFromMediaID, args)
}

func (t *TransportControls) PlayFromSearch(query string, extras *bundle.Bundle) error {
	args := bundle.New().PutString(transport.KeySearchQuery, query)
	if extras != nil {
		args.PutBundle(transport.KeyExtras, extras)
	}
	return t.proxy.send("playFromSearch", transport.MethodPlayFromSearch, args)
}

func (t *TransportControls) PlayFromURI(uri string, extras *bundle.Bundle) error {
	if uri == "" {
		return fmt.Errorf("%w: uri may not be empty", ErrInvalidArgument)
	}
	args := bundle.New().PutString(transport.KeyURI, uri)
	if extras != nil {
		args.PutBundle(transport.KeyExtras, extras)
	}
	if t.proxy.features.directPlayFromURI {
		return t.proxy.send("playFromURI", transport.MethodPlayFromURI, args)
	}
	return t.customAction(transport.ActionPlayFromURI, args)
}

func (t *TransportControls) Pause() error {
	return t.proxy.send("pause", transport.MethodPause, nil)
}

func (t *TransportControls) Stop() error {
	return t.proxy.send("stop", transport.MethodStop, nil)
}

func (t *TransportControls) SeekTo(positionMs int64) error {
	return t.proxy.send("seekTo", transport.MethodSeekTo,
		bundle.New().PutInt(transport.KeyPositionMs, positionMs))
}

func (t *TransportControls) FastForward() error {
	return t.proxy.send("fastForward", transport.MethodFastForward, nil)
}

func (t *TransportControls) Rewind() error {
	return t.proxy.send("rewind", transport.MethodRewind, nil)
}

func (t *TransportControls) SkipToNext() error {
	return t.proxy.send("skipToNext", transport.MethodSkipToNext, nil)
}

func (t *TransportControls) SkipToPrevious() error {
	return t.proxy.send("skipToPrevious", transport.MethodSkipToPrevious, nil)
}

func (t *TransportControls) SkipToQueueItem(itemID int64) error {
	return t.proxy.send("skipToQueueItem", transport.MethodSkipToQueueItem,
		bundle.New().PutInt(transport.KeyQueueItemID, itemID))
}

func (t *TransportControls) SetRating(rating mediastate.Rating) error {
	enc, err := cbor.Marshal(rating)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return t.proxy.send("setRating", transport.MethodSetRating,
		bundle.New().PutBytes(transport.KeyRating, enc))
}

func (t *TransportControls) SetRepeatMode(mode int) error {
	if t.proxy.features.directModeSwitches {
		return t.proxy.send("setRepeatMode", transport.MethodSetRepeatMode,
			bundle.New().PutInt(transport.KeyRepeatMode, int64(mode)))
	}
	return t.customAction(transport.ActionSetRepeatMode,
		bundle.New().PutInt(transport.KeyRepeatMode, int64(mode)))
}

func (t *TransportControls) SetShuffleModeEnabled(enabled bool) error {
	if t.proxy.features.directModeSwitches {
		return t.proxy.send("setShuffleModeEnabled", transport.MethodSetShuffleModeEnabled,
			bundle.New().PutBool(transport.KeyShuffle, enabled))
	}
	return t.customAction(transport.ActionSetShuffleMode,
		bundle.New().PutBool(transport.KeyShuffle, enabled))
}

func (t *TransportControls) SetCaptioningEnabled(enabled bool) error {
	if t.proxy.features.directModeSwitches {
		return t.proxy.send("setCaptioningEnabled", transport.MethodSetCaptioningEnabled,
			bundle.New().PutBool(transport.KeyCaptioning, enabled))
	}
	return t.customAction(transport.ActionSetCaptioning,
		bundle.New().PutBool(transport.KeyCaptioning, enabled))
}

// SendCustomAction sends a session-defined action with optional arguments.
func (t *TransportControls) SendCustomAction(action string, args *bundle.Bundle) error {
	if action == "" {
		return fmt.Errorf("%w: action name may not be empty", ErrInvalidArgument)
	}
	return t.customAction(action, args)
}

func (t *TransportControls) customAction(action string, args *bundle.Bundle) error {
	payload := bundle.New().PutString(transport.KeyActionName, action)
	if args != nil {
		payload.PutBundle(transport.KeyExtras, args)
	}
	return t.proxy.send("sendCustomAction", transport.MethodSendCustomAction, payload)
}
