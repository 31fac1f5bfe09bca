// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package loopback

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

// channel binds one side of the session: the base handle or the extended one
// obtained through negotiation. Both talk to the same host; they differ only
// in which sink list registration lands on.
type channel struct {
	h        *Host
	extended bool
}

var _ transport.Channel = (*channel)(nil)

func (c *channel) Invoke(method transport.MethodID, args *bundle.Bundle) (*bundle.Bundle, error) {
	h := c.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return nil, transport.ErrRemoteGone
	}
	h.invocations = append(h.invocations, method)
	return h.perform(method, args)
}

func (c *channel) InvokeOneWay(method transport.MethodID, args *bundle.Bundle) error {
	_, err := c.Invoke(method, args)
	return err
}

func (c *channel) RegisterEventSink(sink transport.EventSink) error {
	h := c.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dead {
		return transport.ErrRemoteGone
	}
	if c.extended {
		h.extSinks = append(h.extSinks, sink)
	} else {
		h.baseSinks = append(h.baseSinks, sink)
	}
	return nil
}

func (c *channel) UnregisterEventSink(sink transport.EventSink) error {
	h := c.h
	h.mu.Lock()
	defer h.mu.Unlock()
	list := &h.baseSinks
	if c.extended {
		list = &h.extSinks
	}
	for i, existing := range *list {
		if existing == sink {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *channel) OnRemoteDeath(fn func()) (cancel func()) {
	h := c.h
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		go fn()
		return func() {}
	}
	h.nextSub++
	id := h.nextSub
	h.deathSubs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.deathSubs, id)
		h.mu.Unlock()
	}
}

// perform services one wire method. Callers hold h.mu.
func (h *Host) perform(method transport.MethodID, args *bundle.Bundle) (*bundle.Bundle, error) {
	switch method {

	// Queries.
	case transport.MethodGetPlaybackState:
		return marshalValue(h.state)
	case transport.MethodGetMetadata:
		if h.metadata == nil {
			return bundle.New(), nil
		}
		return marshalValue(*h.metadata)
	case transport.MethodGetQueue:
		return marshalValue(h.queue)
	case transport.MethodGetQueueTitle:
		return bundle.New().PutString(transport.KeyValue, h.queueTitle), nil
	case transport.MethodGetExtras:
		return bundle.New().PutBundle(transport.KeyValue, h.extras), nil
	case transport.MethodGetRatingType:
		return bundle.New().PutInt(transport.KeyValue, int64(h.ratingType)), nil
	case transport.MethodGetRepeatMode:
		return bundle.New().PutInt(transport.KeyValue, int64(h.repeatMode)), nil
	case transport.MethodIsShuffleModeEnabled:
		return bundle.New().PutBool(transport.KeyValue, h.shuffle), nil
	case transport.MethodIsCaptioningEnabled:
		return bundle.New().PutBool(transport.KeyValue, h.captioning), nil
	case transport.MethodGetFlags:
		return bundle.New().PutInt(transport.KeyValue, h.flags), nil
	case transport.MethodGetPlaybackInfo:
		return marshalValue(h.info)
	case transport.MethodGetSessionActivity:
		return bundle.New().PutString(transport.KeyValue, h.activity), nil
	case transport.MethodGetPackageName:
		return bundle.New().PutString(transport.KeyValue, h.pkg), nil

	// Volume.
	case transport.MethodSetVolumeTo:
		h.setVolumeLocked(int(args.GetInt(transport.KeyVolumeValue)))
		return nil, nil
	case transport.MethodAdjustVolume:
		h.setVolumeLocked(h.info.CurrentVolume + int(args.GetInt(transport.KeyDirection)))
		return nil, nil

	// Generic command channel.
	case transport.MethodSendCommand:
		h.handleCommandLocked(args)
		return nil, nil
	case transport.MethodSendMediaButton:
		return nil, nil

	// Queue mutation primitives (tier 0 wire path).
	case transport.MethodAddQueueItem:
		h.addQueueItemLocked(args.GetBytes(transport.KeyCommandDescription), len(h.queue))
		return nil, nil
	case transport.MethodAddQueueItemAt:
		h.addQueueItemLocked(args.GetBytes(transport.KeyCommandDescription),
			int(args.GetInt(transport.KeyCommandIndex)))
		return nil, nil
	case transport.MethodRemoveQueueItem:
		h.removeQueueItemLocked(args.GetBytes(transport.KeyCommandDescription))
		return nil, nil
	case transport.MethodRemoveQueueItemAt:
		h.removeQueueItemAtLocked(int(args.GetInt(transport.KeyCommandIndex)))
		return nil, nil

	// Transport-control verbs.
	case transport.MethodPlay, transport.MethodPlayFromMediaID,
		transport.MethodPlayFromSearch, transport.MethodPlayFromURI:
		h.setStateLocked(mediastate.StatePlaying)
		return nil, nil
	case transport.MethodPrepare, transport.MethodPrepareFromMediaID,
		transport.MethodPrepareFromSearch, transport.MethodPrepareFromURI:
		h.setStateLocked(mediastate.StateConnecting)
		return nil, nil
	case transport.MethodPause:
		h.setStateLocked(mediastate.StatePaused)
		return nil, nil
	case transport.MethodStop:
		h.setStateLocked(mediastate.StateStopped)
		return nil, nil
	case transport.MethodSeekTo:
		h.state.PositionMs = args.GetInt(transport.KeyPositionMs)
		h.emit(eventForState(h.state))
		return nil, nil
	case transport.MethodSetRepeatMode:
		h.repeatMode = int(args.GetInt(transport.KeyRepeatMode))
		h.emit(transport.Event{Kind: transport.EventRepeatMode, RepeatMode: h.repeatMode})
		return nil, nil
	case transport.MethodSetShuffleModeEnabled:
		h.shuffle = args.GetBool(transport.KeyShuffle)
		h.emit(transport.Event{Kind: transport.EventShuffleMode, ShuffleEnabled: h.shuffle})
		return nil, nil
	case transport.MethodSetCaptioningEnabled:
		h.captioning = args.GetBool(transport.KeyCaptioning)
		h.emit(transport.Event{Kind: transport.EventCaptioning, CaptioningEnabled: h.captioning})
		return nil, nil
	case transport.MethodSendCustomAction:
		h.handleCustomActionLocked(args)
		return nil, nil
	case transport.MethodFastForward, transport.MethodRewind,
		transport.MethodSkipToNext, transport.MethodSkipToPrevious,
		transport.MethodSkipToQueueItem, transport.MethodSetRating:
		return nil, nil
	}
	return nil, nil
}

// handleCommandLocked services the generic command channel: the reserved
// internal commands first, everything else through the user handler hook.
func (h *Host) handleCommandLocked(args *bundle.Bundle) {
	name := args.GetString(transport.KeyCommandName)
	params := args.GetBundle(transport.KeyCommandParams)
	reply, _ := args.GetOpaque(transport.KeyResultReceiver).(transport.ResultReceiver)

	switch name {
	case transport.CommandGetExtendedChannel:
		// A remote predating the extended channel never answers at all.
		if !h.extendedAvail || reply == nil {
			return
		}
		result := bundle.New().
			PutInt(transport.KeyRemoteVersion, int64(h.version)).
			PutOpaque(transport.KeyExtendedChannel, transport.Channel(&channel{h: h, extended: true}))
		h.events.Post(func() { reply(0, result) })
	case transport.CommandAddQueueItem:
		h.addQueueItemLocked(params.GetBytes(transport.KeyCommandDescription), len(h.queue))
	case transport.CommandAddQueueItemAt:
		h.addQueueItemLocked(params.GetBytes(transport.KeyCommandDescription),
			int(params.GetInt(transport.KeyCommandIndex)))
	case transport.CommandRemoveQueueItem:
		h.removeQueueItemLocked(params.GetBytes(transport.KeyCommandDescription))
	case transport.CommandRemoveQueueItemAt:
		h.removeQueueItemAtLocked(int(params.GetInt(transport.KeyCommandIndex)))
	default:
		if fn := h.cmdHandler; fn != nil {
			h.events.Post(func() { fn(name, params, reply) })
		}
	}
}

// handleCustomActionLocked maps the reserved verb-fallback actions back onto
// their dedicated handling; unknown actions are the session owner's business
// and are dropped here.
func (h *Host) handleCustomActionLocked(args *bundle.Bundle) {
	extras := args.GetBundle(transport.KeyExtras)
	switch args.GetString(transport.KeyActionName) {
	case transport.ActionPrepare, transport.ActionPrepareFromMediaID,
		transport.ActionPrepareFromSearch, transport.ActionPrepareFromURI:
		h.setStateLocked(mediastate.StateConnecting)
	case transport.ActionPlayFromURI:
		h.setStateLocked(mediastate.StatePlaying)
	case transport.ActionSetRepeatMode:
		h.repeatMode = int(extras.GetInt(transport.KeyRepeatMode))
		h.emit(transport.Event{Kind: transport.EventRepeatMode, RepeatMode: h.repeatMode})
	case transport.ActionSetShuffleMode:
		h.shuffle = extras.GetBool(transport.KeyShuffle)
		h.emit(transport.Event{Kind: transport.EventShuffleMode, ShuffleEnabled: h.shuffle})
	case transport.ActionSetCaptioning:
		h.captioning = extras.GetBool(transport.KeyCaptioning)
		h.emit(transport.Event{Kind: transport.EventCaptioning, CaptioningEnabled: h.captioning})
	}
}

func (h *Host) setStateLocked(state int) {
	h.state.State = state
	h.emit(eventForState(h.state))
}

func (h *Host) setVolumeLocked(v int) {
	if v < 0 {
		v = 0
	}
	if v > h.info.MaxVolume {
		v = h.info.MaxVolume
	}
	h.info.CurrentVolume = v
	info := h.info
	h.emit(transport.Event{Kind: transport.EventVolume, Info: &info})
}

func (h *Host) addQueueItemLocked(desc []byte, index int) {
	var d mediastate.MediaDescription
	if err := cbor.Unmarshal(desc, &d); err != nil {
		return
	}
	h.nextItemID++
	item := mediastate.QueueItem{Description: d, ID: h.nextItemID}
	if index < 0 || index >= len(h.queue) {
		h.queue = append(h.queue, item)
	} else {
		h.queue = append(h.queue[:index], append([]mediastate.QueueItem{item}, h.queue[index:]...)...)
	}
	h.emitQueueLocked()
}

func (h *Host) removeQueueItemLocked(desc []byte) {
	var d mediastate.MediaDescription
	if err := cbor.Unmarshal(desc, &d); err != nil {
		return
	}
	for i, item := range h.queue {
		if item.Description.MediaID == d.MediaID {
			h.queue = append(h.queue[:i], h.queue[i+1:]...)
			h.emitQueueLocked()
			return
		}
	}
}

func (h *Host) removeQueueItemAtLocked(index int) {
	if index < 0 || index >= len(h.queue) {
		return
	}
	h.queue = append(h.queue[:index], h.queue[index+1:]...)
	h.emitQueueLocked()
}

func (h *Host) emitQueueLocked() {
	q := make([]mediastate.QueueItem, len(h.queue))
	copy(q, h.queue)
	h.emit(transport.Event{Kind: transport.EventQueue, Queue: q})
}

func eventForState(s mediastate.PlaybackState) transport.Event {
	snapshot := s
	return transport.Event{Kind: transport.EventPlaybackState, State: &snapshot}
}

func marshalValue(v interface{}) (*bundle.Bundle, error) {
	enc, err := cbor.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bundle.New().PutBytes(transport.KeyValue, enc), nil
}
