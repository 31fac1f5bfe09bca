// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"sync/atomic"

	"github.com/ferrite-audio/sessionproxy/dispatch"
	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/transport"
)

// registration pairs one Callback with its dispatch target and the event
// sinks attached on its behalf. The registered and terminated flags are
// atomics because the dispatch queue reads them at drain time while caller
// threads and the negotiation result flip them.
type registration struct {
	cb         *Callback
	target     *dispatch.Queue
	ownsTarget bool

	registered atomic.Bool
	terminated atomic.Bool

	// hasExtended flips once when the extended sink attaches; from then on
	// the base sink suppresses the kinds the extended channel carries.
	// keepBaseSessionEvents is fixed at attach time from the remote
	// version and the session-event cutover policy.
	hasExtended           atomic.Bool
	keepBaseSessionEvents atomic.Bool

	baseSink    transport.EventSink
	extSink     transport.EventSink
	cancelDeath func()

	log logger.LoggerInterface
}

func newRegistration(cb *Callback, target *dispatch.Queue, log logger.LoggerInterface) *registration {
	r := &registration{
		cb:  cb,
		log: log,
	}
	if target == nil {
		target = dispatch.NewQueue()
		r.ownsTarget = true
	}
	r.target = target
	return r
}

// deliver enqueues ev on the dispatch target. Liveness is checked when the
// message drains, not when it is posted: a message already in flight when
// the callback unregisters is accepted here and silently dropped there.
func (r *registration) deliver(ev transport.Event) {
	r.target.Post(func() {
		if r.terminated.Load() && ev.Kind != transport.EventDestroyed {
			return
		}
		if !r.registered.Load() {
			return
		}
		r.invoke(ev)
	})
}

// deliverDestroyed terminates the registration and enqueues the one
// destroyed message. Messages already queued behind it observe the
// terminated flag when drained and are dropped, so the callback sees
// destroyed and then nothing.
func (r *registration) deliverDestroyed() {
	if !r.terminated.CompareAndSwap(false, true) {
		return
	}
	r.deliver(transport.Event{Kind: transport.EventDestroyed})
}

func (r *registration) invoke(ev transport.Event) {
	cb := r.cb
	switch ev.Kind {
	case transport.EventSession:
		if cb.OnSessionEvent != nil {
			cb.OnSessionEvent(ev.Name, ev.Extras)
		}
	case transport.EventPlaybackState:
		if cb.OnPlaybackStateChanged != nil {
			cb.OnPlaybackStateChanged(ev.State)
		}
	case transport.EventMetadata:
		if cb.OnMetadataChanged != nil {
			cb.OnMetadataChanged(ev.Metadata)
		}
	case transport.EventQueue:
		if cb.OnQueueChanged != nil {
			cb.OnQueueChanged(ev.Queue)
		}
	case transport.EventQueueTitle:
		if cb.OnQueueTitleChanged != nil {
			cb.OnQueueTitleChanged(ev.QueueTitle)
		}
	case transport.EventExtras:
		if cb.OnExtrasChanged != nil {
			cb.OnExtrasChanged(ev.Extras)
		}
	case transport.EventVolume:
		if cb.OnAudioInfoChanged != nil {
			cb.OnAudioInfoChanged(ev.Info)
		}
	case transport.EventRepeatMode:
		if cb.OnRepeatModeChanged != nil {
			cb.OnRepeatModeChanged(ev.RepeatMode)
		}
	case transport.EventShuffleMode:
		if cb.OnShuffleModeChanged != nil {
			cb.OnShuffleModeChanged(ev.ShuffleEnabled)
		}
	case transport.EventCaptioning:
		if cb.OnCaptioningChanged != nil {
			cb.OnCaptioningChanged(ev.CaptioningEnabled)
		}
	case transport.EventSessionReady:
		if cb.OnSessionReady != nil {
			cb.OnSessionReady()
		}
	case transport.EventDestroyed:
		if cb.OnSessionDestroyed != nil {
			cb.OnSessionDestroyed()
		}
	}
}

// extendedCarries mirrors the session side: the kinds the extended channel
// delivers once attached. Everything else stays on the base channel for the
// registration's whole life.
func extendedCarries(kind transport.EventKind) bool {
	switch kind {
	case transport.EventSession, transport.EventPlaybackState,
		transport.EventRepeatMode, transport.EventShuffleMode,
		transport.EventCaptioning:
		return true
	}
	return false
}

// baseChannelSink receives events from the base channel on the transport's
// delivery goroutine. Once extended delivery is live it suppresses the
// duplicated kinds, except session events from remotes older than the
// cutover, which only the base channel carries.
type baseChannelSink struct {
	reg *registration
}

func (s *baseChannelSink) Deliver(ev transport.Event) {
	if ev.Kind == transport.EventDestroyed {
		s.reg.deliverDestroyed()
		return
	}
	if s.reg.hasExtended.Load() && extendedCarries(ev.Kind) {
		if ev.Kind != transport.EventSession || !s.reg.keepBaseSessionEvents.Load() {
			return
		}
	}
	s.reg.deliver(ev)
}

// extendedChannelSink receives events from the extended channel. Kinds the
// extended channel never carries arriving here mean the two ends disagree
// about the protocol.
type extendedChannelSink struct {
	reg *registration
}

func (s *extendedChannelSink) Deliver(ev transport.Event) {
	if !extendedCarries(ev.Kind) {
		protocolViolation(s.reg.log, "event kind %q on extended channel", ev.Kind)
		return
	}
	s.reg.deliver(ev)
}
