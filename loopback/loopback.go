// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package loopback hosts a media session inside the calling process, behind
// the same Channel contract the real transports implement. It is the
// reference implementation of the session side of the protocol and the
// standard fake for tests: fully scriptable state, extended-channel
// negotiation, ordered event fan-out on its own delivery goroutine and a
// kill switch for death scenarios.
package loopback

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/dispatch"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

const Scheme = "loopback"

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Host)
	schemeOnce sync.Once
)

func registerScheme() {
	schemeOnce.Do(func() {
		transport.RegisterScheme(Scheme, func(addr string) (transport.Channel, error) {
			registryMu.Lock()
			h := registry[addr]
			registryMu.Unlock()
			if h == nil {
				return nil, errors.New("loopback: no session at " + addr)
			}
			return h.Channel(), nil
		})
	})
}

// CommandHandler services user-level generic commands the host does not
// handle itself. It runs on the host's delivery goroutine; reply may be nil.
type CommandHandler func(name string, params *bundle.Bundle, reply transport.ResultReceiver)

type Host struct {
	mu   sync.Mutex
	addr string

	version       int
	extendedAvail bool
	dead          bool

	flags      int64
	ratingType int
	pkg        string
	activity   string

	state      mediastate.PlaybackState
	metadata   *mediastate.Metadata
	queue      []mediastate.QueueItem
	nextItemID int64
	queueTitle string
	extras     *bundle.Bundle
	info       mediastate.PlaybackInfo
	repeatMode int
	shuffle    bool
	captioning bool

	baseSinks []transport.EventSink
	extSinks  []transport.EventSink
	deathSubs map[int64]func()
	nextSub   int64

	invocations []transport.MethodID
	cmdHandler  CommandHandler

	// events is the delivery goroutine: everything posted here runs in
	// order, standing in for the IPC delivery thread of a real transport.
	// Posts never block, so emitting while holding h.mu is safe even when
	// a sink stalls.
	events       *dispatch.Queue
	shutdownOnce sync.Once
}

type Option func(*Host)

// WithVersion sets the version ordinal the host reports during
// extended-channel negotiation.
func WithVersion(v int) Option { return func(h *Host) { h.version = v } }

func WithFlags(flags int64) Option { return func(h *Host) { h.flags = flags } }

// WithoutExtendedChannel makes the host ignore negotiation requests, the way
// a remote predating the extended channel would.
func WithoutExtendedChannel() Option { return func(h *Host) { h.extendedAvail = false } }

func WithPackageName(pkg string) Option { return func(h *Host) { h.pkg = pkg } }

func WithRatingType(rt int) Option { return func(h *Host) { h.ratingType = rt } }

func WithSessionActivity(handle string) Option { return func(h *Host) { h.activity = handle } }

func New(opts ...Option) *Host {
	registerScheme()
	h := &Host{
		addr:          uuid.NewString(),
		version:       2,
		extendedAvail: true,
		pkg:           "loopback.session",
		deathSubs:     make(map[int64]func()),
		events:        dispatch.NewQueue(),
		state:         mediastate.PlaybackState{State: mediastate.StateNone, Speed: 1},
		info: mediastate.PlaybackInfo{
			PlaybackType:  mediastate.PlaybackTypeLocal,
			VolumeControl: mediastate.VolumeControlAbsolute,
			MaxVolume:     100,
			CurrentVolume: 50,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	registryMu.Lock()
	registry[h.addr] = h
	registryMu.Unlock()
	return h
}

// Token returns the transferable identifier for this session.
func (h *Host) Token() transport.Token {
	return transport.Token{Scheme: Scheme, Addr: h.addr}
}

// Channel returns a fresh base channel bound to this session.
func (h *Host) Channel() transport.Channel {
	return &channel{h: h}
}

// Kill simulates the remote process dying: death subscriptions fire on the
// delivery goroutine and every later call fails with ErrRemoteGone.
func (h *Host) Kill() {
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return
	}
	h.dead = true
	fns := make([]func(), 0, len(h.deathSubs))
	for _, fn := range h.deathSubs {
		fns = append(fns, fn)
	}
	h.deathSubs = make(map[int64]func())
	h.mu.Unlock()
	h.events.Post(func() {
		for _, fn := range fns {
			fn()
		}
	})
}

// Release destroys the session gracefully: base sinks receive the terminal
// destroyed event, then the endpoint goes dead.
func (h *Host) Release() {
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return
	}
	h.dead = true
	sinks := copySinks(h.baseSinks)
	fns := make([]func(), 0, len(h.deathSubs))
	for _, fn := range h.deathSubs {
		fns = append(fns, fn)
	}
	h.deathSubs = make(map[int64]func())
	h.mu.Unlock()
	h.events.Post(func() {
		for _, s := range sinks {
			s.Deliver(transport.Event{Kind: transport.EventDestroyed})
		}
		for _, fn := range fns {
			fn()
		}
	})
}

// Shutdown stops the delivery goroutine. Call after the test is done; safe
// to call more than once.
func (h *Host) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.Kill()
		registryMu.Lock()
		delete(registry, h.addr)
		registryMu.Unlock()
	})
	h.events.Close()
}

// Sync blocks until everything emitted before it has been delivered.
func (h *Host) Sync() {
	h.events.Flush()
}

func (h *Host) SetCommandHandler(fn CommandHandler) {
	h.mu.Lock()
	h.cmdHandler = fn
	h.mu.Unlock()
}

// Invocations returns the wire methods invoked so far, in order.
func (h *Host) Invocations() []transport.MethodID {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]transport.MethodID, len(h.invocations))
	copy(out, h.invocations)
	return out
}

func copySinks(sinks []transport.EventSink) []transport.EventSink {
	out := make([]transport.EventSink, len(sinks))
	copy(out, sinks)
	return out
}

// sessionEventsViaExtendedSince is the protocol version that moved session
// events onto the extended channel; older sessions only know the base path.
const sessionEventsViaExtendedSince = 2

// extendedCarries reports whether the extended channel carries the kind.
// The remaining kinds only ever flow through the base channel.
func extendedCarries(kind transport.EventKind) bool {
	switch kind {
	case transport.EventSession, transport.EventPlaybackState,
		transport.EventRepeatMode, transport.EventShuffleMode,
		transport.EventCaptioning:
		return true
	}
	return false
}

// emit fans ev out to the sinks entitled to it. Callers hold h.mu; the
// sink list is snapshotted here and the delivery itself runs on the event
// queue, so a stalled sink never wedges the host.
func (h *Host) emit(ev transport.Event) {
	sinks := copySinks(h.baseSinks)
	if extendedCarries(ev.Kind) &&
		!(ev.Kind == transport.EventSession && h.version < sessionEventsViaExtendedSince) {
		sinks = append(sinks, h.extSinks...)
	}
	if len(sinks) == 0 {
		return
	}
	h.events.Post(func() {
		for _, s := range sinks {
			s.Deliver(ev)
		}
	})
}
