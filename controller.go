// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package sessionproxy is a client-side controller for a media session that
// lives in another process. A Controller binds one session token for its
// whole life, speaks the richest wire surface the process capability level
// allows, and delivers session events to registered callbacks in order on a
// dispatch queue the caller picks.
//
// After construction the controller never surfaces remote death to callers:
// queries degrade to zero values, commands to logged no-ops, and callbacks
// receive one terminal destroyed event. Only caller-input errors
// (ErrInvalidArgument, ErrUnsupportedByRemote) come back synchronously.
package sessionproxy

import (
	"fmt"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/dispatch"
	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

type Controller struct {
	token transport.Token
	proxy *controllerProxy
}

type Option func(*options)

type options struct {
	log     logger.LoggerInterface
	policy  *Policy
	level   *CapabilityLevel
	channel transport.Channel
}

func WithLogger(log logger.LoggerInterface) Option {
	return func(o *options) { o.log = log }
}

func WithPolicy(policy Policy) Option {
	return func(o *options) { p := policy; o.policy = &p }
}

// WithCapabilityLevel overrides the process capability level for this
// controller. Meant for embedders that know their environment better than
// the process-wide detection; the level still never changes after
// construction.
func WithCapabilityLevel(level CapabilityLevel) Option {
	return func(o *options) { l := clampLevel(level); o.level = &l }
}

// WithChannel binds an already-open channel instead of dialing the token.
func WithChannel(ch transport.Channel) Option {
	return func(o *options) { o.channel = ch }
}

// NewController binds a controller to the session the token names. Fails
// with ErrSessionUnreachable when the token cannot be resolved or the
// remote does not answer.
func NewController(token transport.Token, opts ...Option) (*Controller, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Discard()
	}
	policy := PolicyFromConfig()
	if o.policy != nil {
		policy = *o.policy
	}
	level := ProcessLevel()
	if o.level != nil {
		level = *o.level
	}

	ch := o.channel
	if ch == nil {
		if token.Scheme == "" {
			return nil, fmt.Errorf("%w: empty session token", ErrSessionUnreachable)
		}
		var err error
		ch, err = transport.Dial(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSessionUnreachable, err)
		}
	}

	proxy, err := newControllerProxy(level, ch, policy, o.log)
	if err != nil {
		return nil, err
	}
	return &Controller{token: token, proxy: proxy}, nil
}

// SessionToken returns the token this controller was bound to.
func (c *Controller) SessionToken() transport.Token {
	return c.token
}

// Close releases the controller: live registrations are detached and a late
// negotiation result is ignored. The remote session is not affected.
func (c *Controller) Close() {
	c.proxy.dispose()
}

// RegisterCallback starts event delivery to cb on the given dispatch queue.
// A nil queue gets the callback its own queue, closed again on unregister.
// Registering the same callback twice without unregistering is an error.
func (c *Controller) RegisterCallback(cb *Callback, target *dispatch.Queue) error {
	return c.proxy.registerCallback(cb, target)
}

// UnregisterCallback stops delivery for cb. Messages already in flight on
// the dispatch queue are dropped, not delivered. Unregistering twice is a
// no-op; unregistering a callback that was never registered is an error.
func (c *Controller) UnregisterCallback(cb *Callback) error {
	return c.proxy.unregisterCallback(cb)
}

// TransportControls returns the verb surface for this session.
func (c *Controller) TransportControls() *TransportControls {
	return &TransportControls{proxy: c.proxy}
}

// --- queries; all degrade to zero values when the remote is gone ---

func (c *Controller) PlaybackState() *mediastate.PlaybackState {
	return c.proxy.playbackState()
}

func (c *Controller) Metadata() *mediastate.Metadata {
	return c.proxy.metadata()
}

func (c *Controller) Queue() []mediastate.QueueItem {
	return c.proxy.queue()
}

func (c *Controller) QueueTitle() string {
	return c.proxy.queueTitle()
}

func (c *Controller) Extras() *bundle.Bundle {
	return c.proxy.extras()
}

func (c *Controller) RatingType() int {
	return c.proxy.ratingType()
}

func (c *Controller) RepeatMode() int {
	return c.proxy.repeatMode()
}

func (c *Controller) IsShuffleModeEnabled() bool {
	return c.proxy.shuffleModeEnabled()
}

func (c *Controller) IsCaptioningEnabled() bool {
	return c.proxy.captioningEnabled()
}

// Flags returns the remote capability bitset cached at construction.
func (c *Controller) Flags() int64 {
	return c.proxy.flags
}

func (c *Controller) PlaybackInfo() *mediastate.PlaybackInfo {
	return c.proxy.playbackInfo()
}

// SessionActivity returns the opaque activity handle the session published,
// or "" if none.
func (c *Controller) SessionActivity() string {
	return c.proxy.sessionActivity()
}

// PackageName identifies the session owner. Fetched once and cached.
func (c *Controller) PackageName() string {
	return c.proxy.packageName()
}

// IsSessionReady reports whether extended-channel negotiation completed.
func (c *Controller) IsSessionReady() bool {
	return c.proxy.isSessionReady()
}

// --- commands ---

func (c *Controller) SetVolumeTo(value, flags int) error {
	return c.proxy.setVolumeTo(value, flags)
}

func (c *Controller) AdjustVolume(direction, flags int) error {
	return c.proxy.adjustVolume(direction, flags)
}

// DispatchMediaButton forwards a media key press to the session.
func (c *Controller) DispatchMediaButton(keyCode int) error {
	return c.proxy.dispatchMediaButton(keyCode)
}

// SendCommand sends a generic named command. result, when non-nil, is
// invoked at most once with whatever the session replies; names in the
// reserved sessionproxy.command namespace are rejected.
func (c *Controller) SendCommand(name string, params *bundle.Bundle, result transport.ResultReceiver) error {
	return c.proxy.sendCommand(name, params, result)
}

// AddQueueItem appends an item to the session's play queue. Requires the
// queue-management capability flag.
func (c *Controller) AddQueueItem(desc *mediastate.MediaDescription) error {
	return c.proxy.addQueueItem(desc, 0, false)
}

// AddQueueItemAt inserts an item at the given queue position.
func (c *Controller) AddQueueItemAt(desc *mediastate.MediaDescription, index int) error {
	return c.proxy.addQueueItem(desc, index, true)
}

func (c *Controller) RemoveQueueItem(desc *mediastate.MediaDescription) error {
	return c.proxy.removeQueueItem(desc)
}

func (c *Controller) RemoveQueueItemAt(index int) error {
	return c.proxy.removeQueueItemAt(index)
}
