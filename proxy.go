// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/dispatch"
	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

// reservedCommandPrefix namespaces the internal protocol commands; user
// commands must stay out of it.
const reservedCommandPrefix = "sessionproxy.command."

// controllerProxy is the tier-parameterized implementation behind a
// Controller. One mutex guards the extended channel handle, the pending
// registration queue and the registration map: the caller threads and the
// negotiation result mutate all three and must not interleave.
type controllerProxy struct {
	base     transport.Channel
	features tierFeatures
	policy   Policy
	log      logger.LoggerInterface

	// flags is the remote capability bitset, fetched once at construction.
	flags int64

	mu             sync.Mutex
	extended       transport.Channel
	remoteVersion  int
	sessionReady   bool
	pending        []*registration
	regs           map[*Callback]*registration
	everRegistered map[*Callback]struct{}
	disposed       bool

	pkgOnce sync.Once
	pkgName string
}

// newControllerProxy binds the one proxy variant the capability level
// selects. The only side effect besides construction is the capability
// query that both validates reachability and caches the flag bitset.
func newControllerProxy(level CapabilityLevel, ch transport.Channel, policy Policy, log logger.LoggerInterface) (*controllerProxy, error) {
	p := &controllerProxy{
		base:           ch,
		features:       featuresForLevel(clampLevel(level)),
		policy:         policy,
		log:            log,
		regs:           make(map[*Callback]*registration),
		everRegistered: make(map[*Callback]struct{}),
	}
	resp, err := ch.Invoke(transport.MethodGetFlags, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnreachable, err)
	}
	p.flags = resp.GetInt(transport.KeyValue)
	if p.features.negotiatesExtendedChannel {
		p.requestExtendedChannel()
	}
	return p, nil
}

// dispose tears the proxy down: a late negotiation result finding the
// disposed flag set leaves everything alone.
func (p *controllerProxy) dispose() {
	p.mu.Lock()
	p.disposed = true
	regs := make([]*registration, 0, len(p.regs))
	for _, reg := range p.regs {
		regs = append(regs, reg)
	}
	p.regs = make(map[*Callback]*registration)
	p.pending = nil
	p.mu.Unlock()
	for _, reg := range regs {
		p.detach(reg)
	}
}

// --- capability negotiation ---

// requestExtendedChannel issues the single negotiation command. There is no
// retry: a remote that never answers leaves the controller in base-tier
// mode for its whole life.
func (p *controllerProxy) requestExtendedChannel() {
	args := commandEnvelope(transport.CommandGetExtendedChannel, nil,
		transport.ResultReceiver(p.onNegotiationResult))
	if err := p.base.InvokeOneWay(transport.MethodSendCommand, args); err != nil {
		p.log.PrintError("requestExtendedChannel", err)
	}
}

// onNegotiationResult runs on the transport's delivery goroutine. First
// write wins; an empty result means the remote predates the extended
// channel and is ignored.
func (p *controllerProxy) onNegotiationResult(code int, data *bundle.Bundle) {
	if data.IsEmpty() {
		return
	}
	ext, ok := data.GetOpaque(transport.KeyExtendedChannel).(transport.Channel)
	if !ok {
		return
	}
	version := int(data.GetInt(transport.KeyRemoteVersion))

	p.mu.Lock()
	if p.disposed || p.extended != nil {
		p.mu.Unlock()
		return
	}
	p.extended = ext
	p.remoteVersion = version
	p.sessionReady = true
	pending := p.pending
	p.pending = nil
	for _, reg := range pending {
		p.attachExtendedLocked(reg)
	}
	live := make([]*registration, 0, len(p.regs))
	for _, reg := range p.regs {
		live = append(live, reg)
	}
	p.mu.Unlock()

	for _, reg := range live {
		reg.deliver(transport.Event{Kind: transport.EventSessionReady})
	}
}

// attachExtendedLocked adds the extended sink for one registration and
// flips its suppression state. Caller holds p.mu.
func (p *controllerProxy) attachExtendedLocked(reg *registration) {
	sink := &extendedChannelSink{reg: reg}
	if err := p.extended.RegisterEventSink(sink); err != nil {
		p.log.PrintError("attachExtended", err)
		return
	}
	reg.extSink = sink
	reg.keepBaseSessionEvents.Store(p.remoteVersion < p.policy.SessionEventCutover)
	reg.hasExtended.Store(true)
}

// --- callback registry ---

func (p *controllerProxy) registerCallback(cb *Callback, target *dispatch.Queue) error {
	if cb == nil {
		return fmt.Errorf("%w: callback may not be nil", ErrInvalidArgument)
	}

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return fmt.Errorf("%w: controller is closed", ErrInvalidArgument)
	}
	if _, live := p.regs[cb]; live {
		p.mu.Unlock()
		return fmt.Errorf("%w: callback is already registered", ErrInvalidArgument)
	}

	reg := newRegistration(cb, target, p.log)
	reg.registered.Store(true)
	reg.baseSink = &baseChannelSink{reg: reg}
	p.regs[cb] = reg
	p.everRegistered[cb] = struct{}{}

	if err := p.base.RegisterEventSink(reg.baseSink); err != nil {
		// Dead remote: the registration exists, sees the terminal event
		// and nothing else.
		p.log.PrintError("registerCallback", err)
		p.mu.Unlock()
		reg.deliverDestroyed()
		return nil
	}
	reg.cancelDeath = p.base.OnRemoteDeath(reg.deliverDestroyed)

	ready := p.sessionReady
	if p.extended != nil {
		p.attachExtendedLocked(reg)
	} else if p.features.negotiatesExtendedChannel {
		p.pending = append(p.pending, reg)
	}
	p.mu.Unlock()

	if ready {
		reg.deliver(transport.Event{Kind: transport.EventSessionReady})
	}
	return nil
}

func (p *controllerProxy) unregisterCallback(cb *Callback) error {
	if cb == nil {
		return fmt.Errorf("%w: callback may not be nil", ErrInvalidArgument)
	}

	p.mu.Lock()
	reg, live := p.regs[cb]
	if !live {
		_, seen := p.everRegistered[cb]
		p.mu.Unlock()
		if !seen {
			return fmt.Errorf("%w: callback was never registered", ErrInvalidArgument)
		}
		return nil
	}
	delete(p.regs, cb)
	for i, pend := range p.pending {
		if pend == reg {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			break
		}
	}
	p.mu.Unlock()

	p.detach(reg)
	return nil
}

func (p *controllerProxy) detach(reg *registration) {
	reg.registered.Store(false)
	if reg.cancelDeath != nil {
		reg.cancelDeath()
	}
	if err := p.base.UnregisterEventSink(reg.baseSink); err != nil {
		p.log.PrintError("unregisterCallback", err)
	}
	if reg.extSink != nil {
		p.mu.Lock()
		ext := p.extended
		p.mu.Unlock()
		if ext != nil {
			if err := ext.UnregisterEventSink(reg.extSink); err != nil {
				p.log.PrintError("unregisterCallback", err)
			}
		}
	}
	if reg.ownsTarget {
		// Close drains in-flight messages first; done off the caller's
		// goroutine so an unregister from inside a callback cannot wait
		// on its own queue.
		go reg.target.Close()
	}
}

// --- queries ---

// queryChannel picks the channel a query goes to: the extended one when the
// tier prefers it and negotiation has completed, the base one otherwise.
func (p *controllerProxy) queryChannel(preferExtended bool) transport.Channel {
	if !preferExtended {
		return p.base
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.extended != nil {
		return p.extended
	}
	return p.base
}

// query runs one round trip, degrading to a nil bundle when the remote is
// gone. This is the uniform resilience policy: after construction, remote
// death never propagates to callers.
func (p *controllerProxy) query(source string, method transport.MethodID, preferExtended bool) *bundle.Bundle {
	ch := p.queryChannel(preferExtended)
	resp, err := ch.Invoke(method, nil)
	if err == nil {
		return resp
	}
	if preferExtended && ch != p.base {
		// Extended path failed; the base channel may still be alive.
		if resp, retryErr := p.base.Invoke(method, nil); retryErr == nil {
			return resp
		}
	}
	p.log.PrintError(source, err)
	return nil
}

func (p *controllerProxy) playbackState() *mediastate.PlaybackState {
	resp := p.query("getPlaybackState", transport.MethodGetPlaybackState, p.features.stateViaExtended)
	var s mediastate.PlaybackState
	if !decodeValue(resp, &s) {
		return nil
	}
	return &s
}

func (p *controllerProxy) metadata() *mediastate.Metadata {
	resp := p.query("getMetadata", transport.MethodGetMetadata, false)
	var m mediastate.Metadata
	if !decodeValue(resp, &m) {
		return nil
	}
	return &m
}

func (p *controllerProxy) queue() []mediastate.QueueItem {
	resp := p.query("getQueue", transport.MethodGetQueue, false)
	var q []mediastate.QueueItem
	if !decodeValue(resp, &q) {
		return nil
	}
	return q
}

func (p *controllerProxy) queueTitle() string {
	return p.query("getQueueTitle", transport.MethodGetQueueTitle, false).
		GetString(transport.KeyValue)
}

func (p *controllerProxy) extras() *bundle.Bundle {
	return p.query("getExtras", transport.MethodGetExtras, false).
		GetBundle(transport.KeyValue)
}

func (p *controllerProxy) ratingType() int {
	return int(p.query("getRatingType", transport.MethodGetRatingType,
		p.features.ratingTypeViaExtended).GetInt(transport.KeyValue))
}

func (p *controllerProxy) repeatMode() int {
	return int(p.query("getRepeatMode", transport.MethodGetRepeatMode,
		p.features.stateViaExtended).GetInt(transport.KeyValue))
}

func (p *controllerProxy) shuffleModeEnabled() bool {
	return p.query("isShuffleModeEnabled", transport.MethodIsShuffleModeEnabled,
		p.features.stateViaExtended).GetBool(transport.KeyValue)
}

func (p *controllerProxy) captioningEnabled() bool {
	return p.query("isCaptioningEnabled", transport.MethodIsCaptioningEnabled,
		p.features.stateViaExtended).GetBool(transport.KeyValue)
}

func (p *controllerProxy) playbackInfo() *mediastate.PlaybackInfo {
	resp := p.query("getPlaybackInfo", transport.MethodGetPlaybackInfo, false)
	var info mediastate.PlaybackInfo
	if !decodeValue(resp, &info) {
		return nil
	}
	return &info
}

func (p *controllerProxy) sessionActivity() string {
	return p.query("getSessionActivity", transport.MethodGetSessionActivity, false).
		GetString(transport.KeyValue)
}

func (p *controllerProxy) packageName() string {
	p.pkgOnce.Do(func() {
		p.pkgName = p.query("getPackageName", transport.MethodGetPackageName, false).
			GetString(transport.KeyValue)
	})
	return p.pkgName
}

func (p *controllerProxy) isSessionReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionReady
}

// --- commands ---

// send is the uniform one-way path: remote-gone is logged and swallowed.
func (p *controllerProxy) send(source string, method transport.MethodID, args *bundle.Bundle) error {
	if err := p.base.InvokeOneWay(method, args); err != nil {
		p.log.PrintError(source, err)
	}
	return nil
}

func (p *controllerProxy) setVolumeTo(value, flags int) error {
	return p.send("setVolumeTo", transport.MethodSetVolumeTo, bundle.New().
		PutInt(transport.KeyVolumeValue, int64(value)).
		PutInt(transport.KeyVolumeFlags, int64(flags)))
}

func (p *controllerProxy) adjustVolume(direction, flags int) error {
	return p.send("adjustVolume", transport.MethodAdjustVolume, bundle.New().
		PutInt(transport.KeyDirection, int64(direction)).
		PutInt(transport.KeyVolumeFlags, int64(flags)))
}

func (p *controllerProxy) dispatchMediaButton(keyCode int) error {
	if keyCode == 0 {
		return fmt.Errorf("%w: key code may not be zero", ErrInvalidArgument)
	}
	return p.send("dispatchMediaButton", transport.MethodSendMediaButton,
		bundle.New().PutInt(transport.KeyMediaButton, int64(keyCode)))
}

func (p *controllerProxy) sendCommand(name string, params *bundle.Bundle, result transport.ResultReceiver) error {
	if name == "" {
		return fmt.Errorf("%w: command name may not be empty", ErrInvalidArgument)
	}
	if strings.HasPrefix(name, reservedCommandPrefix) {
		return fmt.Errorf("%w: command name %q is reserved", ErrInvalidArgument, name)
	}
	return p.sendCommandRaw(name, params, result)
}

func (p *controllerProxy) sendCommandRaw(name string, params *bundle.Bundle, result transport.ResultReceiver) error {
	return p.send("sendCommand", transport.MethodSendCommand,
		commandEnvelope(name, params, result))
}

func commandEnvelope(name string, params *bundle.Bundle, result transport.ResultReceiver) *bundle.Bundle {
	args := bundle.New().PutString(transport.KeyCommandName, name)
	if params != nil {
		args.PutBundle(transport.KeyCommandParams, params)
	}
	if result != nil {
		args.PutOpaque(transport.KeyResultReceiver, result)
	}
	return args
}

// --- queue mutation ---

func (p *controllerProxy) queueEditingAllowed() bool {
	return p.flags&mediastate.FlagHandlesQueueCommands != 0
}

func (p *controllerProxy) addQueueItem(desc *mediastate.MediaDescription, index int, atIndex bool) error {
	if desc == nil || desc.MediaID == "" {
		return fmt.Errorf("%w: description needs a media id", ErrInvalidArgument)
	}
	if !p.queueEditingAllowed() {
		return fmt.Errorf("%w: queue management", ErrUnsupportedByRemote)
	}
	enc, err := cbor.Marshal(desc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if p.features.queueMutationPrimitive {
		args := bundle.New().PutBytes(transport.KeyCommandDescription, enc)
		method := transport.MethodAddQueueItem
		if atIndex {
			args.PutInt(transport.KeyCommandIndex, int64(index))
			method = transport.MethodAddQueueItemAt
		}
		return p.send("addQueueItem", method, args)
	}
	params := bundle.New().PutBytes(transport.KeyCommandDescription, enc)
	command := transport.CommandAddQueueItem
	if atIndex {
		params.PutInt(transport.KeyCommandIndex, int64(index))
		command = transport.CommandAddQueueItemAt
	}
	return p.sendCommandRaw(command, params, nil)
}

func (p *controllerProxy) removeQueueItem(desc *mediastate.MediaDescription) error {
	if desc == nil || desc.MediaID == "" {
		return fmt.Errorf("%w: description needs a media id", ErrInvalidArgument)
	}
	if !p.queueEditingAllowed() {
		return fmt.Errorf("%w: queue management", ErrUnsupportedByRemote)
	}
	enc, err := cbor.Marshal(desc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	args := bundle.New().PutBytes(transport.KeyCommandDescription, enc)
	if p.features.queueMutationPrimitive {
		return p.send("removeQueueItem", transport.MethodRemoveQueueItem, args)
	}
	return p.sendCommandRaw(transport.CommandRemoveQueueItem, args, nil)
}

func (p *controllerProxy) removeQueueItemAt(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: index may not be negative", ErrInvalidArgument)
	}
	if !p.queueEditingAllowed() {
		return fmt.Errorf("%w: queue management", ErrUnsupportedByRemote)
	}
	args := bundle.New().PutInt(transport.KeyCommandIndex, int64(index))
	if p.features.queueMutationPrimitive {
		return p.send("removeQueueItemAt", transport.MethodRemoveQueueItemAt, args)
	}
	return p.sendCommandRaw(transport.CommandRemoveQueueItemAt, args, nil)
}

// decodeValue unpacks a CBOR-encoded snapshot from a query response.
func decodeValue(resp *bundle.Bundle, v interface{}) bool {
	raw := resp.GetBytes(transport.KeyValue)
	if len(raw) == 0 {
		return false
	}
	if err := cbor.Unmarshal(raw, v); err != nil {
		return false
	}
	return true
}
