// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/dispatch"
	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/transport"
)

// stubChannel lets tests hold the negotiation reply and fire it by hand.
type stubChannel struct {
	mu          sync.Mutex
	flags       int64
	invocations []transport.MethodID
	receiver    transport.ResultReceiver
	sinks       []transport.EventSink
}

func (s *stubChannel) Invoke(method transport.MethodID, args *bundle.Bundle) (*bundle.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invocations = append(s.invocations, method)
	switch method {
	case transport.MethodGetFlags:
		return bundle.New().PutInt(transport.KeyValue, s.flags), nil
	case transport.MethodSendCommand:
		if args.GetString(transport.KeyCommandName) == transport.CommandGetExtendedChannel {
			s.receiver, _ = args.GetOpaque(transport.KeyResultReceiver).(transport.ResultReceiver)
		}
	}
	return bundle.New(), nil
}

func (s *stubChannel) InvokeOneWay(method transport.MethodID, args *bundle.Bundle) error {
	_, err := s.Invoke(method, args)
	return err
}

func (s *stubChannel) RegisterEventSink(sink transport.EventSink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
	return nil
}

func (s *stubChannel) UnregisterEventSink(sink transport.EventSink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.sinks {
		if existing == sink {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubChannel) OnRemoteDeath(fn func()) (cancel func()) {
	return func() {}
}

func (s *stubChannel) sinkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sinks)
}

func (s *stubChannel) negotiationReceiver() transport.ResultReceiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiver
}

func (s *stubChannel) methods() []transport.MethodID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transport.MethodID, len(s.invocations))
	copy(out, s.invocations)
	return out
}

func negotiationResult(ext transport.Channel, version int) *bundle.Bundle {
	return bundle.New().
		PutInt(transport.KeyRemoteVersion, int64(version)).
		PutOpaque(transport.KeyExtendedChannel, ext)
}

func newStubController(t *testing.T, base *stubChannel, level CapabilityLevel) *Controller {
	t.Helper()
	c, err := NewController(transport.Token{Scheme: "stub", Addr: "test"},
		WithChannel(base),
		WithCapabilityLevel(level),
		WithLogger(logger.Discard()))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestBaseTierDoesNotNegotiate(t *testing.T) {
	base := &stubChannel{}
	newStubController(t, base, TierBase)

	assert.Nil(t, base.negotiationReceiver())
	assert.Equal(t, []transport.MethodID{transport.MethodGetFlags}, base.methods())
}

func TestPendingRegistrationsReplayOnNegotiation(t *testing.T) {
	base := &stubChannel{}
	ext := &stubChannel{}
	c := newStubController(t, base, TierExtendedChannel)

	receiver := base.negotiationReceiver()
	require.NotNil(t, receiver)
	assert.False(t, c.IsSessionReady())

	rec := &recorder{}
	cb := rec.callback()
	q := dispatch.NewQueue()
	defer q.Close()
	require.NoError(t, c.RegisterCallback(cb, q))

	// registered before the result: base sink attached, extended pending
	assert.Equal(t, 1, base.sinkCount())
	assert.Zero(t, ext.sinkCount())

	receiver(0, negotiationResult(ext, 2))
	q.Flush()

	assert.True(t, c.IsSessionReady())
	assert.Equal(t, 1, ext.sinkCount())
	assert.Equal(t, []string{"ready"}, rec.get())
}

func TestNegotiationFirstWriteWins(t *testing.T) {
	base := &stubChannel{}
	first := &stubChannel{}
	second := &stubChannel{}
	c := newStubController(t, base, TierExtendedChannel)
	receiver := base.negotiationReceiver()
	require.NotNil(t, receiver)

	receiver(0, negotiationResult(first, 2))

	rec := &recorder{}
	cb := rec.callback()
	q := dispatch.NewQueue()
	defer q.Close()
	require.NoError(t, c.RegisterCallback(cb, q))
	require.Equal(t, 1, first.sinkCount())

	// a duplicate reply must not rebind anything
	receiver(0, negotiationResult(second, 3))
	assert.Equal(t, 1, first.sinkCount())
	assert.Zero(t, second.sinkCount())
}

func TestNegotiationEmptyResultIgnored(t *testing.T) {
	base := &stubChannel{}
	c := newStubController(t, base, TierExtendedChannel)
	receiver := base.negotiationReceiver()
	require.NotNil(t, receiver)

	// an empty result is how a remote predating the extended channel answers
	receiver(0, bundle.New())
	assert.False(t, c.IsSessionReady())

	receiver(0, nil)
	assert.False(t, c.IsSessionReady())
}

func TestLateNegotiationResultAfterClose(t *testing.T) {
	base := &stubChannel{}
	ext := &stubChannel{}
	c := newStubController(t, base, TierExtendedChannel)
	receiver := base.negotiationReceiver()
	require.NotNil(t, receiver)

	c.Close()
	receiver(0, negotiationResult(ext, 2))

	assert.False(t, c.IsSessionReady())
	assert.Zero(t, ext.sinkCount())
}

func TestLateRegistrationSeesSessionReady(t *testing.T) {
	base := &stubChannel{}
	ext := &stubChannel{}
	c := newStubController(t, base, TierExtendedChannel)
	receiver := base.negotiationReceiver()
	require.NotNil(t, receiver)
	receiver(0, negotiationResult(ext, 2))

	rec := &recorder{}
	cb := rec.callback()
	q := dispatch.NewQueue()
	defer q.Close()
	require.NoError(t, c.RegisterCallback(cb, q))
	q.Flush()

	assert.Equal(t, []string{"ready"}, rec.get())
	assert.Equal(t, 1, ext.sinkCount())
}
