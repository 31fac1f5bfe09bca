// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package dbuschannel

import (
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

type captureSink struct {
	mu     sync.Mutex
	events []transport.Event
}

func (s *captureSink) Deliver(ev transport.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) snapshot() []transport.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transport.Event, len(s.events))
	copy(out, s.events)
	return out
}

// newPumpChannel builds a channel without a bus connection and feeds its
// pump by hand, the way the connection's signal stream would.
func newPumpChannel(t *testing.T, path dbus.ObjectPath) (*channel, chan *dbus.Signal) {
	t.Helper()
	c := &channel{
		dest:  "org.example.Player",
		path:  path,
		log:   logger.Discard(),
		death: make(map[int64]func()),
	}
	signals := make(chan *dbus.Signal, 8)
	go c.pump(signals)
	t.Cleanup(func() { close(signals) })
	return c, signals
}

func queueTitleSignal(t *testing.T, path dbus.ObjectPath, title string) *dbus.Signal {
	t.Helper()
	payload, err := cbor.Marshal(title)
	require.NoError(t, err)
	return &dbus.Signal{
		Path: path,
		Name: signalEvent,
		Body: []interface{}{uint32(transport.EventQueueTitle), payload},
	}
}

func TestPumpDeliversOnlyItsOwnObjectPath(t *testing.T) {
	c, signals := newPumpChannel(t, ObjectPath)
	sink := &captureSink{}
	require.NoError(t, c.RegisterEventSink(sink))

	// the extended channel lives on its own path behind the same connection;
	// its events must never reach a base-channel sink
	extPath := dbus.ObjectPath(string(ObjectPath) + "/extended/42")
	signals <- queueTitleSignal(t, extPath, "not mine")
	signals <- queueTitleSignal(t, ObjectPath, "mine")

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, transport.EventQueueTitle, events[0].Kind)
	assert.Equal(t, "mine", events[0].QueueTitle)
}

func TestPumpNameOwnerChangeFiresDeath(t *testing.T) {
	c, signals := newPumpChannel(t, ObjectPath)

	died := make(chan struct{})
	c.OnRemoteDeath(func() { close(died) })

	signals <- &dbus.Signal{
		Name: "org.freedesktop.DBus.NameOwnerChanged",
		Body: []interface{}{"org.example.Player", ":1.5", ""},
	}

	select {
	case <-died:
	case <-time.After(2 * time.Second):
		t.Fatal("death notification never fired")
	}
	_, err := c.Invoke(transport.MethodGetPlaybackState, nil)
	assert.ErrorIs(t, err, transport.ErrRemoteGone)
}

func TestDecodeEvent(t *testing.T) {
	statePayload, err := cbor.Marshal(mediastate.PlaybackState{
		State:      mediastate.StatePlaying,
		PositionMs: 42,
	})
	require.NoError(t, err)

	ev, err := decodeEvent([]interface{}{uint32(transport.EventPlaybackState), statePayload})
	require.NoError(t, err)
	require.NotNil(t, ev.State)
	assert.Equal(t, mediastate.StatePlaying, ev.State.State)
	assert.EqualValues(t, 42, ev.State.PositionMs)

	_, err = decodeEvent([]interface{}{uint32(transport.EventPlaybackState)})
	assert.Error(t, err)
	_, err = decodeEvent([]interface{}{"not a kind", statePayload})
	assert.Error(t, err)
	_, err = decodeEvent([]interface{}{uint32(999), []byte{}})
	assert.Error(t, err)
}
