// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package dbuschannel carries the session channel contract over the D-Bus
// session bus. A session host exports one object per session; method calls
// map onto the org.ferriteaudio.SessionProxy1 interface with CBOR bundle
// payloads, events arrive as Event signals, and remote death falls out of
// NameOwnerChanged.
package dbuschannel

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/godbus/dbus/v5"

	"github.com/ferrite-audio/sessionproxy/bundle"
	"github.com/ferrite-audio/sessionproxy/logger"
	"github.com/ferrite-audio/sessionproxy/mediastate"
	"github.com/ferrite-audio/sessionproxy/transport"
)

const (
	Scheme = "dbus"

	Interface   = "org.ferriteaudio.SessionProxy1"
	ObjectPath  = dbus.ObjectPath("/org/ferriteaudio/SessionProxy")
	signalEvent = Interface + ".Event"

	// keyExtendedPath is where a session's negotiation reply names the
	// object path of its extended channel.
	keyExtendedPath = "sessionproxy.dbus.EXTENDED_PATH"
)

var registerOnce sync.Once

// Register installs the dbus token scheme. The token address is the bus
// name owning the session, e.g. "org.ferriteaudio.SessionProxy.myplayer".
func Register(log logger.LoggerInterface) {
	registerOnce.Do(func() {
		transport.RegisterScheme(Scheme, func(addr string) (transport.Channel, error) {
			return Dial(addr, log)
		})
	})
}

type channel struct {
	conn *dbus.Conn
	dest string
	path dbus.ObjectPath
	log  logger.LoggerInterface

	mu    sync.Mutex
	sinks []transport.EventSink
	death map[int64]func()
	next  int64
	dead  bool
}

// Dial connects to the session bus and binds the session exported by dest.
func Dial(dest string, log logger.LoggerInterface) (transport.Channel, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	c, err := newChannel(conn, dest, ObjectPath, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func newChannel(conn *dbus.Conn, dest string, path dbus.ObjectPath, log logger.LoggerInterface) (*channel, error) {
	c := &channel{
		conn:  conn,
		dest:  dest,
		path:  path,
		log:   log,
		death: make(map[int64]func()),
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchSender(dest),
	); err != nil {
		return nil, err
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, dest),
	); err != nil {
		return nil, err
	}
	signals := make(chan *dbus.Signal, 64)
	conn.Signal(signals)
	go c.pump(signals)
	return c, nil
}

// pump is the delivery goroutine: one reader keeps per-sink ordering equal
// to bus order.
func (c *channel) pump(signals chan *dbus.Signal) {
	for sig := range signals {
		switch sig.Name {
		case signalEvent:
			// one bus connection serves the base and the extended channel;
			// every pump sees every matched signal, so only the ones
			// addressed to this channel's object belong here
			if sig.Path != c.path {
				continue
			}
			ev, err := decodeEvent(sig.Body)
			if err != nil {
				c.log.PrintError("dbus event", err)
				continue
			}
			c.mu.Lock()
			sinks := make([]transport.EventSink, len(c.sinks))
			copy(sinks, c.sinks)
			c.mu.Unlock()
			for _, s := range sinks {
				s.Deliver(ev)
			}
		case "org.freedesktop.DBus.NameOwnerChanged":
			if len(sig.Body) == 3 {
				if newOwner, ok := sig.Body[2].(string); ok && newOwner == "" {
					c.remoteDied()
				}
			}
		}
	}
}

func (c *channel) remoteDied() {
	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		return
	}
	c.dead = true
	fns := make([]func(), 0, len(c.death))
	for _, fn := range c.death {
		fns = append(fns, fn)
	}
	c.death = make(map[int64]func())
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *channel) isDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dead
}

func (c *channel) Invoke(method transport.MethodID, args *bundle.Bundle) (*bundle.Bundle, error) {
	if c.isDead() {
		return nil, transport.ErrRemoteGone
	}
	// A result receiver cannot ride an opaque bundle value across the bus;
	// commands carrying one become a synchronous round trip instead.
	if method == transport.MethodSendCommand && args.GetOpaque(transport.KeyResultReceiver) != nil {
		return nil, c.sendCommandRoundTrip(args)
	}
	payload, err := args.Marshal()
	if err != nil {
		return nil, err
	}
	obj := c.conn.Object(c.dest, c.path)
	var reply []byte
	call := obj.Call(Interface+"."+method.String(), 0, payload)
	if call.Err != nil {
		return nil, mapError(call.Err)
	}
	if err := call.Store(&reply); err != nil {
		return nil, err
	}
	return bundle.Unmarshal(reply)
}

func (c *channel) InvokeOneWay(method transport.MethodID, args *bundle.Bundle) error {
	if c.isDead() {
		return transport.ErrRemoteGone
	}
	if method == transport.MethodSendCommand && args.GetOpaque(transport.KeyResultReceiver) != nil {
		return c.sendCommandRoundTrip(args)
	}
	payload, err := args.Marshal()
	if err != nil {
		return err
	}
	obj := c.conn.Object(c.dest, c.path)
	call := obj.Call(Interface+"."+method.String(), dbus.FlagNoReplyExpected, payload)
	return mapError(call.Err)
}

// sendCommandRoundTrip translates a command with a one-shot result sink
// into a replied bus call, then hands the reply to the receiver on a fresh
// goroutine (the bus reply context stands in for the IPC delivery thread).
// A reply naming an extended object path is rebuilt into a second channel
// before the receiver sees it.
func (c *channel) sendCommandRoundTrip(args *bundle.Bundle) error {
	receiver, _ := args.GetOpaque(transport.KeyResultReceiver).(transport.ResultReceiver)
	payload, err := args.Marshal()
	if err != nil {
		return err
	}
	obj := c.conn.Object(c.dest, c.path)
	go func() {
		var code int32
		var reply []byte
		call := obj.Call(Interface+".SendCommand", 0, payload)
		if call.Err != nil {
			c.log.PrintError("sendCommand", mapError(call.Err))
			return
		}
		if err := call.Store(&code, &reply); err != nil {
			c.log.PrintError("sendCommand", err)
			return
		}
		result, err := bundle.Unmarshal(reply)
		if err != nil {
			c.log.PrintError("sendCommand", err)
			return
		}
		if path := result.GetString(keyExtendedPath); path != "" {
			ext, err := newChannel(c.conn, c.dest, dbus.ObjectPath(path), c.log)
			if err != nil {
				c.log.PrintError("extended channel", err)
			} else {
				result.PutOpaque(transport.KeyExtendedChannel, transport.Channel(ext))
			}
		}
		if receiver != nil {
			receiver(int(code), result)
		}
	}()
	return nil
}

func (c *channel) RegisterEventSink(sink transport.EventSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return transport.ErrRemoteGone
	}
	c.sinks = append(c.sinks, sink)
	return nil
}

func (c *channel) UnregisterEventSink(sink transport.EventSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.sinks {
		if s == sink {
			c.sinks = append(c.sinks[:i], c.sinks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *channel) OnRemoteDeath(fn func()) (cancel func()) {
	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		go fn()
		return func() {}
	}
	c.next++
	id := c.next
	c.death[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.death, id)
		c.mu.Unlock()
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if dbusErr, ok := err.(dbus.Error); ok {
		switch dbusErr.Name {
		case "org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.NameHasNoOwner",
			"org.freedesktop.DBus.Error.NoReply",
			"org.freedesktop.DBus.Error.Disconnected":
			return transport.ErrRemoteGone
		}
	}
	return err
}

// decodeEvent unpacks an Event signal body: a kind ordinal plus a CBOR
// payload whose shape depends on the kind.
func decodeEvent(body []interface{}) (transport.Event, error) {
	var ev transport.Event
	if len(body) != 2 {
		return ev, fmt.Errorf("event signal body has %d members", len(body))
	}
	kind, ok := body[0].(uint32)
	if !ok {
		return ev, fmt.Errorf("event kind is %T, not uint32", body[0])
	}
	payload, ok := body[1].([]byte)
	if !ok {
		return ev, fmt.Errorf("event payload is %T, not bytes", body[1])
	}
	ev.Kind = transport.EventKind(kind)
	switch ev.Kind {
	case transport.EventSession:
		var msg struct {
			Name   string `cbor:"name"`
			Extras []byte `cbor:"extras"`
		}
		if err := cbor.Unmarshal(payload, &msg); err != nil {
			return ev, err
		}
		ev.Name = msg.Name
		if len(msg.Extras) > 0 {
			extras, err := bundle.Unmarshal(msg.Extras)
			if err != nil {
				return ev, err
			}
			ev.Extras = extras
		}
	case transport.EventPlaybackState:
		var s mediastate.PlaybackState
		if err := cbor.Unmarshal(payload, &s); err != nil {
			return ev, err
		}
		ev.State = &s
	case transport.EventMetadata:
		var m mediastate.Metadata
		if err := cbor.Unmarshal(payload, &m); err != nil {
			return ev, err
		}
		ev.Metadata = &m
	case transport.EventQueue:
		if err := cbor.Unmarshal(payload, &ev.Queue); err != nil {
			return ev, err
		}
	case transport.EventQueueTitle:
		if err := cbor.Unmarshal(payload, &ev.QueueTitle); err != nil {
			return ev, err
		}
	case transport.EventExtras:
		extras, err := bundle.Unmarshal(payload)
		if err != nil {
			return ev, err
		}
		ev.Extras = extras
	case transport.EventVolume:
		var info mediastate.PlaybackInfo
		if err := cbor.Unmarshal(payload, &info); err != nil {
			return ev, err
		}
		ev.Info = &info
	case transport.EventRepeatMode:
		if err := cbor.Unmarshal(payload, &ev.RepeatMode); err != nil {
			return ev, err
		}
	case transport.EventShuffleMode:
		if err := cbor.Unmarshal(payload, &ev.ShuffleEnabled); err != nil {
			return ev, err
		}
	case transport.EventCaptioning:
		if err := cbor.Unmarshal(payload, &ev.CaptioningEnabled); err != nil {
			return ev, err
		}
	case transport.EventDestroyed:
		// no payload
	default:
		return ev, fmt.Errorf("unknown event kind %d", kind)
	}
	return ev, nil
}
