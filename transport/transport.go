// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package transport defines the contract between the controller core and a
// concrete IPC mechanism. A Channel is an opaque bidirectional handle to one
// remote session; implementations (loopback, dbuschannel) own the wire format
// and must deliver events to each registered sink in production order.
package transport

import (
	"errors"

	"github.com/ferrite-audio/sessionproxy/bundle"
)

// ErrRemoteGone is reported by a Channel when the remote endpoint is dead.
// The controller swallows it at the proxy boundary; it never reaches callers.
var ErrRemoteGone = errors.New("remote session endpoint is gone")

// Channel is the five-operation handle to a remote session.
//
// Invoke blocks for a round trip. InvokeOneWay returns after the send is
// queued. Event delivery order within one registered sink matches the order
// the remote produced the events; no guarantee holds across sinks. The
// goroutine delivering events is the implementation's own and is never the
// caller's.
type Channel interface {
	Invoke(method MethodID, args *bundle.Bundle) (*bundle.Bundle, error)
	InvokeOneWay(method MethodID, args *bundle.Bundle) error
	RegisterEventSink(sink EventSink) error
	UnregisterEventSink(sink EventSink) error

	// OnRemoteDeath arranges for fn to run once when the remote endpoint
	// dies. If the endpoint is already dead, fn runs asynchronously right
	// away. The returned func cancels the subscription.
	OnRemoteDeath(fn func()) (cancel func())
}

// EventSink receives session events on the channel's delivery goroutine.
// Implementations must not block for long; they are expected to enqueue.
type EventSink interface {
	Deliver(ev Event)
}

// ResultReceiver is the one-shot sink for a generic command's result. It is
// passed in-process through a bundle's opaque storage and invoked at most
// once, on the channel's delivery goroutine.
type ResultReceiver func(code int, data *bundle.Bundle)

// Reserved bundle key carrying a ResultReceiver through SendCommand.
const KeyResultReceiver = "sessionproxy.transport.RESULT_RECEIVER"

// Reserved bundle key under which a negotiation result carries the extended
// Channel handle (opaque, in-process only).
const KeyExtendedChannel = "sessionproxy.transport.EXTENDED_CHANNEL"

// Reserved bundle key reporting the remote implementation version ordinal in
// a negotiation result.
const KeyRemoteVersion = "sessionproxy.transport.REMOTE_VERSION"
