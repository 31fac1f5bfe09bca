// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package sessionproxy

import (
	"errors"
	"fmt"
	"os"

	"github.com/ferrite-audio/sessionproxy/logger"
)

var (
	// ErrInvalidArgument reports a nil or empty required parameter. It is
	// the caller's bug and surfaces synchronously.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSessionUnreachable reports a construction-time failure to bind a
	// session token. After construction, remote failures are swallowed and
	// logged instead.
	ErrSessionUnreachable = errors.New("session unreachable")

	// ErrUnsupportedByRemote reports an operation gated on a capability
	// flag the remote did not advertise. No remote call is made.
	ErrUnsupportedByRemote = errors.New("operation not supported by the remote session")

	// ErrProtocolViolation reports an internal event arriving on a channel
	// that never carries it. A programming-contract failure, not user
	// input: with debug checks on it panics, otherwise it is logged.
	ErrProtocolViolation = errors.New("protocol violation")
)

var debugChecks = os.Getenv("SESSIONPROXY_DEBUG") != ""

func protocolViolation(log logger.LoggerInterface, format string, as ...interface{}) {
	err := fmt.Errorf("%w: %s", ErrProtocolViolation, fmt.Sprintf(format, as...))
	if debugChecks {
		panic(err)
	}
	if log != nil {
		log.PrintError("protocol", err)
	}
}
