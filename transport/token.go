// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Token identifies a remote session. It is immutable and may be handed to
// another process: Scheme names the transport mechanism and Addr is whatever
// that mechanism needs to find the session again.
type Token struct {
	Scheme string `cbor:"scheme"`
	Addr   string `cbor:"addr"`
}

func (t Token) String() string {
	return t.Scheme + "://" + t.Addr
}

// tokenWire strips Token's Binary(Un)Marshaler methods so the cbor codec
// encodes the struct fields instead of calling back into them.
type tokenWire Token

func (t Token) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(tokenWire(t))
}

func (t *Token) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*tokenWire)(t))
}

// Resolver opens a Channel to the session a token's Addr names.
type Resolver func(addr string) (Channel, error)

var (
	resolverMu sync.RWMutex
	resolvers  = make(map[string]Resolver)
)

// ErrUnknownScheme means no transport registered a resolver for the token's
// scheme in this process.
var ErrUnknownScheme = errors.New("no transport registered for token scheme")

// RegisterScheme installs the resolver for a token scheme. Transports call
// this from their package init or setup path; last registration wins.
func RegisterScheme(scheme string, r Resolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	resolvers[scheme] = r
}

// Dial opens a Channel to the session the token names.
func Dial(token Token) (Channel, error) {
	resolverMu.RLock()
	r, ok := resolvers[token.Scheme]
	resolverMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, token.Scheme)
	}
	return r(token.Addr)
}
