// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBinaryRoundTrip(t *testing.T) {
	token := Token{Scheme: "dbus", Addr: "org.example.Player"}
	enc, err := token.MarshalBinary()
	require.NoError(t, err)

	var got Token
	require.NoError(t, got.UnmarshalBinary(enc))
	assert.Equal(t, token, got)
	assert.Equal(t, "dbus://org.example.Player", got.String())
}

func TestDialUnknownScheme(t *testing.T) {
	_, err := Dial(Token{Scheme: "never-registered", Addr: "x"})
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestDialUsesRegisteredResolver(t *testing.T) {
	want := errors.New("resolver reached")
	RegisterScheme("token-test", func(addr string) (Channel, error) {
		assert.Equal(t, "some-addr", addr)
		return nil, want
	})

	_, err := Dial(Token{Scheme: "token-test", Addr: "some-addr"})
	assert.ErrorIs(t, err, want)
}
