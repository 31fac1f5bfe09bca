// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	b := New().
		PutString("s", "hello").
		PutInt("i", -42).
		PutBool("b", true).
		PutFloat("f", 1.5).
		PutBytes("raw", []byte{1, 2, 3}).
		PutBundle("nested", New().PutString("inner", "value"))

	enc, err := b.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(enc)
	require.NoError(t, err)

	assert.Equal(t, "hello", got.GetString("s"))
	assert.EqualValues(t, -42, got.GetInt("i"))
	assert.True(t, got.GetBool("b"))
	assert.Equal(t, 1.5, got.GetFloat("f"))
	assert.Equal(t, []byte{1, 2, 3}, got.GetBytes("raw"))

	nested := got.GetBundle("nested")
	require.NotNil(t, nested)
	assert.Equal(t, "value", nested.GetString("inner"))
}

func TestOpaqueValuesNeverCrossTheWire(t *testing.T) {
	handle := struct{ name string }{"in-process"}
	b := New().
		PutString("plain", "survives").
		PutOpaque("handle", handle)

	assert.Equal(t, handle, b.GetOpaque("handle"))
	assert.True(t, b.Has("handle"))

	enc, err := b.Marshal()
	require.NoError(t, err)
	got, err := Unmarshal(enc)
	require.NoError(t, err)

	assert.Equal(t, "survives", got.GetString("plain"))
	assert.Nil(t, got.GetOpaque("handle"))
	assert.False(t, got.Has("handle"))
}

func TestNilBundleIsSafe(t *testing.T) {
	var b *Bundle
	assert.True(t, b.IsEmpty())
	assert.False(t, b.Has("x"))
	assert.Empty(t, b.GetString("x"))
	assert.Zero(t, b.GetInt("x"))
	assert.False(t, b.GetBool("x"))
	assert.Zero(t, b.GetFloat("x"))
	assert.Nil(t, b.GetBytes("x"))
	assert.Nil(t, b.GetBundle("x"))
	assert.Nil(t, b.GetOpaque("x"))
	assert.Zero(t, b.Len())

	enc, err := b.Marshal()
	require.NoError(t, err)
	got, err := Unmarshal(enc)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestMissingAndMistypedKeys(t *testing.T) {
	b := New().PutString("s", "text")
	assert.Empty(t, b.GetString("missing"))
	assert.Zero(t, b.GetInt("s"))
	assert.False(t, b.GetBool("s"))
	assert.Nil(t, b.GetBundle("s"))
}

func TestPositiveIntSurvivesUnsignedEncoding(t *testing.T) {
	// CBOR encodes non-negative integers unsigned; GetInt must still see
	// them after a round trip
	enc, err := New().PutInt("n", 7).Marshal()
	require.NoError(t, err)
	got, err := Unmarshal(enc)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.GetInt("n"))
}

func TestIsEmptyCountsOpaque(t *testing.T) {
	b := New()
	assert.True(t, b.IsEmpty())
	b.PutOpaque("h", 1)
	assert.False(t, b.IsEmpty())
	assert.Equal(t, 1, b.Len())
}
