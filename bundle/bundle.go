// Copyright 2025 The sessionproxy Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package bundle provides the opaque parameter container passed with generic
// commands, command results, session extras and event payloads. Plain values
// survive a CBOR round trip across the wire; opaque values (channel handles,
// result receivers) exist only inside the process and are dropped by Marshal.
package bundle

import (
	"github.com/fxamacker/cbor/v2"
)

type Bundle struct {
	values map[string]interface{}
	opaque map[string]interface{}
}

func New() *Bundle {
	return &Bundle{
		values: make(map[string]interface{}),
		opaque: make(map[string]interface{}),
	}
}

// IsEmpty reports whether the bundle carries neither plain nor opaque values.
// A nil bundle is empty.
func (b *Bundle) IsEmpty() bool {
	return b == nil || (len(b.values) == 0 && len(b.opaque) == 0)
}

func (b *Bundle) Has(key string) bool {
	if b == nil {
		return false
	}
	if _, ok := b.values[key]; ok {
		return true
	}
	_, ok := b.opaque[key]
	return ok
}

func (b *Bundle) PutString(key, value string) *Bundle {
	b.values[key] = value
	return b
}

func (b *Bundle) PutInt(key string, value int64) *Bundle {
	b.values[key] = value
	return b
}

func (b *Bundle) PutBool(key string, value bool) *Bundle {
	b.values[key] = value
	return b
}

func (b *Bundle) PutFloat(key string, value float64) *Bundle {
	b.values[key] = value
	return b
}

func (b *Bundle) PutBytes(key string, value []byte) *Bundle {
	b.values[key] = value
	return b
}

func (b *Bundle) PutBundle(key string, value *Bundle) *Bundle {
	if value != nil {
		b.values[key] = value
	}
	return b
}

// PutOpaque stores an in-process value. It never crosses a Marshal boundary.
func (b *Bundle) PutOpaque(key string, value interface{}) *Bundle {
	b.opaque[key] = value
	return b
}

func (b *Bundle) GetString(key string) string {
	if b == nil {
		return ""
	}
	if s, ok := b.values[key].(string); ok {
		return s
	}
	return ""
}

func (b *Bundle) GetInt(key string) int64 {
	if b == nil {
		return 0
	}
	switch v := b.values[key].(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}

func (b *Bundle) GetBool(key string) bool {
	if b == nil {
		return false
	}
	if v, ok := b.values[key].(bool); ok {
		return v
	}
	return false
}

func (b *Bundle) GetFloat(key string) float64 {
	if b == nil {
		return 0
	}
	if v, ok := b.values[key].(float64); ok {
		return v
	}
	return 0
}

func (b *Bundle) GetBytes(key string) []byte {
	if b == nil {
		return nil
	}
	if v, ok := b.values[key].([]byte); ok {
		return v
	}
	return nil
}

func (b *Bundle) GetBundle(key string) *Bundle {
	if b == nil {
		return nil
	}
	if v, ok := b.values[key].(*Bundle); ok {
		return v
	}
	return nil
}

func (b *Bundle) GetOpaque(key string) interface{} {
	if b == nil {
		return nil
	}
	return b.opaque[key]
}

func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.values) + len(b.opaque)
}

// wireBundle is the encoded form. Nested bundles flatten into wire maps.
type wireBundle map[string]cbor.RawMessage

func (b *Bundle) Marshal() ([]byte, error) {
	if b == nil {
		return cbor.Marshal(wireBundle{})
	}
	w := make(wireBundle, len(b.values))
	for k, v := range b.values {
		if nested, ok := v.(*Bundle); ok {
			enc, err := nested.Marshal()
			if err != nil {
				return nil, err
			}
			w[k] = cbor.RawMessage(enc)
			continue
		}
		enc, err := cbor.Marshal(v)
		if err != nil {
			return nil, err
		}
		w[k] = cbor.RawMessage(enc)
	}
	return cbor.Marshal(w)
}

// Unmarshal decodes a wire bundle. Nested maps stay raw; callers that expect
// a nested bundle read it back with GetBytes-free typed getters after a
// second Unmarshal, so decode keeps every leaf as its natural CBOR type.
func Unmarshal(data []byte) (*Bundle, error) {
	var w wireBundle
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	b := New()
	for k, raw := range w {
		var nested wireBundle
		if err := cbor.Unmarshal(raw, &nested); err == nil {
			nb, err := Unmarshal(raw)
			if err != nil {
				return nil, err
			}
			b.values[k] = nb
			continue
		}
		var v interface{}
		if err := cbor.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		b.values[k] = normalize(v)
	}
	return b, nil
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
