// Package cursor encodes store continuation keys as opaque pagination cursors.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
)

// MaxEncodedLen bounds the size of a cursor accepted from a caller.
const MaxEncodedLen = 1024

// ErrInvalid is returned for cursors that are malformed or too long.
var ErrInvalid = errors.New("invalid cursor")

// Encode returns the cursor for a continuation key, or "" for a nil key.
func Encode(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	return base64.URLEncoding.EncodeToString(key)
}

// Decode reverses Encode. The decoded key must be a non-empty JSON object;
// its fields are not interpreted here.
func Decode(s string) ([]byte, error) {
	if s == "" || len(s) > MaxEncodedLen {
		return nil, ErrInvalid
	}
	key, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalid
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(key))
	if err := dec.Decode(&fields); err != nil || len(fields) == 0 || dec.More() {
		return nil, ErrInvalid
	}
	return key, nil
}
