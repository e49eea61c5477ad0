// Package signer produces the tagged HMAC-SHA256 signatures returned by the
// /solve endpoint and by the interactive UI session.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// Tag is prepended to every encoded digest.
const Tag = "3"

// ErrNoSecret is returned when a signer is built or used without a key.
var ErrNoSecret = errors.New("signer: secret is not configured")

// Signer is safe for concurrent use; it holds only the immutable key.
type Signer struct {
	secret []byte
}

func New(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{secret: key}, nil
}

// Sign returns Tag followed by the standard base64 encoding of
// HMAC-SHA256(secret, payload). The result always has the same length.
func (s *Signer) Sign(payload []byte) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return Tag + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
