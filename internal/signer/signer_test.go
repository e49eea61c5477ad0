package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reference(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return "3" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNoSecret)

	_, err = New([]byte{})
	require.ErrorIs(t, err, ErrNoSecret)
}

func TestSign_MatchesReference(t *testing.T) {
	s, err := New([]byte("k"))
	require.NoError(t, err)

	got, err := s.Sign([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, reference("k", "abc"), got)
}

func TestSign_Deterministic(t *testing.T) {
	s, err := New([]byte("secret"))
	require.NoError(t, err)

	first, err := s.Sign([]byte("hello"))
	require.NoError(t, err)
	second, err := s.Sign([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := s.Sign([]byte("hellp"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestSign_SecretDependent(t *testing.T) {
	a, _ := New([]byte("a"))
	b, _ := New([]byte("b"))

	sigA, err := a.Sign([]byte("payload"))
	require.NoError(t, err)
	sigB, err := b.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.NotEqual(t, sigA, sigB)
}

func TestSign_ConstantLength(t *testing.T) {
	s, _ := New([]byte("k"))
	for _, payload := range []string{"", "a", "a much longer payload than the digest itself"} {
		sig, err := s.Sign([]byte(payload))
		require.NoError(t, err)
		assert.Len(t, sig, 45, "payload %q", payload)
		assert.Equal(t, Tag, sig[:1])
	}
}

func TestSign_KeyIsCopied(t *testing.T) {
	key := []byte("k")
	s, _ := New(key)
	key[0] = 'x'

	got, err := s.Sign([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, reference("k", "abc"), got)
}

func TestSign_ZeroValue(t *testing.T) {
	var s *Signer
	_, err := s.Sign([]byte("abc"))
	require.ErrorIs(t, err, ErrNoSecret)

	_, err = (&Signer{}).Sign([]byte("abc"))
	require.ErrorIs(t, err, ErrNoSecret)
}
