package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, salt := HashPassword([]byte("motdepasse"))
	require.Len(t, salt, SaltSize)
	require.Len(t, hash, KeySize)

	assert.True(t, VerifyPassword([]byte("motdepasse"), salt, hash))
	assert.False(t, VerifyPassword([]byte("wrong"), salt, hash))
	assert.False(t, VerifyPassword([]byte("motdepasse"), []byte("other-salt"), hash))
}

func TestHashPassword_FreshSaltEachTime(t *testing.T) {
	h1, s1 := HashPassword([]byte("same"))
	h2, s2 := HashPassword([]byte("same"))
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, h1, h2)
}
