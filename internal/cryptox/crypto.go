// Package cryptox implements password hashing for the identity provider.
package cryptox

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 32
	KeySize  = 32
)

// DeriveKey stretches password with salt using Argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// HashPassword returns a fresh random salt and the derived key for password.
func HashPassword(password []byte) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	return DeriveKey(password, salt), salt
}

// VerifyPassword reports whether password matches the stored hash/salt pair.
// The comparison runs in constant time.
func VerifyPassword(password, salt, hash []byte) bool {
	candidate := DeriveKey(password, salt)
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
