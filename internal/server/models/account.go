package models

import "time"

// Account holds the credentials of one identity. Its ID is the identity id
// used as the users document key and as the owner of products.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Salt         []byte
	CreatedAt    time.Time
}
