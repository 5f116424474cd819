// Package refreshtokens declares the repository for the refresh tokens issued
// at sign-in and rotated on every refresh.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes one token. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID (sign-out everywhere).
	DeleteByUser(ctx context.Context, userID string) error
}
