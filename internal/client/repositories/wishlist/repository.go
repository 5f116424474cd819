// Package wishlist keeps the wishlist of each signed-in user in the local
// SQLite database of the CLI.
package wishlist

import (
	"context"

	"github.com/dmitrijs2005/tradehub/internal/models"
)

type Repository interface {
	Add(ctx context.Context, userID, title, image string) (*models.WishlistEntry, error)
	// List returns the entries of userID, oldest first.
	List(ctx context.Context, userID string) ([]models.WishlistEntry, error)
	// Delete returns common.ErrorNotFound if userID has no entry id.
	Delete(ctx context.Context, userID string, id int64) error
	Clear(ctx context.Context, userID string) error
}
