// Package accounts stores the credentials behind each identity.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/tradehub/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the email is taken.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}
