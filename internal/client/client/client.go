// Package client talks to the TradeHub server over gRPC and opens the local
// SQLite database of the CLI.
package client

import (
	"context"

	"github.com/dmitrijs2005/tradehub/internal/models"
)

// Session is what SignUp and SignIn return.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

// ProductsEvent is one message of a product watch. A non-nil Err is the last
// event before the channel closes; the channel only closes without one when
// the watch context is done.
type ProductsEvent struct {
	Products []models.Product
	Revision int64
	Err      error
}

// Client is the transport-agnostic contract used by the service adapter.
// Errors are the sentinels of internal/common or ErrUnavailable.
type Client interface {
	Ping(ctx context.Context) error
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	DeleteAccount(ctx context.Context, password string) error

	SaveUser(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)

	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	// GetProducts also returns the store revision the list reflects.
	GetProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	WatchProducts(ctx context.Context, q models.ProductQuery) (<-chan ProductsEvent, error)
	UploadImage(ctx context.Context, fileName, contentType string, data []byte) (string, error)

	// SetTokens installs a restored session; empty strings clear it.
	SetTokens(accessToken, refreshToken string)
	// OnTokens registers a callback for every change of the token pair.
	OnTokens(fn func(accessToken, refreshToken string))
	Close() error
}
