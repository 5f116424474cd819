package adapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tradehub/internal/client/client"
	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

// Identity is the signed-in user. Operations that act on behalf of someone
// take it explicitly.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) IsZero() bool { return i.UserID == "" }

var (
	errNotSignedIn = fmt.Errorf("%w: not signed in", common.ErrorUnauthorized)
	errWatchEnded  = fmt.Errorf("%w: watch ended", client.ErrUnavailable)
)

type Adapter struct {
	client client.Client
	logger logging.Logger
}

func New(c client.Client, l logging.Logger) *Adapter {
	return &Adapter{client: c, logger: l.With("module", "adapter")}
}

// fail logs err and wraps it into a Result.
func (a *Adapter) fail(ctx context.Context, op string, err error) Result {
	res := resultOf(err)
	if res.Status == Transient {
		a.logger.Error(ctx, op+" failed", "error", err)
	} else {
		a.logger.Warn(ctx, op+" rejected", "status", res.Status.String(), "error", err)
	}
	return res
}

func (a *Adapter) Ping(ctx context.Context) Result {
	if err := a.client.Ping(ctx); err != nil {
		return a.fail(ctx, "ping", err)
	}
	return ok
}

func (a *Adapter) SignUp(ctx context.Context, email, password, fullName string) (Identity, Result) {
	s, err := a.client.SignUp(ctx, email, password, fullName)
	if err != nil {
		return Identity{}, a.fail(ctx, "sign up", err)
	}
	return Identity{UserID: s.UserID, Email: s.Email}, ok
}

func (a *Adapter) SignIn(ctx context.Context, email, password string) (Identity, Result) {
	s, err := a.client.SignIn(ctx, email, password)
	if err != nil {
		return Identity{}, a.fail(ctx, "sign in", err)
	}
	return Identity{UserID: s.UserID, Email: s.Email}, ok
}

// SignOut forgets the tokens locally even when the server call fails.
func (a *Adapter) SignOut(ctx context.Context) Result {
	if err := a.client.SignOut(ctx); err != nil {
		return a.fail(ctx, "sign out", err)
	}
	return ok
}

// DeleteAccount removes the account of id together with its profile and
// products.
func (a *Adapter) DeleteAccount(ctx context.Context, id Identity, password string) Result {
	if id.IsZero() {
		return a.fail(ctx, "delete account", errNotSignedIn)
	}
	if err := a.client.DeleteAccount(ctx, password); err != nil {
		return a.fail(ctx, "delete account", err)
	}
	return ok
}

// SaveUser merges patch into the user document and returns the stored user.
func (a *Adapter) SaveUser(ctx context.Context, userID string, patch models.UserPatch) (*models.User, Result) {
	u, err := a.client.SaveUser(ctx, userID, patch)
	if err != nil {
		return nil, a.fail(ctx, "save user", err)
	}
	return u, ok
}

// GetUser returns nil unless the result is Success.
func (a *Adapter) GetUser(ctx context.Context, userID string) (*models.User, Result) {
	u, err := a.client.GetUser(ctx, userID)
	if err != nil {
		return nil, a.fail(ctx, "get user", err)
	}
	return u, ok
}

// CreateProduct lists in on behalf of id; the store assigns the product id.
func (a *Adapter) CreateProduct(ctx context.Context, id Identity, in models.ProductInput) (*models.Product, Result) {
	if id.IsZero() {
		return nil, a.fail(ctx, "create product", errNotSignedIn)
	}
	p, err := a.client.CreateProduct(ctx, in)
	if err != nil {
		return nil, a.fail(ctx, "create product", err)
	}
	return p, ok
}

// GetProducts never returns a nil slice.
func (a *Adapter) GetProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, Result) {
	ps, _, res := a.ListProducts(ctx, q)
	return ps, res
}

// ListProducts is GetProducts plus the store revision the list reflects, for
// ordering it against watch snapshots.
func (a *Adapter) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, Result) {
	ps, revision, err := a.client.GetProducts(ctx, q)
	if err != nil {
		return []models.Product{}, 0, a.fail(ctx, "get products", err)
	}
	if ps == nil {
		ps = []models.Product{}
	}
	return ps, revision, ok
}

func (a *Adapter) GetProductsByOwner(ctx context.Context, ownerID string) ([]models.Product, Result) {
	if ownerID == "" {
		return []models.Product{}, a.fail(ctx, "get products by owner",
			fmt.Errorf("%w: empty owner id", common.ErrorInvalidArgument))
	}
	return a.GetProducts(ctx, models.ProductQuery{OwnerID: ownerID})
}

func (a *Adapter) GetProduct(ctx context.Context, productID string) (*models.Product, Result) {
	p, err := a.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, a.fail(ctx, "get product", err)
	}
	return p, ok
}

func (a *Adapter) UpdateProduct(ctx context.Context, id Identity, productID string, patch models.ProductPatch) (*models.Product, Result) {
	if id.IsZero() {
		return nil, a.fail(ctx, "update product", errNotSignedIn)
	}
	p, err := a.client.UpdateProduct(ctx, productID, patch)
	if err != nil {
		return nil, a.fail(ctx, "update product", err)
	}
	return p, ok
}

// DeleteProduct removes one product. Dependent local state is the
// caller's business.
func (a *Adapter) DeleteProduct(ctx context.Context, id Identity, productID string) Result {
	if id.IsZero() {
		return a.fail(ctx, "delete product", errNotSignedIn)
	}
	if err := a.client.DeleteProduct(ctx, productID); err != nil {
		return a.fail(ctx, "delete product", err)
	}
	return ok
}

func (a *Adapter) UploadImage(ctx context.Context, id Identity, fileName, contentType string, data []byte) (string, Result) {
	if id.IsZero() {
		return "", a.fail(ctx, "upload image", errNotSignedIn)
	}
	url, err := a.client.UploadImage(ctx, fileName, contentType, data)
	if err != nil {
		return "", a.fail(ctx, "upload image", err)
	}
	return url, ok
}

// SnapshotFunc receives every state of a watched query. A non-OK result is
// the last call; it is made whenever the watch ends without unsubscribe.
type SnapshotFunc func(products []models.Product, revision int64, res Result)

// WatchProducts calls fn for every snapshot of q until the returned
// unsubscribe function is called or the stream fails. Unsubscribe waits for
// fn to return and may be called more than once.
func (a *Adapter) WatchProducts(ctx context.Context, q models.ProductQuery, fn SnapshotFunc) (func(), Result) {
	ctx, cancel := context.WithCancel(ctx)
	events, err := a.client.WatchProducts(ctx, q)
	if err != nil {
		cancel()
		return func() {}, a.fail(ctx, "watch products", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Err != nil {
				fn(nil, 0, a.fail(ctx, "watch products", ev.Err))
				return
			}
			fn(ev.Products, ev.Revision, ok)
		}
		if ctx.Err() == nil {
			fn(nil, 0, a.fail(ctx, "watch products", errWatchEnded))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, ok
}
