package state

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

// ProductsAPI is the part of the service adapter the products container
// needs.
type ProductsAPI interface {
	ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, adapter.Result)
	CreateProduct(ctx context.Context, id adapter.Identity, in models.ProductInput) (*models.Product, adapter.Result)
	UpdateProduct(ctx context.Context, id adapter.Identity, productID string, patch models.ProductPatch) (*models.Product, adapter.Result)
	DeleteProduct(ctx context.Context, id adapter.Identity, productID string) adapter.Result
	WatchProducts(ctx context.Context, q models.ProductQuery, fn adapter.SnapshotFunc) (func(), adapter.Result)
}

// Products caches a product list.
type Products struct {
	*Container[[]models.Product]
	api    ProductsAPI
	logger logging.Logger
}

func NewProducts(api ProductsAPI, l logging.Logger) *Products {
	return &Products{
		Container: NewContainer([]models.Product{}, cloneProducts),
		api:       api,
		logger:    l.With("module", "products_state"),
	}
}

func cloneProducts(ps []models.Product) []models.Product {
	out := make([]models.Product, len(ps))
	for i, p := range ps {
		p.Images = slices.Clone(p.Images)
		out[i] = p
	}
	return out
}

// Fetch loads the products matching q. A failed fetch keeps the cached list
// and records the error. A result older than the last applied snapshot is
// dropped, like a stale snapshot.
func (p *Products) Fetch(ctx context.Context, q models.ProductQuery) (State[[]models.Product], adapter.Result) {
	if _, err := p.Apply(context.WithoutCancel(ctx), fetchStarted[[]models.Product]); err != nil {
		return State[[]models.Product]{}, adapter.Result{Status: adapter.Transient, Err: err}
	}

	list, revision, res := p.api.ListProducts(ctx, q)

	// A cancelled fetch still records its failure.
	s, err := p.Apply(context.WithoutCancel(ctx), func(s State[[]models.Product]) State[[]models.Product] {
		s.Loading = false
		if !res.OK() {
			s.Err = res.Message()
			return s
		}
		s.Err = ""
		if revision < s.Revision {
			return s
		}
		s.Value = cloneProducts(list)
		s.Revision = revision
		return s
	})
	if err != nil {
		return State[[]models.Product]{}, adapter.Result{Status: adapter.Transient, Err: err}
	}
	return s, res
}

// Create lists a product and appends it to the cache.
func (p *Products) Create(ctx context.Context, id adapter.Identity, in models.ProductInput) (*models.Product, adapter.Result) {
	created, res := p.api.CreateProduct(ctx, id, in)
	if !res.OK() {
		p.recordFailure(ctx, res)
		return nil, res
	}
	item := cloneProducts([]models.Product{*created})[0]
	p.applyOrLog(ctx, func(s State[[]models.Product]) State[[]models.Product] {
		if slices.IndexFunc(s.Value, func(x models.Product) bool { return x.ID == item.ID }) < 0 {
			s.Value = append(s.Value, item)
		}
		s.Err = ""
		return s
	})
	return created, res
}

// Update changes a product remotely and, if it is cached, replaces the cached
// copy with the stored one. Without a stored copy the patch is merged over
// the cached one. The owner never changes.
func (p *Products) Update(ctx context.Context, id adapter.Identity, productID string, patch models.ProductPatch) (*models.Product, adapter.Result) {
	updated, res := p.api.UpdateProduct(ctx, id, productID, patch)
	if !res.OK() {
		p.recordFailure(ctx, res)
		return nil, res
	}
	var stored *models.Product
	if updated != nil {
		c := cloneProducts([]models.Product{*updated})[0]
		stored = &c
	}
	p.applyOrLog(ctx, func(s State[[]models.Product]) State[[]models.Product] {
		i := slices.IndexFunc(s.Value, func(x models.Product) bool { return x.ID == productID })
		if i >= 0 {
			next := patch.Apply(s.Value[i])
			if stored != nil {
				next = *stored
			}
			next.UserID = s.Value[i].UserID
			s.Value[i] = next
		}
		s.Err = ""
		return s
	})
	return updated, res
}

// Delete removes a product remotely and filters it out of the cache.
func (p *Products) Delete(ctx context.Context, id adapter.Identity, productID string) adapter.Result {
	res := p.api.DeleteProduct(ctx, id, productID)
	if !res.OK() {
		p.recordFailure(ctx, res)
		return res
	}
	p.applyOrLog(ctx, func(s State[[]models.Product]) State[[]models.Product] {
		s.Value = slices.DeleteFunc(s.Value, func(x models.Product) bool { return x.ID == productID })
		s.Err = ""
		return s
	})
	return res
}

// Watch replaces the cached list with every live snapshot of q until the
// returned function is called. Snapshots older than the last applied one are
// dropped.
func (p *Products) Watch(ctx context.Context, q models.ProductQuery) (func(), adapter.Result) {
	return p.api.WatchProducts(ctx, q, func(list []models.Product, revision int64, res adapter.Result) {
		if !res.OK() {
			p.recordFailure(ctx, res)
			return
		}
		list = cloneProducts(list)
		p.applyOrLog(ctx, func(s State[[]models.Product]) State[[]models.Product] {
			if revision < s.Revision {
				return s
			}
			s.Value = list
			s.Revision = revision
			s.Err = ""
			return s
		})
	})
}

// Reset empties the cache, for example after sign-out.
func (p *Products) Reset(ctx context.Context) {
	p.applyOrLog(ctx, func(State[[]models.Product]) State[[]models.Product] {
		return State[[]models.Product]{Value: []models.Product{}}
	})
}

func (p *Products) recordFailure(ctx context.Context, res adapter.Result) {
	p.applyOrLog(ctx, func(s State[[]models.Product]) State[[]models.Product] {
		s.Err = res.Message()
		return s
	})
}

func (p *Products) applyOrLog(ctx context.Context, r Reducer[[]models.Product]) {
	if _, err := p.Apply(context.WithoutCancel(ctx), r); err != nil {
		p.logger.Warn(ctx, "products state not updated", "error", err)
	}
}

func fetchStarted[T any](s State[T]) State[T] {
	s.Loading = true
	s.Err = ""
	return s
}
