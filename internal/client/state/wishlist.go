package state

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/client/repositories/wishlist"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

// Wishlist caches the local wishlist of one user.
type Wishlist struct {
	*Container[[]models.WishlistEntry]
	repo   wishlist.Repository
	logger logging.Logger
}

func NewWishlist(repo wishlist.Repository, l logging.Logger) *Wishlist {
	return &Wishlist{
		Container: NewContainer([]models.WishlistEntry{}, slices.Clone[[]models.WishlistEntry]),
		repo:      repo,
		logger:    l.With("module", "wishlist_state"),
	}
}

func (w *Wishlist) Load(ctx context.Context, userID string) (State[[]models.WishlistEntry], adapter.Result) {
	list, err := w.repo.List(ctx, userID)
	res := localResult(err)
	s, aerr := w.Apply(context.WithoutCancel(ctx), func(s State[[]models.WishlistEntry]) State[[]models.WishlistEntry] {
		if err != nil {
			s.Err = err.Error()
			return s
		}
		s.Value = list
		s.Err = ""
		return s
	})
	if aerr != nil {
		return s, localResult(aerr)
	}
	return s, res
}

func (w *Wishlist) Add(ctx context.Context, userID, title, image string) (*models.WishlistEntry, adapter.Result) {
	e, err := w.repo.Add(ctx, userID, title, image)
	if err != nil {
		w.fail(ctx, err)
		return nil, localResult(err)
	}
	entry := *e
	_, aerr := w.Apply(context.WithoutCancel(ctx), func(s State[[]models.WishlistEntry]) State[[]models.WishlistEntry] {
		s.Value = append(s.Value, entry)
		s.Err = ""
		return s
	})
	return e, localResult(aerr)
}

func (w *Wishlist) Remove(ctx context.Context, userID string, id int64) adapter.Result {
	if err := w.repo.Delete(ctx, userID, id); err != nil {
		w.fail(ctx, err)
		return localResult(err)
	}
	_, err := w.Apply(context.WithoutCancel(ctx), func(s State[[]models.WishlistEntry]) State[[]models.WishlistEntry] {
		s.Value = slices.DeleteFunc(s.Value, func(e models.WishlistEntry) bool { return e.ID == id })
		s.Err = ""
		return s
	})
	return localResult(err)
}

// Reset empties the cache; the stored entries are kept.
func (w *Wishlist) Reset(ctx context.Context) {
	w.applyOrLog(ctx, func(State[[]models.WishlistEntry]) State[[]models.WishlistEntry] {
		return State[[]models.WishlistEntry]{Value: []models.WishlistEntry{}}
	})
}

func (w *Wishlist) fail(ctx context.Context, err error) {
	w.applyOrLog(ctx, func(s State[[]models.WishlistEntry]) State[[]models.WishlistEntry] {
		s.Err = err.Error()
		return s
	})
}

func (w *Wishlist) applyOrLog(ctx context.Context, r Reducer[[]models.WishlistEntry]) {
	if _, err := w.Apply(context.WithoutCancel(ctx), r); err != nil {
		w.logger.Warn(ctx, "wishlist state not updated", "error", err)
	}
}

func localResult(err error) adapter.Result {
	return adapter.Result{Status: adapter.Classify(err), Err: err}
}
