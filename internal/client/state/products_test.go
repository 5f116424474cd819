package state

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductsAPI struct {
	mu sync.Mutex

	list     []models.Product
	listRes  adapter.Result
	revision int64
	// listing and release, when set, hold ListProducts until released.
	listing chan struct{}
	release chan struct{}

	created   *models.Product
	writeRes  adapter.Result
	lastQuery models.ProductQuery
	// stored rewrites a product the way the server stores it.
	stored func(models.Product) models.Product

	watchFn adapter.SnapshotFunc
}

var (
	transientErr = adapter.Result{Status: adapter.Transient, Err: errors.New("server unavailable")}
	u1           = adapter.Identity{UserID: "u1"}
)

func (f *fakeProductsAPI) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, adapter.Result) {
	f.mu.Lock()
	f.lastQuery = q
	list, revision, res := f.list, f.revision, f.listRes
	listing, release := f.listing, f.release
	f.mu.Unlock()

	if listing != nil {
		listing <- struct{}{}
		<-release
	}
	if err := ctx.Err(); err != nil {
		return []models.Product{}, 0, adapter.Result{Status: adapter.Transient, Err: err}
	}
	return list, revision, res
}

func (f *fakeProductsAPI) CreateProduct(_ context.Context, _ adapter.Identity, _ models.ProductInput) (*models.Product, adapter.Result) {
	return f.created, f.writeRes
}

func (f *fakeProductsAPI) UpdateProduct(_ context.Context, _ adapter.Identity, id string, patch models.ProductPatch) (*models.Product, adapter.Result) {
	if !f.writeRes.OK() {
		return nil, f.writeRes
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Product{ID: id, UserID: "u1"}
	if i := slices.IndexFunc(f.list, func(x models.Product) bool { return x.ID == id }); i >= 0 {
		p = f.list[i]
	}
	p = patch.Apply(p)
	if f.stored != nil {
		p = f.stored(p)
	}
	p.UpdatedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return &p, f.writeRes
}

func (f *fakeProductsAPI) DeleteProduct(context.Context, adapter.Identity, string) adapter.Result {
	return f.writeRes
}

func (f *fakeProductsAPI) WatchProducts(_ context.Context, _ models.ProductQuery, fn adapter.SnapshotFunc) (func(), adapter.Result) {
	f.mu.Lock()
	f.watchFn = fn
	f.mu.Unlock()
	return func() {}, adapter.Result{}
}

func newProducts(t *testing.T, api *fakeProductsAPI) *Products {
	t.Helper()
	p := NewProducts(api, logging.Discard())
	t.Cleanup(p.Close)
	return p
}

func seed(t *testing.T, p *Products, api *fakeProductsAPI, list ...models.Product) {
	t.Helper()
	api.list = list
	_, res := p.Fetch(context.Background(), models.ProductQuery{})
	require.True(t, res.OK())
}

func TestFetch_ReplacesList(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)

	api.list = []models.Product{{ID: "p1"}, {ID: "p2"}}
	s, res := p.Fetch(context.Background(), models.ProductQuery{Category: "Maison"})
	require.True(t, res.OK())

	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
	assert.Len(t, s.Value, 2)
	assert.Equal(t, "Maison", api.lastQuery.Category)
}

func TestFetch_FailureKeepsCachedList(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1", Name: "Vélo"})

	api.list = nil
	api.listRes = transientErr
	s, res := p.Fetch(context.Background(), models.ProductQuery{})

	assert.Equal(t, adapter.Transient, res.Status)
	assert.False(t, s.Loading)
	assert.Equal(t, "server unavailable", s.Err)
	require.Len(t, s.Value, 1)
	assert.Equal(t, "Vélo", s.Value[0].Name)
}

func TestFetch_OlderThanSnapshotIsDropped(t *testing.T) {
	api := &fakeProductsAPI{
		list:     []models.Product{{ID: "old"}},
		revision: 3,
		listing:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	p := newProducts(t, api)
	_, _ = p.Watch(context.Background(), models.ProductQuery{})

	done := make(chan State[[]models.Product])
	go func() {
		s, _ := p.Fetch(context.Background(), models.ProductQuery{})
		done <- s
	}()

	<-api.listing
	api.watchFn([]models.Product{{ID: "a"}, {ID: "b"}}, 7, adapter.Result{})
	close(api.release)

	s := <-done
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
	assert.Equal(t, int64(7), s.Revision)
	assert.Len(t, s.Value, 2)
}

func TestFetch_NewerThanSnapshotReplaces(t *testing.T) {
	api := &fakeProductsAPI{list: []models.Product{{ID: "p1"}}, revision: 9}
	p := newProducts(t, api)
	_, _ = p.Watch(context.Background(), models.ProductQuery{})
	api.watchFn([]models.Product{{ID: "a"}, {ID: "b"}}, 7, adapter.Result{})

	s, res := p.Fetch(context.Background(), models.ProductQuery{})
	require.True(t, res.OK())
	assert.Equal(t, int64(9), s.Revision)
	require.Len(t, s.Value, 1)
	assert.Equal(t, "p1", s.Value[0].ID)
}

func TestFetch_ClearsPreviousError(t *testing.T) {
	api := &fakeProductsAPI{listRes: transientErr}
	p := newProducts(t, api)

	s, _ := p.Fetch(context.Background(), models.ProductQuery{})
	require.NotEmpty(t, s.Err)

	api.listRes = adapter.Result{}
	s, _ = p.Fetch(context.Background(), models.ProductQuery{})
	assert.Empty(t, s.Err)
}

func TestFetch_CancelledContextRecordsFailure(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, res := p.Fetch(ctx, models.ProductQuery{})

	assert.Equal(t, adapter.Transient, res.Status)
	assert.False(t, s.Loading)
	assert.Contains(t, s.Err, "context canceled")
}

func TestFetch_LoadingVisibleToSubscribers(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)

	ch, cancel := p.Subscribe()
	defer cancel()

	_, err := p.Apply(context.Background(), fetchStarted[[]models.Product])
	require.NoError(t, err)

	s := <-ch
	assert.True(t, s.Loading)
}

func TestCreate_Appends(t *testing.T) {
	api := &fakeProductsAPI{created: &models.Product{ID: "p2", Name: "Lampe", UserID: "u1"}}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1"})

	got, res := p.Create(context.Background(), u1, models.ProductInput{Name: "Lampe"})
	require.True(t, res.OK())
	assert.Equal(t, "p2", got.ID)

	ids := []string{}
	for _, x := range p.Get().Value {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []string{"p1", "p2"}, ids)
}

func TestCreate_FailureSetsError(t *testing.T) {
	api := &fakeProductsAPI{writeRes: adapter.Result{Status: adapter.Denied, Err: errors.New("unauthorized")}}
	p := newProducts(t, api)

	_, res := p.Create(context.Background(), u1, models.ProductInput{Name: "x"})
	assert.Equal(t, adapter.Denied, res.Status)
	assert.Equal(t, "unauthorized", p.Get().Err)
	assert.Empty(t, p.Get().Value)
}

func TestUpdate_MergesOverCachedAndKeepsOwner(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api,
		models.Product{ID: "p1", Name: "Vélo", Description: "bleu", Condition: "Used", UserID: "u1"},
		models.Product{ID: "p2", Name: "Lampe", UserID: "u1"},
	)

	_, res := p.Update(context.Background(), u1, "p1", models.ProductPatch{Name: models.String("Vélo rouge")})
	require.True(t, res.OK())

	got := p.Get().Value
	assert.Equal(t, "Vélo rouge", got[0].Name)
	assert.Equal(t, "bleu", got[0].Description)
	assert.Equal(t, "Used", got[0].Condition)
	assert.Equal(t, "u1", got[0].UserID)
	assert.False(t, got[0].UpdatedAt.IsZero())
	assert.Equal(t, "Lampe", got[1].Name)
}

func TestUpdate_CachesStoredCopy(t *testing.T) {
	api := &fakeProductsAPI{stored: func(p models.Product) models.Product {
		p.Name = strings.TrimSpace(p.Name)
		p.Description = strings.ReplaceAll(p.Description, "<b>", "")
		return p
	}}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1", Name: "Vélo", UserID: "u1"})

	got, res := p.Update(context.Background(), u1, "p1", models.ProductPatch{
		Name:        models.String("  Vélo rouge "),
		Description: models.String("<b>neuf"),
	})
	require.True(t, res.OK())
	require.NotNil(t, got)

	cached := p.Get().Value[0]
	assert.Equal(t, *got, cached)
	assert.Equal(t, "Vélo rouge", cached.Name)
	assert.Equal(t, "neuf", cached.Description)
}

func TestUpdate_NotCachedIsIgnored(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1"})

	_, res := p.Update(context.Background(), u1, "p9", models.ProductPatch{Name: models.String("x")})
	require.True(t, res.OK())
	assert.Len(t, p.Get().Value, 1)
}

func TestDelete_FiltersOut(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1"}, models.Product{ID: "p2"})

	require.True(t, p.Delete(context.Background(), u1, "p1").OK())

	got := p.Get().Value
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)
}

func TestDelete_NotFoundKeepsList(t *testing.T) {
	api := &fakeProductsAPI{writeRes: adapter.Result{Status: adapter.NotFound, Err: errors.New("not found")}}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1"})

	res := p.Delete(context.Background(), u1, "p1")
	assert.Equal(t, adapter.NotFound, res.Status)
	assert.Len(t, p.Get().Value, 1)
}

func TestWatch_ReplacesWholesaleAndDropsStaleSnapshots(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "local"})

	unsubscribe, res := p.Watch(context.Background(), models.ProductQuery{})
	require.True(t, res.OK())
	defer unsubscribe()

	api.watchFn([]models.Product{{ID: "a"}, {ID: "b"}}, 5, adapter.Result{})
	s := p.Get()
	assert.Equal(t, int64(5), s.Revision)
	assert.Len(t, s.Value, 2)

	// an older snapshot arriving late does not overwrite newer state
	api.watchFn([]models.Product{{ID: "old"}}, 3, adapter.Result{})
	s = p.Get()
	assert.Equal(t, int64(5), s.Revision)
	assert.Len(t, s.Value, 2)

	api.watchFn([]models.Product{}, 6, adapter.Result{})
	assert.Empty(t, p.Get().Value)
}

func TestWatch_LocalWritesAndSnapshotsShareOneQueue(t *testing.T) {
	api := &fakeProductsAPI{created: &models.Product{ID: "p-new"}}
	p := newProducts(t, api)

	_, _ = p.Watch(context.Background(), models.ProductQuery{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 20; i++ {
			api.watchFn([]models.Product{{ID: "s"}}, i, adapter.Result{})
		}
	}()
	go func() {
		defer wg.Done()
		_, _ = p.Create(context.Background(), u1, models.ProductInput{Name: "x"})
	}()
	wg.Wait()

	s := p.Get()
	assert.Equal(t, int64(20), s.Revision)
	assert.NotEmpty(t, s.Value)
}

func TestWatch_FailureSetsError(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1"})

	_, _ = p.Watch(context.Background(), models.ProductQuery{})
	api.watchFn(nil, 0, transientErr)

	s := p.Get()
	assert.Equal(t, "server unavailable", s.Err)
	assert.Len(t, s.Value, 1)
}

func TestReset(t *testing.T) {
	api := &fakeProductsAPI{}
	p := newProducts(t, api)
	seed(t, p, api, models.Product{ID: "p1"})

	p.Reset(context.Background())
	s := p.Get()
	assert.Empty(t, s.Value)
	assert.NotNil(t, s.Value)
	assert.Zero(t, s.Revision)
}
