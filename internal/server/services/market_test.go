package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/dmitrijs2005/tradehub/internal/server/auth"
	"github.com/dmitrijs2005/tradehub/internal/server/blobstore"
	"github.com/dmitrijs2005/tradehub/internal/server/docstore"
	"github.com/dmitrijs2005/tradehub/internal/server/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.Identity{UserID: "u1", Email: "alice@example.com"}
	bob   = auth.Identity{UserID: "u2", Email: "bob@example.com"}
)

func newMarket(t *testing.T) (*MarketService, *blobstore.MemoryStore) {
	t.Helper()
	blobs := blobstore.NewMemoryStore()
	s := NewMarketService(docstore.NewMemoryStore(), blobs, metrics.Nop{}, logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, s.CreateProfile(context.Background(), alice, "Alice Martin"))
	require.NoError(t, s.CreateProfile(context.Background(), bob, ""))
	return s, blobs
}

func iphone() models.ProductInput {
	return models.ProductInput{
		Name:        "iPhone 12",
		Description: "Brand new",
		Condition:   "New",
		Image:       "https://img.example/iphone.jpg",
	}
}

func TestSaveUserThenGetUser_Merges(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	_, err := s.SaveUser(ctx, alice, "u1", models.UserPatch{City: models.String("Lyon")})
	require.NoError(t, err)
	_, err = s.SaveUser(ctx, alice, "u1", models.UserPatch{City: models.String("Paris")})
	require.NoError(t, err)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Alice Martin", u.FullName)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Paris", u.City)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestSaveUser_OtherIdentityDenied(t *testing.T) {
	s, _ := newMarket(t)

	_, err := s.SaveUser(context.Background(), bob, "u1", models.UserPatch{City: models.String("Nice")})
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = s.SaveUser(context.Background(), auth.Identity{}, "u1", models.UserPatch{})
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGetUser_Missing(t *testing.T) {
	s, _ := newMarket(t)
	_, err := s.GetUser(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreateProduct_ThenListByOwner(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, alice, iphone())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	list, err := s.GetProducts(ctx, models.ProductQuery{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "iPhone 12", got.Name)
	assert.Equal(t, "Brand new", got.Description)
	assert.Equal(t, "New", got.Condition)
	assert.Equal(t, "https://img.example/iphone.jpg", got.Image)
	assert.Equal(t, "u1", got.UserID)
}

func TestCreateProduct_Validation(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, alice, models.ProductInput{Name: "<b></b>"})
	require.ErrorIs(t, err, common.ErrorInvalidArgument)

	in := iphone()
	in.Category = common.CategoryAll
	_, err = s.CreateProduct(ctx, alice, in)
	require.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = s.CreateProduct(ctx, auth.Identity{UserID: "no-profile"}, iphone())
	require.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = s.CreateProduct(ctx, auth.Identity{}, iphone())
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGetProducts_CategoryAndOrder(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	for _, p := range []models.ProductInput{
		{Name: "Robe", Category: "Femmes"},
		{Name: "Lampe", Category: "Maison"},
		{Name: "Chaise", Category: "Maison"},
	} {
		_, err := s.CreateProduct(ctx, alice, p)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	maison, err := s.GetProducts(ctx, models.ProductQuery{Category: "Maison"})
	require.NoError(t, err)
	require.Len(t, maison, 2)
	assert.Equal(t, "Chaise", maison[0].Name, "newest first")
	assert.Equal(t, "Lampe", maison[1].Name)

	all, err := s.GetProducts(ctx, models.ProductQuery{Category: common.CategoryAll})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.GetProducts(ctx, models.ProductQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpdateProduct_NeverChangesOwner(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, alice, iphone())
	require.NoError(t, err)

	upd, err := s.UpdateProduct(ctx, alice, p.ID, models.ProductPatch{Condition: models.String("Used")})
	require.NoError(t, err)
	assert.Equal(t, "Used", upd.Condition)
	assert.Equal(t, "iPhone 12", upd.Name)
	assert.Equal(t, "u1", upd.UserID)

	_, err = s.UpdateProduct(ctx, bob, p.ID, models.ProductPatch{Name: models.String("mine now")})
	require.ErrorIs(t, err, common.ErrPermissionDenied)

	again, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", again.UserID)
	assert.Equal(t, "iPhone 12", again.Name)
}

func TestUpdateProduct_EmptyPatchAndMissing(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, alice, iphone())
	require.NoError(t, err)

	same, err := s.UpdateProduct(ctx, alice, p.ID, models.ProductPatch{})
	require.NoError(t, err)
	assert.Equal(t, p.UpdatedAt, same.UpdatedAt)

	_, err = s.UpdateProduct(ctx, alice, "p-missing", models.ProductPatch{Name: models.String("x")})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteProduct(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, alice, iphone())
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteProduct(ctx, bob, p.ID), common.ErrPermissionDenied)
	require.NoError(t, s.DeleteProduct(ctx, alice, p.ID))

	list, err := s.GetProducts(ctx, models.ProductQuery{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.ErrorIs(t, s.DeleteProduct(ctx, alice, "p1"), common.ErrorNotFound)

	_, err = s.GetUser(ctx, "u1")
	require.NoError(t, err, "deleting a product must not touch the owner")
}

func TestListProducts_ReportsRevision(t *testing.T) {
	s, _ := newMarket(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, before, err := s.ListProducts(ctx, models.ProductQuery{})
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, alice, iphone())
	require.NoError(t, err)

	list, after, err := s.ListProducts(ctx, models.ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, before+1, after)

	ch, err := s.WatchProducts(ctx, models.ProductQuery{})
	require.NoError(t, err)
	select {
	case snap := <-ch:
		assert.Equal(t, after, snap.Revision)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}
}

func TestWatchProducts(t *testing.T) {
	s, _ := newMarket(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.WatchProducts(ctx, models.ProductQuery{OwnerID: "u1"})
	require.NoError(t, err)

	first := <-ch
	require.NoError(t, first.Err)
	assert.Empty(t, first.Products)

	_, err = s.CreateProduct(context.Background(), alice, iphone())
	require.NoError(t, err)

	select {
	case next := <-ch:
		require.NoError(t, next.Err)
		require.Len(t, next.Products, 1)
		assert.Greater(t, next.Revision, first.Revision)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUploadImage(t *testing.T) {
	s, blobs := newMarket(t)
	ctx := context.Background()

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	url, err := s.UploadImage(ctx, alice, "photo.png", "", png)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "memory://images/u1/2024/3/1/"))

	data, ct, ok := blobs.Get(strings.TrimPrefix(url, "memory://"))
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, png, data)

	_, err = s.UploadImage(ctx, alice, "notes.txt", "text/plain", []byte("hello"))
	require.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = s.UploadImage(ctx, alice, "big.jpg", "image/jpeg", make([]byte, MaxImageSize+1))
	require.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = s.UploadImage(ctx, alice, "empty.jpg", "image/jpeg", nil)
	require.ErrorIs(t, err, common.ErrorInvalidArgument)
}

type failingBlobs struct{ blobstore.MemoryStore }

func (f *failingBlobs) Put(context.Context, string, string, []byte) error {
	return errors.New("s3 down")
}

func TestUploadImage_StorageFailure(t *testing.T) {
	s, _ := newMarket(t)
	s.blobs = &failingBlobs{}

	_, err := s.UploadImage(context.Background(), alice, "a.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 down")
}

func TestDeleteProfileData_Cascades(t *testing.T) {
	s, _ := newMarket(t)
	ctx := context.Background()

	_, err := s.CreateProduct(ctx, alice, iphone())
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, alice, models.ProductInput{Name: "Lampe"})
	require.NoError(t, err)
	kept, err := s.CreateProduct(ctx, bob, models.ProductInput{Name: "Vélo"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProfileData(ctx, "u1"))

	_, err = s.GetUser(ctx, "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	all, err := s.GetProducts(ctx, models.ProductQuery{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	require.NoError(t, s.DeleteProfileData(ctx, "u1"), "second run is a no-op")
}
