package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/dmitrijs2005/tradehub/internal/server/auth"
	"github.com/dmitrijs2005/tradehub/internal/server/blobstore"
	"github.com/dmitrijs2005/tradehub/internal/server/docstore"
	"github.com/dmitrijs2005/tradehub/internal/server/metrics"
)

const MaxImageSize = common.MaxImageSize

// ProductSnapshot is one state of a watched product query.
type ProductSnapshot struct {
	Products []models.Product
	Revision int64
	Err      error
}

// MarketService enforces the ownership rules of the users and products
// collections on top of the document store:
//
//   - a user document can only be written by its own identity;
//   - a product is created for the caller and can only be changed or
//     deleted by its owner;
//   - the owner of a product never changes.
type MarketService struct {
	store     docstore.Store
	blobs     blobstore.Store
	sanitizer Sanitizer
	metrics   metrics.MetricsCollector
	logger    logging.Logger
	now       func() time.Time
}

func NewMarketService(store docstore.Store, blobs blobstore.Store, m metrics.MetricsCollector, l logging.Logger) *MarketService {
	return &MarketService{
		store:     store,
		blobs:     blobs,
		sanitizer: NewTextSanitizer(),
		metrics:   m,
		logger:    l.With("module", "market_service"),
		now:       time.Now,
	}
}

// SaveUser merges patch into the user document userID, creating it if needed.
func (s *MarketService) SaveUser(ctx context.Context, id auth.Identity, userID string, patch models.UserPatch) (*models.User, error) {
	if id.IsZero() {
		return nil, common.ErrorUnauthorized
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrorInvalidArgument)
	}
	if id.UserID != userID {
		return nil, common.ErrPermissionDenied
	}

	doc, err := s.store.Set(ctx, common.CollectionUsers, userID, sanitizeFields(s.sanitizer, patch.Fields()), true)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return userFromDoc(doc)
}

// CreateProfile writes the initial user document right after sign-up.
func (s *MarketService) CreateProfile(ctx context.Context, id auth.Identity, fullName string) error {
	patch := models.UserPatch{Email: models.String(id.Email)}
	if fullName != "" {
		patch.FullName = models.String(fullName)
	}
	_, err := s.SaveUser(ctx, id, id.UserID, patch)
	return err
}

func (s *MarketService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrorInvalidArgument)
	}
	doc, err := s.store.Get(ctx, common.CollectionUsers, userID)
	if err != nil {
		return nil, err
	}
	return userFromDoc(doc)
}

// CreateProduct stores a new listing owned by id. The store assigns the id.
func (s *MarketService) CreateProduct(ctx context.Context, id auth.Identity, in models.ProductInput) (*models.Product, error) {
	if id.IsZero() {
		return nil, common.ErrorUnauthorized
	}

	fields := sanitizeFields(s.sanitizer, in.Fields())
	if err := validateProductFields(fields, true); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, common.CollectionUsers, id.UserID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: owner has no profile", common.ErrorInvalidArgument)
		}
		return nil, err
	}

	fields["userId"] = id.UserID

	doc, err := s.store.Add(ctx, common.CollectionProducts, fields)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.metrics.RecordProductWrite("create")
	s.logger.Info(ctx, "product created", "id", doc.ID, "owner", id.UserID)

	return productFromDoc(doc)
}

// GetProducts returns the listings matching q, newest first.
func (s *MarketService) GetProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	products, _, err := s.ListProducts(ctx, q)
	return products, err
}

// ListProducts is GetProducts plus the store revision the result reflects at
// least, so clients can order it against watch snapshots.
func (s *MarketService) ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	revision := s.store.Revision()
	docs, err := s.store.Query(ctx, common.CollectionProducts, productQuery(q))
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	products, err := productsFromDocs(docs)
	if err != nil {
		return nil, 0, err
	}
	return products, revision, nil
}

func (s *MarketService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	doc, err := s.store.Get(ctx, common.CollectionProducts, productID)
	if err != nil {
		return nil, err
	}
	return productFromDoc(doc)
}

// UpdateProduct merges patch into the listing. An empty patch is a no-op
// that returns the stored listing.
func (s *MarketService) UpdateProduct(ctx context.Context, id auth.Identity, productID string, patch models.ProductPatch) (*models.Product, error) {
	current, err := s.ownedProduct(ctx, id, productID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	fields := sanitizeFields(s.sanitizer, patch.Fields())
	if err := validateProductFields(fields, false); err != nil {
		return nil, err
	}

	doc, err := s.store.Update(ctx, common.CollectionProducts, productID, fields)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.metrics.RecordProductWrite("update")

	return productFromDoc(doc)
}

// DeleteProduct removes one listing. Nothing else is deleted with it.
func (s *MarketService) DeleteProduct(ctx context.Context, id auth.Identity, productID string) error {
	if _, err := s.ownedProduct(ctx, id, productID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, common.CollectionProducts, productID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.metrics.RecordProductWrite("delete")
	s.logger.Info(ctx, "product deleted", "id", productID, "owner", id.UserID)
	return nil
}

// WatchProducts streams the result of q after every change to the products
// collection, starting with the current state. The channel is closed when ctx
// is done or the store fails.
func (s *MarketService) WatchProducts(ctx context.Context, q models.ProductQuery) (<-chan ProductSnapshot, error) {
	in, err := s.store.Watch(ctx, common.CollectionProducts, productQuery(q))
	if err != nil {
		return nil, fmt.Errorf("watch products: %w", err)
	}

	out := make(chan ProductSnapshot)
	s.metrics.WatcherStarted()

	go func() {
		defer close(out)
		defer s.metrics.WatcherStopped()

		for snap := range in {
			next := ProductSnapshot{Revision: snap.Revision, Err: snap.Err}
			if snap.Err == nil {
				next.Products, next.Err = productsFromDocs(snap.Documents)
			}
			select {
			case out <- next:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// UploadImage stores an image of the caller and returns a URL for it.
func (s *MarketService) UploadImage(ctx context.Context, id auth.Identity, fileName, contentType string, data []byte) (string, error) {
	if id.IsZero() {
		return "", common.ErrorUnauthorized
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", common.ErrorInvalidArgument)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("%w: image larger than %d bytes", common.ErrorInvalidArgument, MaxImageSize)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", common.ErrorInvalidArgument, contentType)
	}

	key := blobstore.NewKey(id.UserID, fileName, s.now())
	if err := s.blobs.Put(ctx, key, contentType, data); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	s.metrics.RecordUpload(len(data))

	url, err := s.blobs.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("image url: %w", err)
	}
	s.logger.Info(ctx, "image uploaded", "key", key, "size", len(data))
	return url, nil
}

// DeleteProfileData removes every product of userID and then the user
// document. It is not atomic; a failure leaves the remaining data in place
// and can be retried.
func (s *MarketService) DeleteProfileData(ctx context.Context, userID string) error {
	docs, err := s.store.Query(ctx, common.CollectionProducts, docstore.Query{}.Where("userId", userID))
	if err != nil {
		return fmt.Errorf("list products of %s: %w", userID, err)
	}
	for _, d := range docs {
		if err := s.store.Delete(ctx, common.CollectionProducts, d.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("delete product %s: %w", d.ID, err)
		}
		s.metrics.RecordProductWrite("delete")
	}

	if err := s.store.Delete(ctx, common.CollectionUsers, userID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	s.logger.Info(ctx, "profile data deleted", "user", userID, "products", len(docs))
	return nil
}

func (s *MarketService) ownedProduct(ctx context.Context, id auth.Identity, productID string) (*models.Product, error) {
	if id.IsZero() {
		return nil, common.ErrorUnauthorized
	}
	if productID == "" {
		return nil, fmt.Errorf("%w: empty product id", common.ErrorInvalidArgument)
	}
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.UserID != id.UserID {
		return nil, common.ErrPermissionDenied
	}
	return p, nil
}

func productQuery(q models.ProductQuery) docstore.Query {
	dq := docstore.Query{Limit: q.Limit}.Order(docstore.FieldCreatedAt, true)
	if q.OwnerID != "" {
		dq = dq.Where("userId", q.OwnerID)
	}
	if q.Category != "" && q.Category != common.CategoryAll {
		dq = dq.Where("category", q.Category)
	}
	return dq
}

func validateProductFields(fields map[string]any, creating bool) error {
	if name, ok := fields["name"]; ok || creating {
		if s, _ := name.(string); s == "" {
			return fmt.Errorf("%w: product name is required", common.ErrorInvalidArgument)
		}
	}
	if c, ok := fields["category"].(string); ok && c == common.CategoryAll {
		return fmt.Errorf("%w: %q is not a product category", common.ErrorInvalidArgument, c)
	}
	return nil
}

func userFromDoc(doc *docstore.Document) (*models.User, error) {
	u := &models.User{}
	if err := doc.DataTo(u); err != nil {
		return nil, err
	}
	return u, nil
}

func productFromDoc(doc *docstore.Document) (*models.Product, error) {
	p := &models.Product{}
	if err := doc.DataTo(p); err != nil {
		return nil, err
	}
	return p, nil
}

func productsFromDocs(docs []*docstore.Document) ([]models.Product, error) {
	out := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := productFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
