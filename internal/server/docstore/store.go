// Package docstore is the backend's document database: schemaless documents
// grouped in collections, with merge writes, equality queries and live
// snapshot subscriptions. Two implementations exist, an in-memory one and a
// PostgreSQL one storing documents as jsonb.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Reserved field names that map to document metadata rather than data.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Document is a stored record. Data never contains the metadata fields.
type Document struct {
	ID         string
	Data       map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// DataTo decodes the document into v (a pointer to a struct with json tags).
// The id and timestamps are injected as "id", "createdAt" and "updatedAt".
func (d *Document) DataTo(v any) error {
	m := make(map[string]any, len(d.Data)+3)
	for k, val := range d.Data {
		m[k] = val
	}
	m[FieldID] = d.ID
	m[FieldCreatedAt] = d.CreateTime.UTC()
	m[FieldUpdatedAt] = d.UpdateTime.UTC()

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Filter is an equality condition on a top-level data field.
type Filter struct {
	Field string
	Value string
}

// Query selects documents of one collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where returns a copy of q with an extra equality filter.
func (q Query) Where(field, value string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Order returns a copy of q ordered by field.
func (q Query) Order(field string, desc bool) Query {
	q.OrderBy = field
	q.Desc = desc
	return q
}

// Snapshot is the full result of a watched query at a given revision.
// Revisions grow with every write to the store; Err ends the subscription.
type Snapshot struct {
	Documents []*Document
	Revision  int64
	Err       error
}

// Store is implemented by MemoryStore and PostgresStore.
//
// Update and Delete return common.ErrorNotFound for a missing document.
// Set with merge=true upserts, keeping fields absent from data.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) (*Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (*Document, error)
	Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]*Document, error)
	Watch(ctx context.Context, collection string, q Query) (<-chan Snapshot, error)
	// Revision is the current store revision. A query started after reading
	// it reflects at least that revision.
	Revision() int64
}

func stripMeta(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch k {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}
