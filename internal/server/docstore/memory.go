package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory. It is used by tests and by
// the server when no database is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	hub         *hub
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*Document),
		hub:         newHub(),
		now:         time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) (*Document, error) {
	s.mu.Lock()
	now := s.now().UTC()
	docs := s.collection(collection)

	doc, ok := docs[id]
	switch {
	case !ok:
		doc = &Document{ID: id, Data: stripMeta(data), CreateTime: now, UpdateTime: now}
		docs[id] = doc
	case merge:
		for k, v := range stripMeta(data) {
			doc.Data[k] = v
		}
		doc.UpdateTime = now
	default:
		doc.Data = stripMeta(data)
		doc.UpdateTime = now
	}
	out := cloneDocument(doc)
	s.mu.Unlock()

	s.hub.publish(collection)
	return out, nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	s.mu.Lock()
	now := s.now().UTC()
	doc := &Document{ID: uuid.NewString(), Data: stripMeta(data), CreateTime: now, UpdateTime: now}
	s.collection(collection)[doc.ID] = doc
	out := cloneDocument(doc)
	s.mu.Unlock()

	s.hub.publish(collection)
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	for k, v := range stripMeta(data) {
		doc.Data[k] = v
	}
	doc.UpdateTime = s.now().UTC()
	out := cloneDocument(doc)
	s.mu.Unlock()

	s.hub.publish(collection)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return common.ErrorNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.hub.publish(collection)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Document, 0)
	for _, doc := range s.collections[collection] {
		if matches(doc, q.Filters) {
			result = append(result, cloneDocument(doc))
		}
	}

	sortDocuments(result, q.OrderBy, q.Desc)

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (s *MemoryStore) Revision() int64 { return s.hub.current() }

func (s *MemoryStore) Watch(ctx context.Context, collection string, q Query) (<-chan Snapshot, error) {
	return s.hub.watch(ctx, collection, func(ctx context.Context) ([]*Document, error) {
		return s.Query(ctx, collection, q)
	}), nil
}

// collection returns the id->doc map, creating it. Caller holds s.mu.
func (s *MemoryStore) collection(name string) map[string]*Document {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]*Document)
		s.collections[name] = docs
	}
	return docs
}

func matches(doc *Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc.Data[f.Field]
		if !ok || fmt.Sprint(v) != f.Value {
			return false
		}
	}
	return true
}

func sortDocuments(docs []*Document, field string, desc bool) {
	less := func(a, b *Document) int {
		switch field {
		case "":
			return 0
		case FieldCreatedAt:
			return a.CreateTime.Compare(b.CreateTime)
		case FieldUpdatedAt:
			return a.UpdateTime.Compare(b.UpdateTime)
		default:
			av, bv := fmt.Sprint(a.Data[field]), fmt.Sprint(b.Data[field])
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		c := less(docs[i], docs[j])
		if c == 0 {
			return docs[i].ID < docs[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func cloneDocument(d *Document) *Document {
	data := make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		switch val := v.(type) {
		case []string:
			data[k] = append([]string(nil), val...)
		case []any:
			data[k] = append([]any(nil), val...)
		default:
			data[k] = v
		}
	}
	return &Document{ID: d.ID, Data: data, CreateTime: d.CreateTime, UpdateTime: d.UpdateTime}
}
