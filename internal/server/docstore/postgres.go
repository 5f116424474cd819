package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/dbx"
	"github.com/google/uuid"
)

// PostgresStore keeps every collection in the documents table, one jsonb
// row per document. Watchers are notified in-process, so a single server
// instance must own the table.
type PostgresStore struct {
	db  dbx.DBTX
	hub *hub
	now func() time.Time
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db, hub: newHub(), now: time.Now}
}

const documentColumns = `id, data, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	query :=
		`SELECT ` + documentColumns + ` FROM documents
		 WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) (*Document, error) {
	payload, err := json.Marshal(stripMeta(data))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	onConflict := `data = EXCLUDED.data`
	if merge {
		onConflict = `data = documents.data || EXCLUDED.data`
	}

	query :=
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4, $4)
		 ON CONFLICT (collection, id) DO UPDATE SET ` + onConflict + `, updated_at = EXCLUDED.updated_at
		 RETURNING ` + documentColumns

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id, string(payload), s.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.hub.publish(collection)
	return doc, nil
}

func (s *PostgresStore) Add(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	payload, err := json.Marshal(stripMeta(data))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	query :=
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES ($1, $2, $3::jsonb, $4, $4)
		 RETURNING ` + documentColumns

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, uuid.NewString(), string(payload), s.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.hub.publish(collection)
	return doc, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	payload, err := json.Marshal(stripMeta(data))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	query :=
		`UPDATE documents SET data = data || $3::jsonb, updated_at = $4
		 WHERE collection = $1 AND id = $2
		 RETURNING ` + documentColumns

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, collection, id, string(payload), s.now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	s.hub.publish(collection)
	return doc, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	query :=
		`DELETE FROM documents
		 WHERE collection = $1 AND id = $2`

	res, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.ExpectAffected(res); err != nil {
		return err
	}

	s.hub.publish(collection)
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	query, args := buildSelect(collection, q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) Revision() int64 { return s.hub.current() }

func (s *PostgresStore) Watch(ctx context.Context, collection string, q Query) (<-chan Snapshot, error) {
	return s.hub.watch(ctx, collection, func(ctx context.Context) ([]*Document, error) {
		return s.Query(ctx, collection, q)
	}), nil
}

// buildSelect renders q as SQL. Field names travel as parameters; only the
// metadata columns are spliced into the statement.
func buildSelect(collection string, q Query) (string, []any) {
	var b strings.Builder
	args := []any{collection}

	b.WriteString(`SELECT ` + documentColumns + ` FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		args = append(args, f.Field, f.Value)
		fmt.Fprintf(&b, ` AND data->>$%d = $%d`, len(args)-1, len(args))
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	switch q.OrderBy {
	case "":
		b.WriteString(` ORDER BY id`)
	case FieldCreatedAt:
		fmt.Fprintf(&b, ` ORDER BY created_at %s, id`, dir)
	case FieldUpdatedAt:
		fmt.Fprintf(&b, ` ORDER BY updated_at %s, id`, dir)
	default:
		args = append(args, q.OrderBy)
		fmt.Fprintf(&b, ` ORDER BY data->>$%d %s, id`, len(args), dir)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}

	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc     Document
		payload []byte
	)
	if err := row.Scan(&doc.ID, &payload, &doc.CreateTime, &doc.UpdateTime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return &doc, nil
}
