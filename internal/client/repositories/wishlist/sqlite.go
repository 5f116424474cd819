package wishlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/dbx"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Add(ctx context.Context, userID, title, image string) (*models.WishlistEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", common.ErrorInvalidArgument)
	}

	e := &models.WishlistEntry{Title: title, Image: image, CreatedAt: r.now().UTC()}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO wishlist (user_id, title, image, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`, userID, e.Title, e.Image, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to add wishlist entry: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, image, created_at
		FROM wishlist
		WHERE user_id = ?
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	out := []models.WishlistEntry{}
	for rows.Next() {
		var e models.WishlistEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Image, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wishlist WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist entry %d: %w", id, err)
	}
	return dbx.ExpectAffected(res)
}

func (r *SQLiteRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return nil
}
