package state

import (
	"bytes"
	"context"
	"testing"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/client/client"
	"github.com/dmitrijs2005/tradehub/internal/client/repositories/wishlist"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWishlist(t *testing.T) *Wishlist {
	t.Helper()
	w, _ := newLoggedWishlist(t)
	return w
}

func newLoggedWishlist(t *testing.T) (*Wishlist, *bytes.Buffer) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var buf bytes.Buffer
	w := NewWishlist(wishlist.NewSQLiteRepository(db), logging.NewJSONLogger(&buf, "debug"))
	t.Cleanup(w.Close)
	return w, &buf
}

func TestWishlist_AddLoadRemove(t *testing.T) {
	w := newWishlist(t)
	ctx := context.Background()

	a, res := w.Add(ctx, "u1", "Vélo", "")
	require.True(t, res.OK())
	_, res = w.Add(ctx, "u1", "Console", "")
	require.True(t, res.OK())
	assert.Len(t, w.Get().Value, 2)

	require.True(t, w.Remove(ctx, "u1", a.ID).OK())
	got := w.Get().Value
	require.Len(t, got, 1)
	assert.Equal(t, "Console", got[0].Title)

	w.Reset(ctx)
	assert.Empty(t, w.Get().Value)

	s, res := w.Load(ctx, "u1")
	require.True(t, res.OK())
	assert.Len(t, s.Value, 1)
}

func TestWishlist_Failures(t *testing.T) {
	w := newWishlist(t)
	ctx := context.Background()

	_, res := w.Add(ctx, "u1", "  ", "")
	assert.Equal(t, adapter.Invalid, res.Status)
	assert.NotEmpty(t, w.Get().Err)

	res = w.Remove(ctx, "u1", 999)
	assert.Equal(t, adapter.NotFound, res.Status)
}

func TestWishlist_ClosedStateIsLogged(t *testing.T) {
	w, buf := newLoggedWishlist(t)
	ctx := context.Background()
	w.Close()

	w.Reset(ctx)
	assert.Contains(t, buf.String(), "wishlist state not updated")
	assert.Contains(t, buf.String(), ErrClosed.Error())

	buf.Reset()
	_, res := w.Add(ctx, "u1", "  ", "")
	assert.Equal(t, adapter.Invalid, res.Status)
	assert.Contains(t, buf.String(), "wishlist_state")
}
