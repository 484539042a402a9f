package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik1704/rsr-v1/internal/shared/storage/object"
)

func TestPutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	n, err := store.Put(ctx, "owner/a.png", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	rc, err := store.Open(ctx, "owner/a.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "pixels", string(body))

	require.NoError(t, store.Delete(ctx, "owner/a.png"))
	_, err = store.Open(ctx, "owner/a.png")
	assert.True(t, errors.Is(err, object.ErrNotFound))

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "owner/a.png"))
}

func TestPutRefusesToOverwrite(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	_, err := store.Put(ctx, "k.png", "image/png", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "k.png", "image/png", strings.NewReader("two"))
	assert.Error(t, err)
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Put(context.Background(), "../escape.png", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Error(t, store.Delete(context.Background(), "/abs/path"))
}
