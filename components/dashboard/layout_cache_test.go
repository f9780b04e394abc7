package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingLayoutStoreMemoizesLoads(t *testing.T) {
	inner := &fakeLayoutStore{doc: &LayoutDocument{VisualOrder: []string{"store-sales"}}}
	store := NewCachingLayoutStore(inner, time.Minute)
	ctx := ContextWithBearerToken(context.Background(), "viewer")

	for range 3 {
		doc, err := store.LoadLayout(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"store-sales"}, doc.VisualOrder)
	}
	assert.Equal(t, 1, inner.loads)

	_, err := store.LoadLayout(ContextWithBearerToken(context.Background(), "other"))
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loads, "entries are per viewer")
}

func TestCachingLayoutStoreExpires(t *testing.T) {
	inner := &fakeLayoutStore{doc: &LayoutDocument{}}
	store := NewCachingLayoutStore(inner, time.Second)
	now := time.Unix(100, 0)
	store.now = func() time.Time { return now }

	_, _ = store.LoadLayout(context.Background())
	now = now.Add(2 * time.Second)
	_, _ = store.LoadLayout(context.Background())
	assert.Equal(t, 2, inner.loads)
}

func TestCachingLayoutStoreCachesNotFoundAndRefreshesOnSave(t *testing.T) {
	inner := NewInMemoryLayoutStore()
	store := NewCachingLayoutStore(inner, time.Minute)
	ctx := ContextWithBearerToken(context.Background(), "viewer")

	_, err := store.LoadLayout(ctx)
	assert.ErrorIs(t, err, ErrLayoutNotFound)

	require.NoError(t, store.SaveLayout(ctx, LayoutDocument{VisualOrder: []string{"kpi-summary"}}))
	doc, err := store.LoadLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kpi-summary"}, doc.VisualOrder)
	assert.Equal(t, 1, inner.Saves())
}

func TestCachingLayoutStoreSkipsTransientErrors(t *testing.T) {
	inner := &fakeLayoutStore{loadErr: errors.New("unavailable")}
	store := NewCachingLayoutStore(inner, time.Minute)

	_, err := store.LoadLayout(context.Background())
	require.Error(t, err)
	_, err = store.LoadLayout(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.loads)
}

func TestCachingLayoutStoreDisabled(t *testing.T) {
	inner := &fakeLayoutStore{doc: &LayoutDocument{}}
	store := NewCachingLayoutStore(inner, 0)
	_, _ = store.LoadLayout(context.Background())
	_, _ = store.LoadLayout(context.Background())
	assert.Equal(t, 2, inner.loads)
}
