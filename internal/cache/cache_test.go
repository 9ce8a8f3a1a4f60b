package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(0)

	_, ok, err := m.GetWarehouses(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	codes := []string{"BOS7", "ONT8"}
	require.NoError(t, m.SetWarehouses(ctx, "h1", codes))
	codes[0] = "MUTATED"

	got, ok, err := m.GetWarehouses(ctx, "h1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"BOS7", "ONT8"}, got)

	got[1] = "MUTATED"
	again, _, _ := m.GetWarehouses(ctx, "h1")
	assert.Equal(t, "ONT8", again[1])

	_, ok, _ = m.GetWarehouses(ctx, "h2")
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetWarehouses(ctx, "h", []string{"ONT8"}))

	now = now.Add(30 * time.Second)
	_, ok, _ := m.GetWarehouses(ctx, "h")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = m.GetWarehouses(ctx, "h")
	assert.False(t, ok)
}

func TestMemory_EmptyCatalogIsCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(0)
	require.NoError(t, m.SetWarehouses(ctx, "h", nil))

	got, ok, err := m.GetWarehouses(ctx, "h")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := New(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = New(ctx, Options{Backend: "none"})
	require.NoError(t, err)
	_, ok, _ := s.GetWarehouses(ctx, "h")
	assert.False(t, ok)

	_, err = New(ctx, Options{Backend: "memcached"})
	assert.Error(t, err)

	_, err = New(ctx, Options{Backend: "redis"})
	assert.Error(t, err)
}
