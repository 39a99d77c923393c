package geoindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	t.Run("zero distance", func(t *testing.T) {
		assert.InDelta(t, 0, HaversineKm(34.0, -6.8, 34.0, -6.8), 1e-9)
	})

	t.Run("rabat to casablanca", func(t *testing.T) {
		// Agdal to downtown Casablanca is roughly 87 km as the crow flies.
		d := HaversineKm(34.0, -6.8, 33.57, -7.59)
		assert.InDelta(t, 87, d, 5)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := HaversineKm(34.0, -6.8, 33.57, -7.59)
		b := HaversineKm(33.57, -7.59, 34.0, -6.8)
		assert.InDelta(t, a, b, 1e-9)
	})
}

func TestRTree(t *testing.T) {
	ctx := context.Background()

	t.Run("nearby returns only points inside radius", func(t *testing.T) {
		idx := NewRTree()
		require.NoError(t, idx.Add(ctx, 1, 34.00, -6.80)) // Rabat
		require.NoError(t, idx.Add(ctx, 2, 34.02, -6.82)) // ~3 km away
		require.NoError(t, idx.Add(ctx, 3, 33.57, -7.59)) // Casablanca, ~87 km

		ids, err := idx.Nearby(ctx, 34.0, -6.8, 5)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, ids)
	})

	t.Run("remove drops the point", func(t *testing.T) {
		idx := NewRTree()
		require.NoError(t, idx.Add(ctx, 1, 34.0, -6.8))
		require.NoError(t, idx.Remove(ctx, 1, 34.0, -6.8))

		ids, err := idx.Nearby(ctx, 34.0, -6.8, 5)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("re-adding an id moves it", func(t *testing.T) {
		idx := NewRTree()
		require.NoError(t, idx.Add(ctx, 1, 34.0, -6.8))
		require.NoError(t, idx.Add(ctx, 1, 33.57, -7.59))

		ids, err := idx.Nearby(ctx, 34.0, -6.8, 5)
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = idx.Nearby(ctx, 33.57, -7.59, 5)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids)
	})

	t.Run("remove of unknown id is a no-op", func(t *testing.T) {
		idx := NewRTree()
		require.NoError(t, idx.Remove(ctx, 42, 0, 0))
	})
}
