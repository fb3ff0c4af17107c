package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThingStore(t *testing.T) {
	t.Parallel()

	store := NewThingStore(Thing{ID: "seed", Name: "seeded"})

	first, err := store.Create("  first  ")
	require.NoError(t, err)
	assert.Equal(t, "first", first.Name)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := store.Create("second")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = store.Create("   ")
	assert.ErrorIs(t, err, ErrThingNameRequired)

	got, err := store.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrThingNotFound)

	names := func() []string {
		var out []string
		for _, thing := range store.List() {
			out = append(out, thing.Name)
		}
		return out
	}
	assert.Equal(t, []string{"seeded", "first", "second"}, names())

	require.NoError(t, store.Delete(first.ID))
	assert.ErrorIs(t, store.Delete(first.ID), ErrThingNotFound)
	assert.Equal(t, []string{"seeded", "second"}, names())
}

func TestThingStore_EmptyList(t *testing.T) {
	t.Parallel()

	things := NewThingStore().List()
	assert.NotNil(t, things)
	assert.Empty(t, things)
}
