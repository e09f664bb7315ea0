package keys

import (
	"sync"
	"testing"

	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/seal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingLookup(t *testing.T) {
	ring := NewRing()
	space := ids.NewSpaceID()
	key, err := seal.GenerateKey()
	require.NoError(t, err)

	_, err = ring.For(&space)
	assert.ErrorIs(t, err, apperrors.ErrMissingSpaceKey)

	ring.Put(space, key)
	got, err := ring.For(&space)
	require.NoError(t, err)
	assert.Equal(t, key, got)
	assert.Equal(t, []ids.SpaceID{space}, ring.Spaces())

	ring.Delete(space)
	assert.Equal(t, 0, ring.Len())
	_, ok := ring.Get(space)
	assert.False(t, ok)
}

func TestRingPersonal(t *testing.T) {
	ring := NewRing()

	_, err := ring.For(nil)
	assert.ErrorIs(t, err, apperrors.ErrMissingSpaceKey)

	key, err := seal.GenerateKey()
	require.NoError(t, err)
	ring.SetPersonal(key)

	got, err := ring.For(nil)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestRingConcurrentAccess(t *testing.T) {
	ring := NewRing()
	key, err := seal.GenerateKey()
	require.NoError(t, err)

	spaces := make([]ids.SpaceID, 64)
	for i := range spaces {
		spaces[i] = ids.NewSpaceID()
	}

	var wg sync.WaitGroup
	for _, space := range spaces {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ring.Put(space, key)
		}()
		go func() {
			defer wg.Done()
			ring.Get(space)
		}()
	}
	wg.Wait()

	assert.Equal(t, len(spaces), ring.Len())
}
