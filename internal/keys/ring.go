// Package keys holds the symmetric keys this replica can decrypt with.
package keys

import (
	"sync/atomic"

	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/seal"

	"github.com/puzpuzpuz/xsync/v3"
)

// Ring maps spaces to their keys. It is read concurrently by decryption
// workers while the API registers new keys.
type Ring struct {
	spaces   *xsync.MapOf[ids.SpaceID, seal.SecretKey]
	personal atomic.Pointer[seal.SecretKey]
}

func NewRing() *Ring {
	return &Ring{
		spaces: xsync.NewMapOf[ids.SpaceID, seal.SecretKey](),
	}
}

func (r *Ring) Put(space ids.SpaceID, key seal.SecretKey) {
	r.spaces.Store(space, key)
}

func (r *Ring) Get(space ids.SpaceID) (seal.SecretKey, bool) {
	return r.spaces.Load(space)
}

func (r *Ring) Delete(space ids.SpaceID) {
	r.spaces.Delete(space)
}

func (r *Ring) Len() int {
	return r.spaces.Size()
}

// SetPersonal registers the key for operations without a space context.
func (r *Ring) SetPersonal(key seal.SecretKey) {
	r.personal.Store(&key)
}

func (r *Ring) Personal() (seal.SecretKey, bool) {
	k := r.personal.Load()
	if k == nil {
		return seal.SecretKey{}, false
	}
	return *k, true
}

// For resolves the key of a routing bucket. A nil space is the personal
// bucket.
func (r *Ring) For(space *ids.SpaceID) (seal.SecretKey, error) {
	if space == nil {
		if k, ok := r.Personal(); ok {
			return k, nil
		}
		return seal.SecretKey{}, apperrors.MissingSpaceKey("personal")
	}
	if k, ok := r.Get(*space); ok {
		return k, nil
	}
	return seal.SecretKey{}, apperrors.MissingSpaceKey(space.String())
}

// Spaces lists the spaces with a registered key.
func (r *Ring) Spaces() []ids.SpaceID {
	out := make([]ids.SpaceID, 0, r.spaces.Size())
	r.spaces.Range(func(space ids.SpaceID, _ seal.SecretKey) bool {
		out = append(out, space)
		return true
	})
	return out
}
