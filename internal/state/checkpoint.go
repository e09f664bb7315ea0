package state

import (
	"slices"

	"encrypted-notes/internal/domain"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/operation"
)

// Checkpoint returns full-object Set operations that rebuild the space's
// part of the State from empty. The order is deterministic: the space,
// then each file followed by its chunks, then notes, then pages.
func (s *State) Checkpoint(space ids.SpaceID) []operation.Operation {
	var ops []operation.Operation
	if sp, ok := s.spaces[space]; ok {
		ops = append(ops, operation.SpaceSet(sp.Clone()))
	}

	for _, f := range sortedByID(s.files, func(f domain.File) bool { return f.SpaceID == space }) {
		ops = append(ops, operation.FileSet(f.Clone()))
		for _, c := range s.ChunksOf(f.ID) {
			ops = append(ops, operation.FileSetChunk(space, c))
		}
	}
	for _, n := range sortedByID(s.notes, func(n domain.Note) bool { return n.SpaceID == space }) {
		ops = append(ops, operation.NoteSet(n.Clone()))
	}
	for _, p := range sortedByID(s.pages, func(p domain.Page) bool { return p.SpaceID == space }) {
		ops = append(ops, operation.PageSet(p.Clone()))
	}
	return ops
}

type objectID interface {
	comparable
	Object() ids.ObjectID
}

func sortedByID[K objectID, V any](m map[K]V, keep func(V) bool) []V {
	keys := make([]K, 0, len(m))
	for k, v := range m {
		if keep(v) {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b K) int { return a.Object().Compare(b.Object()) })
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func sortChunks(chunks []domain.FileChunk) {
	slices.SortFunc(chunks, func(a, b domain.FileChunk) int {
		if a.Index != b.Index {
			if a.Index < b.Index {
				return -1
			}
			return 1
		}
		return a.ID.Compare(b.ID.ObjectID)
	})
}
