// Package state folds an ordered operation log into the materialized view
// the application reads. A State is owned by one folder at a time.
package state

import (
	"maps"

	"encrypted-notes/internal/domain"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/operation"
)

type State struct {
	files    map[ids.FileID]domain.File
	chunks   map[ids.FileChunkID]domain.FileChunk
	notes    map[ids.NoteID]domain.Note
	pages    map[ids.PageID]domain.Page
	spaces   map[ids.SpaceID]domain.Space
	settings domain.UserSettings
}

func New() *State {
	return &State{
		files:  map[ids.FileID]domain.File{},
		chunks: map[ids.FileChunkID]domain.FileChunk{},
		notes:  map[ids.NoteID]domain.Note{},
		pages:  map[ids.PageID]domain.Page{},
		spaces: map[ids.SpaceID]domain.Space{},
	}
}

// Replay folds ops in order and returns how many were applied before the
// first failure. On failure the State holds that valid prefix.
func (s *State) Replay(ops []operation.Operation) (int, error) {
	for i, op := range ops {
		if err := s.ApplyOperation(op); err != nil {
			return i, err
		}
	}
	return len(ops), nil
}

// Rebuild folds ops into a fresh State.
func Rebuild(ops []operation.Operation) (*State, error) {
	s := New()
	_, err := s.Replay(ops)
	return s, err
}

func (s *State) Files() map[ids.FileID]domain.File {
	return maps.Clone(s.files)
}

func (s *State) FileChunks() map[ids.FileChunkID]domain.FileChunk {
	out := make(map[ids.FileChunkID]domain.FileChunk, len(s.chunks))
	for id, c := range s.chunks {
		out[id] = c.Clone()
	}
	return out
}

func (s *State) Notes() map[ids.NoteID]domain.Note {
	out := make(map[ids.NoteID]domain.Note, len(s.notes))
	for id, n := range s.notes {
		out[id] = n.Clone()
	}
	return out
}

func (s *State) Pages() map[ids.PageID]domain.Page {
	out := make(map[ids.PageID]domain.Page, len(s.pages))
	for id, p := range s.pages {
		out[id] = p.Clone()
	}
	return out
}

func (s *State) Spaces() map[ids.SpaceID]domain.Space {
	out := make(map[ids.SpaceID]domain.Space, len(s.spaces))
	for id, sp := range s.spaces {
		out[id] = sp.Clone()
	}
	return out
}

func (s *State) UserSettings() domain.UserSettings {
	settings := s.settings
	if settings.DefaultSpace != nil {
		space := *settings.DefaultSpace
		settings.DefaultSpace = &space
	}
	return settings
}

func (s *State) File(id ids.FileID) (domain.File, bool) {
	f, ok := s.files[id]
	return f, ok
}

func (s *State) Note(id ids.NoteID) (domain.Note, bool) {
	n, ok := s.notes[id]
	if !ok {
		return domain.Note{}, false
	}
	return n.Clone(), true
}

func (s *State) Page(id ids.PageID) (domain.Page, bool) {
	p, ok := s.pages[id]
	if !ok {
		return domain.Page{}, false
	}
	return p.Clone(), true
}

func (s *State) Space(id ids.SpaceID) (domain.Space, bool) {
	sp, ok := s.spaces[id]
	if !ok {
		return domain.Space{}, false
	}
	return sp.Clone(), true
}

// ChunksOf returns a file's chunks ordered by index.
func (s *State) ChunksOf(file ids.FileID) []domain.FileChunk {
	var out []domain.FileChunk
	for _, c := range s.chunks {
		if c.FileID == file {
			out = append(out, c.Clone())
		}
	}
	sortChunks(out)
	return out
}
