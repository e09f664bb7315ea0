package domain

import (
	"maps"
	"slices"

	"encrypted-notes/internal/ids"
)

type Tag string

type Note struct {
	ID      ids.NoteID  `cbor:"0,keyasint" json:"id"`
	SpaceID ids.SpaceID `cbor:"1,keyasint" json:"space_id"`
	Title   *string     `cbor:"2,keyasint" json:"title"`
	Body    NoteBody    `cbor:"3,keyasint" json:"body"`
	Tags    []Tag       `cbor:"4,keyasint" json:"tags"`
	Deleted bool        `cbor:"5,keyasint" json:"deleted"`
}

func NewNote(space ids.SpaceID) Note {
	return Note{
		ID:      ids.NewNoteID(),
		SpaceID: space,
		Body:    NewNoteBody(),
	}
}

func (n Note) Clone() Note {
	n.Title = clonePtr(n.Title)
	n.Body = n.Body.Clone()
	n.Tags = slices.Clone(n.Tags)
	return n
}

func (n Note) HasTag(tag Tag) bool {
	return slices.Contains(n.Tags, tag)
}

// AddTag appends tag unless the note already carries it.
func (n *Note) AddTag(tag Tag) {
	if !n.HasTag(tag) {
		n.Tags = append(n.Tags, tag)
	}
}

func (n *Note) RemoveTag(tag Tag) {
	n.Tags = slices.DeleteFunc(n.Tags, func(t Tag) bool { return t == tag })
}

// NoteBody keeps section content apart from display order. The set of ids in
// Order is always the key set of Sections.
type NoteBody struct {
	Sections map[ids.SectionID]Section `cbor:"0,keyasint" json:"sections"`
	Order    []ids.SectionID           `cbor:"1,keyasint" json:"order"`
}

func NewNoteBody() NoteBody {
	return NoteBody{Sections: map[ids.SectionID]Section{}}
}

func (b NoteBody) Clone() NoteBody {
	return NoteBody{
		Sections: maps.Clone(b.Sections),
		Order:    slices.Clone(b.Order),
	}
}

func (b NoteBody) Len() int {
	return len(b.Order)
}

// Ordered returns sections in display order.
func (b NoteBody) Ordered() []Section {
	out := make([]Section, 0, len(b.Order))
	for _, id := range b.Order {
		out = append(out, b.Sections[id])
	}
	return out
}

// Set stores section under id. A new id is placed after the sibling named by
// after, or appended when after is nil or not in the body. An existing id
// keeps its place unless after names a different sibling.
func (b *NoteBody) Set(id ids.SectionID, section Section, after *ids.SectionID) {
	if b.Sections == nil {
		b.Sections = map[ids.SectionID]Section{}
	}
	_, exists := b.Sections[id]
	b.Sections[id] = section
	if exists && after == nil {
		return
	}
	if exists {
		b.Move(id, after)
		return
	}
	b.Order = b.insertAfter(b.Order, id, after)
}

// Move repositions an existing section. Unknown ids are ignored.
func (b *NoteBody) Move(id ids.SectionID, after *ids.SectionID) {
	if _, ok := b.Sections[id]; !ok {
		return
	}
	if after != nil && *after == id {
		return
	}
	order := slices.DeleteFunc(slices.Clone(b.Order), func(s ids.SectionID) bool { return s == id })
	b.Order = b.insertAfter(order, id, after)
}

// SetIndent changes the indent of an existing section and reports whether it
// was found.
func (b *NoteBody) SetIndent(id ids.SectionID, indent uint8) bool {
	section, ok := b.Sections[id]
	if !ok {
		return false
	}
	section.Indent = indent
	b.Sections[id] = section
	return true
}

func (b *NoteBody) Remove(id ids.SectionID) {
	delete(b.Sections, id)
	b.Order = slices.DeleteFunc(b.Order, func(s ids.SectionID) bool { return s == id })
}

// Consistent reports whether Order and Sections name the same ids exactly once.
func (b NoteBody) Consistent() bool {
	if len(b.Order) != len(b.Sections) {
		return false
	}
	seen := make(map[ids.SectionID]struct{}, len(b.Order))
	for _, id := range b.Order {
		if _, ok := b.Sections[id]; !ok {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

func (b NoteBody) insertAfter(order []ids.SectionID, id ids.SectionID, after *ids.SectionID) []ids.SectionID {
	if after != nil {
		if i := slices.Index(order, *after); i >= 0 {
			return slices.Insert(order, i+1, id)
		}
	}
	return append(order, id)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
