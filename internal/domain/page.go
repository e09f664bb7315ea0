package domain

import (
	"encoding/json"
	"errors"
	"slices"

	"encrypted-notes/internal/codec"
	"encrypted-notes/internal/ids"
)

type Page struct {
	ID      ids.PageID  `cbor:"0,keyasint" json:"id"`
	SpaceID ids.SpaceID `cbor:"1,keyasint" json:"space_id"`
	Title   string      `cbor:"2,keyasint" json:"title"`
	Slice   Slice       `cbor:"3,keyasint" json:"slice"`
	View    Display     `cbor:"4,keyasint" json:"view"`
	Deleted bool        `cbor:"5,keyasint" json:"deleted"`
}

func (p Page) Clone() Page {
	p.Slice = p.Slice.Clone()
	return p
}

// Display is how a page renders its notes.
type Display uint8

const (
	DisplayListSingleColumn Display = iota
	DisplayListDoubleColumn
	DisplayGrid
	DisplayMasonry
	DisplayGraph
)

var displayNames = []string{"list_single_column", "list_double_column", "grid", "masonry", "graph"}

func (d Display) String() string {
	if int(d) < len(displayNames) {
		return displayNames[d]
	}
	return "unknown"
}

func (d Display) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type SortField uint8

const (
	SortCreated SortField = iota
	SortModified
	SortTitle
	SortHasFile
)

type SortOrder uint8

const (
	Ascending SortOrder = iota
	Descending
)

type SortEntry struct {
	Field SortField `cbor:"0,keyasint" json:"field"`
	Order SortOrder `cbor:"1,keyasint" json:"order"`
}

type SliceKind uint16

const (
	SliceFiltered SliceKind = iota + 1
	SliceManual
)

// SliceSpec is the closed set of ways a page selects notes.
type SliceSpec interface {
	SliceKind() SliceKind
}

type FilteredSlice struct {
	Filter Filter      `cbor:"0,keyasint" json:"filter"`
	Sort   []SortEntry `cbor:"1,keyasint" json:"sort"`
}

type ManualSlice struct {
	Notes []ids.NoteID `cbor:"0,keyasint" json:"notes"`
}

func (FilteredSlice) SliceKind() SliceKind { return SliceFiltered }
func (ManualSlice) SliceKind() SliceKind   { return SliceManual }

// Slice carries one SliceSpec through the encoder.
type Slice struct {
	Spec SliceSpec
}

var errEmptySlice = errors.New("domain: slice has no spec")

func (s Slice) Clone() Slice {
	switch spec := s.Spec.(type) {
	case ManualSlice:
		return Slice{Spec: ManualSlice{Notes: slices.Clone(spec.Notes)}}
	case FilteredSlice:
		return Slice{Spec: FilteredSlice{Filter: spec.Filter.Clone(), Sort: slices.Clone(spec.Sort)}}
	}
	return s
}

func (s Slice) MarshalCBOR() ([]byte, error) {
	if s.Spec == nil {
		return nil, errEmptySlice
	}
	return codec.MarshalVariant(uint16(s.Spec.SliceKind()), s.Spec)
}

func (s *Slice) UnmarshalCBOR(data []byte) error {
	v, err := codec.UnmarshalVariant(data)
	if err != nil {
		return err
	}
	var spec SliceSpec
	switch SliceKind(v.Kind) {
	case SliceFiltered:
		spec, err = codec.DecodeAs[FilteredSlice](v.Payload)
	case SliceManual:
		spec, err = codec.DecodeAs[ManualSlice](v.Payload)
	default:
		return &codec.UnknownKindError{Union: "slice", Kind: v.Kind}
	}
	if err != nil {
		return err
	}
	s.Spec = spec
	return nil
}

func (s Slice) MarshalJSON() ([]byte, error) {
	switch spec := s.Spec.(type) {
	case FilteredSlice:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			FilteredSlice
		}{"filtered", spec})
	case ManualSlice:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			ManualSlice
		}{"manual", spec})
	}
	return []byte("null"), nil
}

type FilterKind uint16

const (
	FilterAnd FilterKind = iota + 1
	FilterOr
	FilterTag
	FilterSearch
	FilterHasFile
	FilterLinksTo
)

var filterKindNames = map[FilterKind]string{
	FilterAnd:     "and",
	FilterOr:      "or",
	FilterTag:     "tag",
	FilterSearch:  "search",
	FilterHasFile: "has_file",
	FilterLinksTo: "links_to",
}

// FilterSpec is one node of a boolean filter tree.
type FilterSpec interface {
	FilterKind() FilterKind
}

type (
	AndFilter struct {
		Filters []Filter `cbor:"0,keyasint" json:"filters"`
	}
	OrFilter struct {
		Filters []Filter `cbor:"0,keyasint" json:"filters"`
	}
	TagFilter struct {
		Tag Tag `cbor:"0,keyasint" json:"tag"`
	}
	SearchFilter struct {
		Text string `cbor:"0,keyasint" json:"text"`
	}
	HasFileFilter struct {
		HasFile bool `cbor:"0,keyasint" json:"has_file"`
	}
	LinksToFilter struct {
		Note ids.NoteID `cbor:"0,keyasint" json:"note"`
	}
)

func (AndFilter) FilterKind() FilterKind     { return FilterAnd }
func (OrFilter) FilterKind() FilterKind      { return FilterOr }
func (TagFilter) FilterKind() FilterKind     { return FilterTag }
func (SearchFilter) FilterKind() FilterKind  { return FilterSearch }
func (HasFileFilter) FilterKind() FilterKind { return FilterHasFile }
func (LinksToFilter) FilterKind() FilterKind { return FilterLinksTo }

// Filter carries one FilterSpec through the encoder. The zero Filter matches
// everything.
type Filter struct {
	Spec FilterSpec
}

func (f Filter) Clone() Filter {
	switch spec := f.Spec.(type) {
	case AndFilter:
		return Filter{Spec: AndFilter{Filters: cloneFilters(spec.Filters)}}
	case OrFilter:
		return Filter{Spec: OrFilter{Filters: cloneFilters(spec.Filters)}}
	}
	return f
}

func cloneFilters(filters []Filter) []Filter {
	if filters == nil {
		return nil
	}
	out := make([]Filter, len(filters))
	for i, f := range filters {
		out[i] = f.Clone()
	}
	return out
}

func (f Filter) MarshalCBOR() ([]byte, error) {
	if f.Spec == nil {
		return codec.Marshal(nil)
	}
	return codec.MarshalVariant(uint16(f.Spec.FilterKind()), f.Spec)
}

func (f *Filter) UnmarshalCBOR(data []byte) error {
	if len(data) == 1 && data[0] == 0xf6 {
		f.Spec = nil
		return nil
	}
	v, err := codec.UnmarshalVariant(data)
	if err != nil {
		return err
	}
	var spec FilterSpec
	switch FilterKind(v.Kind) {
	case FilterAnd:
		spec, err = codec.DecodeAs[AndFilter](v.Payload)
	case FilterOr:
		spec, err = codec.DecodeAs[OrFilter](v.Payload)
	case FilterTag:
		spec, err = codec.DecodeAs[TagFilter](v.Payload)
	case FilterSearch:
		spec, err = codec.DecodeAs[SearchFilter](v.Payload)
	case FilterHasFile:
		spec, err = codec.DecodeAs[HasFileFilter](v.Payload)
	case FilterLinksTo:
		spec, err = codec.DecodeAs[LinksToFilter](v.Payload)
	default:
		return &codec.UnknownKindError{Union: "filter", Kind: v.Kind}
	}
	if err != nil {
		return err
	}
	f.Spec = spec
	return nil
}

func (f Filter) MarshalJSON() ([]byte, error) {
	if f.Spec == nil {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Kind string     `json:"kind"`
		Spec FilterSpec `json:"spec"`
	}{filterKindNames[f.Spec.FilterKind()], f.Spec})
}
