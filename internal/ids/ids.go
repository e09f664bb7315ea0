package ids

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/oklog/ulid/v2"
)

// ObjectID is a 128-bit, lexically sortable, globally unique identifier.
// Its canonical encoded form is the 26 character ULID text.
type ObjectID struct {
	ulid ulid.ULID
}

func NewObjectID() ObjectID {
	return ObjectID{ulid: ulid.Make()}
}

func ParseObjectID(s string) (ObjectID, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return ObjectID{}, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	return ObjectID{ulid: id}, nil
}

// MustParseObjectID panics on malformed input. Meant for tests and constants.
func MustParseObjectID(s string) ObjectID {
	id, err := ParseObjectID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (o ObjectID) String() string {
	return o.ulid.String()
}

func (o ObjectID) IsZero() bool {
	return o.ulid == ulid.ULID{}
}

// Compare orders ids by creation time, then randomness.
func (o ObjectID) Compare(other ObjectID) int {
	return o.ulid.Compare(other.ulid)
}

// Object returns the untyped id behind a per-kind wrapper.
func (o ObjectID) Object() ObjectID {
	return o
}

func (o ObjectID) Bytes() []byte {
	return o.ulid.Bytes()
}

func (o ObjectID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *ObjectID) UnmarshalText(data []byte) error {
	id, err := ParseObjectID(string(data))
	if err != nil {
		return err
	}
	*o = id
	return nil
}

func (o ObjectID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(o.String())
}

func (o *ObjectID) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := ParseObjectID(s)
	if err != nil {
		return err
	}
	*o = id
	return nil
}

// Per-kind identifiers. They share ObjectID's encoding but are distinct types,
// so a NoteID can never be passed where a PageID is expected.
type (
	FileID      struct{ ObjectID }
	FileChunkID struct{ ObjectID }
	NoteID      struct{ ObjectID }
	SectionID   struct{ ObjectID }
	PageID      struct{ ObjectID }
	SpaceID     struct{ ObjectID }
	MemberID    struct{ ObjectID }
)

func NewFileID() FileID           { return FileID{NewObjectID()} }
func NewFileChunkID() FileChunkID { return FileChunkID{NewObjectID()} }
func NewNoteID() NoteID           { return NoteID{NewObjectID()} }
func NewSectionID() SectionID     { return SectionID{NewObjectID()} }
func NewPageID() PageID           { return PageID{NewObjectID()} }
func NewSpaceID() SpaceID         { return SpaceID{NewObjectID()} }
func NewMemberID() MemberID       { return MemberID{NewObjectID()} }

func ParseFileID(s string) (FileID, error) {
	id, err := ParseObjectID(s)
	return FileID{id}, err
}

func ParseNoteID(s string) (NoteID, error) {
	id, err := ParseObjectID(s)
	return NoteID{id}, err
}

func ParsePageID(s string) (PageID, error) {
	id, err := ParseObjectID(s)
	return PageID{id}, err
}

func ParseSpaceID(s string) (SpaceID, error) {
	id, err := ParseObjectID(s)
	return SpaceID{id}, err
}

func ParseSectionID(s string) (SectionID, error) {
	id, err := ParseObjectID(s)
	return SectionID{id}, err
}

// Ptr returns a pointer to a copy of v, for optional id fields.
func Ptr[T any](v T) *T {
	return &v
}
