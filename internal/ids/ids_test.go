package ids

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectID(t *testing.T) {
	id := NewObjectID()

	parsed, err := ParseObjectID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.False(t, parsed.IsZero())

	_, err = ParseObjectID("not-a-ulid")
	assert.Error(t, err)
}

func TestObjectIDZero(t *testing.T) {
	var id NoteID
	assert.True(t, id.IsZero())
}

func TestObjectIDOrdering(t *testing.T) {
	first := NewSpaceID()
	time.Sleep(2 * time.Millisecond)
	second := NewSpaceID()

	assert.Equal(t, -1, first.Compare(second.ObjectID))
	assert.Equal(t, 1, second.Compare(first.ObjectID))
	assert.Equal(t, 0, first.Compare(first.ObjectID))
}

func TestObjectIDCBORIsCanonicalText(t *testing.T) {
	id := NewNoteID()

	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	var text string
	require.NoError(t, cbor.Unmarshal(data, &text))
	assert.Equal(t, id.String(), text)

	var decoded NoteID
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestObjectIDCBORRejectsGarbage(t *testing.T) {
	data, err := cbor.Marshal("definitely not an id")
	require.NoError(t, err)

	var decoded SpaceID
	assert.Error(t, cbor.Unmarshal(data, &decoded))
}

func TestObjectIDJSON(t *testing.T) {
	type holder struct {
		Space SpaceID           `json:"space"`
		Note  *NoteID           `json:"note"`
		Map   map[SectionID]int `json:"map"`
	}
	section := NewSectionID()
	in := holder{Space: NewSpaceID(), Note: Ptr(NewNoteID()), Map: map[SectionID]int{section: 3}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), in.Space.String())
	assert.Contains(t, string(data), section.String())

	var out holder
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
