package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string         `cbor:"0,keyasint"`
	Attrs map[string]int `cbor:"1,keyasint"`
	Note  *string        `cbor:"2,keyasint"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	a := sample{Name: "a", Attrs: map[string]int{}}
	b := sample{Name: "a", Attrs: map[string]int{}}
	keys := []string{"zeta", "alpha", "mid", "beta", "omega", "k"}
	for i, k := range keys {
		a.Attrs[k] = i
	}
	for i := len(keys) - 1; i >= 0; i-- {
		b.Attrs[keys[i]] = i
	}

	first, err := Marshal(a)
	require.NoError(t, err)
	for range 20 {
		again, err := Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestVariantRoundTrip(t *testing.T) {
	data, err := MarshalVariant(7, sample{Name: "x"})
	require.NoError(t, err)

	v, err := UnmarshalVariant(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(7), v.Kind)

	decoded, err := DecodeAs[sample](v.Payload)
	require.NoError(t, err)
	assert.Equal(t, "x", decoded.Name)
	assert.Nil(t, decoded.Note)
}

func TestUnmarshalVariantRejectsGarbage(t *testing.T) {
	_, err := UnmarshalVariant([]byte{0xff, 0x00, 0x13})
	assert.Error(t, err)
}

func TestUnknownKindError(t *testing.T) {
	err := &UnknownKindError{Union: "section", Kind: 99}
	assert.Equal(t, "codec: unknown section kind 99", err.Error())
}
