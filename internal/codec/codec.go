// Package codec holds the canonical binary encoding shared by every sealed
// or persisted structure. Identical values always encode to identical bytes.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid encode options: %v", err))
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid decode options: %v", err))
	}
	return dm
}

func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Variant is the wire envelope of every closed union: a two element array
// holding the variant kind and the encoded payload.
type Variant struct {
	_       struct{} `cbor:",toarray"`
	Kind    uint16
	Payload cbor.RawMessage
}

func MarshalVariant(kind uint16, payload any) ([]byte, error) {
	raw, err := Marshal(payload)
	if err != nil {
		return nil, err
	}
	return Marshal(Variant{Kind: kind, Payload: raw})
}

func UnmarshalVariant(data []byte) (Variant, error) {
	var v Variant
	if err := Unmarshal(data, &v); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// DecodeAs decodes a variant payload into a fresh T.
func DecodeAs[T any](raw cbor.RawMessage) (T, error) {
	var v T
	if err := Unmarshal(raw, &v); err != nil {
		return v, err
	}
	return v, nil
}

// UnknownKindError is returned when a variant kind has no registered decoder.
type UnknownKindError struct {
	Union string
	Kind  uint16
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("codec: unknown %s kind %d", e.Union, e.Kind)
}
