package transaction

import (
	"encrypted-notes/internal/codec"
	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/operation"
)

const (
	// OperationType is the type tag of transactions carrying an encrypted operation.
	OperationType = "notes/op/v1"
	// SpaceContextKey is the clear routing-context entry holding the space id.
	SpaceContextKey = "space"
)

// ID is the stable identity of a signed transaction.
type ID string

// Variant names the body shape of a transaction. Operations only travel in
// extension bodies.
type Variant string

const (
	VariantExtV1     Variant = "ext_v1"
	VariantIdentity  Variant = "identity_v1"
	VariantPolicy    Variant = "policy_v1"
	VariantPublicKey Variant = "publish_key_v1"
)

// Transaction is a signed, already verified unit delivered by the
// transaction layer. Only Context is readable routing metadata; Payload is
// opaque.
type Transaction struct {
	ID       ID                `cbor:"0,keyasint" json:"id"`
	Creator  string            `cbor:"1,keyasint" json:"creator"`
	Created  int64             `cbor:"2,keyasint" json:"created"`
	Previous []ID              `cbor:"3,keyasint" json:"previous"`
	Variant  Variant           `cbor:"4,keyasint" json:"variant"`
	Type     string            `cbor:"5,keyasint" json:"type"`
	Context  map[string][]byte `cbor:"6,keyasint" json:"context"`
	Payload  []byte            `cbor:"7,keyasint" json:"payload"`
}

// Wrap builds the extension transaction for an encrypted operation. The
// space id is copied into the clear routing context.
func Wrap(id ID, creator string, created int64, enc *operation.Encrypted) (*Transaction, error) {
	payload, err := enc.Marshal()
	if err != nil {
		return nil, err
	}
	tx := &Transaction{
		ID:      id,
		Creator: creator,
		Created: created,
		Variant: VariantExtV1,
		Type:    OperationType,
		Payload: payload,
	}
	if enc.Space != nil {
		space, err := codec.Marshal(enc.Space)
		if err != nil {
			return nil, apperrors.Serialization(err)
		}
		tx.Context = map[string][]byte{SpaceContextKey: space}
	}
	return tx, nil
}

// Space decodes the routing-context space id, if present.
func (t *Transaction) Space() (*ids.SpaceID, error) {
	raw, ok := t.Context[SpaceContextKey]
	if !ok {
		return nil, nil
	}
	var space ids.SpaceID
	if err := codec.Unmarshal(raw, &space); err != nil {
		return nil, apperrors.Deserialization(err)
	}
	return &space, nil
}

// Operation decodes the payload into its encrypted wire form.
func (t *Transaction) Operation() (*operation.Encrypted, error) {
	return operation.UnmarshalEncrypted(t.Payload)
}

func Marshal(t *Transaction) ([]byte, error) {
	data, err := codec.Marshal(t)
	if err != nil {
		return nil, apperrors.Serialization(err)
	}
	return data, nil
}

func Unmarshal(data []byte) (*Transaction, error) {
	var t Transaction
	if err := codec.Unmarshal(data, &t); err != nil {
		return nil, apperrors.Deserialization(err)
	}
	return &t, nil
}
