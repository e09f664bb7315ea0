package operation

import (
	"encrypted-notes/internal/codec"
	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/seal"
)

// Encrypted is the wire form of an Operation. Only the space id is readable
// without the key; the rest of the context and the action are sealed
// separately so the context can be opened on its own.
type Encrypted struct {
	Space             *ids.SpaceID `cbor:"0,keyasint"`
	CiphertextContext seal.Sealed  `cbor:"1,keyasint"`
	CiphertextAction  seal.Sealed  `cbor:"2,keyasint"`
}

// Encrypt seals the operation under the space key.
func (o Operation) Encrypt(key seal.SecretKey) (*Encrypted, error) {
	if o.action == nil {
		return nil, apperrors.InvalidOperation("operation has no action")
	}
	ctxBytes, err := codec.Marshal(o.context.inner())
	if err != nil {
		return nil, apperrors.Serialization(err)
	}
	actionBytes, err := MarshalAction(o.action)
	if err != nil {
		return nil, apperrors.Serialization(err)
	}

	sealedCtx, err := seal.Seal(key, ctxBytes)
	if err != nil {
		return nil, apperrors.Protocol(err)
	}
	sealedAction, err := seal.Seal(key, actionBytes)
	if err != nil {
		return nil, apperrors.Protocol(err)
	}
	return &Encrypted{
		Space:             o.context.Space,
		CiphertextContext: sealedCtx,
		CiphertextAction:  sealedAction,
	}, nil
}

// Decrypt opens both halves of enc and rebuilds the operation.
func Decrypt(key seal.SecretKey, enc *Encrypted) (Operation, error) {
	ctx, err := enc.FullContext(key)
	if err != nil {
		return Operation{}, err
	}
	plaintext, err := seal.Open(key, enc.CiphertextAction)
	if err != nil {
		return Operation{}, apperrors.Protocol(err)
	}
	action, err := UnmarshalAction(plaintext)
	if err != nil {
		return Operation{}, apperrors.Deserialization(err)
	}
	return New(ctx, action), nil
}

// FullContext opens only the context ciphertext. It lets a caller decide
// whether an operation is relevant before paying for the action payload.
func (e *Encrypted) FullContext(key seal.SecretKey) (Context, error) {
	plaintext, err := seal.Open(key, e.CiphertextContext)
	if err != nil {
		return Context{}, apperrors.Protocol(err)
	}
	var inner innerContext
	if err := codec.Unmarshal(plaintext, &inner); err != nil {
		return Context{}, apperrors.Deserialization(err)
	}
	return inner.withSpace(e.Space), nil
}

func (e *Encrypted) Marshal() ([]byte, error) {
	data, err := codec.Marshal(e)
	if err != nil {
		return nil, apperrors.Serialization(err)
	}
	return data, nil
}

func UnmarshalEncrypted(data []byte) (*Encrypted, error) {
	var enc Encrypted
	if err := codec.Unmarshal(data, &enc); err != nil {
		return nil, apperrors.Deserialization(err)
	}
	return &enc, nil
}
