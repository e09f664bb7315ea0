package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies an APIError independently of its message.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindSerialization
	KindDeserialization
	KindProtocol
	KindInvalidOperation
	KindMissingContext
	KindWrongTransactionType
	KindWrongTransactionVariant
	KindMissingSpaceKey
)

var kindNames = map[Kind]string{
	KindInternal:                "internal",
	KindBadRequest:              "bad_request",
	KindUnauthorized:            "unauthorized",
	KindNotFound:                "not_found",
	KindSerialization:           "serialization",
	KindDeserialization:         "deserialization",
	KindProtocol:                "protocol",
	KindInvalidOperation:        "invalid_operation",
	KindMissingContext:          "missing_context",
	KindWrongTransactionType:    "wrong_transaction_type",
	KindWrongTransactionVariant: "wrong_transaction_variant",
	KindMissingSpaceKey:         "missing_space_key",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var kindStatus = map[Kind]int{
	KindInternal:                http.StatusInternalServerError,
	KindBadRequest:              http.StatusBadRequest,
	KindUnauthorized:            http.StatusUnauthorized,
	KindNotFound:                http.StatusNotFound,
	KindSerialization:           http.StatusInternalServerError,
	KindDeserialization:         http.StatusUnprocessableEntity,
	KindProtocol:                http.StatusUnprocessableEntity,
	KindInvalidOperation:        http.StatusUnprocessableEntity,
	KindMissingContext:          http.StatusUnprocessableEntity,
	KindWrongTransactionType:    http.StatusUnprocessableEntity,
	KindWrongTransactionVariant: http.StatusUnprocessableEntity,
	KindMissingSpaceKey:         http.StatusConflict,
}

// APIError is the error type shared by every layer.
type APIError struct {
	Kind          Kind   `json:"kind"`
	Status        int    `json:"-"`
	Message       string `json:"error"`
	TransactionID string `json:"transaction_id,omitempty"`
	Internal      error  `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.TransactionID != "" {
		msg = fmt.Sprintf("%s (transaction %s)", msg, e.TransactionID)
	}
	if e.Internal != nil {
		return msg + ": " + e.Internal.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Internal
}

// Is matches any APIError of the same Kind, so the Err* sentinels work with
// errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// WithTransaction returns a copy tagged with the offending transaction id.
func (e *APIError) WithTransaction(id string) *APIError {
	cp := *e
	cp.TransactionID = id
	return &cp
}

// WithMessage returns a copy of the APIError with a custom message
func (e *APIError) WithMessage(msg string) *APIError {
	cp := *e
	cp.Message = msg
	return &cp
}

func New(kind Kind, message string, err error) *APIError {
	return &APIError{
		Kind:     kind,
		Status:   kindStatus[kind],
		Message:  message,
		Internal: err,
	}
}

// Sentinels for errors.Is.
var (
	ErrInternal                = New(KindInternal, "internal server error", nil)
	ErrBadRequest              = New(KindBadRequest, "bad request", nil)
	ErrUnauthorized            = New(KindUnauthorized, "unauthorized", nil)
	ErrNotFound                = New(KindNotFound, "resource not found", nil)
	ErrSerialization           = New(KindSerialization, "serialization failed", nil)
	ErrDeserialization         = New(KindDeserialization, "deserialization failed", nil)
	ErrProtocol                = New(KindProtocol, "protocol failure", nil)
	ErrInvalidOperation        = New(KindInvalidOperation, "invalid operation", nil)
	ErrMissingContext          = New(KindMissingContext, "operation is missing context", nil)
	ErrWrongTransactionType    = New(KindWrongTransactionType, "wrong transaction type", nil)
	ErrWrongTransactionVariant = New(KindWrongTransactionVariant, "wrong transaction variant", nil)
	ErrMissingSpaceKey         = New(KindMissingSpaceKey, "missing space key", nil)
)

func Internal(err error) *APIError {
	return New(KindInternal, "internal server error", err)
}

func BadRequest(msg string, err error) *APIError {
	return New(KindBadRequest, msg, err)
}

// NewValidationError turns request binding failures into a BadRequest
// naming each offending field.
func NewValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequest("invalid request body", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return BadRequest("validation failed: "+strings.Join(fields, ", "), err)
}

func Unauthorized(msg string) *APIError {
	return New(KindUnauthorized, msg, nil)
}

func NotFound(msg string) *APIError {
	return New(KindNotFound, msg, nil)
}

func Serialization(err error) *APIError {
	return New(KindSerialization, "serialization failed", err)
}

func Deserialization(err error) *APIError {
	return New(KindDeserialization, "deserialization failed", err)
}

// Protocol wraps a failure from the sealing layer without reinterpreting it.
func Protocol(err error) *APIError {
	return New(KindProtocol, "protocol failure", err)
}

func InvalidOperation(msg string) *APIError {
	return New(KindInvalidOperation, msg, nil)
}

func MissingContext(field string) *APIError {
	return New(KindMissingContext, "operation is missing "+field+" context", nil)
}

func WrongTransactionType(got string) *APIError {
	return New(KindWrongTransactionType, fmt.Sprintf("wrong transaction type %q", got), nil)
}

func WrongTransactionVariant(got string) *APIError {
	return New(KindWrongTransactionVariant, fmt.Sprintf("wrong transaction variant %q", got), nil)
}

func MissingSpaceKey(space string) *APIError {
	return New(KindMissingSpaceKey, "missing key for space "+space, nil)
}

// KindOf returns the Kind of the first APIError in err's chain.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
