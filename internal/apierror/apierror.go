// Package apierror provides the error envelope returned to clients and the
// typed error kinds services use to signal expected failures.
// Handlers translate kinds into status codes; anything untyped becomes a 500
// so internal details (SQL, stack traces) never reach the client.
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func New(msg string) *APIError {
	return &APIError{Success: false, Error: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Error: "Error de validacion", Fields: fields}
}

// Kind classifies an expected business failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInsufficientStock
	KindInsufficientPayment
	KindPermissionDenied
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInsufficientPayment:
		return "insufficient_payment"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInsufficientStock, KindInsufficientPayment:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed business error. Sentinels are compared with errors.Is and
// may be wrapped with fmt.Errorf("%w: ...") to add context.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Validation(msg string) *Error          { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) *Error            { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) *Error            { return &Error{Kind: KindConflict, Msg: msg} }
func InsufficientStock(msg string) *Error   { return &Error{Kind: KindInsufficientStock, Msg: msg} }
func InsufficientPayment(msg string) *Error { return &Error{Kind: KindInsufficientPayment, Msg: msg} }
func PermissionDenied(msg string) *Error    { return &Error{Kind: KindPermissionDenied, Msg: msg} }
func Unauthorized(msg string) *Error        { return &Error{Kind: KindUnauthorized, Msg: msg} }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
