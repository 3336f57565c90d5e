// Package apperr classifies the errors surfaced by the ledgers so transports can map
// them onto status codes without knowing the individual failure cases.
package apperr

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	// KindPrecondition marks an operation that is not allowed in the record's current
	// state, e.g. a second check-in on the same day.
	KindPrecondition
	KindConflict
	KindNotFound
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindPrecondition:
		return "precondition"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindBusy:
		return "busy"
	default:
		return "internal"
	}
}

// Error is a classified failure. Code is a stable machine-readable identifier,
// Message is shown to end users verbatim.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports sentinel equality by code, so a sentinel wrapped With a cause still
// matches errors.Is(err, Sentinel).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Kind == e.Kind
}

// With returns a copy of e carrying cause.
func (e *Error) With(cause error) *Error {
	clone := *e
	clone.Err = cause
	return &clone
}

// WithMessage returns a copy of e with a more specific user-facing message.
func (e *Error) WithMessage(message string) *Error {
	clone := *e
	clone.Message = message
	return &clone
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "server_error"
}

// MessageOf returns the user-facing message. Unclassified errors never leak their
// text.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Internal Server Error"
}

var (
	ErrMissingToken = New(KindAuthentication, "missing_token", "Missing or invalid Authorization header")
	ErrInvalidToken = New(KindAuthentication, "invalid_token", "Invalid or expired token")
	ErrForbidden    = New(KindAuthorization, "forbidden", "You do not have permission to perform this action")
	ErrBusy         = New(KindBusy, "busy", "The record is being updated by another request, please retry")
)
