package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, user-visible error classification. Every error that
// crosses a service boundary carries exactly one Kind.
type Kind string

const (
	KindValidation              Kind = "validation"
	KindInterpreterUnavailable  Kind = "interpreter_unavailable"
	KindAdjudicationUnavailable Kind = "adjudication_unavailable"
	KindMalformedResponse       Kind = "malformed_response"
	KindMismatch                Kind = "mismatch"
	KindForbidden               Kind = "forbidden"
	KindNotFound                Kind = "not_found"
	KindConflict                Kind = "conflict"
	KindIdentifierExhausted     Kind = "identifier_exhausted"
	KindUnauthorized            Kind = "unauthorized"
	KindInternal                Kind = "internal"
)

type Error struct {
	Kind Kind
	Err  error
	// Extracted carries whatever partial structured data the evidence
	// pipeline produced before failing, for display and manual override.
	Extracted any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// WithExtracted attaches partial pipeline output to the error.
func (e *Error) WithExtracted(extracted any) *Error {
	e.Extracted = extracted
	return e
}

// KindOf reports the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// ExtractedOf returns any partial pipeline output attached to err.
func ExtractedOf(err error) any {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Extracted
	}
	return nil
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a Kind onto the status the API surface responds with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindMismatch:
		return http.StatusUnprocessableEntity
	case KindInterpreterUnavailable, KindAdjudicationUnavailable, KindMalformedResponse:
		return http.StatusBadGateway
	case KindIdentifierExhausted, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
