package typesearch

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies every error the client can return.
type Kind int

const (
	// KindInvalidArgument is returned when a local precondition fails.
	// No request has been sent when an error carries this kind.
	KindInvalidArgument Kind = iota + 1

	// KindNotFound is returned when the engine answers 404.
	KindNotFound

	// KindConflict is returned when the engine answers 409, typically a
	// duplicate document id on create.
	KindConflict

	// KindValidationFailed is returned when the engine rejects the request
	// shape with 400 or 422.
	KindValidationFailed

	// KindUnauthorized is returned when the engine answers 401 or 403.
	KindUnauthorized

	// KindServerError is returned for any 5xx answer.
	KindServerError

	// KindUnknown is returned for any other non-2xx answer, and for
	// responses the client cannot make sense of.
	KindUnknown

	// KindTransportFailure is returned when the request never completed:
	// connection failure, timeout, or cancellation.
	KindTransportFailure
)

// String returns the human-readable string representation of the kind.
// This implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindValidationFailed:
		return "validation failed"
	case KindUnauthorized:
		return "unauthorized"
	case KindServerError:
		return "server error"
	case KindUnknown:
		return "unknown"
	case KindTransportFailure:
		return "transport failure"
	default:
		return "unclassified"
	}
}

// Error is the typed failure returned by all client operations.
type Error struct {
	// Kind is the machine-readable classification of the failure.
	Kind Kind

	// StatusCode is the HTTP status the engine answered with.
	// It is zero for local failures and transport failures.
	StatusCode int

	// Body is the raw response body, kept for diagnostics.
	// It is nil for local failures and transport failures.
	Body []byte

	msg   string
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("typesearch: %s (status %d): %s", e.Kind, e.StatusCode, e.msg)
	}
	if e.cause != nil {
		return fmt.Sprintf("typesearch: %s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("typesearch: %s: %s", e.Kind, e.msg)
}

// Unwrap exposes the underlying cause, if any, so callers can still match
// sentinel errors such as context.Canceled with errors.Is.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure is worth retrying. Only server
// errors and transport failures qualify; the client itself never retries.
func (e *Error) Retryable() bool {
	return e.Kind == KindServerError || e.Kind == KindTransportFailure
}

// KindOf extracts the Kind from any error returned by this package.
// It returns zero for errors that did not originate here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// invalidArgumentf creates a local precondition failure. Callers must not
// have issued a request before returning one of these.
func invalidArgumentf(format string, args ...interface{}) error {
	return errors.WithStack(&Error{
		Kind: KindInvalidArgument,
		msg:  fmt.Sprintf(format, args...),
	})
}

// transportFailure wraps a request that never completed.
func transportFailure(cause error, msg string) error {
	return errors.WithStack(&Error{
		Kind:  KindTransportFailure,
		msg:   msg,
		cause: cause,
	})
}

// unknownf creates a failure for responses the client cannot interpret,
// such as a bulk import answer with fewer lines than submitted documents.
func unknownf(format string, args ...interface{}) error {
	return errors.WithStack(&Error{
		Kind: KindUnknown,
		msg:  fmt.Sprintf(format, args...),
	})
}

// mapStatus translates a non-2xx engine answer into a typed error.
// The raw body rides along for diagnostics.
func mapStatus(status int, body []byte) error {
	var kind Kind
	switch {
	case status == 404:
		kind = KindNotFound
	case status == 409:
		kind = KindConflict
	case status == 400 || status == 422:
		kind = KindValidationFailed
	case status == 401 || status == 403:
		kind = KindUnauthorized
	case status >= 500 && status <= 599:
		kind = KindServerError
	default:
		kind = KindUnknown
	}

	return errors.WithStack(&Error{
		Kind:       kind,
		StatusCode: status,
		Body:       body,
		msg:        apiMessage(body),
	})
}

// apiMessage pulls the engine's message field out of an error body, falling
// back to the raw body when it is not the usual {"message": ...} shape.
func apiMessage(body []byte) string {
	msg := struct {
		Message string `json:"message"`
	}{}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	if len(body) == 0 {
		return "empty response body"
	}
	const maxEcho = 200
	if len(body) > maxEcho {
		return string(body[:maxEcho]) + "..."
	}
	return string(body)
}
