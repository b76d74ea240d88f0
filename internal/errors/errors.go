package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a malformed or incomplete request: missing
// recipient, unparsable sendAt, missing required template fields. The
// whole operation is aborted before anything is sent.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown template or job id.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id int) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// PayloadTooLargeError reports a recipient set that exceeded the hard
// cap. The caller must narrow the filter; nothing is truncated silently.
type PayloadTooLargeError struct {
	Count int
	Cap   int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("recipient set has %d leads, exceeds cap of %d; narrow the filter", e.Count, e.Cap)
}

func NewPayloadTooLarge(count, limit int) error {
	return &PayloadTooLargeError{Count: count, Cap: limit}
}

// TransportError wraps a failed delivery attempt for one recipient. It
// is caught at the dispatch boundary and turned into a per-recipient
// result entry, never aborting the batch.
type TransportError struct {
	To  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.To, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func NewTransport(to string, err error) error {
	return &TransportError{To: to, Err: err}
}

// HTTPStatus maps the error taxonomy onto response codes for the
// controllers. Unknown errors fall through to 500.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		tooLarge   *PayloadTooLargeError
		transport  *TransportError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
