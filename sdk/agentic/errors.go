package agentic

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes client errors.
type ErrorKind string

const (
	// KindValidation marks locally rejected input.
	KindValidation ErrorKind = "validation"
	// KindAuthentication marks a 401 from the platform.
	KindAuthentication ErrorKind = "authentication"
	// KindRequest marks a request that never produced a usable response.
	KindRequest ErrorKind = "request"
	// KindResponse marks an error response from the platform.
	KindResponse ErrorKind = "response"
	// KindRunNotFound marks a status lookup for an unknown run ID.
	KindRunNotFound ErrorKind = "run_not_found"
	// KindTimeout marks a request or polling deadline expiry.
	KindTimeout ErrorKind = "timeout"
	// KindStream marks a failure while consuming an event stream.
	KindStream ErrorKind = "stream"
	// KindConfig marks missing or invalid configuration.
	KindConfig ErrorKind = "config"
)

// Error is the error type returned by the client. StatusCode is zero when
// no HTTP response was involved.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can match with errors.Is against the
// exported kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.StatusCode == 0
}

// Kind sentinels for errors.Is matching.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrRequest        = &Error{Kind: KindRequest}
	ErrResponse       = &Error{Kind: KindResponse}
	ErrRunNotFound    = &Error{Kind: KindRunNotFound}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrStream         = &Error{Kind: KindStream}
	ErrConfig         = &Error{Kind: KindConfig}
)

func newError(kind ErrorKind, status int, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: status,
		Message:    fmt.Sprintf(format, args...),
	}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// AsError unwraps err to *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
