package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	// KindTransport: the call never completed (refused, DNS, deadline, cancelled).
	KindTransport ErrorKind = iota + 1
	// KindApplication: the backend answered, but not with a usable success.
	KindApplication
	// KindParse: the inbound request could not be decoded or validated.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

type BackendError struct {
	Kind   ErrorKind
	Op     string // backend path, e.g. /api/crawl
	Status int    // HTTP status for KindApplication, 0 otherwise
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func TransportErr(op string, err error) *BackendError {
	return &BackendError{Kind: KindTransport, Op: op, Err: err}
}

func ApplicationErr(op string, status int, err error) *BackendError {
	return &BackendError{Kind: KindApplication, Op: op, Status: status, Err: err}
}

// KindOf reports the classification of err; errors that are not BackendErrors are
// treated as application failures so they are never masked by the fallback.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindParse
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindApplication
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}
