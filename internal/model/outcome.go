package model

import "fmt"

// FailureKind classifies a failed fetch.
type FailureKind int

const (
	ConnectionFailed FailureKind = iota + 1
	Timeout
	HTTPStatus
	MalformedJSON
	NoValidPrice
)

func (k FailureKind) String() string {
	switch k {
	case ConnectionFailed:
		return "CONNECTION_FAILED"
	case Timeout:
		return "TIMEOUT"
	case HTTPStatus:
		return "HTTP_STATUS"
	case MalformedJSON:
		return "MALFORMED_JSON"
	case NoValidPrice:
		return "NO_VALID_PRICE"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// FetchError is the only error type returned across the fetch boundary.
type FetchError struct {
	Kind       FailureKind
	StatusCode int // set for HTTPStatus
	Detail     string
}

func (e *FetchError) Error() string {
	if e.Kind == HTTPStatus {
		return fmt.Sprintf("%s(%d): %s", e.Kind, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Failf builds a FetchError with a formatted detail.
func Failf(kind FailureKind, format string, args ...any) *FetchError {
	return &FetchError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// FetchOutcome is the tagged result of one fetch attempt: exactly one of
// Sample (when Err is nil) or Err is meaningful.
type FetchOutcome struct {
	Sample PriceSample
	Err    error
}

// OK reports whether the fetch succeeded.
func (o FetchOutcome) OK() bool { return o.Err == nil }
