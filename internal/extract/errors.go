package extract

import (
	"errors"
	"fmt"
)

// Kind classifies why an extraction failed.
type Kind int

const (
	// KindParseFailure means the model reply held no valid JSON object.
	KindParseFailure Kind = iota + 1
	// KindServiceUnavailable means the completion call itself failed.
	KindServiceUnavailable
	// KindAuthFailure means the completion service rejected the credential.
	KindAuthFailure
	// KindTimeout means the completion call exceeded its deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindParseFailure:
		return "parse_failure"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindAuthFailure:
		return "auth_failure"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ExtractionError reports a failed AI extraction with its classification.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract: %s", e.Kind)
	}
	return fmt.Sprintf("extract: %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first ExtractionError in err's chain.
func KindOf(err error) (Kind, bool) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}
