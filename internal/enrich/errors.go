package enrich

import "github.com/rotisserie/eris"

// MsgMissingFields is returned when website or company name is absent.
const MsgMissingFields = "Missing website or company name"

// ErrNotConfigured means the completion service credential was not supplied
// at startup. No outbound call is made.
var ErrNotConfigured = eris.New("enrich: completion service not configured")

// ValidationError reports a missing or blank required request field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ErrMalformedBody means the request body is not a JSON object of the
// expected shape. It is not a field-level validation failure.
var ErrMalformedBody = eris.New("enrich: malformed request body")
