package enrich

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/vc-enrich/internal/model"
)

// requestSchema describes the POST body. Website and company_name must
// contain at least one non-space character.
const requestSchema = `{
  "type": "object",
  "required": ["website", "company_name"],
  "properties": {
    "website":      {"type": "string", "pattern": "\\S"},
    "company_name": {"type": "string", "pattern": "\\S"},
    "thesis":       {"type": ["string", "null"]}
  }
}`

var compiledRequestSchema = mustSchema(requestSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("enrich: invalid request schema: " + err.Error())
	}
	return s
}

// DecodeRequest validates body against the request schema and returns the
// normalized request. A missing or blank website or company name is a
// *ValidationError; any other malformed body wraps ErrMalformedBody.
func DecodeRequest(body []byte) (model.EnrichmentRequest, error) {
	var req model.EnrichmentRequest

	result, err := compiledRequestSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return req, eris.Wrap(ErrMalformedBody, err.Error())
	}
	if !result.Valid() {
		return req, schemaError(result.Errors())
	}

	var raw struct {
		Website     string  `json:"website"`
		CompanyName string  `json:"company_name"`
		Thesis      *string `json:"thesis"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, eris.Wrap(ErrMalformedBody, err.Error())
	}
	req.Website = raw.Website
	req.CompanyName = raw.CompanyName
	if raw.Thesis != nil {
		req.Thesis = *raw.Thesis
	}

	req = req.Normalize()
	if err := Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

// Validate rejects requests whose website or company name is blank.
func Validate(req model.EnrichmentRequest) error {
	if strings.TrimSpace(req.Website) == "" || strings.TrimSpace(req.CompanyName) == "" {
		return &ValidationError{Msg: MsgMissingFields}
	}
	return nil
}

func schemaError(errs []gojsonschema.ResultError) error {
	for _, e := range errs {
		switch e.Type() {
		case "required", "pattern":
			return &ValidationError{Msg: MsgMissingFields}
		}
		if f := e.Field(); f == "website" || f == "company_name" {
			return &ValidationError{Msg: MsgMissingFields}
		}
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.String()
	}
	return eris.Wrap(ErrMalformedBody, strings.Join(msgs, "; "))
}
