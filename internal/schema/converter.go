// Package schema renders Parameter trees as JSON Schema documents for the
// provider transports.
package schema

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
)

// ToDocument builds a draft-07 JSON Schema document for a response schema.
// The top level is always an object schema.
func ToDocument(param *promptic.Parameter) (map[string]any, error) {
	if param == nil {
		return nil, nil
	}

	if err := param.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid response schema")
	}

	doc := map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
	}
	for k, v := range param.JSONSchema() {
		doc[k] = v
	}

	return doc, nil
}

// ToJSONString renders a response schema as pretty-printed JSON. It is used
// where a schema must be embedded in prompt text rather than passed as a
// request field.
func ToJSONString(param *promptic.Parameter) (string, error) {
	doc, err := ToDocument(param)
	if err != nil || doc == nil {
		return "", err
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal schema")
	}

	return string(raw), nil
}
