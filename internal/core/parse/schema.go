package parse

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CandidateJSONSchema returns the JSON schema of a serialized Candidate.
func CandidateJSONSchema() map[string]any {
	props := map[string]any{
		"direction":       map[string]any{"type": "string", "enum": []string{string(Buy), string(Sell)}},
		"ticker":          map[string]any{"type": "string", "pattern": `^[A-Z]{2,5}$`},
		"company_name":    map[string]any{"type": "string", "minLength": 1},
		"quantity":        map[string]any{"type": "integer", "exclusiveMinimum": 0, "exclusiveMaximum": maxQuantity},
		"price_per_share": map[string]any{"type": "string", "pattern": `^\d+(\.\d+)?$`},
		"date":            map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"confidence":      map[string]any{"type": "string", "enum": []string{string(High), string(Medium), string(Low)}},
		"detector":        map[string]any{"type": "string"},
		"raw_text":        map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"confidence", "detector", "raw_text"},
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func candidateSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(CandidateJSONSchema())
		if err != nil {
			schemaErr = errors.Wrap(err, "marshal schema")
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("candidate.json", bytes.NewReader(b)); err != nil {
			schemaErr = errors.Wrap(err, "add schema")
			return
		}
		compiledSchema, schemaErr = compiler.Compile("candidate.json")
		if schemaErr != nil {
			schemaErr = errors.Wrap(schemaErr, "compile schema")
		}
	})
	return compiledSchema, schemaErr
}

// ValidateCandidateJSON checks serialized candidate data against CandidateJSONSchema.
func ValidateCandidateJSON(data []byte) error {
	schema, err := candidateSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "unmarshal data")
	}
	if err := schema.Validate(v); err != nil {
		return errors.Wrap(err, "json does not match schema")
	}
	return nil
}

// MarshalValidated serializes c and validates the result.
func MarshalValidated(c Candidate) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal candidate")
	}
	if err := ValidateCandidateJSON(b); err != nil {
		return nil, err
	}
	return b, nil
}
