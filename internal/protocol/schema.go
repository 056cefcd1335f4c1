package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const frameSchemaURL = "schema://inbound_frame.json"

// frameSchema describes every inbound frame the browser client sends.
// The per-type requirements are expressed with if/then so a frame that names
// a known type but lacks its fields fails validation.
var frameSchema = map[string]any{
	"type":     "object",
	"required": []any{"type"},
	"properties": map[string]any{
		"type":    map[string]any{"type": "string", "enum": []any{TypeDrawStroke, TypeActionComplete, TypeSubmitText}},
		"task_id": map[string]any{"type": "string", "maxLength": 128},
		"stroke_data": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "integer"},
		},
		"text": map[string]any{"type": "string", "maxLength": MaxTextLength},
	},
	"allOf": []any{
		conditional(TypeDrawStroke, "stroke_data"),
		conditional(TypeSubmitText, "text"),
	},
}

func conditional(frameType, field string) map[string]any {
	return map[string]any{
		"if": map[string]any{
			"properties": map[string]any{"type": map[string]any{"const": frameType}},
		},
		"then": map[string]any{"required": []any{field}},
	}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// schema returns the compiled frame schema, compiling it on first use.
func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler expects a parsed JSON document, so round-trip the
		// Go literal through encoding/json.
		raw, err := json.Marshal(frameSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(frameSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(frameSchemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// validate checks a decoded JSON value against the frame schema and returns
// a short human-readable reason on failure.
func validate(v any) (string, bool) {
	sch, err := schema()
	if err != nil {
		return "Frame schema unavailable: " + err.Error(), false
	}
	if err := sch.Validate(v); err != nil {
		return "Invalid message format received: " + firstLine(err.Error()), false
	}
	return "", true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
