// Copyright (c) 2026 Bloomify. All rights reserved.

package chat

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/abhijeetsuryawanshi12/Bloomify/internal/inference"
	"github.com/abhijeetsuryawanshi12/Bloomify/internal/platform/apperr"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// requestSchemas holds the compiled schema of every mode.
var requestSchemas = mustCompileSchemas()

// modeRoutes maps a mode to its inference route.
var modeRoutes = map[Mode]string{
	ModeClassify: inference.RouteClassify,
	ModeSuggest:  inference.RouteSuggest,
	ModeGenerate: inference.RouteGenerate,
}

func mustCompileSchemas() map[Mode]*gojsonschema.Schema {
	compiled := make(map[Mode]*gojsonschema.Schema, len(Modes))
	for _, name := range Modes {
		raw, err := schemaFiles.ReadFile("schemas/" + name + ".json")
		if err != nil {
			panic(fmt.Sprintf("chat: schema %s missing: %v", name, err))
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("chat: schema %s invalid: %v", name, err))
		}
		compiled[Mode(name)] = schema
	}
	return compiled
}

/*
validateRequest checks payload against the schema of mode.

Returns:
  - error: VALIDATION_ERROR with one detail per violation, fields prefixed with "request."
*/
func validateRequest(mode Mode, payload []byte) error {
	schema, ok := requestSchemas[mode]
	if !ok {
		return apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldMode,
			Message: "Must be one of: " + strings.Join(Modes, ", "),
		})
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return apperr.ValidationError("Invalid request payload").WithCause(err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]apperr.FieldError, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		details = append(details, apperr.FieldError{
			Field:   FieldRequest + "." + violationField(violation),
			Message: violation.Description(),
		})
	}
	return apperr.ValidationError("Request does not match the "+string(mode)+" format", details...)
}

// violationField names the offending property. Missing and unexpected
// properties are reported against their parent, so the name is appended.
func violationField(violation gojsonschema.ResultError) string {
	field := violation.Field()
	property, _ := violation.Details()["property"].(string)
	switch {
	case property == "", strings.HasSuffix(field, property):
		return field
	case field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY:
		return property
	default:
		return field + "." + property
	}
}
