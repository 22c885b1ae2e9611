// Package schemas validates postings documents against JSON Schemas, either
// the ones bundled in the schemas directory or a schema file on disk.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	schemafiles "github.com/jonathan/job-recommender/schemas"
)

// FieldError is one violation, located by its JSON path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Schema != "" {
		fmt.Fprintf(&sb, "validation against %s failed:\n", ve.Schema)
	} else {
		sb.WriteString("validation failed:\n")
	}
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError means the schema or the document could not be loaded at
// all, as opposed to a document that loaded and failed validation.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validate checks document against a bundled schema
// (schemafiles.RawPostings or schemafiles.RankedPostings).
func Validate(schemaName string, document []byte) error {
	schema, err := schemafiles.FS.ReadFile(schemaName)
	if err != nil {
		return &SchemaLoadError{Path: schemaName, Message: "unknown bundled schema", Cause: err}
	}
	return check(schemaName, gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(document))
}

// ValidateJSON checks the JSON file at jsonPath against the schema file at
// schemaPath. Relative references inside the schema resolve against its
// directory.
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbs, err := existingAbs(schemaPath)
	if err != nil {
		return fmt.Errorf("schema file: %w", err)
	}
	jsonAbs, err := existingAbs(jsonPath)
	if err != nil {
		return fmt.Errorf("JSON file: %w", err)
	}

	return check(filepath.Base(schemaAbs),
		gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(schemaAbs)),
		gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(jsonAbs)),
	)
}

// ResolveSchemaPath finds relativePath from the working directory or up to
// two parents, so commands and tests can name repo-relative schema paths.
// It returns "" when nothing exists.
func ResolveSchemaPath(relativePath string) string {
	for _, prefix := range []string{".", "..", filepath.Join("..", "..")} {
		if abs, err := existingAbs(filepath.Join(prefix, relativePath)); err == nil {
			return abs
		}
	}
	return ""
}

func existingAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("not found: %s", abs)
	}
	return abs, nil
}

func check(label string, schema, document gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return &SchemaLoadError{Path: label, Message: "could not load schema or document", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: label, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
