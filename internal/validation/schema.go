package validation

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Jonathon-AR/resollectAssignment/internal/utils"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// BodyField is the key used for errors about the request body as a whole
const BodyField = "body"

// ValidationError carries user-correctable errors keyed by field name
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError with a single field message
func NewValidationError(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

// Add appends a message for field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// timestampFormatChecker backs the "task-timestamp" schema format
type timestampFormatChecker struct{}

func (timestampFormatChecker) IsFormat(input interface{}) bool {
	value, ok := input.(string)
	if !ok {
		return true
	}
	_, err := utils.ParseTimestamp(value)
	return err == nil
}

var (
	loadOnce         sync.Once
	createTaskSchema *gojsonschema.Schema
	updateTaskSchema *gojsonschema.Schema
	loadErr          error
)

func loadSchemas() error {
	loadOnce.Do(func() {
		gojsonschema.FormatCheckers.Add("task-timestamp", timestampFormatChecker{})

		createTaskSchema, loadErr = LoadSchema("schemas/create_task.json")
		if loadErr != nil {
			return
		}
		updateTaskSchema, loadErr = LoadSchema("schemas/update_task.json")
	})
	return loadErr
}

// LoadSchema compiles an embedded JSON schema
func LoadSchema(name string) (*gojsonschema.Schema, error) {
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	return schema, nil
}

// ValidateCreateTask checks a create payload for required fields and field shapes
func ValidateCreateTask(body []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return ValidateDocument(body, createTaskSchema)
}

// ValidateUpdateTask checks a partial update payload for field shapes
func ValidateUpdateTask(body []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	return ValidateDocument(body, updateTaskSchema)
}

// ValidateDocument validates a JSON document against a schema and collects
// every failure into a *ValidationError
func ValidateDocument(body []byte, schema *gojsonschema.Schema) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return NewValidationError(BodyField, "request body is required")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return NewValidationError(BodyField, "request body is not valid JSON")
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Add(errorField(desc), desc.Description())
	}
	return verr
}

// errorField maps a schema error to the request field it concerns
func errorField(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if property, ok := desc.Details()["property"].(string); ok {
			return property
		}
	}
	field := desc.Field()
	if field == "" || field == "(root)" {
		return BodyField
	}
	return field
}
