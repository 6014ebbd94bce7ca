package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Fields
}

func TestValidateCreateTask(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{
			name: "minimal",
			body: `{"title":"Write report","deadline":"2025-03-10T12:00:00Z"}`,
		},
		{
			name: "all fields with datetime-local deadline",
			body: `{"title":"t","description":"d","status":"success","deadline":"2025-03-10T12:00","completed":true,"completed_at":null}`,
		},
		{
			name: "read-only fields are ignored",
			body: `{"id":"x","created_at":"yesterday","title":"t","deadline":"2025-03-10T12:00:00Z"}`,
		},
		{
			name:       "missing required fields",
			body:       `{}`,
			wantFields: []string{"title", "deadline"},
		},
		{
			name:       "empty title",
			body:       `{"title":"","deadline":"2025-03-10T12:00:00Z"}`,
			wantFields: []string{"title"},
		},
		{
			name:       "unknown status",
			body:       `{"title":"t","deadline":"2025-03-10T12:00:00Z","status":"paused"}`,
			wantFields: []string{"status"},
		},
		{
			name:       "bad deadline",
			body:       `{"title":"t","deadline":"next tuesday"}`,
			wantFields: []string{"deadline"},
		},
		{
			name:       "zero deadline",
			body:       `{"title":"t","deadline":"0001-01-01T00:00:00Z"}`,
			wantFields: []string{"deadline"},
		},
		{
			name:       "wrong types",
			body:       `{"title":5,"deadline":"2025-03-10T12:00:00Z","completed":"yes"}`,
			wantFields: []string{"title", "completed"},
		},
		{
			name:       "not an object",
			body:       `[]`,
			wantFields: []string{BodyField},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateTask([]byte(tt.body))
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			fields := validationFields(t, err)
			for _, field := range tt.wantFields {
				assert.Contains(t, fields, field)
			}
		})
	}
}

func TestValidateCreateTaskTitleTooLong(t *testing.T) {
	title := make([]byte, 256)
	for i := range title {
		title[i] = 'a'
	}

	err := ValidateCreateTask([]byte(`{"title":"` + string(title) + `","deadline":"2025-03-10T12:00:00Z"}`))
	assert.Contains(t, validationFields(t, err), "title")
}

func TestValidateUpdateTask(t *testing.T) {
	assert.NoError(t, ValidateUpdateTask([]byte(`{}`)))
	assert.NoError(t, ValidateUpdateTask([]byte(`{"description":"only this"}`)))
	assert.NoError(t, ValidateUpdateTask([]byte(`{"completed_at":"2025-03-10T12:00:00.123+02:00"}`)))

	fields := validationFields(t, ValidateUpdateTask([]byte(`{"title":null,"status":"done"}`)))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "status")
}

func TestValidateDocumentBody(t *testing.T) {
	fields := validationFields(t, ValidateCreateTask(nil))
	assert.Equal(t, []string{"request body is required"}, fields[BodyField])

	fields = validationFields(t, ValidateCreateTask([]byte(`{"title":`)))
	assert.Equal(t, []string{"request body is not valid JSON"}, fields[BodyField])
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("title", "this field may not be blank")
	err.Add("deadline", "this field is required")

	assert.Equal(t, "validation failed: deadline: this field is required; title: this field may not be blank", err.Error())
}
