package models

import (
	"encoding/json"
	"time"

	"github.com/Jonathon-AR/resollectAssignment/internal/utils"
)

// Timestamp is a time accepted in any format utils.ParseTimestamp understands
type Timestamp struct {
	time.Time
}

// UnmarshalJSON parses a JSON string timestamp
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := utils.ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// OptionalTimestamp distinguishes an absent field (Set == false) from an
// explicit null (Set == true, Time == nil)
type OptionalTimestamp struct {
	Set  bool
	Time *time.Time
}

// UnmarshalJSON is only invoked for fields present in the document
func (o *OptionalTimestamp) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Time = nil
		return nil
	}
	var ts Timestamp
	if err := ts.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Time = &ts.Time
	return nil
}

// CreateTaskRequest lists the fields a client may provide when creating a task
type CreateTaskRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      TaskStatus        `json:"status"`   // Optional, defaults to ongoing
	Deadline    Timestamp         `json:"deadline"`
	Completed   bool              `json:"completed"`
	CompletedAt OptionalTimestamp `json:"completed_at"`
}

// UpdateTaskRequest lists the fields a client may change; nil means "keep"
type UpdateTaskRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *TaskStatus       `json:"status"`
	Deadline    *Timestamp        `json:"deadline"`
	Completed   *bool             `json:"completed"`
	CompletedAt OptionalTimestamp `json:"completed_at"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}
