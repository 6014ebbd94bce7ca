package models

import "time"

// TaskStatus represents the outcome of a task
type TaskStatus string

const (
	TaskStatusOngoing TaskStatus = "ongoing"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailure TaskStatus = "failure"
)

// TaskStatuses lists every valid status in display order
var TaskStatuses = []TaskStatus{TaskStatusOngoing, TaskStatusSuccess, TaskStatusFailure}

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// MaxTitleLength is the longest title a task may carry
const MaxTitleLength = 255

// Task is a unit of work with a deadline and a tri-state outcome.
// Completed and CompletedAt are tracked independently of Status
type Task struct {
	ID          string     `bson:"_id" json:"id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	Status      TaskStatus `bson:"status" json:"status"`
	Deadline    time.Time  `bson:"deadline" json:"deadline"`
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completed_at" json:"completed_at"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the task is still ongoing past its deadline at now
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusOngoing && t.Deadline.Before(now)
}
