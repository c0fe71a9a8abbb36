package models

import (
	"fmt"
	"strings"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Valid reports whether s is one of the four recognized statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}

// Task is a structured unit of work, optionally derived from a Message.
//
// ID is zero until the task is persisted. LastModifiedAt is set at creation;
// no update path exists yet, so it never changes afterwards. FromMessage is
// nil when the task was not derived from a message; the pipeline links it
// after extraction.
type Task struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	AddedAt             Date       `json:"added_at" gorm:"type:text"`
	LastModifiedAt      Date       `json:"last_modified_at" gorm:"type:text"`
	ScheduledFor        *Date      `json:"scheduled_for,omitempty" gorm:"type:text"`
	ScheduledForComment *string    `json:"scheduled_for_comment,omitempty" gorm:"type:text"`
	Description         string     `json:"description" gorm:"type:text;not null"`
	Status              TaskStatus `json:"status" gorm:"type:text"`
	Comment             string     `json:"comment" gorm:"type:text"`
	FromMessage         *uint      `json:"from_message,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// NewTask builds a new, unpersisted pending task with an empty comment and no
// schedule. fromMessage may be nil when the task was not derived from a
// message.
func NewTask(description string, fromMessage *uint) (*Task, error) {
	if description == "" {
		return nil, newValidationError("description", "must be provided")
	}
	return &Task{
		AddedAt:        Today(),
		LastModifiedAt: Today(),
		Description:    description,
		Status:         TaskStatusPending,
		Comment:        "",
		FromMessage:    fromMessage,
	}, nil
}

// TaskFromToolCall parses the untyped argument mapping of an insert_task tool
// invocation. The payload is untrusted model output and is validated field by
// field: a missing or empty description, a missing or unrecognized status, or
// a malformed scheduled_for date all fail with a ValidationError.
//
// FromMessage is never set here; linking a task to its originating message is
// the pipeline's responsibility.
func TaskFromToolCall(args map[string]interface{}) (*Task, error) {
	description, ok, err := stringField(args, "description")
	if err != nil {
		return nil, err
	}
	if !ok || description == "" {
		return nil, newValidationError("description", "must be provided")
	}

	status, ok, err := stringField(args, "status")
	if err != nil {
		return nil, err
	}
	if !ok || status == "" {
		return nil, newValidationError("status", "must be provided")
	}
	if !TaskStatus(status).Valid() {
		return nil, newValidationError("status", "must be one of pending, running, completed, failed")
	}

	var scheduledFor *Date
	if raw, ok, err := stringField(args, "scheduled_for"); err != nil {
		return nil, err
	} else if ok && raw != "" {
		parsed, err := ParseDate(raw)
		if err != nil {
			return nil, newValidationError("scheduled_for", err.Error())
		}
		scheduledFor = &parsed
	}

	var scheduledForComment *string
	if raw, ok, err := stringField(args, "scheduled_for_comment"); err != nil {
		return nil, err
	} else if ok && raw != "" {
		scheduledForComment = &raw
	}

	comment, _, err := stringField(args, "comment")
	if err != nil {
		return nil, err
	}

	return &Task{
		AddedAt:             Today(),
		LastModifiedAt:      Today(),
		ScheduledFor:        scheduledFor,
		ScheduledForComment: scheduledForComment,
		Description:         description,
		Status:              TaskStatus(status),
		Comment:             comment,
	}, nil
}

// stringField extracts an optional string value from a tool-call payload.
// A present value of the wrong type is a validation failure, not a default.
func stringField(args map[string]interface{}, key string) (string, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, newValidationError(key, fmt.Sprintf("expected a string, got %T", raw))
	}
	return s, true, nil
}

// String renders the task for logs and mail digests.
func (t *Task) String() string {
	scheduledFor := "none"
	if t.ScheduledFor != nil {
		scheduledFor = t.ScheduledFor.String()
	}
	scheduledForComment := "none"
	if t.ScheduledForComment != nil {
		scheduledForComment = *t.ScheduledForComment
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Task %d (%s):\n", t.ID, t.AddedAt)
	fmt.Fprintf(&b, "%s\n", t.Description)
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	fmt.Fprintf(&b, "Comment: %s\n", t.Comment)
	fmt.Fprintf(&b, "Last modified at: %s\n", t.LastModifiedAt)
	fmt.Fprintf(&b, "Scheduled for: %s\n", scheduledFor)
	fmt.Fprintf(&b, "Scheduled for comment: %s", scheduledForComment)
	return b.String()
}
