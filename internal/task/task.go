// Package task defines the task model and its whole-list persistence.
package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Priority represents the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes and validates a priority string.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// ValidDate reports whether s is a calendar date in ISO 8601 YYYY-MM-DD
// form. The filter predicates compare dates as strings, so only this
// lexicographically sortable format is accepted. The round trip rejects
// unpadded variants that time.Parse would otherwise let through.
func ValidDate(s string) bool {
	t, err := time.Parse("2006-01-02", s)
	return err == nil && t.Format("2006-01-02") == s
}

// ValidTime reports whether s is a 24-hour wall-clock time in HH:MM form.
func ValidTime(s string) bool {
	t, err := time.Parse("15:04", s)
	return err == nil && t.Format("15:04") == s
}

// AttachmentRef points at a record in the blob store. The task never holds
// the binary payload itself.
type AttachmentRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	IsImage bool   `json:"isImage"`
}

// Task is a user-created to-do entry with schedule and priority metadata.
type Task struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Date       string         `json:"date"`      // YYYY-MM-DD
	TimeStart  string         `json:"timeStart"` // HH:MM
	TimeEnd    string         `json:"timeEnd,omitempty"`
	Priority   Priority       `json:"priority"`
	Completed  bool           `json:"completed"`
	Attachment *AttachmentRef `json:"attachment,omitempty"`
}

// GenerateTaskID creates a unique task identifier.
func GenerateTaskID() string {
	u := uuid.New().String()
	return "task_" + strings.ReplaceAll(u[:8], "-", "")
}
