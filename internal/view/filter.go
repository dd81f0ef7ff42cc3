// Package view derives the visible task subset and renders it as markup.
package view

import (
	"strings"
	"time"

	"github.com/mwolter/daylist/internal/task"
)

// Mode is a named predicate selecting a task subset for display.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeToday     Mode = "today"
	ModeUpcoming  Mode = "upcoming"
	ModeOverdue   Mode = "overdue"
	ModeCompleted Mode = "completed"
)

// ParseMode maps a string onto a known mode, defaulting to ModeAll.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeToday, ModeUpcoming, ModeOverdue, ModeCompleted:
		return Mode(s)
	}
	return ModeAll
}

// Filter combines a search query with a mode predicate.
type Filter struct {
	Mode  Mode
	Query string
}

// Today returns the current wall-clock calendar date in ISO 8601 form.
// The format sorts lexicographically, so string comparison of dates
// matches chronological order.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// Apply returns the tasks matching the filter, preserving list order.
// The search query is a case-insensitive substring match on the text,
// ANDed with the mode predicate.
func (f Filter) Apply(tasks []task.Task, today string) []task.Task {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var visible []task.Task
	for _, t := range tasks {
		if !strings.Contains(strings.ToLower(t.Text), query) {
			continue
		}
		if f.matches(t, today) {
			visible = append(visible, t)
		}
	}
	return visible
}

func (f Filter) matches(t task.Task, today string) bool {
	switch f.Mode {
	case ModeToday:
		return t.Date == today
	case ModeUpcoming:
		return t.Date > today && !t.Completed
	case ModeOverdue:
		return t.Date < today && !t.Completed
	case ModeCompleted:
		return t.Completed
	}
	return true
}
