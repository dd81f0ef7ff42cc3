// Package app owns the in-memory task list and coordinates every mutation
// against the task store and the attachment blob store.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/events"
	"github.com/mwolter/daylist/internal/task"
)

// Controller holds the live task list. All state is explicit: callers get
// a Controller instance, not ambient package state.
type Controller struct {
	mu    sync.Mutex
	store task.Store
	blobs blob.Store
	bus   *events.Bus
	tasks []task.Task
}

// NewController loads the persisted list once and returns a ready
// controller. A corrupt or missing store yields an empty list.
func NewController(store task.Store, blobs blob.Store, bus *events.Bus) (*Controller, error) {
	tasks, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return &Controller{store: store, blobs: blobs, bus: bus, tasks: tasks}, nil
}

// Upload is a file submitted alongside a new task.
type Upload struct {
	Name string
	Type string
	Data []byte
}

// AddRequest carries the validated form fields for a new task.
type AddRequest struct {
	Text      string
	Date      string
	TimeStart string
	TimeEnd   string
	Priority  string
	Upload    *Upload
}

// EditRequest carries every editable field of a task. The edit is
// all-or-nothing: any invalid field rejects the whole request and the task
// stays unchanged. Attachments are not editable.
type EditRequest struct {
	Text      string
	Date      string
	TimeStart string
	TimeEnd   string
	Priority  string
}

// Add validates the request, stores the upload (if any) first, appends the
// new task, and persists the full list. If the attachment write fails no
// task is created.
func (c *Controller) Add(ctx context.Context, req AddRequest) (*task.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &task.ValidationError{Field: "text", Message: "Task text is required."}
	}
	if req.Date == "" {
		return nil, &task.ValidationError{Field: "date", Message: "Date is required."}
	}
	if !task.ValidDate(req.Date) {
		return nil, &task.ValidationError{Field: "date", Message: "Date must be in YYYY-MM-DD format."}
	}
	if req.TimeStart == "" {
		return nil, &task.ValidationError{Field: "timeStart", Message: "Start time is required. End time is optional."}
	}
	if !task.ValidTime(req.TimeStart) {
		return nil, &task.ValidationError{Field: "timeStart", Message: "Start time must be in HH:MM format."}
	}
	if req.TimeEnd != "" && !task.ValidTime(req.TimeEnd) {
		return nil, &task.ValidationError{Field: "timeEnd", Message: "End time must be in HH:MM format."}
	}

	priority := task.PriorityMedium
	if req.Priority != "" {
		p, ok := task.ParsePriority(req.Priority)
		if !ok {
			return nil, &task.ValidationError{Field: "priority", Message: "Priority must be: low, medium, or high."}
		}
		priority = p
	}

	var ref *task.AttachmentRef
	if req.Upload != nil {
		mimeType := req.Upload.Type
		if mimeType == "" {
			mimeType = "unknown"
		}
		id, err := c.blobs.Put(ctx, req.Upload.Name, mimeType, req.Upload.Data)
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		ref = &task.AttachmentRef{
			ID:      id,
			Name:    req.Upload.Name,
			Type:    mimeType,
			IsImage: strings.HasPrefix(mimeType, "image/"),
		}
	}

	t := task.Task{
		ID:         task.GenerateTaskID(),
		Text:       text,
		Date:       req.Date,
		TimeStart:  req.TimeStart,
		TimeEnd:    req.TimeEnd,
		Priority:   priority,
		Attachment: ref,
	}

	c.tasks = append(c.tasks, t)
	if err := c.store.Save(c.tasks); err != nil {
		c.tasks = c.tasks[:len(c.tasks)-1]
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	c.publish(events.EventTaskAdded, t.ID)
	return &t, nil
}

// Edit applies an atomic edit to the identified task. Validation runs
// before any field is touched, so a rejected request leaves the task
// completely unchanged.
func (c *Controller) Edit(ctx context.Context, id string, req EditRequest) (*task.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil, task.ErrNotFound
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &task.ValidationError{Field: "text", Message: "Task text is required."}
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		return nil, &task.ValidationError{Field: "date", Message: "Date is required."}
	}
	if !task.ValidDate(date) {
		return nil, &task.ValidationError{Field: "date", Message: "Date must be in YYYY-MM-DD format."}
	}
	timeStart := strings.TrimSpace(req.TimeStart)
	if timeStart == "" {
		return nil, &task.ValidationError{Field: "timeStart", Message: "Start time is required."}
	}
	if !task.ValidTime(timeStart) {
		return nil, &task.ValidationError{Field: "timeStart", Message: "Start time must be in HH:MM format."}
	}
	timeEnd := strings.TrimSpace(req.TimeEnd)
	if timeEnd != "" && !task.ValidTime(timeEnd) {
		return nil, &task.ValidationError{Field: "timeEnd", Message: "End time must be in HH:MM format."}
	}
	priority, ok := task.ParsePriority(req.Priority)
	if !ok {
		return nil, &task.ValidationError{Field: "priority", Message: "Priority must be: low, medium, or high."}
	}

	prev := c.tasks[i]
	c.tasks[i].Text = text
	c.tasks[i].Date = date
	c.tasks[i].TimeStart = timeStart
	c.tasks[i].TimeEnd = timeEnd
	c.tasks[i].Priority = priority

	if err := c.store.Save(c.tasks); err != nil {
		c.tasks[i] = prev
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	t := c.tasks[i]
	c.publish(events.EventTaskUpdated, t.ID)
	return &t, nil
}

// ToggleComplete flips the completed flag. Completing a task with an
// attachment removes the blob record and clears the reference: completed
// tasks never retain attachments. A failed blob delete is logged and the
// task mutation proceeds (best-effort, backed by the orphan sweep).
func (c *Controller) ToggleComplete(ctx context.Context, id string) (*task.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil, task.ErrNotFound
	}

	prev := c.tasks[i]
	c.tasks[i].Completed = !c.tasks[i].Completed
	if c.tasks[i].Completed && c.tasks[i].Attachment != nil {
		if err := c.blobs.Delete(ctx, c.tasks[i].Attachment.ID); err != nil {
			slog.Warn("delete attachment on complete", "task", id, "error", err)
		}
		c.tasks[i].Attachment = nil
	}

	if err := c.store.Save(c.tasks); err != nil {
		// An already-deleted blob leaves a stale reference; the sweep and
		// the not-found render path cover it.
		c.tasks[i] = prev
		return nil, fmt.Errorf("save tasks: %w", err)
	}

	t := c.tasks[i]
	c.publish(events.EventTaskUpdated, t.ID)
	return &t, nil
}

// Delete removes a task from the list, deleting its blob record first
// (best-effort: list removal proceeds even when the blob delete fails).
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return task.ErrNotFound
	}

	if ref := c.tasks[i].Attachment; ref != nil {
		if err := c.blobs.Delete(ctx, ref.ID); err != nil {
			slog.Warn("delete attachment on task delete", "task", id, "error", err)
		}
	}

	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	if err := c.store.Save(c.tasks); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}

	c.publish(events.EventTaskDeleted, id)
	return nil
}

// Find returns the task with the given id.
func (c *Controller) Find(id string) (*task.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(id)
	if i < 0 {
		return nil, false
	}
	t := c.tasks[i]
	return &t, true
}

// Tasks returns a copy of the full list in its existing order.
func (c *Controller) Tasks() []task.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]task.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Counters returns the total and completed task counts.
func (c *Controller) Counters() (total, done int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters()
}

// counters must be called with the lock held.
func (c *Controller) counters() (total, done int) {
	total = len(c.tasks)
	for _, t := range c.tasks {
		if t.Completed {
			done++
		}
	}
	return total, done
}

// Replace swaps in a whole new list and persists it. Used by import.
func (c *Controller) Replace(tasks []task.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tasks == nil {
		tasks = []task.Task{}
	}
	if err := c.store.Save(tasks); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	c.tasks = tasks
	c.publish(events.EventListChanged, "")
	return nil
}

func (c *Controller) index(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) publish(eventType events.EventType, taskID string) {
	if c.bus == nil {
		return
	}
	total, done := c.counters()
	payload := map[string]any{"total": total, "done": done}
	if taskID != "" {
		payload["task_id"] = taskID
	}
	c.bus.Publish(events.NewEvent(eventType, payload))
	c.bus.Publish(events.NewEvent(events.EventListChanged, map[string]any{"total": total, "done": done}))
}
