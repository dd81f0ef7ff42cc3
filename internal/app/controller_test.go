package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/task"
)

// memBlobStore is an in-memory blob.Store with injectable failures.
type memBlobStore struct {
	records    map[string]blob.Record
	nextID     int
	failPut    bool
	failDelete bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{records: make(map[string]blob.Record)}
}

func (m *memBlobStore) Put(_ context.Context, name, mimeType string, data []byte) (string, error) {
	if m.failPut {
		return "", errors.New("put failed")
	}
	m.nextID++
	id := fmt.Sprintf("att-%d", m.nextID)
	m.records[id] = blob.Record{ID: id, Name: name, Type: mimeType, Data: data}
	return id, nil
}

func (m *memBlobStore) Get(_ context.Context, id string) (*blob.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memBlobStore) Delete(_ context.Context, id string) error {
	if m.failDelete {
		return errors.New("delete failed")
	}
	delete(m.records, id)
	return nil
}

func (m *memBlobStore) IDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range m.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memBlobStore) Close() error { return nil }

func newTestController(t *testing.T) (*Controller, *task.ListStore, *memBlobStore) {
	t.Helper()
	store := task.NewListStore(filepath.Join(t.TempDir(), "tasks.json"))
	blobs := newMemBlobStore()
	ctrl, err := NewController(store, blobs, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl, store, blobs
}

func validAdd() AddRequest {
	return AddRequest{
		Text:      "Buy milk",
		Date:      "2024-03-01",
		TimeStart: "09:00",
		Priority:  "high",
	}
}

func TestAddPersistsTask(t *testing.T) {
	ctx := context.Background()
	ctrl, store, _ := newTestController(t)

	added, err := ctrl.Add(ctx, validAdd())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == "" {
		t.Fatal("expected generated id")
	}
	if added.Completed {
		t.Error("new task must not be completed")
	}

	if total, _ := ctrl.Counters(); total != 1 {
		t.Errorf("in-memory count: got %d, want 1", total)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("persisted count: got %d, want 1", len(persisted))
	}
	got := persisted[0]
	if got.Text != "Buy milk" || got.Date != "2024-03-01" || got.TimeStart != "09:00" || got.Priority != task.PriorityHigh {
		t.Errorf("persisted fields mismatch: %+v", got)
	}
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*AddRequest)
	}{
		{"empty text", func(r *AddRequest) { r.Text = "  " }},
		{"empty date", func(r *AddRequest) { r.Date = "" }},
		{"empty start time", func(r *AddRequest) { r.TimeStart = "" }},
		{"bad priority", func(r *AddRequest) { r.Priority = "urgent" }},
		{"non-ISO date", func(r *AddRequest) { r.Date = "3/1/2024" }},
		{"unpadded date", func(r *AddRequest) { r.Date = "2024-3-1" }},
		{"markup in date", func(r *AddRequest) { r.Date = "<img src=x onerror=alert(1)>" }},
		{"bad start time", func(r *AddRequest) { r.TimeStart = "9am" }},
		{"unpadded start time", func(r *AddRequest) { r.TimeStart = "9:00" }},
		{"bad end time", func(r *AddRequest) { r.TimeEnd = "25:99" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl, _, _ := newTestController(t)

			req := validAdd()
			tc.mutate(&req)

			if _, err := ctrl.Add(ctx, req); !task.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if total, _ := ctrl.Counters(); total != 0 {
				t.Errorf("rejected add must not grow the list, got %d", total)
			}
		})
	}
}

func TestAddWithUpload(t *testing.T) {
	ctx := context.Background()
	ctrl, _, blobs := newTestController(t)

	req := validAdd()
	req.Upload = &Upload{Name: "photo.png", Type: "image/png", Data: []byte{1, 2, 3}}

	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.Attachment == nil {
		t.Fatal("expected attachment reference")
	}
	if !added.Attachment.IsImage {
		t.Error("image/png upload must be marked as image")
	}

	rec, _ := blobs.Get(ctx, added.Attachment.ID)
	if rec == nil {
		t.Error("expected blob record for attachment")
	}
}

func TestAddUploadUnknownType(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newTestController(t)

	req := validAdd()
	req.Upload = &Upload{Name: "data.bin", Data: []byte{1}}

	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.Attachment.Type != "unknown" {
		t.Errorf("empty type: got %q, want unknown", added.Attachment.Type)
	}
	if added.Attachment.IsImage {
		t.Error("unknown type must not be marked as image")
	}
}

func TestAddAbortsWhenBlobPutFails(t *testing.T) {
	ctx := context.Background()
	ctrl, store, blobs := newTestController(t)
	blobs.failPut = true

	req := validAdd()
	req.Upload = &Upload{Name: "photo.png", Type: "image/png", Data: []byte{1}}

	if _, err := ctrl.Add(ctx, req); err == nil {
		t.Fatal("expected error when attachment save fails")
	}

	// No task without its declared attachment.
	if total, _ := ctrl.Counters(); total != 0 {
		t.Errorf("list grew despite failed attachment save: %d", total)
	}
	persisted, _ := store.Load()
	if len(persisted) != 0 {
		t.Errorf("persisted list grew despite failed attachment save: %d", len(persisted))
	}
}

func TestToggleCompleteClearsAttachment(t *testing.T) {
	ctx := context.Background()
	ctrl, _, blobs := newTestController(t)

	req := validAdd()
	req.Upload = &Upload{Name: "photo.png", Type: "image/png", Data: []byte{1}}
	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	attID := added.Attachment.ID

	toggled, err := ctrl.ToggleComplete(ctx, added.ID)
	if err != nil {
		t.Fatalf("ToggleComplete: %v", err)
	}
	if !toggled.Completed {
		t.Error("expected completed after toggle")
	}
	if toggled.Attachment != nil {
		t.Error("completed task must not retain its attachment")
	}

	rec, _ := blobs.Get(ctx, attID)
	if rec != nil {
		t.Error("blob record must be gone after completion")
	}
}

func TestToggleCompleteBackAndForth(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newTestController(t)

	added, err := ctrl.Add(ctx, validAdd())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := ctrl.ToggleComplete(ctx, added.ID); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	back, err := ctrl.ToggleComplete(ctx, added.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if back.Completed {
		t.Error("expected pending after second toggle")
	}
}

// flakyStore wraps a task.Store with an injectable save failure.
type flakyStore struct {
	task.Store
	failSave bool
}

func (s *flakyStore) Save(tasks []task.Task) error {
	if s.failSave {
		return errors.New("save failed")
	}
	return s.Store.Save(tasks)
}

func TestToggleCompleteRestoresStateWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: task.NewListStore(filepath.Join(t.TempDir(), "tasks.json"))}
	blobs := newMemBlobStore()
	ctrl, err := NewController(store, blobs, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	req := validAdd()
	req.Upload = &Upload{Name: "photo.png", Type: "image/png", Data: []byte{1}}
	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	store.failSave = true
	if _, err := ctrl.ToggleComplete(ctx, added.ID); err == nil {
		t.Fatal("expected error when save fails")
	}

	// The in-memory task must match what is on disk, not the failed flip.
	got, ok := ctrl.Find(added.ID)
	if !ok {
		t.Fatal("task must still exist")
	}
	if got.Completed {
		t.Error("failed toggle must not leave the task completed")
	}
	if got.Attachment == nil {
		t.Error("failed toggle must not clear the attachment reference")
	}
}

func TestDeleteRemovesTaskAndBlob(t *testing.T) {
	ctx := context.Background()
	ctrl, _, blobs := newTestController(t)

	req := validAdd()
	req.Upload = &Upload{Name: "photo.png", Type: "image/png", Data: []byte{1}}
	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	attID := added.Attachment.ID

	if err := ctrl.Delete(ctx, added.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := ctrl.Find(added.ID); ok {
		t.Error("deleted task still findable")
	}
	rec, _ := blobs.Get(ctx, attID)
	if rec != nil {
		t.Error("blob record must be gone after task delete")
	}
}

func TestDeleteProceedsWhenBlobDeleteFails(t *testing.T) {
	ctx := context.Background()
	ctrl, _, blobs := newTestController(t)

	req := validAdd()
	req.Upload = &Upload{Name: "photo.png", Type: "image/png", Data: []byte{1}}
	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	blobs.failDelete = true
	if err := ctrl.Delete(ctx, added.ID); err != nil {
		t.Fatalf("Delete must proceed despite blob failure: %v", err)
	}
	if _, ok := ctrl.Find(added.ID); ok {
		t.Error("task must be removed even when blob delete fails")
	}
}

func TestDeleteUnknown(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	if err := ctrl.Delete(context.Background(), "task_missing"); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEditAppliesAllFields(t *testing.T) {
	ctx := context.Background()
	ctrl, store, _ := newTestController(t)

	added, err := ctrl.Add(ctx, validAdd())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	edited, err := ctrl.Edit(ctx, added.ID, EditRequest{
		Text:      "Buy oat milk",
		Date:      "2024-03-05",
		TimeStart: "10:00",
		TimeEnd:   "11:00",
		Priority:  "LOW",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Text != "Buy oat milk" || edited.Date != "2024-03-05" {
		t.Errorf("edit not applied: %+v", edited)
	}
	if edited.Priority != task.PriorityLow {
		t.Errorf("priority must be case-normalized, got %q", edited.Priority)
	}

	persisted, _ := store.Load()
	if persisted[0].Text != "Buy oat milk" {
		t.Error("edit not persisted")
	}
}

func TestEditRejectionLeavesTaskUnchanged(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		req  EditRequest
	}{
		{"empty text", EditRequest{Text: "", Date: "2024-03-05", TimeStart: "10:00", Priority: "low"}},
		{"empty date", EditRequest{Text: "x", Date: "", TimeStart: "10:00", Priority: "low"}},
		{"empty start", EditRequest{Text: "x", Date: "2024-03-05", TimeStart: "", Priority: "low"}},
		{"bad priority", EditRequest{Text: "x", Date: "2024-03-05", TimeStart: "10:00", Priority: "urgent"}},
		{"non-ISO date", EditRequest{Text: "x", Date: "3/5/2024", TimeStart: "10:00", Priority: "low"}},
		{"bad start", EditRequest{Text: "x", Date: "2024-03-05", TimeStart: "10am", Priority: "low"}},
		{"bad end", EditRequest{Text: "x", Date: "2024-03-05", TimeStart: "10:00", TimeEnd: "noon", Priority: "low"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl, _, _ := newTestController(t)
			added, err := ctrl.Add(ctx, validAdd())
			if err != nil {
				t.Fatalf("Add: %v", err)
			}

			if _, err := ctrl.Edit(ctx, added.ID, tc.req); !task.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}

			got, _ := ctrl.Find(added.ID)
			if got.Text != added.Text || got.Date != added.Date ||
				got.TimeStart != added.TimeStart || got.Priority != added.Priority {
				t.Errorf("rejected edit mutated the task: %+v", got)
			}
		})
	}
}

func TestSweepOrphans(t *testing.T) {
	ctx := context.Background()
	ctrl, _, blobs := newTestController(t)

	// One referenced attachment, two orphans.
	req := validAdd()
	req.Upload = &Upload{Name: "keep.png", Type: "image/png", Data: []byte{1}}
	added, err := ctrl.Add(ctx, req)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	blobs.Put(ctx, "orphan1.txt", "text/plain", []byte{2})
	blobs.Put(ctx, "orphan2.txt", "text/plain", []byte{3})

	removed, err := ctrl.SweepOrphans(ctx)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed: got %d, want 2", removed)
	}

	rec, _ := blobs.Get(ctx, added.Attachment.ID)
	if rec == nil {
		t.Error("referenced attachment must survive the sweep")
	}
}
