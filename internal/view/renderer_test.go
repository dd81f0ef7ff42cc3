package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/task"
)

type fakeBlobStore struct {
	records map[string]blob.Record
}

func (f *fakeBlobStore) Put(_ context.Context, name, mimeType string, data []byte) (string, error) {
	panic("not used")
}

func (f *fakeBlobStore) Get(_ context.Context, id string) (*blob.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, id string) error { return nil }
func (f *fakeBlobStore) IDs(_ context.Context) ([]string, error)   { return nil, nil }
func (f *fakeBlobStore) Close() error                              { return nil }

func newTestRenderer(records map[string]blob.Record) (*Renderer, *URLIssuer) {
	urls := NewURLIssuer()
	return NewRenderer(&fakeBlobStore{records: records}, urls, 5*time.Second), urls
}

func imageTask(id, attID string) task.Task {
	return task.Task{
		ID: id, Text: "t", Date: "2025-06-15", TimeStart: "09:00",
		Priority:   task.PriorityMedium,
		Attachment: &task.AttachmentRef{ID: attID, Name: "pic.png", Type: "image/png", IsImage: true},
	}
}

func TestRenderCounters(t *testing.T) {
	r, _ := newTestRenderer(nil)

	tasks := []task.Task{
		{ID: "a", Text: "one", Date: "2025-06-15", TimeStart: "09:00", Priority: task.PriorityLow},
		{ID: "b", Text: "two", Date: "2025-06-15", TimeStart: "09:00", Priority: task.PriorityLow, Completed: true},
	}

	// Counters cover the full list even when the filter narrows the view.
	res := r.Render(tasks, Filter{Mode: ModeCompleted})
	if res.Total != 2 || res.Done != 1 {
		t.Errorf("counters: got %d/%d, want 2/1", res.Total, res.Done)
	}
	if len(res.Visible) != 1 {
		t.Errorf("visible: got %d, want 1", len(res.Visible))
	}
}

func TestHydrateIssuesPreviewURLs(t *testing.T) {
	r, urls := newTestRenderer(map[string]blob.Record{
		"att-1": {ID: "att-1", Name: "pic.png", Type: "image/png", Data: []byte{1}},
	})

	res := r.Render([]task.Task{imageTask("task_1", "att-1")}, Filter{})

	got, err := r.Hydrate(context.Background(), res)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	url, ok := got["att-1"]
	if !ok {
		t.Fatal("expected preview URL for att-1")
	}
	if id, ok := urls.Resolve(url); !ok || id != "att-1" {
		t.Errorf("issued URL must resolve to the attachment, got %q/%t", id, ok)
	}
}

func TestHydrateSkipsStaleReference(t *testing.T) {
	r, _ := newTestRenderer(nil) // blob store has no records

	res := r.Render([]task.Task{imageTask("task_1", "att-gone")}, Filter{})

	got, err := r.Hydrate(context.Background(), res)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stale reference must not yield a URL, got %v", got)
	}
}

func TestHydrateDiscardsStaleGeneration(t *testing.T) {
	r, _ := newTestRenderer(map[string]blob.Record{
		"att-1": {ID: "att-1", Name: "pic.png", Type: "image/png", Data: []byte{1}},
	})

	stale := r.Render([]task.Task{imageTask("task_1", "att-1")}, Filter{})
	// A newer render supersedes the first one's hydration pass.
	r.Render(nil, Filter{})

	if _, err := r.Hydrate(context.Background(), stale); !errors.Is(err, ErrStaleGeneration) {
		t.Errorf("expected ErrStaleGeneration, got %v", err)
	}
}

func TestRenderRevokesPreviousPreviews(t *testing.T) {
	r, urls := newTestRenderer(map[string]blob.Record{
		"att-1": {ID: "att-1", Name: "pic.png", Type: "image/png", Data: []byte{1}},
	})

	res := r.Render([]task.Task{imageTask("task_1", "att-1")}, Filter{})
	got, err := r.Hydrate(context.Background(), res)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	r.Render(nil, Filter{})
	if _, ok := urls.Resolve(got["att-1"]); ok {
		t.Error("re-render must revoke the previous cycle's preview URLs")
	}
}

func TestOpen(t *testing.T) {
	r, urls := newTestRenderer(map[string]blob.Record{
		"att-1": {ID: "att-1", Name: "pic.png", Type: "image/png", Data: []byte{1}},
	})

	url, err := r.Open(context.Background(), "att-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id, ok := urls.Resolve(url); !ok || id != "att-1" {
		t.Errorf("open URL must resolve, got %q/%t", id, ok)
	}

	if _, err := r.Open(context.Background(), "att-gone"); !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("expected ErrAttachmentNotFound, got %v", err)
	}
}
