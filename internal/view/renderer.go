package view

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/mwolter/daylist/internal/blob"
	"github.com/mwolter/daylist/internal/task"
)

// ErrAttachmentNotFound is returned when an open action references a blob
// record that no longer exists (a stale attachment reference).
var ErrAttachmentNotFound = errors.New("attachment not found")

// ErrStaleGeneration is returned when a hydration pass was superseded by a
// newer render cycle; its results must be discarded.
var ErrStaleGeneration = errors.New("stale render generation")

// Renderer turns the task list into display fragments and hydrates
// attachment previews from the blob store.
type Renderer struct {
	blobs      blob.Store
	urls       *URLIssuer
	openTTL    time.Duration
	generation atomic.Uint64
}

// NewRenderer creates a Renderer over the given blob store.
func NewRenderer(blobs blob.Store, urls *URLIssuer, openTTL time.Duration) *Renderer {
	return &Renderer{blobs: blobs, urls: urls, openTTL: openTTL}
}

// Render computes "today" once, applies the filter, revokes all previously
// issued preview URLs, and builds the markup fragment. Counters cover the
// full list, not the visible subset.
func (r *Renderer) Render(tasks []task.Task, f Filter) *RenderResult {
	gen := r.generation.Add(1)
	r.urls.RevokePreviews()

	visible := f.Apply(tasks, Today())

	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}

	return &RenderResult{
		Fragment:   renderFragment(visible),
		Total:      len(tasks),
		Done:       done,
		Generation: gen,
		Visible:    visible,
	}
}

// Hydrate fetches each visible image attachment's blob and issues a fresh
// preview URL for its placeholder. The pass belongs to the render
// generation recorded in res; if a newer render has started, the results
// are discarded and ErrStaleGeneration is returned.
func (r *Renderer) Hydrate(ctx context.Context, res *RenderResult) (map[string]string, error) {
	urls := make(map[string]string)
	for _, t := range res.Visible {
		if t.Attachment == nil || !t.Attachment.IsImage {
			continue
		}
		if r.generation.Load() != res.Generation {
			return nil, ErrStaleGeneration
		}

		rec, err := r.blobs.Get(ctx, t.Attachment.ID)
		if err != nil || rec == nil {
			// Stale reference or failed fetch: leave the placeholder empty.
			continue
		}
		urls[t.Attachment.ID] = r.urls.IssuePreview(t.Attachment.ID)
	}

	if r.generation.Load() != res.Generation {
		return nil, ErrStaleGeneration
	}
	return urls, nil
}

// Open fetches the blob for an attachment and issues a temporary URL that
// expires after the configured delay. A missing record yields
// ErrAttachmentNotFound.
func (r *Renderer) Open(ctx context.Context, attachmentID string) (string, error) {
	rec, err := r.blobs.Get(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrAttachmentNotFound
	}
	return r.urls.IssueOpen(attachmentID, r.openTTL), nil
}
