package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/mwolter/daylist/internal/events"
)

// SweepOrphans deletes blob records no task references. Best-effort blob
// cleanup during delete/complete can leave orphans behind; the sweep is
// the backstop that bounds them.
func (c *Controller) SweepOrphans(ctx context.Context) (int, error) {
	ids, err := c.blobs.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}

	referenced := make(map[string]struct{})
	c.mu.Lock()
	for _, t := range c.tasks {
		if t.Attachment != nil {
			referenced[t.Attachment.ID] = struct{}{}
		}
	}
	c.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := referenced[id]; ok {
			continue
		}
		if err := c.blobs.Delete(ctx, id); err != nil {
			slog.Warn("sweep orphaned attachment", "id", id, "error", err)
			continue
		}
		removed++
	}

	if c.bus != nil {
		c.bus.Publish(events.NewEvent(events.EventSweepCompleted, map[string]any{
			"scanned": len(ids),
			"removed": removed,
		}))
	}
	return removed, nil
}

// RunSweeper runs SweepOrphans on the given cron schedule until ctx is
// cancelled. Supports standard 5-field (minute-based) expressions.
func (c *Controller) RunSweeper(ctx context.Context, schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}

	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			removed, err := c.SweepOrphans(ctx)
			if err != nil {
				slog.Warn("attachment sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("attachment sweep", "removed", removed)
			}
		}
	}
}
