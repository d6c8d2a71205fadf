package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce batches the bursts of events a single file copy produces into
// one rescan.
const debounce = 500 * time.Millisecond

// Watch rescans the catalog whenever files are added, replaced or removed
// in the data directory. It blocks until ctx is canceled.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", c.dir, err)
	}
	c.logger.Info("watching data directory", "dir", c.dir)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".nc") {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			c.logger.Debug("data directory changed", "event", event.Op.String(), "path", event.Name)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				// The timer may have fired between the two select cases;
				// drain the stale tick before rearming or it would trigger
				// an early refresh and swallow the rearmed one.
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error("catalog refresh failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher error", "error", err)
		}
	}
}
