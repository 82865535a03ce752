package objectcache

import (
	"context"
	"fmt"

	"gatedfm/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch follows the cache directory and drops entries whose files are deleted
// by something other than the cache (an operator, tmp cleaners). Without it a
// Ready entry would point at a missing file until restart. Watch returns once
// the watcher is running; it stops when ctx is done.
func (c *Cache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create cache watcher: %w", err)
	}
	if err := watcher.Add(c.opts.Dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch cache directory %s: %w", c.opts.Dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					c.forget(event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("cache watcher error", logger.ErrorField(err))
			}
		}
	}()
	return nil
}
