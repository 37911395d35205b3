package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kazz187/tracksync/pkg/panicerr"
)

const watchDebounce = 500 * time.Millisecond

// Watch re-runs fn whenever the tasks file changes, debounced so editor
// save bursts trigger a single run. The parent directory is watched rather
// than the file itself because most writers replace the file. Blocks until
// ctx is canceled.
func Watch(ctx context.Context, tasksFile string, logger *slog.Logger, fn func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(tasksFile)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	safe := panicerr.SafeContext(fn)
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	target := filepath.Clean(tasksFile)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "watch error", "error", err)
		case <-timer.C:
			logger.InfoContext(ctx, "tasks file changed, re-running sync", "path", tasksFile)
			if err := safe(ctx); err != nil {
				logger.WarnContext(ctx, "sync run failed, still watching", "error", err)
			}
		}
	}
}
