package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors often write a file in several steps, so events are collected for
// this long before re-running.
const watchDebounce = 100 * time.Millisecond

// watch runs fn, then runs it again whenever one of the files at paths
// changes, until ctx is canceled. Errors returned by fn are logged.
//
// The parent directories are watched rather than the files themselves, so
// files that are replaced (e.g. renamed over) keep being watched.
func watch(ctx context.Context, paths []string, fn func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}

	defer func() {
		if err := watcher.Close(); err != nil {
			slog.Error("close watcher", slog.Any("error", err))
		}
	}()

	watchedDirs := map[string]struct{}{}
	watchedFiles := map[string]struct{}{}

	for _, path := range paths {
		if path == "" || path == stdio {
			continue
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("get absolute path: %w", err)
		}

		dir := filepath.Dir(absPath)
		if _, ok := watchedDirs[dir]; !ok {
			err = watcher.Add(dir)
			if err != nil {
				return fmt.Errorf("add path to watcher: %w", err)
			}

			watchedDirs[dir] = struct{}{}
		}

		watchedFiles[absPath] = struct{}{}
	}

	slog.Debug("added file watchers",
		slog.Int("dirs", len(watchedDirs)),
		slog.Int("files", len(watchedFiles)),
	)

	runLogged := func() {
		if err := fn(ctx); err != nil {
			slog.Error("run failed, waiting for changes", slog.Any("error", err))
		}
	}

	runLogged()

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) {
				continue
			}

			if _, ok := watchedFiles[filepath.Clean(evt.Name)]; !ok {
				continue
			}

			slog.Debug("file changed", slog.String("event", evt.String()))

			pending = time.After(watchDebounce)

		case <-pending:
			pending = nil

			runLogged()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Error("watch files", slog.Any("error", err))
		}
	}
}
