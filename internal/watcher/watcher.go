// Package watcher keeps the knowledge base in sync with a directory by
// ingesting files as they appear or change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driving"
	"github.com/fleetmind-ai/fleetmind/internal/extractors"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// Watcher observes a directory tree and ingests created or modified
// files. Removals are ignored: documents are content-addressed, so a
// deleted file's knowledge stays until the document is deleted
// explicitly.
type Watcher struct {
	dir      string
	ingester driving.IngestionService
	fsw      *fsnotify.Watcher
}

// New creates a watcher over dir. Every existing subdirectory is
// registered; new subdirectories are picked up as they are created.
func New(dir string, ingester driving.IngestionService) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %q: %w", dir, domain.ErrInvalidInput)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{dir: dir, ingester: ingester, fsw: fsw}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handleEvent ingests a file for create and write events. Directory
// creations extend the watch; everything else is ignored.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if isHidden(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone again before we looked; renames show up this way too.
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("Watch %s: %v", event.Name, err)
			}
		}
		return
	}

	w.ingestFile(ctx, event.Name)
}

// ingestFile reads and ingests one file. Duplicate content means the
// file is already known and is not an error.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Read %s: %v", path, err)
		return
	}
	if len(content) == 0 {
		return
	}

	doc, err := w.ingester.Ingest(ctx, content, filepath.Base(path), extractors.MIMETypeForPath(path))
	switch {
	case errors.Is(err, domain.ErrDuplicateContent):
		logger.Debug("Unchanged: %s", path)
	case err != nil:
		logger.Warn("Ingest %s: %v", path, err)
	default:
		logger.Info("Ingested %s (%d pages)", path, doc.PageCount)
	}
}

// addTree watches dir and every non-hidden subdirectory under it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether any element of the path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
