// Package filesystem provides a content source that fetches items
// from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.ContentSource  = (*Source)(nil)
	_ driven.WatchingSource = (*Source)(nil)
)

// Source fetches items from a directory tree. Item identifiers are
// paths relative to the root, so they stay stable across runs and
// machines.
type Source struct {
	root    string
	watcher *fsnotify.Watcher
}

// New creates a filesystem source rooted at the given directory.
func New(root string) *Source {
	return &Source{root: root}
}

// Type returns the source type identifier.
func (s *Source) Type() string {
	return "filesystem"
}

// Validate checks that the root exists and is a readable directory.
func (s *Source) Validate(_ context.Context) error {
	info, err := os.Stat(s.root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &domain.FetchError{Kind: domain.FetchNotFound, Source: s.Type(), Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &domain.FetchError{Kind: domain.FetchPermissionDenied, Source: s.Type(), Err: err}
	case err != nil:
		return &domain.FetchError{Kind: domain.FetchUnreachable, Source: s.Type(), Err: err}
	}
	if !info.IsDir() {
		return &domain.FetchError{
			Kind:   domain.FetchNotFound,
			Source: s.Type(),
			Err:    errors.New(s.root + " is not a directory"),
		}
	}
	return nil
}

// Fetch walks the tree and returns one item per matching file.
// Hidden files and directories are skipped. A file that vanishes or
// turns unreadable mid-walk is skipped with a warning; only a failure
// to walk the root itself aborts the fetch.
func (s *Source) Fetch(ctx context.Context, opts driven.FetchOptions) ([]domain.SourceItem, error) {
	if err := s.Validate(ctx); err != nil {
		return nil, err
	}

	root := s.root
	if opts.PathHint != "" && opts.PathHint != "." {
		root = filepath.Join(s.root, opts.PathHint)
	}

	formats := formatSet(opts.Formats)

	var items []domain.SourceItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if isHidden(d.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) {
			return nil
		}

		format := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
		if len(formats) > 0 && !formats[format] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if !opts.Since.IsZero() && !info.ModTime().After(opts.Since) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}

		items = append(items, domain.SourceItem{
			ID:       filepath.ToSlash(rel),
			Name:     d.Name(),
			Path:     path,
			Format:   format,
			Content:  content,
			Modified: info.ModTime().UTC(),
		})

		if opts.MaxItems > 0 && len(items) >= opts.MaxItems {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, Source: s.Type(), Err: err}
	}

	return items, nil
}

// Watch emits a hint whenever something under the root changes.
// Events are coalesced; a burst of writes produces at most one
// buffered hint until it is consumed.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s.watcher = watcher

	// Watch every directory in the tree; fsnotify is not recursive.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if isHidden(d.Name()) && path != s.root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	hints := make(chan struct{}, 1)
	go func() {
		defer close(hints)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New directories must join the watch set.
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				select {
				case hints <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error: %v", err)
			}
		}
	}()

	return hints, nil
}

// Close releases the watcher if one is active.
func (s *Source) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// formatSet normalises the format filter to a lookup set.
func formatSet(formats []string) map[string]bool {
	if len(formats) == 0 {
		return nil
	}
	set := make(map[string]bool, len(formats))
	for _, f := range formats {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))] = true
	}
	return set
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
