// SPDX-License-Identifier: MPL-2.0

// Package watch notifies about settled changes to files in one directory.
//
// Events are filtered by doublestar patterns matched against file names and
// coalesced over a debounce window, so an editor or browser rewriting a file
// in several steps produces a single callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// defaultIgnores are editor and atomic-write leftovers that never count as a
// change of the watched file.
var defaultIgnores = []string{
	"*.swp",
	"*.swo",
	"*~",
	".#*",
	"*.tmp",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the directory to watch. It must exist.
		Dir string

		// Patterns are doublestar patterns matched against file names inside
		// Dir. An empty slice accepts every non-ignored file.
		Patterns []string

		// Ignore adds patterns to the built-in ignore list.
		Ignore []string

		// Ops selects the event kinds that count as a change. Zero means
		// Create|Write|Rename.
		Ops fsnotify.Op

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative values use the default.
		Debounce time.Duration

		// OnChange receives the deduplicated, sorted file names changed
		// during the debounce window.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives diagnostics. nil uses slog.Default().
		Logger *slog.Logger
	}

	// Watcher delivers debounced change notifications. Run must be called
	// exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		ops      fsnotify.Op
		debounce time.Duration
		dir      string
		log      *slog.Logger
		started  atomic.Bool
	}
)

// ForFile returns a Config watching a single file by name, through its
// parent directory so that replacing the file is noticed too.
func ForFile(path string, onChange func(ctx context.Context, changed []string) error) Config {
	return Config{
		Dir:      filepath.Dir(path),
		Patterns: []string{escapePattern(filepath.Base(path))},
		OnChange: onChange,
	}
}

// New validates cfg and registers Dir with fsnotify.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch: directory is required")
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}

	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("watch: add directory %q: %w", dir, err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		ops:      cfg.Ops,
		debounce: cfg.Debounce,
		dir:      dir,
		log:      cfg.Logger,
	}
	if w.ops == 0 {
		w.ops = fsnotify.Create | fsnotify.Write | fsnotify.Rename
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.log == nil {
		w.log = slog.Default()
	}

	return w, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation because it is scheduled by
	// time.AfterFunc; callbacks never overlap.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.log.Debug("previous callback still running, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.log.Error("change callback failed", "dir", w.dir, "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.log.Warn("close fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Op&w.ops == 0 {
				continue
			}

			name := filepath.Base(evt.Name)
			if !w.accepts(name) {
				continue
			}
			w.log.Debug("file event", "file", name, "op", evt.Op.String())

			mu.Lock()
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.log.Warn("fsnotify error", "err", err)
		}
	}
}

// accepts reports whether a file name passes the ignore list and the
// configured patterns.
func (w *Watcher) accepts(name string) bool {
	if matchAny(w.ignores, name) {
		return false
	}
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, name)
}

func matchAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, name); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}

// escapePattern quotes glob metacharacters so a literal file name can be
// used as a pattern.
func escapePattern(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
