// SPDX-License-Identifier: MPL-2.0

package pocket

import (
	"context"
	"fmt"
	"time"

	"github.com/kstep/chores/internal/watch"
)

// WatchOptions configures Forwarder.Watch.
type WatchOptions struct {
	// DrainOnStart drains once before waiting for changes.
	DrainOnStart bool
	// Debounce overrides the watcher quiet period.
	Debounce time.Duration
	// Ready is called once the watch is registered.
	Ready func()
}

// Watch drains the queue after every settled change until ctx is cancelled.
func (f *Forwarder) Watch(ctx context.Context, opts WatchOptions) error {
	cfg := watch.ForFile(f.Queue, func(ctx context.Context, _ []string) error {
		_, err := f.Drain(ctx)
		return err
	})
	cfg.Debounce = opts.Debounce
	cfg.Logger = f.Log

	w, err := watch.New(cfg)
	if err != nil {
		return fmt.Errorf("watching %s: %w", f.Queue, err)
	}

	if opts.DrainOnStart {
		if _, err := f.Drain(ctx); err != nil {
			return err
		}
	}
	if opts.Ready != nil {
		opts.Ready()
	}
	return w.Run(ctx)
}
