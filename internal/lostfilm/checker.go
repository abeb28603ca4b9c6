// SPDX-License-Identifier: MPL-2.0

package lostfilm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kstep/chores/internal/pushbullet"
	"github.com/kstep/chores/internal/transmission"
	"github.com/kstep/chores/pkg/types"
)

// ErrItemsFailed is returned by Checker.Run when at least one release could
// not be processed.
var ErrItemsFailed = errors.New("lostfilm: some releases failed")

type (
	// Tracker is the tracker session used by a Checker.
	Tracker interface {
		Login(ctx context.Context, creds types.Credentials) error
		Feed(ctx context.Context) ([]Item, error)
		TorrentLink(ctx context.Context, detailsURL string) (string, error)
	}

	// Downloader queues torrents.
	Downloader interface {
		AddTorrent(ctx context.Context, filename string) (*transmission.AddResult, error)
	}

	// Notifier delivers pushes.
	Notifier interface {
		Send(ctx context.Context, p pushbullet.Push) (*pushbullet.Result, error)
	}

	// Checker runs one pass over the feed.
	Checker struct {
		Tracker     Tracker
		Downloader  Downloader
		Notifier    Notifier
		Credentials types.Credentials
		Include     []string
		Exclude     []string
		// Out receives the per-release report lines.
		Out io.Writer
		Log *slog.Logger
	}

	// Summary counts what a run did.
	Summary struct {
		Matched int
		Added   int
		Failed  int
	}
)

// Run logs in, reads the feed and adds every matching release. Login and
// feed errors abort; per-release errors are logged and counted, and Run then
// returns ErrItemsFailed after the remaining releases were processed.
func (c *Checker) Run(ctx context.Context) (Summary, error) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	var sum Summary
	if err := c.Tracker.Login(ctx, c.Credentials); err != nil {
		return sum, err
	}

	items, err := c.Tracker.Feed(ctx)
	if err != nil {
		return sum, err
	}

	matched := Filter(items, c.Include, c.Exclude)
	sum.Matched = len(matched)
	log.Debug("feed read", "items", len(items), "matched", len(matched))

	for _, it := range matched {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		added, err := c.process(ctx, log, it)
		if err != nil {
			sum.Failed++
			log.Error("release failed", "title", it.Title, "err", err)
			continue
		}
		if added {
			sum.Added++
		}
	}

	if sum.Failed > 0 {
		return sum, fmt.Errorf("%w: %d of %d", ErrItemsFailed, sum.Failed, sum.Matched)
	}
	return sum, nil
}

func (c *Checker) process(ctx context.Context, log *slog.Logger, it Item) (bool, error) {
	link, err := c.Tracker.TorrentLink(ctx, DetailsURL(it.Link))
	if err != nil {
		return false, err
	}

	res, err := c.Downloader.AddTorrent(ctx, link)
	if err != nil {
		return false, fmt.Errorf("adding torrent: %w", err)
	}
	if !res.Added {
		return false, nil
	}

	fmt.Fprintf(c.Out, "added torrent %s: %s\n", it.Title, link)

	if c.Notifier == nil {
		return true, nil
	}
	push, err := c.Notifier.Send(ctx, pushbullet.NewLink("New LostFilm release: "+it.Title, link))
	if err != nil {
		// The torrent is queued; only the notification is lost.
		log.Warn("notification failed", "title", it.Title, "err", err)
		return true, nil
	}
	fmt.Fprintf(c.Out, "notified with push %s\n", push.Iden)
	return true, nil
}
