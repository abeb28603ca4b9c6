// SPDX-License-Identifier: MPL-2.0

package pocket

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type (
	// Adder saves a URL.
	Adder interface {
		Add(ctx context.Context, rawURL string) (*Item, error)
	}

	// Forwarder moves the URLs of a queue file to an Adder.
	Forwarder struct {
		Adder Adder
		Queue string
		// Out receives the per-URL report lines.
		Out io.Writer
		Log *slog.Logger
	}

	// DrainResult counts what a drain did.
	DrainResult struct {
		Added  int
		Failed int
	}
)

// Drain adds every non-blank queue line and rewrites the queue so that only
// the failed lines remain. Lines appended while the drain ran are kept. The
// queue is left untouched when nothing was added.
func (f *Forwarder) Drain(ctx context.Context) (DrainResult, error) {
	log := f.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "pocket", "queue", f.Queue)
	out := f.Out
	if out == nil {
		out = io.Discard
	}

	var res DrainResult
	snapshot, err := os.ReadFile(f.Queue)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("queue missing")
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("reading queue: %w", err)
	}

	var failed []string
	sc := bufio.NewScanner(bytes.NewReader(snapshot))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			failed = append(failed, line)
			res.Failed++
			continue
		}
		item, err := f.Adder.Add(ctx, line)
		if err != nil {
			failed = append(failed, line)
			res.Failed++
			fmt.Fprintf(out, "error: %v\n", err)
			log.Error("forwarding failed", "url", line, "err", err)
			continue
		}
		res.Added++
		fmt.Fprintf(out, "added url %s\n", item.GivenURL)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("reading queue: %w", err)
	}

	if res.Added == 0 {
		return res, ctx.Err()
	}
	if err := f.rewrite(snapshot, failed); err != nil {
		return res, err
	}
	return res, ctx.Err()
}

func (f *Forwarder) rewrite(snapshot []byte, failed []string) error {
	current, err := os.ReadFile(f.Queue)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("re-reading queue: %w", err)
	}

	var b bytes.Buffer
	for _, line := range failed {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if bytes.HasPrefix(current, snapshot) {
		b.Write(current[len(snapshot):])
	}

	mode := os.FileMode(0o600)
	if info, err := os.Stat(f.Queue); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Queue), "."+filepath.Base(f.Queue)+".*")
	if err != nil {
		return fmt.Errorf("rewriting queue: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("rewriting queue: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("rewriting queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("rewriting queue: %w", err)
	}
	if err := os.Rename(tmpName, f.Queue); err != nil {
		return fmt.Errorf("rewriting queue: %w", err)
	}
	return nil
}
