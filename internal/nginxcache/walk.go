// SPDX-License-Identifier: MPL-2.0

package nginxcache

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// WalkFunc receives every cache entry found by Walk. Returning an error stops
// the walk.
type WalkFunc func(*Entry) error

// Walk visits the regular files under root in lexical order and calls fn for
// each cache entry. Files without the key marker are skipped; unreadable
// files are logged and skipped.
func Walk(ctx context.Context, root string, fn WalkFunc) error {
	log := slog.Default().With("component", "nginxcache")
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}

		entry, err := ReadEntry(path)
		switch {
		case errors.Is(err, ErrNoMagic):
			log.Debug("not a cache entry", "path", path)
			return nil
		case err != nil:
			log.Warn("skipping unreadable cache file", "path", path, "err", err)
			return nil
		}
		return fn(entry)
	})
}
