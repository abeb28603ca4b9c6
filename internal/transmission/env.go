// SPDX-License-Identifier: MPL-2.0

package transmission

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// ErrNotCompletionHook is returned when the torrent variables are missing,
// which means the process was not started by the daemon.
var ErrNotCompletionHook = errors.New("environment variables TR_TORRENT_NAME and TR_TORRENT_DIR must be set")

// Completion is a finished download as reported by the daemon.
type Completion struct {
	Name string
	Dir  string
	ID   int
	Hash string
}

// TorrentDoneFromEnv reads the torrent-done script environment through getenv.
func TorrentDoneFromEnv(getenv func(string) string) (Completion, error) {
	c := Completion{
		Name: getenv("TR_TORRENT_NAME"),
		Dir:  getenv("TR_TORRENT_DIR"),
		Hash: getenv("TR_TORRENT_HASH"),
	}
	if c.Name == "" || c.Dir == "" {
		return Completion{}, ErrNotCompletionHook
	}
	if raw := getenv("TR_TORRENT_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return Completion{}, fmt.Errorf("TR_TORRENT_ID %q: %w", raw, err)
		}
		c.ID = id
	}
	return c, nil
}

// Path is the location of the downloaded data.
func (c Completion) Path() string {
	return filepath.Join(c.Dir, c.Name)
}
