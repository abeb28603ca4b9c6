// SPDX-License-Identifier: MPL-2.0

// Package notify announces finished downloads through Pushbullet.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/kstep/chores/internal/pushbullet"
	"github.com/kstep/chores/internal/transmission"
)

// Sender delivers pushes.
type Sender interface {
	Send(ctx context.Context, p pushbullet.Push) (*pushbullet.Result, error)
}

// TorrentDone builds the note for a finished download.
func TorrentDone(c transmission.Completion, sourceDevice string) pushbullet.Push {
	p := pushbullet.NewNote("Torrent download complete", fmt.Sprintf("%s downloaded to %s", c.Name, c.Dir))
	p.SourceDeviceIden = sourceDevice
	return p
}

// SendTorrentDone pushes the note for c and prints the push id to out.
func SendTorrentDone(ctx context.Context, s Sender, c transmission.Completion, sourceDevice string, out io.Writer) (*pushbullet.Result, error) {
	res, err := s.Send(ctx, TorrentDone(c, sourceDevice))
	if err != nil {
		return nil, fmt.Errorf("notifying about %s: %w", c.Name, err)
	}
	fmt.Fprintf(out, "notified with push %s\n", res.Iden)
	return res, nil
}
