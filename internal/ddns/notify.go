// SPDX-License-Identifier: MPL-2.0

package ddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"

	"github.com/kstep/chores/internal/mail"
	"github.com/kstep/chores/internal/pushbullet"
)

// ErrNoPusher stands in for the push result when no pusher is configured.
var ErrNoPusher = errors.New("ddns: push notifications are not configured")

type (
	// Pusher delivers pushes.
	Pusher interface {
		Send(ctx context.Context, p pushbullet.Push) (*pushbullet.Result, error)
	}

	// Mailer delivers email.
	Mailer interface {
		Send(ctx context.Context, msg mail.Message) error
	}

	// Announcer tells the owner about a new address: a push first, email
	// when the push fails.
	Announcer struct {
		Pusher     Pusher
		DeviceIden string
		// Mailer and the addresses may be empty to disable the fallback.
		Mailer   Mailer
		MailFrom string
		MailTo   string
		MailName string
		// Out receives the delivery report lines.
		Out io.Writer
		Log *slog.Logger
	}
)

// Announce reports ip. It fails only when every configured channel failed.
func (a *Announcer) Announce(ctx context.Context, ip netip.Addr) error {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	out := a.Out
	if out == nil {
		out = io.Discard
	}

	pushErr := ErrNoPusher
	if a.Pusher != nil {
		push := pushbullet.NewNote("New home IP address", ip.String())
		push.SourceDeviceIden = a.DeviceIden
		res, err := a.Pusher.Send(ctx, push)
		if err == nil {
			fmt.Fprintf(out, "notified with push %s\n", res.Iden)
			return nil
		}
		pushErr = err
	}

	fmt.Fprintf(out, "push notification failed with error: %v\n", pushErr)
	if a.Mailer == nil || a.MailTo == "" {
		return pushErr
	}

	fmt.Fprintln(out, "trying to send email...")
	msg := mail.NewIPChangeMessage(a.MailFrom, a.MailTo, a.MailName, ip.String())
	if err := a.Mailer.Send(ctx, msg); err != nil {
		fmt.Fprintf(out, "email notification failed with error: %v\n", err)
		log.Error("all notifications failed", "push", pushErr, "mail", err)
		return errors.Join(pushErr, err)
	}
	fmt.Fprintf(out, "notified with email to %s\n", a.MailTo)
	return nil
}
