// SPDX-License-Identifier: MPL-2.0

// Package mail sends plain-text notifications through a local MTA.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// DefaultAddr is the local MTA.
const DefaultAddr = "localhost:25"

// ErrNoRecipient is returned for a message without From or To.
var ErrNoRecipient = errors.New("mail: sender and recipient are required")

type (
	// Message is a plain-text email.
	Message struct {
		From    string
		To      string
		ToName  string
		Subject string
		Body    string
	}

	// Sender delivers messages over SMTP without authentication.
	Sender struct {
		Addr string
		// Now stamps the Date header; time.Now when nil.
		Now func() time.Time
		// Timeout bounds connect and delivery when ctx has no deadline.
		Timeout time.Duration
	}
)

// NewIPChangeMessage builds the notification about a new external address.
func NewIPChangeMessage(from, to, toName, ip string) Message {
	name := toName
	if name == "" {
		name = "Master"
	}
	return Message{
		From:    from,
		To:      to,
		ToName:  toName,
		Subject: "New external IP address",
		Body: fmt.Sprintf("Hi, %s!\n\nJust for your information, my new external IP address is %s.\n\nRegards,\nGreybook.\n",
			name, ip),
	}
}

// Validate checks the addresses.
func (m Message) Validate() error {
	if m.From == "" || m.To == "" {
		return ErrNoRecipient
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("mail: invalid sender %q: %w", m.From, err)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("mail: invalid recipient %q: %w", m.To, err)
	}
	return nil
}

// Bytes renders the message with RFC 5322 headers and CRLF line endings.
func (m Message) Bytes(date time.Time) []byte {
	to := (&mail.Address{Name: m.ToName, Address: m.To}).String()
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}

// Send delivers msg.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if _, ok := ctx.Deadline(); !ok && s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: connecting to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mail: greeting from %s: %w", addr, err)
	}
	defer func() { _ = c.Close() }()

	if err := deliver(c, msg, msg.Bytes(now())); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", msg.To, err)
	}
	return c.Quit()
}

func deliver(c *smtp.Client, msg Message, data []byte) error {
	if err := c.Mail(msg.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
