// SPDX-License-Identifier: MPL-2.0

package mail

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestNewIPChangeMessage(t *testing.T) {
	t.Parallel()

	m := NewIPChangeMessage("greybook@home.kstep.me", "me@kstep.me", "Master", "10.1.2.3")
	if m.Subject != "New external IP address" {
		t.Errorf("Subject = %q", m.Subject)
	}
	want := "Hi, Master!\n\nJust for your information, my new external IP address is 10.1.2.3.\n\nRegards,\nGreybook.\n"
	if m.Body != want {
		t.Errorf("Body = %q, want %q", m.Body, want)
	}
}

func TestMessage_Bytes(t *testing.T) {
	t.Parallel()

	m := Message{From: "a@example.com", To: "b@example.com", ToName: "Master", Subject: "Hi", Body: "one\ntwo"}
	got := string(m.Bytes(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	for _, want := range []string{
		"From: a@example.com\r\n",
		"To: \"Master\" <b@example.com>\r\n",
		"Subject: Hi\r\n",
		"Date: Wed, 01 May 2024 10:00:00 +0000\r\n",
		"\r\n\r\none\r\ntwo",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Bytes() missing %q in:\n%s", want, got)
		}
	}
}

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	if err := (Message{To: "b@example.com"}).Validate(); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("Validate() = %v, want ErrNoRecipient", err)
	}
	if err := (Message{From: "a@example.com", To: "not an address"}).Validate(); err == nil {
		t.Error("Validate() accepted a bad recipient")
	}
}

// fakeMTA accepts one SMTP session and records the DATA payload.
func fakeMTA(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		reply("220 fake ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					got <- data.String()
					reply("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case strings.HasPrefix(cmd, "DATA"):
				inData = true
				reply("354 go ahead")
			case strings.HasPrefix(cmd, "QUIT"):
				reply("221 bye")
				return
			default:
				reply("250 ok")
			}
		}
	}()
	return ln.Addr().String(), got
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	addr, got := fakeMTA(t)
	s := &Sender{Addr: addr, Timeout: 5 * time.Second}
	msg := NewIPChangeMessage("greybook@home.kstep.me", "me@kstep.me", "Master", "10.1.2.3")
	if err := s.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	select {
	case data := <-got:
		if !strings.Contains(data, "my new external IP address is 10.1.2.3.") {
			t.Errorf("DATA = %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSender_SendUnreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	s := &Sender{Addr: addr, Timeout: time.Second}
	msg := Message{From: "a@example.com", To: "b@example.com"}
	if err := s.Send(context.Background(), msg); err == nil {
		t.Error("Send() to a closed port succeeded")
	}
}
