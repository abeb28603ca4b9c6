// SPDX-License-Identifier: MPL-2.0

package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kstep/chores/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Add(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/add" || r.Header.Get("X-Accept") != "application/json" {
			t.Errorf("request = %s %s X-Accept=%q", r.Method, r.URL.Path, r.Header.Get("X-Accept"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["consumer_key"] != "ck" || body["access_token"] != "at" {
			t.Errorf("body = %v", body)
		}
		fmt.Fprintf(w, `{"item":{"item_id":"229279689","given_url":%q,"normal_url":"http://example.com/a","title":"A"},"status":1}`, body["url"])
	}))
	defer srv.Close()

	c := NewClient("ck", "at", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	item, err := c.Add(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if item.ID != "229279689" || item.GivenURL != "https://example.com/a" || item.Title != "A" {
		t.Errorf("item = %+v", item)
	}
}

func TestClient_AddError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Error", "Invalid consumer key.")
		w.Header().Set("X-Error-Code", "152")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("ck", "at", WithBaseURL(srv.URL))
	_, err := c.Add(context.Background(), "https://example.com/a")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Add() error = %v, want *APIError", err)
	}
	if apiErr.Code != 152 || apiErr.Status != http.StatusForbidden || apiErr.Message != "Invalid consumer key." {
		t.Errorf("APIError = %+v", apiErr)
	}
}

type fakeAdder struct {
	mu    sync.Mutex
	fail  map[string]bool
	added []string
}

func (f *fakeAdder) Add(_ context.Context, rawURL string) (*Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[rawURL] {
		return nil, errors.New("rejected")
	}
	f.added = append(f.added, rawURL)
	return &Item{GivenURL: rawURL}, nil
}

func (f *fakeAdder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.added)
}

func (f *fakeAdder) urls() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.added, " ")
}

func TestForwarder_Drain(t *testing.T) {
	t.Parallel()

	queue := filepath.Join(t.TempDir(), "queue")
	testutil.MustWriteFile(t, queue, []byte("https://a.example/\n\n  https://bad.example/  \nhttps://c.example/\n"))

	var out bytes.Buffer
	adder := &fakeAdder{fail: map[string]bool{"https://bad.example/": true}}
	f := &Forwarder{Adder: adder, Queue: queue, Out: &out, Log: quietLogger()}

	res, err := f.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain() error: %v", err)
	}
	if res.Added != 2 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
	wantOut := "added url https://a.example/\nerror: rejected\nadded url https://c.example/\n"
	if out.String() != wantOut {
		t.Errorf("output = %q, want %q", out.String(), wantOut)
	}
	if got := testutil.MustReadFile(t, queue); got != "https://bad.example/\n" {
		t.Errorf("queue = %q, want only the failed line", got)
	}
}

func TestForwarder_DrainAllFailedKeepsQueue(t *testing.T) {
	t.Parallel()

	queue := filepath.Join(t.TempDir(), "queue")
	content := "https://bad.example/\n# not trimmed away\n"
	testutil.MustWriteFile(t, queue, []byte(content))

	adder := &fakeAdder{fail: map[string]bool{"https://bad.example/": true, "# not trimmed away": true}}
	f := &Forwarder{Adder: adder, Queue: queue, Log: quietLogger()}
	res, err := f.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain() error: %v", err)
	}
	if res.Failed != 2 || res.Added != 0 {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.MustReadFile(t, queue); got != content {
		t.Errorf("queue rewritten to %q", got)
	}
}

func TestForwarder_DrainMissingQueue(t *testing.T) {
	t.Parallel()

	f := &Forwarder{Adder: &fakeAdder{}, Queue: filepath.Join(t.TempDir(), "queue"), Log: quietLogger()}
	if res, err := f.Drain(context.Background()); err != nil || res != (DrainResult{}) {
		t.Errorf("Drain() = %+v, %v", res, err)
	}
}

func TestForwarder_Watch(t *testing.T) {
	t.Parallel()

	queue := filepath.Join(t.TempDir(), "queue")
	testutil.MustWriteFile(t, queue, []byte("https://start.example/\n"))

	adder := &fakeAdder{}
	f := &Forwarder{Adder: adder, Queue: queue, Log: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Watch(ctx, WatchOptions{
			DrainOnStart: true,
			Debounce:     20 * time.Millisecond,
			Ready:        func() { close(ready) },
		})
	}()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("watch never became ready")
	}
	if adder.count() != 1 {
		t.Fatalf("drain on start added %d urls", adder.count())
	}

	testutil.MustWriteFile(t, queue, []byte("https://later.example/\n"))

	deadline := time.Now().Add(5 * time.Second)
	for adder.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Watch() error: %v", err)
	}
	if got := adder.urls(); got != "https://start.example/ https://later.example/" {
		t.Errorf("added = %q", got)
	}
}
