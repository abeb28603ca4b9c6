// SPDX-License-Identifier: MPL-2.0

package nginxcache

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/kstep/chores/internal/testutil"
)

var pngBody = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

func cacheFile(headerSize int, key, headers string, body []byte) []byte {
	var b bytes.Buffer
	b.Write(bytes.Repeat([]byte{0x01}, headerSize))
	b.WriteString(Magic)
	b.WriteString(key)
	b.WriteByte('\n')
	b.WriteString(headers)
	b.Write(body)
	return b.Bytes()
}

func brotliBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w := brotli.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}
	return b.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return b.Bytes()
}

func TestReadEntry(t *testing.T) {
	t.Parallel()

	html := []byte("<!DOCTYPE html><html><body>hello</body></html>")
	tests := []struct {
		name       string
		data       func(t *testing.T) []byte
		key        string
		wantURL    bool
		status     int
		encoding   string
		mimePrefix string
	}{
		{
			name: "legacy header without stored response",
			data: func(*testing.T) []byte {
				return cacheFile(24, "http://example.com/index.html", "", html)
			},
			key:        "http://example.com/index.html",
			wantURL:    true,
			mimePrefix: "text/html",
		},
		{
			name: "modern header with response",
			data: func(*testing.T) []byte {
				return cacheFile(336, "https://example.com/logo.png",
					"HTTP/1.1 200 OK\r\nContent-Type: image/png\r\nServer: test\r\n\r\n", pngBody)
			},
			key:        "https://example.com/logo.png",
			wantURL:    true,
			status:     200,
			mimePrefix: "image/png",
		},
		{
			name: "brotli body",
			data: func(t *testing.T) []byte {
				return cacheFile(336, "https://example.com/logo.png",
					"HTTP/1.1 200 OK\r\nContent-Type: image/png\r\nContent-Encoding: br\r\n\r\n", brotliBytes(t, pngBody))
			},
			key:        "https://example.com/logo.png",
			wantURL:    true,
			status:     200,
			encoding:   "br",
			mimePrefix: "image/png",
		},
		{
			name: "gzip body",
			data: func(t *testing.T) []byte {
				return cacheFile(336, "https://example.com/",
					"HTTP/1.1 404 Not Found\r\nContent-Type: text/html\r\nContent-Encoding: gzip\r\n\r\n", gzipBytes(t, html))
			},
			key:        "https://example.com/",
			wantURL:    true,
			status:     404,
			encoding:   "gzip",
			mimePrefix: "text/html",
		},
		{
			name: "non-url key",
			data: func(*testing.T) []byte {
				return cacheFile(24, "example.com/index.html", "", html)
			},
			key: "example.com/index.html",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "entry")
			testutil.MustWriteFile(t, path, tt.data(t))

			e, err := ReadEntry(path)
			if err != nil {
				t.Fatalf("ReadEntry() error: %v", err)
			}
			if e.Key != tt.key {
				t.Errorf("Key = %q, want %q", e.Key, tt.key)
			}
			if (e.URL != nil) != tt.wantURL {
				t.Errorf("URL = %v, want set %v", e.URL, tt.wantURL)
			}
			if e.Status != tt.status || e.ContentEncoding != tt.encoding {
				t.Errorf("Status = %d, ContentEncoding = %q", e.Status, e.ContentEncoding)
			}
			if tt.mimePrefix != "" && !strings.HasPrefix(e.BodyMIME, tt.mimePrefix) {
				t.Errorf("BodyMIME = %q, want prefix %q", e.BodyMIME, tt.mimePrefix)
			}
			if e.BodySize <= 0 {
				t.Errorf("BodySize = %d", e.BodySize)
			}
		})
	}
}

func TestReadEntry_NoMagic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plain := filepath.Join(dir, "plain")
	testutil.MustWriteFile(t, plain, []byte("just a file\nKEY without colon"))
	if _, err := ReadEntry(plain); !errors.Is(err, ErrNoMagic) {
		t.Errorf("ReadEntry() error = %v, want ErrNoMagic", err)
	}

	late := filepath.Join(dir, "late")
	testutil.MustWriteFile(t, late, cacheFile(magicWindow+10, "http://example.com/", "", nil))
	if _, err := ReadEntry(late); !errors.Is(err, ErrNoMagic) {
		t.Errorf("ReadEntry() error = %v, want ErrNoMagic for a marker past the window", err)
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "a", "1f", "b"), cacheFile(24, "http://example.com/b", "", []byte("b")))
	testutil.MustWriteFile(t, filepath.Join(root, "a", "2f", "c"), cacheFile(24, "http://example.com/c", "", []byte("c")))
	testutil.MustWriteFile(t, filepath.Join(root, "junk"), []byte("not a cache file"))

	var keys []string
	err := Walk(context.Background(), root, func(e *Entry) error {
		keys = append(keys, e.Key)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if strings.Join(keys, ",") != "http://example.com/b,http://example.com/c" {
		t.Errorf("keys = %v", keys)
	}

	stop := errors.New("stop")
	if err := Walk(context.Background(), root, func(*Entry) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want stop", err)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	t.Parallel()

	err := Walk(context.Background(), filepath.Join(t.TempDir(), "missing"), func(*Entry) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Walk() error = %v, want ErrNotExist", err)
	}
}
