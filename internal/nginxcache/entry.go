// SPDX-License-Identifier: MPL-2.0

package nginxcache

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// Magic precedes the cache key.
	Magic = "\nKEY: "

	// magicWindow bounds where Magic may start.
	magicWindow = 4 << 10

	// headWindow bounds the key line plus the stored response headers.
	headWindow = 64 << 10

	// sniffBytes is how much decoded body is inspected.
	sniffBytes = 3072
)

// ErrNoMagic is returned for files that are not cache entries.
var ErrNoMagic = errors.New("nginxcache: cache key marker not found")

// Entry is one cache file.
type Entry struct {
	Path string
	Key  string
	// URL is set when Key is an absolute URL.
	URL *url.URL

	// Status and the header fields are zero when the entry stores no
	// response headers.
	Status          int
	ContentType     string
	ContentEncoding string

	// BodyMIME is the detected type of the decoded body.
	BodyMIME string
	BodySize int64
}

// ReadEntry parses the cache file at path.
func ReadEntry(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }() // read-only file handle

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	head := make([]byte, headWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	head = head[:n]

	e := &Entry{Path: path}
	bodyOffset, err := e.parseHead(head)
	if err != nil {
		return nil, err
	}
	e.BodySize = info.Size() - bodyOffset

	if e.BodySize > 0 {
		if _, err := f.Seek(bodyOffset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seeking %s: %w", path, err)
		}
		e.BodyMIME = detectBody(f, e.ContentEncoding)
	}
	return e, nil
}

// parseHead fills the key and response header fields and returns the body
// offset within the file.
func (e *Entry) parseHead(head []byte) (int64, error) {
	window := head
	if len(window) > magicWindow {
		window = window[:magicWindow]
	}
	start := bytes.Index(window, []byte(Magic))
	if start < 0 {
		return 0, ErrNoMagic
	}

	keyStart := start + len(Magic)
	keyLen := bytes.IndexByte(head[keyStart:], '\n')
	if keyLen < 0 {
		return 0, fmt.Errorf("nginxcache: %s: unterminated key line", e.Path)
	}
	e.Key = strings.TrimRight(string(head[keyStart:keyStart+keyLen]), "\r")
	if u, err := url.Parse(e.Key); err == nil && u.IsAbs() && u.Host != "" {
		e.URL = u
	}

	rest := keyStart + keyLen + 1
	if !bytes.HasPrefix(head[rest:], []byte("HTTP/")) {
		return int64(rest), nil
	}
	end := bytes.Index(head[rest:], []byte("\r\n\r\n"))
	if end < 0 {
		return int64(rest), nil
	}
	block := head[rest : rest+end+4]
	e.parseResponseHeaders(block)
	return int64(rest + end + 4), nil
}

func (e *Entry) parseResponseHeaders(block []byte) {
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(block)))
	status, err := r.ReadLine()
	if err != nil {
		return
	}
	if fields := strings.Fields(status); len(fields) >= 2 {
		e.Status, _ = strconv.Atoi(fields[1])
	}
	hdr, err := r.ReadMIMEHeader()
	if err != nil && len(hdr) == 0 {
		return
	}
	e.ContentType = hdr.Get("Content-Type")
	e.ContentEncoding = strings.ToLower(strings.TrimSpace(hdr.Get("Content-Encoding")))
}

func detectBody(body io.Reader, encoding string) string {
	var r io.Reader = body
	switch encoding {
	case "br":
		r = brotli.NewReader(body)
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return ""
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, buf)
	if n == 0 && err != nil {
		return ""
	}
	return mimetype.Detect(buf[:n]).String()
}
