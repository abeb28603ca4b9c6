// SPDX-License-Identifier: MPL-2.0

package lostfilm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/kstep/chores/internal/pushbullet"
	"github.com/kstep/chores/internal/transmission"
	"github.com/kstep/chores/internal/webclient"
	"github.com/kstep/chores/pkg/types"
)

const feedXML = `<?xml version="1.0" encoding="windows-1251"?>
<rss version="0.91">
<channel>
<title>LostFilm.TV</title>
<item>
  <title>Доктор Кто (Doctor Who). Серия 1 (S09E01) [MP4]</title>
  <link>http://www.lostfilm.tv/download.php?id=100&amp;cat=59&amp;hash=abc</link>
</item>
<item>
  <title>Шерлок (Sherlock). Серия 2 (S04E02) [1080p]</title>
  <link>http://www.lostfilm.tv/download.php?id=101&amp;cat=60&amp;hash=def</link>
</item>
<item>
  <title>Ходячие мертвецы (The Walking Dead). (S06E03)</title>
  <link>http://www.lostfilm.tv/download.php?id=102&amp;cat=61&amp;hash=ghi</link>
</item>
</channel>
</rss>`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	items, err := ParseFeed(webclient.EncodeCP1251(feedXML))
	if err != nil {
		t.Fatalf("ParseFeed() error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].Title != "Доктор Кто (Doctor Who). Серия 1 (S09E01) [MP4]" {
		t.Errorf("title = %q", items[0].Title)
	}
	if items[1].Link != "http://www.lostfilm.tv/download.php?id=101&cat=60&hash=def" {
		t.Errorf("link = %q", items[1].Link)
	}
}

func TestParseFeed_UndeclaredCharset(t *testing.T) {
	t.Parallel()

	for name, prolog := range map[string]string{
		"no declaration": "",
		"utf-8 declared": `<?xml version="1.0" encoding="utf-8"?>`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			raw := prolog + `<rss><channel><item><title>Сериал (S01E01)</title>` +
				`<link>http://www.lostfilm.tv/download.php?id=7&amp;hash=x</link></item></channel></rss>`
			items, err := ParseFeed(webclient.EncodeCP1251(raw))
			if err != nil {
				t.Fatalf("ParseFeed() error: %v", err)
			}
			if len(items) != 1 || items[0].Title != "Сериал (S01E01)" {
				t.Errorf("items = %+v", items)
			}
		})
	}
}

func TestParseFeed_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := ParseFeed([]byte("<rss version=0.91></rss>")); err == nil {
		t.Error("malformed feed should fail")
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Title: "Doctor Who S09E01 [MP4]"},
		{Title: "Sherlock S04E02 [1080p]"},
		{Title: "Sherlock S04E02 [MP4]"},
		{Title: "The Walking Dead S06E03"},
	}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{name: "include any", include: []string{"Doctor Who", "Sherlock"}, want: []string{items[0].Title, items[1].Title, items[2].Title}},
		{name: "exclude wins", include: []string{"Sherlock"}, exclude: []string{"1080p"}, want: []string{items[2].Title}},
		{name: "no include matches nothing", exclude: []string{"x"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, it := range Filter(items, tt.include, tt.exclude) {
				got = append(got, it.Title)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetailsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"http://www.lostfilm.tv/download.php?id=100&cat=59&hash=abc", "http://www.lostfilm.tv/details.php?id=100&cat=59"},
		{"http://www.lostfilm.tv/download.php?id=100", "http://www.lostfilm.tv/details.php?id=100"},
	}
	for _, tt := range tests {
		if got := DetailsURL(tt.in); got != tt.want {
			t.Errorf("DetailsURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseForm(t *testing.T) {
	t.Parallel()

	page := `<html><body onload="document.forms[0].submit()">
<form method="post" action="/blg.php?act=login">
<input type="hidden" name="uid" value="42">
<input type="hidden" name="pass" value="0f0f">
<input type="submit" value="Войти">
</form></body></html>`
	base, _ := url.Parse("http://login1.bogi.ru/login.php?referer=x")

	form, err := ParseForm(page, base)
	if err != nil {
		t.Fatalf("ParseForm() error: %v", err)
	}
	if form.Action != "http://login1.bogi.ru/blg.php?act=login" {
		t.Errorf("Action = %q", form.Action)
	}
	if form.Values.Get("uid") != "42" || form.Values.Get("pass") != "0f0f" {
		t.Errorf("Values = %v", form.Values)
	}
	if len(form.Values) != 2 {
		t.Errorf("unnamed inputs should be skipped: %v", form.Values)
	}

	if _, err := ParseForm("<html><body>Неверный пароль</body></html>", base); !errors.Is(err, ErrLoginFailed) {
		t.Errorf("page without form: error = %v, want ErrLoginFailed", err)
	}
}

// fakeTracker serves the sign-on, feed, details and redirect pages.
func fakeTracker(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srvURL string

	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("login") != "alice" || r.Form.Get("act") != "login" || r.Form.Get("module") != "1" {
			t.Errorf("login form = %v", r.Form)
		}
		if r.URL.Query().Get("referer") != srvURL+"/" {
			t.Errorf("referer query = %q", r.URL.Query().Get("referer"))
		}
		_, _ = w.Write(webclient.EncodeCP1251(`<form action="/continue"><input type="hidden" name="token" value="t1"></form>`))
	})
	mux.HandleFunc("/continue", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("token") != "t1" {
			t.Errorf("continuation form = %v (%v)", r.Form, err)
		}
		http.SetCookie(w, &http.Cookie{Name: "uid", Value: "42", Path: "/"})
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/rssdd.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(webclient.EncodeCP1251(strings.ReplaceAll(feedXML, "http://www.lostfilm.tv", srvURL)))
	})
	mux.HandleFunc("/details.php", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("uid"); err != nil {
			http.Error(w, "login required", http.StatusForbidden)
			return
		}
		id := r.URL.Query().Get("id")
		if id == "101" {
			_, _ = w.Write([]byte("<html>removed</html>"))
			return
		}
		anchor := fmt.Sprintf(`<a href="javascript:{};" onMouseOver="setCookie('release','%s')" title="Искать" alt="Искать" class="a_download" onClick="ShowAllReleases('59','9.0','%s')"></a>`, "beef", id)
		_, _ = w.Write(webclient.EncodeCP1251(anchor))
	})
	mux.HandleFunc("/nrdr.php", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("release_2")
		if err != nil || ck.Value != "beef" {
			http.Error(w, "no cookie", http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `<a href="http://tracktor.in/td.php?s=%s-%s">1080</a>`, r.URL.Query().Get("s"), r.URL.Query().Get("e"))
	})

	srv := httptest.NewServer(mux)
	srvURL = srv.URL
	t.Cleanup(srv.Close)
	return srv
}

type fakeDownloader struct {
	added []string
	known map[string]bool
}

func (f *fakeDownloader) AddTorrent(_ context.Context, filename string) (*transmission.AddResult, error) {
	if f.known[filename] {
		return &transmission.AddResult{Duplicate: true}, nil
	}
	f.added = append(f.added, filename)
	return &transmission.AddResult{Added: true}, nil
}

type fakeNotifier struct {
	pushes []pushbullet.Push
	err    error
}

func (f *fakeNotifier) Send(_ context.Context, p pushbullet.Push) (*pushbullet.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pushes = append(f.pushes, p)
	return &pushbullet.Result{Iden: fmt.Sprintf("push%d", len(f.pushes))}, nil
}

func TestChecker_Run(t *testing.T) {
	t.Parallel()

	srv := fakeTracker(t)
	client, err := NewClient(Options{BaseURL: srv.URL, LoginURL: srv.URL + "/login.php"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	dl := &fakeDownloader{known: map[string]bool{"http://tracktor.in/td.php?s=9.0-102": true}}
	pb := &fakeNotifier{}
	var out bytes.Buffer

	checker := &Checker{
		Tracker:     client,
		Downloader:  dl,
		Notifier:    pb,
		Credentials: types.Credentials{Username: "alice", Password: "pw"},
		Include:     []string{"Doctor Who", "Sherlock", "Walking Dead"},
		Out:         &out,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	sum, err := checker.Run(context.Background())
	if !errors.Is(err, ErrItemsFailed) {
		t.Fatalf("Run() error = %v, want ErrItemsFailed for the removed release", err)
	}
	if sum.Matched != 3 || sum.Added != 1 || sum.Failed != 1 {
		t.Errorf("Summary = %+v", sum)
	}

	if !slices.Equal(dl.added, []string{"http://tracktor.in/td.php?s=9.0-100"}) {
		t.Errorf("added = %v", dl.added)
	}
	if len(pb.pushes) != 1 || pb.pushes[0].Type != pushbullet.TypeLink ||
		pb.pushes[0].Title != "New LostFilm release: Доктор Кто (Doctor Who). Серия 1 (S09E01) [MP4]" {
		t.Errorf("pushes = %+v", pb.pushes)
	}

	want := "added torrent Доктор Кто (Doctor Who). Серия 1 (S09E01) [MP4]: http://tracktor.in/td.php?s=9.0-100\nnotified with push push1\n"
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestChecker_NotificationFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	srv := fakeTracker(t)
	client, err := NewClient(Options{BaseURL: srv.URL, LoginURL: srv.URL + "/login.php"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	var out bytes.Buffer
	checker := &Checker{
		Tracker:     client,
		Downloader:  &fakeDownloader{},
		Notifier:    &fakeNotifier{err: errors.New("offline")},
		Credentials: types.Credentials{Username: "alice", Password: "pw"},
		Include:     []string{"Doctor Who"},
		Out:         &out,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	sum, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Added != 1 {
		t.Errorf("Added = %d, want 1", sum.Added)
	}
	if strings.Contains(out.String(), "notified") {
		t.Errorf("output should not report a push: %q", out.String())
	}
}

type failingTracker struct{ Tracker }

func (failingTracker) Login(context.Context, types.Credentials) error { return ErrLoginFailed }

func TestChecker_LoginFailureAborts(t *testing.T) {
	t.Parallel()

	checker := &Checker{Tracker: failingTracker{}, Out: io.Discard}
	if _, err := checker.Run(context.Background()); !errors.Is(err, ErrLoginFailed) {
		t.Errorf("Run() error = %v, want ErrLoginFailed", err)
	}
}

func TestClient_TorrentLinkMissingAnchor(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	client, err := NewClient(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if _, err := client.TorrentLink(context.Background(), srv.URL+"/details.php?id=1"); !errors.Is(err, ErrNoTorrentLink) {
		t.Errorf("TorrentLink() error = %v, want ErrNoTorrentLink", err)
	}
}
