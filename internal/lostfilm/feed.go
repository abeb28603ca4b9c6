// SPDX-License-Identifier: MPL-2.0

package lostfilm

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/kstep/chores/internal/webclient"
)

// Item is a feed entry.
type Item struct {
	Title string
	Link  string
}

// ParseFeed reads channel/item title and link pairs from a windows-1251 RSS
// document, whatever encoding its XML declaration names.
func ParseFeed(data []byte) ([]Item, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = decodedCharset
	if _, err := doc.ReadFrom(strings.NewReader(webclient.DecodeCP1251(data))); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var items []Item
	for _, el := range doc.FindElements("//channel/item") {
		item := Item{}
		if t := el.SelectElement("title"); t != nil {
			item.Title = strings.TrimSpace(t.Text())
		}
		if l := el.SelectElement("link"); l != nil {
			item.Link = strings.TrimSpace(l.Text())
		}
		if item.Title == "" || item.Link == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// decodedCharset accepts any declared label: the text is already UTF-8.
func decodedCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// Filter keeps the items whose title contains at least one include
// substring and no exclude substring.
func Filter(items []Item, include, exclude []string) []Item {
	var out []Item
	for _, it := range items {
		if containsAny(it.Title, include) && !containsAny(it.Title, exclude) {
			out = append(out, it)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DetailsURL turns a feed download link into the release details page URL:
// download.php becomes details.php and the last query parameter is dropped.
func DetailsURL(link string) string {
	u := strings.Replace(link, "/download.php?", "/details.php?", 1)
	if i := strings.LastIndex(u, "&"); i >= 0 {
		u = u[:i]
	}
	return u
}
