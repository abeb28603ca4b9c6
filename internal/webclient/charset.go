// SPDX-License-Identifier: MPL-2.0

package webclient

import "golang.org/x/text/encoding/charmap"

// Charset selects how Page.Text decodes a body.
type Charset int

const (
	// UTF8 leaves the body as is.
	UTF8 Charset = iota
	// CP1251 decodes Windows-1251.
	CP1251
)

// DecodeCP1251 decodes Windows-1251 bytes. Bytes without a mapping become U+FFFD.
func DecodeCP1251(b []byte) string {
	out, err := charmap.Windows1251.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// EncodeCP1251 encodes s as Windows-1251, replacing unmappable runes with '?'.
// It is the inverse of DecodeCP1251 and is mostly useful for test fixtures.
func EncodeCP1251(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1251.EncodeRune(r)
		if !ok {
			out = append(out, '?')
			continue
		}
		out = append(out, b)
	}
	return out
}

// Text returns the body decoded with cs.
func (p *Page) Text(cs Charset) string {
	if cs == CP1251 {
		return DecodeCP1251(p.Body)
	}
	return string(p.Body)
}
