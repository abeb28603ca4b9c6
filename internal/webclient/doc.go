// SPDX-License-Identifier: MPL-2.0

// Package webclient is the HTTP session shared by the page-scraping tools: a
// cookie-keeping client with a fixed User-Agent, optional basic auth, bounded
// body reads and Windows-1251 decoding for legacy Russian sites.
package webclient
