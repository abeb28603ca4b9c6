// SPDX-License-Identifier: MPL-2.0

// Package lostfilm watches the LostFilm release feed: it logs in to the
// tracker, filters the RSS items by title, resolves each release to its
// torrent link and hands new torrents to Transmission.
package lostfilm
