// SPDX-License-Identifier: MPL-2.0

// Package transmission adds torrents to a Transmission daemon over its JSON
// RPC and reads the environment Transmission passes to completion scripts.
package transmission
