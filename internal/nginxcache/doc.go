// SPDX-License-Identifier: MPL-2.0

// Package nginxcache reads entries of an nginx proxy/fastcgi cache directory.
//
// A cache file starts with a binary header whose size depends on the nginx
// version, followed by the "\nKEY: <key>\n" line, the stored upstream
// response headers and the body.
package nginxcache
