// SPDX-License-Identifier: MPL-2.0

// Package dns manages records of a domain hosted by the Yandex PDD registrar.
//
// Client speaks the current JSON API (api2/admin/dns) with list, add, edit
// and delete operations; LegacyClient reads record lists from the older XML
// nsapi endpoint.
package dns
