// SPDX-License-Identifier: MPL-2.0

// Package automount names mount points for removable devices announced by
// udev and escapes them for systemd template units.
package automount

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultMediaDir is where devices are mounted.
const DefaultMediaDir = "/media"

// ErrNoName is returned when neither a label, a UUID nor the vendor, model
// and device triple is available.
var ErrNoName = errors.New("automount: cannot derive a mount name")

// Name derives the mount name from udev properties: ID_FS_LABEL, then
// ID_FS_UUID, then <ID_VENDOR>_<ID_MODEL>_<device>.
func Name(getenv func(string) string, device string) (string, error) {
	if label := getenv("ID_FS_LABEL"); label != "" {
		return label, nil
	}
	if uuid := getenv("ID_FS_UUID"); uuid != "" {
		return uuid, nil
	}

	vendor, model := getenv("ID_VENDOR"), getenv("ID_MODEL")
	var missing []string
	if vendor == "" {
		missing = append(missing, "ID_VENDOR")
	}
	if model == "" {
		missing = append(missing, "ID_MODEL")
	}
	if device == "" {
		missing = append(missing, "device name")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s missing", ErrNoName, strings.Join(missing, ", "))
	}
	return vendor + "_" + model + "_" + device, nil
}

// UniqueName appends underscores to name until <mediaDir>/<name> is not a
// mount point.
func UniqueName(mediaDir, name string, isMount func(string) bool) string {
	for isMount(filepath.Join(mediaDir, name)) {
		name += "_"
	}
	return name
}

// SystemdEscape replaces every byte outside [A-Za-z0-9_] with \xNN.
func SystemdEscape(s string) string {
	const hex = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		default:
			b.WriteString(`\x`)
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

// UnitArgument is the escaped "<devname> <mountpoint>" instance argument.
func UnitArgument(devName, mediaDir, name string) string {
	return SystemdEscape(devName + " " + filepath.Join(mediaDir, name))
}
