// SPDX-License-Identifier: MPL-2.0

//go:build unix

package automount

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsMount reports whether path is a directory on a different device than
// its parent. The root directory is always a mount point.
func IsMount(path string) bool {
	clean := filepath.Clean(path)
	var st unix.Stat_t
	if err := unix.Stat(clean, &st); err != nil {
		return false
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return false
	}

	parent := filepath.Dir(clean)
	if parent == clean {
		return true
	}
	var pst unix.Stat_t
	if err := unix.Stat(parent, &pst); err != nil {
		return false
	}
	return st.Dev != pst.Dev || st.Ino == pst.Ino
}
