// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetHomeDir points the platform home variable (HOME, or USERPROFILE on
// Windows) at dir and returns the restore function.
//
//	t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	if runtime.GOOS == "windows" {
		return MustSetenv(t, "USERPROFILE", dir)
	}
	return MustSetenv(t, "HOME", dir)
}

// SetConfigHome points XDG_CONFIG_HOME at dir and returns the restore function.
func SetConfigHome(t testing.TB, dir string) func() {
	t.Helper()
	return MustSetenv(t, "XDG_CONFIG_HOME", dir)
}
