// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory in tests.
var configDirOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride makes ConfigDir return dir. Intended for tests, where
// os.UserHomeDir does not reliably follow HOME on every platform.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
