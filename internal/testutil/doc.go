// SPDX-License-Identifier: MPL-2.0

// Package testutil holds small test helpers that fail the test on error
// instead of returning it: environment variable management (MustSetenv,
// MustUnsetenv, SetHomeDir, SetConfigHome) and file setup (MustMkdirAll,
// MustWriteFile, MustReadFile).
package testutil
