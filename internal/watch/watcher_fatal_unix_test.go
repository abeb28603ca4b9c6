// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"fmt"
	"os"
	"syscall"
	"testing"
)

// Only inotify resource exhaustion stops the watcher. A queue file replaced
// mid-read or a closed descriptor is logged and watching goes on.
func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"watch limit", syscall.ENOSPC, true},
		{"process fd limit", syscall.EMFILE, true},
		{"system fd limit", syscall.ENFILE, true},
		{"wrapped watch limit", fmt.Errorf("watching queue dir: %w", syscall.ENOSPC), true},
		{"path error around fd limit", &os.PathError{Op: "inotify_add_watch", Path: "/home/me", Err: syscall.EMFILE}, true},
		{"bad descriptor", syscall.EBADF, false},
		{"file gone", syscall.ENOENT, false},
		{"file gone as path error", &os.PathError{Op: "lstat", Path: "/home/me/.pocket-queue.tmp", Err: syscall.ENOENT}, false},
		{"permission", syscall.EACCES, false},
		{"plain error", fmt.Errorf("queue overflow"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isFatalFsnotifyError(tt.err); got != tt.want {
				t.Errorf("isFatalFsnotifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
