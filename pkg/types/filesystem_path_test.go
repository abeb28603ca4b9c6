// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"strings"
	"testing"
)

func TestFilesystemPathValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   FilesystemPath
		wantErr bool
	}{
		{"/var/lib/nginx/cache", false},
		{"relative/queue", false},
		{"", true},
		{"   ", true},
		{"\t\n", true},
	}

	for _, tt := range tests {
		err := tt.value.Validate("nginx_cache.dir")
		if (err != nil) != tt.wantErr {
			t.Errorf("FilesystemPath(%q).Validate() error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrInvalidFilesystemPath) {
			t.Errorf("error does not wrap ErrInvalidFilesystemPath: %v", err)
		}
		if !strings.Contains(err.Error(), "nginx_cache.dir") {
			t.Errorf("error %q does not name the field", err)
		}
	}
}
