// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "login to tracker"},
			expected: "failed to login to tracker",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read queue", Resource: "/home/u/.config/vimb/queue"},
			expected: "failed to read queue: /home/u/.config/vimb/queue",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "list records", Cause: errors.New("bad_token")},
			expected: "failed to list records: bad_token",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "fetch account status",
				Resource:  "https://www.adsl.by/001.htm",
				Cause:     errors.New("401 Unauthorized"),
			},
			expected: "failed to fetch account status: https://www.adsl.by/001.htm: 401 Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("connection refused")
	err := &ActionableError{
		Operation:   "add torrent",
		Suggestions: []string{"Start transmission-daemon", "Check transmission.url"},
		Cause:       fmt.Errorf("posting rpc: %w", root),
	}

	short := err.Format(false)
	if !strings.Contains(short, "  • Start transmission-daemon") {
		t.Errorf("Format(false) missing suggestion bullet:\n%s", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Fatalf("Format(true) missing error chain:\n%s", verbose)
	}
	if !strings.Contains(verbose, "2. connection refused") {
		t.Errorf("Format(true) should list the root cause second:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewErrorContext().
		WithOperation("update dns record").
		WithResource("home.example.org").
		WithSuggestion("Check dns.token").
		WithIssue(RemoteAPIErrorId).
		Wrap(cause).
		BuildError()

	if !errors.Is(err, cause) {
		t.Fatal("BuildError() result does not wrap the cause")
	}
	if got := IssueOf(err); got != RemoteAPIErrorId {
		t.Errorf("IssueOf() = %d, want %d", got, RemoteAPIErrorId)
	}

	wrapped := fmt.Errorf("ddns: %w", err)
	if got := IssueOf(wrapped); got != RemoteAPIErrorId {
		t.Errorf("IssueOf(wrapped) = %d, want %d", got, RemoteAPIErrorId)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() = %v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}
}

func TestWrapHelpersNil(t *testing.T) {
	t.Parallel()

	if err := WrapWithOperation(nil, "x"); err != nil {
		t.Errorf("WrapWithOperation(nil) = %v", err)
	}
	if err := WrapWithContext(nil, "x", "y"); err != nil {
		t.Errorf("WrapWithContext(nil) = %v", err)
	}
	if got := IssueOf(errors.New("plain")); got != 0 {
		t.Errorf("IssueOf(plain) = %d, want 0", got)
	}
}
