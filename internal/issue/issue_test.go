// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalogIsComplete(t *testing.T) {
	t.Parallel()

	ids := []Id{
		ConfigLoadFailedId,
		ConfigMissingValueId,
		AuthFailedId,
		RemoteAPIErrorId,
		NetworkUnreachableId,
		PageFormatChangedId,
		WatcherFailedId,
		NotificationFailedId,
	}

	for _, id := range ids {
		entry := Get(id)
		if entry == nil {
			t.Errorf("Get(%d) = nil", id)
			continue
		}
		if entry.Id() != id {
			t.Errorf("entry.Id() = %d, want %d", entry.Id(), id)
		}
		if !strings.HasPrefix(strings.TrimSpace(string(entry.MarkdownMsg())), "# ") {
			t.Errorf("entry %d markdown should start with a heading", id)
		}
	}

	if got := len(Values()); got != len(ids) {
		t.Errorf("len(Values()) = %d, want %d", got, len(ids))
	}
	if Values()[0].Id() != ConfigLoadFailedId {
		t.Error("Values() is not ordered by id")
	}
}

func TestIssue_RenderNoTTY(t *testing.T) {
	t.Parallel()

	out, err := Get(AuthFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "rejected the credentials") {
		t.Errorf("rendered output missing heading text:\n%s", out)
	}
}
