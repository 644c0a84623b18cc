package toast

import (
	"strings"
	"testing"
)

func TestNewerToastSurvivesOldExpiry(t *testing.T) {
	var m Model
	if m.View() != "" {
		t.Fatal("empty toast should render nothing")
	}
	if cmd := m.Show(Success, "Loaded docs"); cmd == nil {
		t.Fatal("Show should schedule expiry")
	}
	first := ExpireMsg{ID: 1}
	m.Show(Error, "drop failed")

	m.Expire(first)
	if !m.Visible() || m.Text() != "drop failed" {
		t.Fatalf("newer toast was hidden by stale expiry")
	}
	if !strings.Contains(m.View(), "drop failed") {
		t.Error("view missing text")
	}

	m.Expire(ExpireMsg{ID: 2})
	if m.Visible() {
		t.Error("toast should be hidden after its own expiry")
	}
}
