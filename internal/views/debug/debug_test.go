package debug

import (
	"strings"
	"testing"
	"time"
)

func TestAddEntry(t *testing.T) {
	m := New()
	m.Add(KindSession, "connected")
	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	if m.Entries[0].Kind != KindSession {
		t.Errorf("expected kind %q, got %q", KindSession, m.Entries[0].Kind)
	}
}

func TestAddfFormats(t *testing.T) {
	m := New()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	m.Addf(KindAction, "%s %s", "release", "docs")
	if got := m.Entries[0].Message; got != "release docs" {
		t.Errorf("message = %q", got)
	}
	if !m.Entries[0].Time.Equal(fixed) {
		t.Errorf("time = %v, want %v", m.Entries[0].Time, fixed)
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add(KindFetch, "msg")
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
}

func TestScrollUpDown(t *testing.T) {
	m := New()
	for i := 0; i < 20; i++ {
		m.Add(KindFetch, "msg")
	}
	if m.Offset != 0 {
		t.Fatal("expected offset 0 after adds")
	}

	m.ScrollUp(5)
	if m.Offset != 5 {
		t.Errorf("expected offset 5, got %d", m.Offset)
	}

	m.ScrollDown(3)
	if m.Offset != 2 {
		t.Errorf("expected offset 2, got %d", m.Offset)
	}

	m.ScrollDown(10)
	if m.Offset != 0 {
		t.Errorf("expected offset 0, got %d", m.Offset)
	}
}

func TestScrollUpCapped(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.Add(KindFetch, "msg")
	}
	m.ScrollUp(100)
	if m.Offset != 4 {
		t.Errorf("expected offset 4, got %d", m.Offset)
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	v := m.View(80, 20)
	if !strings.Contains(v, "No events") {
		t.Error("empty view should show 'No events' message")
	}
}

func TestViewWithEntries(t *testing.T) {
	m := New()
	m.Add(KindSession, "connected")
	m.Add(KindError, "timeout")
	v := m.View(80, 20)
	if !strings.Contains(v, "connected") {
		t.Error("view should contain 'connected'")
	}
	if !strings.Contains(v, "timeout") {
		t.Error("view should contain 'timeout'")
	}
}

func TestFailuresFilter(t *testing.T) {
	m := New()
	m.Add(KindSession, "connected")
	m.Add(KindError, "release docs: not loaded")
	m.Add(KindAction, "compact docs")

	m.ScrollUp(1)
	m.ToggleFailures()
	if m.Offset != 0 {
		t.Errorf("toggle should reset offset, got %d", m.Offset)
	}
	v := m.View(80, 20)
	if strings.Contains(v, "compact docs") || !strings.Contains(v, "not loaded") {
		t.Errorf("failures view shows wrong entries:\n%s", v)
	}

	m.ToggleFailures()
	if v := m.View(80, 20); !strings.Contains(v, "compact docs") {
		t.Error("all view should include actions")
	}
}

func TestKindNames(t *testing.T) {
	for kind, want := range map[Kind]string{
		KindSession: "sess", KindFetch: "api", KindAction: "act", KindError: "err",
	} {
		if kind.String() != want {
			t.Errorf("%d: got %q want %q", kind, kind.String(), want)
		}
	}
}
