package console

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"pkt.systems/pslog"
)

func TestHistorySkipsBlankAndRepeats(t *testing.T) {
	h := NewHistory(nil, 0)
	for _, l := range []string{"a", "", "  ", "a", "b", "a"} {
		h.Append(l)
	}
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"a", "b", "a"}) {
		t.Fatalf("entries: %q", got)
	}
	if h.Pos() != 3 {
		t.Fatalf("pos: %d", h.Pos())
	}
}

func TestHistoryBound(t *testing.T) {
	h := NewHistory([]string{"1", "2", "3"}, 2)
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"2", "3"}) {
		t.Fatalf("seeded: %q", got)
	}
	h.Append("4")
	if got := h.Entries(); !reflect.DeepEqual(got, []string{"3", "4"}) {
		t.Fatalf("after append: %q", got)
	}
}

func TestHistoryAppendResetsCursor(t *testing.T) {
	h := NewHistory([]string{"a", "b"}, 0)
	h.Up()
	h.Up()
	h.Append("b")
	if h.Pos() != h.Len() {
		t.Fatalf("pos %d len %d", h.Pos(), h.Len())
	}
}

func TestHistoryRecorder(t *testing.T) {
	var buf bytes.Buffer
	log := pslog.NewWithOptions(&buf, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.DebugLevel})
	rec := &memRecorder{err: errors.New("disk full")}
	h := NewHistory(nil, 0)
	h.SetRecorder(rec, log)
	h.Append("x")
	h.Append("x")
	if !reflect.DeepEqual(rec.lines, []string{"x"}) {
		t.Fatalf("recorded: %q", rec.lines)
	}
	if h.Len() != 1 {
		t.Fatalf("entry dropped on recorder error")
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}
