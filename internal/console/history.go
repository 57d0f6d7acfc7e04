package console

import (
	"strings"

	"pkt.systems/pslog"
)

const defaultHistoryMax = 1000

// Recorder persists appended history lines.
type Recorder interface {
	Append(line string) error
}

// History is the log of submitted lines plus a recall cursor. The cursor
// ranges over [0, len]; len means the live, empty input is showing.
type History struct {
	entries []string
	pos     int
	max     int
	rec     Recorder
	log     pslog.Logger
}

// NewHistory seeds a history with previously recorded entries. A max of zero
// or less uses the default bound.
func NewHistory(entries []string, max int) *History {
	if max <= 0 {
		max = defaultHistoryMax
	}
	h := &History{max: max}
	if len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	h.entries = append([]string(nil), entries...)
	h.pos = len(h.entries)
	return h
}

// SetRecorder attaches persistence. Recorder failures are logged and
// otherwise ignored.
func (h *History) SetRecorder(rec Recorder, log pslog.Logger) {
	h.rec = rec
	h.log = log
}

// Append pushes line and resets the cursor. Blank lines and repeats of the
// newest entry are not recorded; the cursor resets regardless.
func (h *History) Append(line string) {
	defer func() { h.pos = len(h.entries) }()
	if strings.TrimSpace(line) == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	if h.rec != nil {
		if err := h.rec.Append(line); err != nil && h.log != nil {
			h.log.Warn("history persist failed", "err", err)
		}
	}
}

// Up moves to the previous entry. It reports false at the oldest entry.
func (h *History) Up() (string, bool) {
	if h.pos <= 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Down moves to the next entry, or back to the empty live input once past
// the newest one. It reports false when not browsing.
func (h *History) Down() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return "", true
	}
	return h.entries[h.pos], true
}

// Pos returns the cursor.
func (h *History) Pos() int {
	return h.pos
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the log, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
