package console

import "strings"

// Accumulator collects submitted lines until the interpreter reports that
// they form a complete statement.
type Accumulator struct {
	interp Interpreter
	buf    []string
}

func NewAccumulator(interp Interpreter) *Accumulator {
	return &Accumulator{interp: interp}
}

// Submit appends one line to the buffer and asks the interpreter whether the
// joined source is complete. The buffer survives StatusMore and is cleared
// on StatusDone. Empty lines are buffered like any other.
func (a *Accumulator) Submit(rawLine string, out Output) Status {
	a.buf = append(a.buf, Chomp(rawLine))
	source := strings.Join(a.buf, "\n")
	if a.interp == nil {
		a.buf = nil
		return StatusDone
	}
	status := a.interp.RunSource(source, out)
	if status == StatusDone {
		a.buf = nil
	}
	return status
}

// Buffer returns a copy of the pending lines.
func (a *Accumulator) Buffer() []string {
	return append([]string(nil), a.buf...)
}

// Pending reports whether a statement is open.
func (a *Accumulator) Pending() bool {
	return len(a.buf) > 0
}

// Reset drops any pending lines.
func (a *Accumulator) Reset() {
	a.buf = nil
}

// Chomp strips exactly one trailing line terminator.
func Chomp(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(s, "\n") {
		return s[:len(s)-1]
	}
	return s
}
