package console

import "strings"

// Role tags a run of document text. It selects a display style and never
// affects structure.
type Role int

const (
	RoleBanner Role = iota
	RolePrompt
	RoleContinuation
	RoleInput
	RoleResult
	RoleError
)

func (r Role) String() string {
	switch r {
	case RoleBanner:
		return "banner"
	case RolePrompt:
		return "prompt"
	case RoleContinuation:
		return "continuation"
	case RoleInput:
		return "input"
	case RoleResult:
		return "result"
	case RoleError:
		return "error"
	}
	return "unknown"
}

// Span is a run of text sharing one role.
type Span struct {
	Text string
	Role Role
}

// Line is one '\n'-separated line of the document. Start and End are rune
// offsets; End excludes the separator.
type Line struct {
	Start int
	End   int
	Spans []Span
}

// Text returns the plain text of the line.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Document is the shared transcript: an ordered rune sequence with a role per
// rune. Offsets are rune offsets. Document does not know about the prompt;
// the controller enforces which ranges may change.
type Document struct {
	text  []rune
	roles []Role
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Len returns the document length in runes.
func (d *Document) Len() int {
	return len(d.text)
}

// Text returns the whole document.
func (d *Document) Text() string {
	return string(d.text)
}

// Slice returns the text in [start,end), clamped to the document.
func (d *Document) Slice(start, end int) string {
	start, end = d.clampRange(start, end)
	return string(d.text[start:end])
}

// Append adds text at the end of the document.
func (d *Document) Append(text string, role Role) {
	d.Insert(len(d.text), text, role)
}

// Insert adds text at offset, clamped to [0, Len].
func (d *Document) Insert(offset int, text string, role Role) {
	if text == "" {
		return
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	rs := []rune(text)
	roles := make([]Role, len(rs))
	for i := range roles {
		roles[i] = role
	}
	d.text = append(d.text[:offset], append(rs, d.text[offset:]...)...)
	d.roles = append(d.roles[:offset], append(roles, d.roles[offset:]...)...)
}

// Remove deletes n runes starting at offset. It reports false and leaves the
// document untouched when the range does not lie inside the document.
func (d *Document) Remove(offset, n int) bool {
	if n <= 0 || offset < 0 || offset+n > len(d.text) {
		return false
	}
	d.text = append(d.text[:offset], d.text[offset+n:]...)
	d.roles = append(d.roles[:offset], d.roles[offset+n:]...)
	return true
}

// Reset empties the document.
func (d *Document) Reset() {
	d.text = nil
	d.roles = nil
}

// LineAt returns the [start,end) range of the line holding offset.
func (d *Document) LineAt(offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	start := offset
	for start > 0 && d.text[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(d.text) && d.text[end] != '\n' {
		end++
	}
	return start, end
}

// LineIndex returns the zero-based line number holding offset.
func (d *Document) LineIndex(offset int) int {
	if offset > len(d.text) {
		offset = len(d.text)
	}
	n := 0
	for i := 0; i < offset; i++ {
		if d.text[i] == '\n' {
			n++
		}
	}
	return n
}

// LineCount returns the number of lines; an empty document has one.
func (d *Document) LineCount() int {
	return d.LineIndex(len(d.text)) + 1
}

// LastLine returns the range of the final line.
func (d *Document) LastLine() (int, int) {
	return d.LineAt(len(d.text))
}

// Lines splits the document into styled lines.
func (d *Document) Lines() []Line {
	lines := make([]Line, 0, 16)
	start := 0
	for i := 0; i <= len(d.text); i++ {
		if i < len(d.text) && d.text[i] != '\n' {
			continue
		}
		lines = append(lines, Line{Start: start, End: i, Spans: d.spans(start, i)})
		start = i + 1
	}
	return lines
}

func (d *Document) spans(start, end int) []Span {
	var out []Span
	i := start
	for i < end {
		j := i + 1
		for j < end && d.roles[j] == d.roles[i] {
			j++
		}
		out = append(out, Span{Text: string(d.text[i:j]), Role: d.roles[i]})
		i = j
	}
	return out
}

// TrimLines drops leading lines so that at most max lines remain and returns
// the number of runes removed. A max below one is treated as no limit.
func (d *Document) TrimLines(max int) int {
	if max <= 0 {
		return 0
	}
	excess := d.LineCount() - max
	if excess <= 0 {
		return 0
	}
	cut := 0
	for i := 0; i < len(d.text) && excess > 0; i++ {
		if d.text[i] == '\n' {
			excess--
			cut = i + 1
		}
	}
	d.Remove(0, cut)
	return cut
}

func (d *Document) clampRange(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(d.text) {
		end = len(d.text)
	}
	if start > end {
		start = end
	}
	return start, end
}
