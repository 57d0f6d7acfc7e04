package console

import (
	"unicode/utf8"

	cty "github.com/zclconf/go-cty/cty"
)

// Bindings are the live names visible to statements, completion and call
// tips.
type Bindings map[string]cty.Value

// Status is the interpreter's verdict on accumulated source.
type Status int

const (
	// StatusDone means the statement was executed, or failed, and nothing
	// further needs buffering.
	StatusDone Status = iota
	// StatusMore means the source is incomplete and the next line continues it.
	StatusMore
)

func (s Status) String() string {
	if s == StatusMore {
		return "more"
	}
	return "done"
}

// Output receives what an executing statement prints.
type Output interface {
	PrintResult(msg string)
	PrintError(msg string)
}

// Interpreter executes accumulated source. RunSource must write any result
// or error to out before returning.
type Interpreter interface {
	RunSource(source string, out Output) Status
	Bindings() Bindings
}

// CallTip describes a callable for the signature overlay. An empty Text
// means there is nothing to show.
type CallTip struct {
	Name    string
	ArgSpec string
	Text    string
}

// Completer introspects expressions for the completion and tip overlays.
type Completer interface {
	CompletionList(expr string, b Bindings) ([]string, error)
	CallTip(expr string, b Bindings) (CallTip, error)
}

// Point is a surface coordinate.
type Point struct {
	X int
	Y int
}

// Metrics maps document offsets to surface coordinates.
type Metrics interface {
	CaretPoint(doc *Document, offset int) Point
	CharWidth() int
	LineHeight() int
}

// CellMetrics lays the document out on a fixed grid of one cell per column
// and one row per line. Width measures a string in cells; nil counts runes.
type CellMetrics struct {
	Width func(string) int
}

func (m CellMetrics) CaretPoint(doc *Document, offset int) Point {
	start, _ := doc.LineAt(offset)
	prefix := doc.Slice(start, offset)
	x := utf8.RuneCountInString(prefix)
	if m.Width != nil {
		x = m.Width(prefix)
	}
	return Point{X: x, Y: doc.LineIndex(offset)}
}

func (CellMetrics) CharWidth() int  { return 1 }
func (CellMetrics) LineHeight() int { return 1 }
