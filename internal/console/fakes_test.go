package console

import (
	"errors"
	"strings"

	cty "github.com/zclconf/go-cty/cty"
)

// blockInterp treats a line ending in ':' as opening a block that runs until
// a blank line. "a+b" on integers prints the sum; "boom" prints an error.
type blockInterp struct {
	sources []string
	b       Bindings
}

func (f *blockInterp) RunSource(source string, out Output) Status {
	lines := strings.Split(source, "\n")
	if strings.HasSuffix(lines[0], ":") && strings.TrimSpace(lines[len(lines)-1]) != "" {
		return StatusMore
	}
	f.sources = append(f.sources, source)
	switch {
	case source == "boom":
		out.PrintError("error: boom\n")
	case source == "1+1":
		out.PrintResult("2\n")
	case source == "":
	default:
		out.PrintResult(source)
	}
	return StatusDone
}

func (f *blockInterp) Bindings() Bindings { return f.b }

type fakeCompleter struct {
	items    []string
	tip      CallTip
	err      error
	exprs    []string
	tipExprs []string
}

func (f *fakeCompleter) CompletionList(expr string, _ Bindings) ([]string, error) {
	f.exprs = append(f.exprs, expr)
	return f.items, f.err
}

func (f *fakeCompleter) CallTip(expr string, _ Bindings) (CallTip, error) {
	f.tipExprs = append(f.tipExprs, expr)
	return f.tip, f.err
}

var errLookup = errors.New("lookup failed")

func newTestController(comp Completer) (*Controller, *blockInterp) {
	interp := &blockInterp{b: Bindings{"var": cty.ObjectVal(map[string]cty.Value{"region": cty.StringVal("eu")})}}
	c := NewController(interp, comp, Options{})
	c.Start("")
	return c, interp
}

func typeString(c *Controller, s string) {
	for _, r := range s {
		c.HandleKey(Rune(r))
	}
}

type memRecorder struct {
	lines []string
	err   error
}

func (m *memRecorder) Append(line string) error {
	m.lines = append(m.lines, line)
	return m.err
}
