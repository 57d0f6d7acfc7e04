// Package interp evaluates HCL expressions for the console and introspects
// them for completion and call tips.
package interp

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	cty "github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/console"
	hlog "github.com/flowave-io/hclshell/pkg/log"
)

const consoleFilename = "<console>"

// reserved names come from the workspace and cannot be assigned.
var reserved = map[string]bool{
	"var":       true,
	"local":     true,
	"module":    true,
	"data":      true,
	"path":      true,
	"terraform": true,
	"count":     true,
	"each":      true,
	"self":      true,
}

// Interpreter evaluates console statements in-process. A statement is an HCL
// expression, or "name = expression" which binds name for later statements.
type Interpreter struct {
	mu      sync.RWMutex
	base    console.Bindings
	session map[string]cty.Value
	funcs   map[string]function.Function
	width   uint
	log     pslog.Logger
}

// New returns an interpreter over the given workspace bindings.
func New(base console.Bindings, log pslog.Logger) *Interpreter {
	if log == nil {
		log = hlog.Nop()
	}
	return &Interpreter{
		base:    base,
		session: map[string]cty.Value{},
		funcs:   Functions(),
		width:   100,
		log:     log,
	}
}

// SetBase replaces the workspace bindings, keeping session assignments. It
// may be called from another goroutine.
func (i *Interpreter) SetBase(b console.Bindings) {
	i.mu.Lock()
	i.base = b
	i.mu.Unlock()
}

// SetWidth sets the wrap width used for diagnostics.
func (i *Interpreter) SetWidth(w uint) {
	if w == 0 {
		return
	}
	i.mu.Lock()
	i.width = w
	i.mu.Unlock()
}

// Functions returns the function table.
func (i *Interpreter) Functions() map[string]function.Function {
	return i.funcs
}

// Bindings returns the workspace bindings overlaid with session assignments.
func (i *Interpreter) Bindings() console.Bindings {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(console.Bindings, len(i.base)+len(i.session))
	maps.Copy(out, i.base)
	maps.Copy(out, i.session)
	return out
}

// Eval parses and evaluates a single expression.
func (i *Interpreter) Eval(src string) (cty.Value, hcl.Diagnostics) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), consoleFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return cty.DynamicVal, diags
	}
	ctx := &hcl.EvalContext{Variables: i.Bindings(), Functions: i.funcs}
	v, more := expr.Value(ctx)
	return v, append(diags, more...)
}

// RunSource executes source unless it is an unfinished expression.
func (i *Interpreter) RunSource(source string, out console.Output) console.Status {
	if strings.TrimSpace(source) == "" {
		return console.StatusDone
	}
	if NeedsMore(source) {
		return console.StatusMore
	}
	src := NormalizeCommas(source)

	name, at, assign := splitAssignment(src)
	if assign && reserved[name] {
		out.PrintError(fmt.Sprintf("Error: Reserved name\n\n%q is provided by the workspace and cannot be assigned.", name))
		return console.StatusDone
	}
	exprSrc := src
	if assign {
		exprSrc = blankPrefix(src, at)
	}

	v, diags := i.Eval(exprSrc)
	if diags.HasErrors() {
		i.log.Debug("statement failed", "source", source, "diagnostics", len(diags))
		i.mu.RLock()
		width := i.width
		i.mu.RUnlock()
		out.PrintError(formatDiagnostics(diags, []byte(exprSrc), width))
		return console.StatusDone
	}
	if assign {
		i.mu.Lock()
		i.session[name] = v
		i.mu.Unlock()
		i.log.Debug("session binding set", "name", name, "type", v.Type().FriendlyName())
		return console.StatusDone
	}
	out.PrintResult(FormatValue(v))
	return console.StatusDone
}

// blankPrefix replaces src[:n] with spaces, keeping newlines, so that
// diagnostics for the remainder point at the columns the user typed.
func blankPrefix(src string, n int) string {
	b := []byte(src)
	for j := 0; j < n; j++ {
		if b[j] != '\n' {
			b[j] = ' '
		}
	}
	return string(b)
}
