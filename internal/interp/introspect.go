package interp

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	cty "github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/flowave-io/hclshell/internal/console"
)

var (
	// ErrNoExpression means there is nothing before the marker to introspect.
	ErrNoExpression = errors.New("no expression before marker")
	// ErrNotCollection means the expression does not have attributes or keys.
	ErrNotCollection = errors.New("value has no attributes")
)

// Introspector answers completion and call tip queries against live
// bindings and a function table.
type Introspector struct {
	funcs map[string]function.Function
}

func NewIntrospector(funcs map[string]function.Function) *Introspector {
	return &Introspector{funcs: funcs}
}

// CompletionList returns the attribute or key names of the traversal that
// ends expr, which normally ends in '.'. "var." lists variables, "var.tags."
// lists the keys of var.tags.
func (in *Introspector) CompletionList(expr string, b console.Bindings) ([]string, error) {
	text := trailingTraversal(strings.TrimSuffix(expr, "."))
	if text == "" {
		return nil, ErrNoExpression
	}
	trav, diags := hclsyntax.ParseTraversalAbs([]byte(text), consoleFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %q: %s", text, diags.Error())
	}
	v, diags := trav.TraverseAbs(&hcl.EvalContext{Variables: b})
	if diags.HasErrors() {
		return nil, fmt.Errorf("resolve %q: %s", text, diags.Error())
	}
	return memberNames(v)
}

func memberNames(v cty.Value) ([]string, error) {
	ty := v.Type()
	var names []string
	switch {
	case ty.IsObjectType():
		for name := range ty.AttributeTypes() {
			names = append(names, name)
		}
	case ty.IsMapType():
		if !v.IsKnown() || v.IsNull() || v.IsMarked() {
			return nil, nil
		}
		for name := range v.AsValueMap() {
			names = append(names, name)
		}
	default:
		return nil, ErrNotCollection
	}
	sort.Strings(names)
	return names, nil
}

// CallTip describes the function called by expr, which normally ends in '('.
// An unknown name yields an empty tip.
func (in *Introspector) CallTip(expr string, _ console.Bindings) (console.CallTip, error) {
	name := trailingIdent(strings.TrimSuffix(expr, "("))
	if name == "" {
		return console.CallTip{}, ErrNoExpression
	}
	f, ok := in.funcs[name]
	if !ok {
		return console.CallTip{}, nil
	}
	spec := ArgSpec(f)
	text := name + spec
	if desc := strings.TrimSpace(f.Description()); desc != "" {
		text += "\n" + desc
	}
	return console.CallTip{Name: name, ArgSpec: spec, Text: text}, nil
}

// ArgSpec renders a function's parameters as "(name type, rest... type)".
func ArgSpec(f function.Function) string {
	var parts []string
	for _, p := range f.Params() {
		parts = append(parts, p.Name+" "+typeexpr.TypeString(p.Type))
	}
	if vp := f.VarParam(); vp != nil {
		parts = append(parts, vp.Name+"... "+typeexpr.TypeString(vp.Type))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func isIdentChar(r byte) bool {
	return r == '_' || r == '-' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// trailingIdent returns the identifier that ends s.
func trailingIdent(s string) string {
	s = strings.TrimRight(s, " \t")
	start := len(s)
	for start > 0 && isIdentChar(s[start-1]) {
		start--
	}
	name := s[start:]
	if name == "" || (name[0] >= '0' && name[0] <= '9') || name[0] == '-' {
		return ""
	}
	return name
}

// trailingTraversal returns the absolute traversal text that ends s, such as
// `var.tags["env"]` at the end of `upper(var.tags["env"]`.
func trailingTraversal(s string) string {
	start := len(s)
	depth := 0
	for start > 0 {
		c := s[start-1]
		switch {
		case c == ']':
			depth++
		case c == '[':
			if depth == 0 {
				return validTraversal(s[start:])
			}
			depth--
		case depth > 0:
		case c == '.' || isIdentChar(c):
		default:
			return validTraversal(s[start:])
		}
		start--
	}
	return validTraversal(s[start:])
}

func validTraversal(s string) string {
	s = strings.TrimLeft(s, ".")
	if s == "" || !(s[0] == '_' || (s[0] >= 'A' && s[0] <= 'Z') || (s[0] >= 'a' && s[0] <= 'z')) {
		return ""
	}
	return s
}
