package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	cty "github.com/zclconf/go-cty/cty"

	"github.com/flowave-io/hclshell/internal/interp"
)

// tfvarsFiles lists the files Terraform would read, in its order:
// terraform.tfvars, *.auto.tfvars in lexical order, then the explicit ones.
func tfvarsFiles(dir string, explicit []string) []string {
	var files []string
	for _, name := range []string{"terraform.tfvars", "terraform.tfvars.json"} {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			files = append(files, p)
		}
	}
	var auto []string
	for _, pattern := range []string{"*.auto.tfvars", "*.auto.tfvars.json"} {
		m, _ := filepath.Glob(filepath.Join(dir, pattern))
		auto = append(auto, m...)
	}
	sort.Strings(auto)
	files = append(files, auto...)
	for _, vf := range explicit {
		if strings.TrimSpace(vf) == "" {
			continue
		}
		if !filepath.IsAbs(vf) {
			if _, err := os.Stat(vf); err != nil {
				vf = filepath.Join(dir, vf)
			}
		}
		files = append(files, vf)
	}
	return files
}

// loadTFVars reads literal assignments from a .tfvars or .tfvars.json file.
func loadTFVars(path string) (map[string]cty.Value, error) {
	p := hclparse.NewParser()
	var f *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(path, ".json") {
		f, diags = p.ParseJSONFile(path)
	} else {
		f, diags = p.ParseHCLFile(path)
	}
	if diags.HasErrors() || f == nil {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}
	attrs, diags := f.Body.JustAttributes()
	out := make(map[string]cty.Value, len(attrs))
	var result *multierror.Error
	if diags.HasErrors() {
		result = multierror.Append(result, fmt.Errorf("%s: %w", path, diags))
	}
	for name, a := range attrs {
		v, d := a.Expr.Value(nil)
		if d.HasErrors() {
			result = multierror.Append(result, fmt.Errorf("%s: %s: %w", path, name, d))
			continue
		}
		out[name] = v
	}
	return out, result.ErrorOrNil()
}

type localExpr struct {
	name string
	expr hcl.Expression
}

// readLocals collects the attributes of every locals block in the module's
// .tf files.
func readLocals(dir string) ([]localExpr, error) {
	paths, _ := filepath.Glob(filepath.Join(dir, "*.tf"))
	sort.Strings(paths)
	p := hclparse.NewParser()
	schema := &hcl.BodySchema{Blocks: []hcl.BlockHeaderSchema{{Type: "locals"}}}
	var out []localExpr
	var result *multierror.Error
	for _, path := range paths {
		f, diags := p.ParseHCLFile(path)
		if diags.HasErrors() || f == nil {
			result = multierror.Append(result, fmt.Errorf("parse %s: %w", path, diags))
			continue
		}
		content, _, _ := f.Body.PartialContent(schema)
		for _, b := range content.Blocks {
			attrs, _ := b.Body.JustAttributes()
			for name, a := range attrs {
				out = append(out, localExpr{name: name, expr: a.Expr})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, result.ErrorOrNil()
}

// evalLocals evaluates locals until no more can be resolved. Locals that
// never resolve, because of a cycle or a bad reference, are bound as unknown.
func (ws *Workspace) evalLocals() (map[string]cty.Value, error) {
	exprs, err := readLocals(ws.Dir)
	locals := map[string]cty.Value{}
	funcs := interp.Functions()
	for round := 0; round <= len(exprs); round++ {
		progressed := false
		ctx := &hcl.EvalContext{Variables: ws.bindings(locals), Functions: funcs}
		for _, le := range exprs {
			if _, done := locals[le.name]; done {
				continue
			}
			v, diags := le.expr.Value(ctx)
			if diags.HasErrors() {
				continue
			}
			locals[le.name] = v
			progressed = true
		}
		if !progressed {
			break
		}
	}
	var result *multierror.Error
	if err != nil {
		result = multierror.Append(result, err)
	}
	for _, le := range exprs {
		if _, done := locals[le.name]; !done {
			locals[le.name] = cty.DynamicVal
			result = multierror.Append(result, fmt.Errorf("local.%s could not be evaluated", le.name))
		}
	}
	return locals, result.ErrorOrNil()
}

// goToCty converts the defaults tfconfig decodes into cty values.
func goToCty(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, 0, len(t))
		for _, e := range t {
			cv, err := goToCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			vals = append(vals, cv)
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		m := make(map[string]cty.Value, len(t))
		for k, e := range t {
			cv, err := goToCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			m[k] = cv
		}
		return objectOf(m), nil
	}
	return cty.NilVal, fmt.Errorf("unsupported default of type %T", v)
}
