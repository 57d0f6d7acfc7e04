// Package workspace loads the names a console session starts with from a
// Terraform/OpenTofu module directory.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/terraform-config-inspect/tfconfig"
	cty "github.com/zclconf/go-cty/cty"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/console"
)

// Options says where to load from.
type Options struct {
	Dir      string
	VarFiles []string
	// Name is terraform.workspace. Empty reads TF_WORKSPACE, then
	// .terraform/environment, then falls back to "default".
	Name string
	// StatePath is a local state file. Empty uses terraform.tfstate in Dir
	// when present.
	StatePath string
}

// Workspace is what Load found. Resources missing from local state are
// bound as unknown values so references still resolve.
type Workspace struct {
	Dir       string
	Name      string
	Variables map[string]cty.Value
	Locals    map[string]cty.Value
	Outputs   []string
	Managed   map[string][]string // type -> names
	Data      map[string][]string // type -> names
	Modules   []string
	State     map[string]cty.Value // resourceKey -> value
}

// Load reads the module in opts.Dir. It always returns a Workspace; the
// error aggregates every problem found along the way.
func Load(ctx context.Context, opts Options) (*Workspace, error) {
	log := pslog.Ctx(ctx)
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return &Workspace{Dir: opts.Dir}, fmt.Errorf("workspace dir: %w", err)
	}
	ws := &Workspace{
		Dir:       dir,
		Name:      workspaceName(dir, opts.Name),
		Variables: map[string]cty.Value{},
		Locals:    map[string]cty.Value{},
		Managed:   map[string][]string{},
		Data:      map[string][]string{},
		State:     map[string]cty.Value{},
	}
	var result *multierror.Error

	if !tfconfig.IsModuleDir(dir) {
		log.Warn("workspace has no configuration files", "dir", dir)
		return ws, nil
	}
	mod, diags := tfconfig.LoadModule(dir)
	if diags.HasErrors() {
		result = multierror.Append(result, fmt.Errorf("inspect module: %w", diags.Err()))
	}
	if mod != nil {
		ws.inspect(mod, &result)
	}

	for _, vf := range tfvarsFiles(dir, opts.VarFiles) {
		vals, err := loadTFVars(vf)
		if err != nil {
			result = multierror.Append(result, err)
		}
		for name, v := range vals {
			prev, declared := ws.Variables[name]
			if !declared {
				log.Debug("tfvars value for undeclared variable", "file", vf, "name", name)
			}
			if prev.IsMarked() {
				v = v.Mark(sensitiveMark)
			}
			ws.Variables[name] = v
		}
	}

	if sp := statePath(dir, opts.StatePath); sp != "" {
		st, err := readState(sp)
		if err != nil {
			result = multierror.Append(result, err)
		}
		for k, v := range st {
			ws.State[k] = v
		}
		log.Debug("state loaded", "path", sp, "resources", len(st))
	}

	locals, err := ws.evalLocals()
	if err != nil {
		result = multierror.Append(result, err)
	}
	ws.Locals = locals

	log.Info("workspace loaded",
		"dir", dir,
		"variables", len(ws.Variables),
		"locals", len(ws.Locals),
		"resources", len(ws.Managed),
		"modules", len(ws.Modules),
	)
	return ws, result.ErrorOrNil()
}

func (ws *Workspace) inspect(mod *tfconfig.Module, result **multierror.Error) {
	for name, v := range mod.Variables {
		val := cty.DynamicVal
		if v.Default != nil {
			cv, err := goToCty(v.Default)
			if err != nil {
				*result = multierror.Append(*result, fmt.Errorf("variable %q default: %w", name, err))
			} else {
				val = cv
			}
		}
		if v.Sensitive {
			val = val.Mark(sensitiveMark)
		}
		ws.Variables[name] = val
	}
	for name := range mod.Outputs {
		ws.Outputs = append(ws.Outputs, name)
	}
	for _, r := range mod.ManagedResources {
		ws.Managed[r.Type] = append(ws.Managed[r.Type], r.Name)
	}
	for _, r := range mod.DataResources {
		ws.Data[r.Type] = append(ws.Data[r.Type], r.Name)
	}
	for name := range mod.ModuleCalls {
		ws.Modules = append(ws.Modules, name)
	}
	sort.Strings(ws.Outputs)
	sort.Strings(ws.Modules)
	for k := range ws.Managed {
		sort.Strings(ws.Managed[k])
	}
	for k := range ws.Data {
		sort.Strings(ws.Data[k])
	}
}

const sensitiveMark = "sensitive"

// Bindings returns the top-level names for expressions: var, local, module,
// data, path, terraform and one name per managed resource type.
func (ws *Workspace) Bindings() console.Bindings {
	return ws.bindings(ws.Locals)
}

func (ws *Workspace) bindings(locals map[string]cty.Value) console.Bindings {
	b := console.Bindings{
		"var":   objectOf(ws.Variables),
		"local": objectOf(locals),
		"path": cty.ObjectVal(map[string]cty.Value{
			"module": cty.StringVal(ws.Dir),
			"root":   cty.StringVal(ws.Dir),
			"cwd":    cty.StringVal(cwd()),
		}),
		"terraform": cty.ObjectVal(map[string]cty.Value{
			"workspace": cty.StringVal(ws.Name),
		}),
	}
	modules := map[string]cty.Value{}
	for _, name := range ws.Modules {
		modules[name] = cty.DynamicVal
	}
	b["module"] = objectOf(modules)
	data := map[string]cty.Value{}
	for typ, names := range ws.Data {
		data[typ] = ws.resources("data", typ, names)
	}
	b["data"] = objectOf(data)
	for typ, names := range ws.Managed {
		if _, taken := b[typ]; taken {
			continue
		}
		b[typ] = ws.resources("managed", typ, names)
	}
	return b
}

func (ws *Workspace) resources(mode, typ string, names []string) cty.Value {
	inner := map[string]cty.Value{}
	for _, n := range names {
		if v, ok := ws.State[resourceKey(mode, typ, n)]; ok {
			inner[n] = v
		} else {
			inner[n] = cty.DynamicVal
		}
	}
	return objectOf(inner)
}

func objectOf(m map[string]cty.Value) cty.Value {
	if len(m) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(m)
}

func cwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func workspaceName(dir, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv("TF_WORKSPACE")); env != "" {
		return env
	}
	if b, err := os.ReadFile(filepath.Join(dir, ".terraform", "environment")); err == nil {
		if name := strings.TrimSpace(string(b)); name != "" {
			return name
		}
	}
	return "default"
}
