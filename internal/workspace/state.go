package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	cty "github.com/zclconf/go-cty/cty"

	"github.com/flowave-io/hclshell/internal/encoding/jsonx"
)

const stateFormatVersion = 4

// stateFile is the part of a version 4 state file the console reads.
type stateFile struct {
	Version   int             `json:"version"`
	Resources []stateResource `json:"resources"`
}

type stateResource struct {
	Module    string          `json:"module"`
	Mode      string          `json:"mode"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Instances []stateInstance `json:"instances"`
}

type stateInstance struct {
	IndexKey   any            `json:"index_key"`
	Attributes map[string]any `json:"attributes"`
}

func resourceKey(mode, rType, name string) string {
	return mode + "|" + rType + "|" + name
}

// statePath returns the local state file for dir, or "" when there is none.
func statePath(dir, explicit string) string {
	if explicit != "" {
		return explicit
	}
	p := filepath.Join(dir, "terraform.tfstate")
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p
	}
	return ""
}

// readState returns root-module resource values keyed by resourceKey.
// Counted resources become tuples and for_each resources objects.
func readState(path string) (map[string]cty.Value, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st stateFile
	if err := jsonx.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	if st.Version != stateFormatVersion {
		return nil, fmt.Errorf("state %s: unsupported format version %d", path, st.Version)
	}
	out := map[string]cty.Value{}
	var result *multierror.Error
	for _, r := range st.Resources {
		if r.Module != "" {
			continue
		}
		v, err := instancesValue(r.Instances)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s.%s: %w", r.Type, r.Name, err))
			continue
		}
		out[resourceKey(r.Mode, r.Type, r.Name)] = v
	}
	return out, result.ErrorOrNil()
}

func instancesValue(insts []stateInstance) (cty.Value, error) {
	if len(insts) == 1 && insts[0].IndexKey == nil {
		return goToCty(insts[0].Attributes)
	}
	byInt := map[int]cty.Value{}
	byKey := map[string]cty.Value{}
	for _, inst := range insts {
		v, err := goToCty(inst.Attributes)
		if err != nil {
			return cty.NilVal, err
		}
		switch k := inst.IndexKey.(type) {
		case float64:
			byInt[int(k)] = v
		case string:
			byKey[k] = v
		default:
			return cty.NilVal, fmt.Errorf("unexpected index key %v", inst.IndexKey)
		}
	}
	if len(byKey) > 0 {
		return objectOf(byKey), nil
	}
	idx := make([]int, 0, len(byInt))
	for i := range byInt {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	vals := make([]cty.Value, 0, len(idx))
	for _, i := range idx {
		vals = append(vals, byInt[i])
	}
	if len(vals) == 0 {
		return cty.EmptyTupleVal, nil
	}
	return cty.TupleVal(vals), nil
}
