package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	gv "github.com/hashicorp/go-version"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/console"
	"github.com/flowave-io/hclshell/internal/encoding/jsonx"
	hlog "github.com/flowave-io/hclshell/pkg/log"
)

// MinTerraformVersion is the oldest terraform console the backend supports.
const MinTerraformVersion = "0.13.0"

// TerraformBackend runs complete statements through a short-lived
// `terraform console` in the workspace directory. Completion still uses the
// in-process bindings of the wrapped Interpreter.
type TerraformBackend struct {
	*Interpreter
	Bin      string
	Dir      string
	VarFiles []string
	Timeout  time.Duration
	log      pslog.Logger
}

func NewTerraformBackend(local *Interpreter, bin, dir string, varFiles []string, timeout time.Duration, log pslog.Logger) *TerraformBackend {
	if bin == "" {
		bin = "terraform"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = hlog.Nop()
	}
	return &TerraformBackend{Interpreter: local, Bin: bin, Dir: dir, VarFiles: varFiles, Timeout: timeout, log: log}
}

// RunSource sends a complete statement to terraform console.
func (t *TerraformBackend) RunSource(source string, out console.Output) console.Status {
	if strings.TrimSpace(source) == "" {
		return console.StatusDone
	}
	if NeedsMore(source) {
		return console.StatusMore
	}
	stdout, stderr, err := t.Evaluate(NormalizeCommas(source))
	switch {
	case err != nil:
		out.PrintError(err.Error())
	case stderr != "":
		out.PrintError(stderr)
	default:
		out.PrintResult(stdout)
	}
	return console.StatusDone
}

// Evaluate runs one expression through terraform console and returns its
// trimmed stdout and stderr.
func (t *TerraformBackend) Evaluate(expr string) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.Timeout)
	defer cancel()
	args := []string{"console"}
	for _, vf := range t.VarFiles {
		if strings.TrimSpace(vf) != "" {
			args = append(args, "-var-file="+vf)
		}
	}
	cmd := exec.CommandContext(ctx, t.Bin, args...)
	cmd.Dir = t.Dir
	var outBuf, errBuf bytes.Buffer
	cmd.Stdin = strings.NewReader(expr + "\n")
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	start := time.Now()
	err := cmd.Run()
	t.log.Debug("terraform console finished", "dur", time.Since(start), "err", err)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", "", fmt.Errorf("terraform console timed out after %s", t.Timeout)
	}
	stdout := strings.TrimRight(outBuf.String(), "\r\n")
	stderr := strings.TrimRight(errBuf.String(), "\r\n")
	if err != nil && stderr == "" {
		return "", "", fmt.Errorf("run %s console: %w", t.Bin, err)
	}
	return stdout, stderr, nil
}

type tfVersionJSON struct {
	TerraformVersion string `json:"terraform_version"`
}

var (
	reVersionV    = regexp.MustCompile(`v([0-9]+\.[0-9]+\.[0-9]+)`)
	reVersionBare = regexp.MustCompile(`\b([0-9]+\.[0-9]+\.[0-9]+)\b`)
)

// ParseVersionOutput extracts the version from `terraform version -json` or
// plain `terraform version` output.
func ParseVersionOutput(out []byte) (*gv.Version, error) {
	var s string
	var v tfVersionJSON
	if jsonx.Unmarshal(out, &v) == nil && v.TerraformVersion != "" {
		s = v.TerraformVersion
	} else if m := reVersionV.FindSubmatch(out); len(m) == 2 {
		s = string(m[1])
	} else if m := reVersionBare.FindSubmatch(out); len(m) == 2 {
		s = string(m[1])
	}
	if s == "" {
		return nil, errors.New("no version in terraform output")
	}
	return gv.NewVersion(s)
}

// CheckVersion reads the installed Terraform/OpenTofu version and reports an
// error when it is older than MinTerraformVersion.
func (t *TerraformBackend) CheckVersion(ctx context.Context) (*gv.Version, error) {
	out, err := exec.CommandContext(ctx, t.Bin, "version", "-json").Output()
	if err != nil {
		out, err = exec.CommandContext(ctx, t.Bin, "version").Output()
		if err != nil {
			return nil, fmt.Errorf("run %s version: %w", t.Bin, err)
		}
	}
	cur, err := ParseVersionOutput(out)
	if err != nil {
		return nil, err
	}
	if err := RequireVersion(cur); err != nil {
		return cur, err
	}
	return cur, nil
}

// RequireVersion fails when v is older than MinTerraformVersion.
func RequireVersion(v *gv.Version) error {
	minV := gv.Must(gv.NewVersion(MinTerraformVersion))
	if v.LessThan(minV) {
		return fmt.Errorf("terraform %s is older than the supported minimum %s", v, minV)
	}
	return nil
}
