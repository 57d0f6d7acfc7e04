package interp

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/flowave-io/hclshell/internal/console"
)

func TestParseVersionOutput(t *testing.T) {
	cases := map[string]string{
		`{"terraform_version":"1.5.7","platform":"linux_amd64"}`: "1.5.7",
		"Terraform v1.6.0\non linux_amd64":                       "1.6.0",
		"OpenTofu v1.8.2":                                        "1.8.2",
		"tofu 1.9.0":                                             "1.9.0",
	}
	for out, want := range cases {
		v, err := ParseVersionOutput([]byte(out))
		if err != nil {
			t.Fatalf("%q: %v", out, err)
		}
		if v.String() != want {
			t.Fatalf("%q: got %s want %s", out, v, want)
		}
	}
	if _, err := ParseVersionOutput([]byte("nothing here")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRequireVersion(t *testing.T) {
	old, _ := ParseVersionOutput([]byte("Terraform v0.12.31"))
	if err := RequireVersion(old); err == nil {
		t.Fatalf("0.12 should be rejected")
	}
	cur, _ := ParseVersionOutput([]byte("Terraform v1.9.0"))
	if err := RequireVersion(cur); err != nil {
		t.Fatalf("1.9: %v", err)
	}
}

func TestTerraformBackendWithFakeBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script binary")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "terraform")
	script := "#!/bin/sh\nread line\nif [ \"$line\" = \"bad\" ]; then echo 'Error: bad' >&2; exit 1; fi\necho \"=$line\"\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake terraform: %v", err)
	}
	tb := NewTerraformBackend(New(testBindings(), nil), bin, dir, nil, 5*time.Second, nil)

	out := &capture{}
	if st := tb.RunSource("1 + 1", out); st != console.StatusDone {
		t.Fatalf("status: %v", st)
	}
	if len(out.results) != 1 || out.results[0] != "=1 + 1" {
		t.Fatalf("results: %q errors %q", out.results, out.errors)
	}
	tb.RunSource("bad", out)
	if len(out.errors) != 1 || out.errors[0] != "Error: bad" {
		t.Fatalf("errors: %q", out.errors)
	}
	if st := tb.RunSource("[", out); st != console.StatusMore {
		t.Fatalf("incomplete: %v", st)
	}
	if _, ok := tb.Bindings()["var"]; !ok {
		t.Fatalf("bindings should come from the local interpreter")
	}
}
