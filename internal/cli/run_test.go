package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/flowave-io/hclshell/internal/config"
	"github.com/flowave-io/hclshell/internal/console"
	"github.com/flowave-io/hclshell/internal/interp"
)

func TestRunLines(t *testing.T) {
	in := interp.New(nil, nil)
	var stdout, stderr bytes.Buffer
	src := "1 + 1\nx = [\n  1\n  2\n]\nlength(x)\nnope\n{\n  a = 1\n}"
	n := RunLines(in, strings.NewReader(src), &stdout, &stderr)
	if n != 1 {
		t.Fatalf("failures: %d (stderr %q)", n, stderr.String())
	}
	if got, want := stdout.String(), "2\n2\n{\n  a = 1\n}\n"; got != want {
		t.Fatalf("stdout: got %q want %q", got, want)
	}
	if !strings.Contains(stderr.String(), "nope") {
		t.Fatalf("stderr: %q", stderr.String())
	}
}

func TestOverridesApply(t *testing.T) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Workspace.VarFiles = []string{"base.tfvars"}
	Overrides{Workspace: "./infra", VarFiles: []string{"dev.tfvars"}, State: "prod.tfstate", Backend: "terraform", NoWatch: true}.Apply(&cfg)
	if cfg.Workspace.Source != "./infra" || cfg.Interpreter.Backend != "terraform" || cfg.Workspace.Watch || cfg.Workspace.State != "prod.tfstate" {
		t.Fatalf("cfg: %+v", cfg.Workspace)
	}
	if strings.Join(cfg.Workspace.VarFiles, ",") != "base.tfvars,dev.tfvars" {
		t.Fatalf("var files: %v", cfg.Workspace.VarFiles)
	}
}

func testConfig(t *testing.T, dir string) config.Config {
	t.Helper()
	cfg, err := config.DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Workspace.Source = dir
	cfg.Workspace.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.History.Path = filepath.Join(t.TempDir(), "history")
	return cfg
}

func TestSessionEndToEnd(t *testing.T) {
	dir := t.TempDir()
	tf := "variable \"region\" {\n  default = \"eu-west-1\"\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.tf"), []byte(tf), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t, dir)
	s, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("session id missing")
	}
	ctl := s.Control
	ctl.Start("")
	for _, r := range "var.region" {
		ctl.HandleKey(console.Rune(r))
	}
	ctl.HandleKey(console.Key(console.KeyEscape))
	ctl.HandleKey(console.Key(console.KeyEnter))
	if got := ctl.Document().Text(); !strings.Contains(got, "\"eu-west-1\"") {
		t.Fatalf("doc: %q", got)
	}

	tf = "variable \"region\" {\n  default = \"us-east-1\"\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.tf"), []byte(tf), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	for _, r := range "var.region" {
		ctl.HandleKey(console.Rune(r))
	}
	ctl.HandleKey(console.Key(console.KeyEscape))
	ctl.HandleKey(console.Key(console.KeyEnter))
	if got := ctl.Document().Text(); !strings.Contains(got, "\"us-east-1\"") {
		t.Fatalf("doc after reload: %q", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if got, ok := s2.Hist.Up(); !ok || got != "var.region" {
		t.Fatalf("history not persisted: %q %v", got, ok)
	}
}

func TestSessionIgnoresForeignHistoryFile(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	if err := os.WriteFile(cfg.History.Path, []byte("plain text history\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Store != nil {
		t.Fatalf("store should be disabled")
	}
	if len(s.Notices) != 1 || !strings.HasPrefix(s.Notices[0], "history disabled") {
		t.Fatalf("notices: %q", s.Notices)
	}
}

func TestSessionBannerCarriesNotices(t *testing.T) {
	dir := t.TempDir()
	tf := "locals {\n  broken = local.missing\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.tf"), []byte(tf), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t, dir)
	cfg.Banner = "hclshell\n"
	s, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	banner := s.Banner()
	if !strings.HasPrefix(banner, "hclshell\nworkspace: ") || !strings.Contains(banner, "broken") {
		t.Fatalf("banner: %q", banner)
	}
	s.Control.Start(banner)
	if got := s.Control.Document().Text(); !strings.HasSuffix(got, "\n>>> ") {
		t.Fatalf("doc: %q", got)
	}
}

func TestSessionRejectsMissingWorkspace(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing"))
	if _, err := NewSession(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func fakeTerraform(t *testing.T, version string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "terraform")
	script := "#!/bin/sh\necho '{\"terraform_version\": \"" + version + "\"}'\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin
}

func TestSessionTerraformBackendVersionGate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for terraform")
	}
	cfg := testConfig(t, t.TempDir())
	cfg.Interpreter.Backend = config.BackendTerraform

	cfg.Interpreter.TerraformBin = fakeTerraform(t, "0.12.31")
	_, err := NewSession(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "older than") {
		t.Fatalf("old terraform: %v", err)
	}

	cfg.Interpreter.TerraformBin = fakeTerraform(t, "1.6.0")
	s, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, ok := s.Interp.(*interp.TerraformBackend); !ok {
		t.Fatalf("interp: %T", s.Interp)
	}
}
