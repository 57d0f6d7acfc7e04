package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, Options{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New(&bytes.Buffer{}, Options{Mode: "xml"}); err == nil {
		t.Fatalf("expected mode error")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "warn", NoColor: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("quiet")
	l.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("output: %q", buf.String())
	}
}

func TestOpen(t *testing.T) {
	l, c, err := Open("", Options{})
	if err != nil || l == nil || c.Close() != nil {
		t.Fatalf("discard logger: %v", err)
	}

	path := filepath.Join(t.TempDir(), "logs", "hclshell.log")
	l, c, err = Open(path, Options{Mode: "console"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Info("hello", "k", "v")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(b), "hello") {
		t.Fatalf("log file: %q %v", b, err)
	}
}
