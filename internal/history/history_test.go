package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "none"), 10, nil)
	entries, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")
	s := New(path, 10, nil)
	require.NoError(t, s.Append("1 + 1"))
	require.NoError(t, s.Append("{\n  a = \"x\"\n}"))
	require.NoError(t, s.Append(`"quoted"`))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), headerPrefix+FormatVersion+"\n"))
	require.Equal(t, 4, strings.Count(string(raw), "\n"), "multi-line entries stay on one line")

	entries, err := New(path, 10, nil).Load()
	require.NoError(t, err)
	require.Equal(t, []string{"1 + 1", "{\n  a = \"x\"\n}", `"quoted"`}, entries)
}

func TestLoadSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	content := header() + "\"ok\"\nnot json\n\n\"also ok\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	entries, err := New(path, 10, nil).Load()
	require.NoError(t, err)
	require.Equal(t, []string{"ok", "also ok"}, entries)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"newer":     headerPrefix + "2.1.0\n\"x\"\n",
		"no header": "\"x\"\n",
		"garbage":   headerPrefix + "abc\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_"))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		_, err := New(path, 10, nil).Load()
		require.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestCompactKeepsNewest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	s := New(path, 2, nil)
	for _, l := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Append(l))
	}
	require.NoError(t, s.Compact())
	entries, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d"}, entries)

	require.NoError(t, s.Append("e"))
	entries, err = s.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d", "e"}, entries)
}

func TestCompactUnderLimitIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	s := New(path, 5, nil)
	require.NoError(t, s.Append("a"))
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, s.Compact())
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}
