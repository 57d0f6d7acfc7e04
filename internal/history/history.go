// Package history persists console history to a file, one JSON string per
// line after a versioned header.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gv "github.com/hashicorp/go-version"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/encoding/jsonx"
)

// FormatVersion is written into the header of new files.
const FormatVersion = "1.0.0"

const headerPrefix = "# hclshell history v"

// ErrUnsupportedFormat is returned for files written by a newer, incompatible
// format.
var ErrUnsupportedFormat = errors.New("unsupported history file format")

var supported = gv.MustConstraints(gv.NewConstraint(">= 1.0.0, < 2.0.0"))

// FileStore appends history lines to a file. It implements console.Recorder.
type FileStore struct {
	path string
	max  int
	log  pslog.Logger
	mu   sync.Mutex
}

// New returns a store for path keeping at most max entries on Compact.
func New(path string, max int, log pslog.Logger) *FileStore {
	return &FileStore{path: path, max: max, log: log}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads all entries, oldest first. A missing file yields no entries.
// Lines that do not decode are skipped.
func (s *FileStore) Load() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	return s.read(f)
}

func (s *FileStore) read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var entries []string
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			first = false
			if err := checkHeader(line); err != nil {
				return nil, err
			}
			continue
		}
		if line == "" {
			continue
		}
		var entry string
		if err := jsonx.Unmarshal([]byte(line), &entry); err != nil {
			if s.log != nil {
				s.log.Debug("skipping history line", "path", s.path, "err", err)
			}
			continue
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

func checkHeader(line string) error {
	if !strings.HasPrefix(line, headerPrefix) {
		return fmt.Errorf("%w: missing header", ErrUnsupportedFormat)
	}
	v, err := gv.NewVersion(strings.TrimSpace(strings.TrimPrefix(line, headerPrefix)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if !supported.Check(v) {
		return fmt.Errorf("%w: v%s", ErrUnsupportedFormat, v)
	}
	return nil
}

// Append writes one entry, creating the file and its header on first use.
func (s *FileStore) Append(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := jsonx.Marshal(line)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		if _, err := io.WriteString(f, header()); err != nil {
			return err
		}
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

// Compact rewrites the file with only the newest max entries.
func (s *FileStore) Compact() error {
	entries, err := s.Load()
	if err != nil {
		return err
	}
	if s.max <= 0 || len(entries) <= s.max {
		return nil
	}
	entries = entries[len(entries)-s.max:]

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*")
	if err != nil {
		return fmt.Errorf("compact history: %w", err)
	}
	defer os.Remove(tmp.Name())
	w := bufio.NewWriter(tmp)
	w.WriteString(header())
	for _, e := range entries {
		b, err := jsonx.Marshal(e)
		if err != nil {
			tmp.Close()
			return err
		}
		w.Write(b)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("compact history: %w", err)
	}
	if s.log != nil {
		s.log.Debug("history compacted", "path", s.path, "entries", len(entries))
	}
	return nil
}

func header() string {
	return headerPrefix + FormatVersion + "\n"
}
