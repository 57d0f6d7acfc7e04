// Package monitor signals when files in a workspace change.
package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"
)

// DefaultExtensions are the files whose changes trigger a reload.
var DefaultExtensions = []string{".tf", ".tfvars", ".json"}

// DefaultDebounce collapses editor save bursts into one signal.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches a directory tree and sends on C after matching changes
// settle.
type Watcher struct {
	C <-chan struct{}

	w        *fsnotify.Watcher
	exts     []string
	debounce time.Duration
	out      chan struct{}
	log      pslog.Logger
}

// Watch starts watching dir and every non-hidden subdirectory. It stops when
// ctx is done.
func Watch(ctx context.Context, dir string, exts []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	out := make(chan struct{}, 1)
	w := &Watcher{C: out, w: fw, exts: exts, debounce: debounce, out: out, log: pslog.Ctx(ctx)}
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		fw.Close()
		return nil, err
	}
	w.log.Debug("watching workspace", "dir", dir, "extensions", strings.Join(exts, ","))
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.w.Close()
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !w.matches(ev.Name) {
				continue
			}
			w.log.Trace("workspace file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case <-timer.C:
			select {
			case w.out <- struct{}{}:
			default:
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.exts {
		if ext == e {
			return true
		}
	}
	return false
}
