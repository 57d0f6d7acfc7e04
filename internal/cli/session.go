// Package cli wires a console session together and runs it on a terminal or
// over piped input.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/config"
	"github.com/flowave-io/hclshell/internal/console"
	"github.com/flowave-io/hclshell/internal/history"
	"github.com/flowave-io/hclshell/internal/interp"
	"github.com/flowave-io/hclshell/internal/workspace"
)

// Overrides are command-line settings that win over the config file.
type Overrides struct {
	Workspace string
	VarFiles  []string
	State     string
	Backend   string
	NoWatch   bool
}

// Apply folds o into cfg.
func (o Overrides) Apply(cfg *config.Config) {
	if o.Workspace != "" {
		cfg.Workspace.Source = o.Workspace
	}
	if len(o.VarFiles) > 0 {
		cfg.Workspace.VarFiles = append(append([]string{}, cfg.Workspace.VarFiles...), o.VarFiles...)
	}
	if o.State != "" {
		cfg.Workspace.State = o.State
	}
	if o.Backend != "" {
		cfg.Interpreter.Backend = o.Backend
	}
	if o.NoWatch {
		cfg.Workspace.Watch = false
	}
}

// Session is everything one console run needs.
type Session struct {
	ID      string
	Dir     string
	Config  config.Config
	Local   *interp.Interpreter
	Interp  console.Interpreter
	Comp    *interp.Introspector
	Hist    *console.History
	Store   *history.FileStore
	Control *console.Controller
	Log     pslog.Logger
	// Notices are problems met while building the session that the user
	// should see, such as workspace load errors.
	Notices []string
}

// NewSession resolves the workspace, loads its bindings and builds the
// interpreter and controller. Workspace problems are logged, not fatal.
func NewSession(ctx context.Context, cfg config.Config, metrics console.Metrics) (*Session, error) {
	id := uuid.NewString()
	log := pslog.Ctx(ctx).With("session", id)
	ctx = pslog.ContextWithLogger(ctx, log)

	dir, err := workspace.Resolve(ctx, cfg.Workspace.Source, cfg.Workspace.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	s := &Session{ID: id, Dir: dir, Config: cfg, Log: log}

	ws, err := workspace.Load(ctx, workspace.Options{Dir: dir, VarFiles: cfg.Workspace.VarFiles, StatePath: cfg.Workspace.State})
	if err != nil {
		log.Warn("workspace loaded with errors", "err", err)
		s.Notices = append(s.Notices, "workspace: "+strings.TrimSpace(err.Error()))
	}
	s.Local = interp.New(ws.Bindings(), log)
	s.Comp = interp.NewIntrospector(s.Local.Functions())
	s.Interp = s.Local

	if cfg.Interpreter.Backend == config.BackendTerraform {
		tb := interp.NewTerraformBackend(s.Local, cfg.Interpreter.TerraformBin, dir, cfg.Workspace.VarFiles, cfg.Interpreter.TimeoutDuration(), log)
		v, err := tb.CheckVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("terraform backend: %w", err)
		}
		log.Info("terraform backend ready", "version", v.String())
		s.Interp = tb
	}

	var entries []string
	if cfg.History.Path != "" {
		s.Store = history.New(cfg.History.Path, cfg.History.MaxEntries, log)
		if entries, err = s.Store.Load(); err != nil {
			if !errors.Is(err, history.ErrUnsupportedFormat) {
				return nil, err
			}
			log.Warn("ignoring history file", "path", cfg.History.Path, "err", err)
			s.Notices = append(s.Notices, "history disabled: "+err.Error())
			s.Store = nil
		}
	}
	s.Hist = console.NewHistory(entries, cfg.History.MaxEntries)
	if s.Store != nil {
		s.Hist.SetRecorder(s.Store, log)
	}

	s.Control = console.NewController(s.Interp, s.Comp, console.Options{
		Prompt:          cfg.Prompt,
		Continuation:    cfg.Continuation,
		Markers:         markers(cfg.Markers),
		ScrollbackLines: cfg.ScrollbackLines,
		Logger:          log,
		Metrics:         metrics,
		History:         s.Hist,
	})
	return s, nil
}

// Reload re-reads the workspace and swaps the interpreter's bindings.
// Session assignments survive.
func (s *Session) Reload(ctx context.Context) error {
	ctx = pslog.ContextWithLogger(ctx, s.Log)
	ws, err := workspace.Load(ctx, workspace.Options{Dir: s.Dir, VarFiles: s.Config.Workspace.VarFiles, StatePath: s.Config.Workspace.State})
	s.Local.SetBase(ws.Bindings())
	return err
}

// Banner is the configured banner followed by any notices.
func (s *Session) Banner() string {
	parts := make([]string, 0, len(s.Notices)+1)
	if b := strings.TrimRight(s.Config.Banner, "\n"); b != "" {
		parts = append(parts, b)
	}
	parts = append(parts, s.Notices...)
	return strings.Join(parts, "\n")
}

// Close compacts the history file.
func (s *Session) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Compact()
}

func markers(m config.MarkersConfig) console.Markers {
	first := func(s string) rune {
		r, _ := utf8.DecodeRuneInString(s)
		return r
	}
	return console.Markers{
		Attribute: first(m.Attribute),
		CallOpen:  first(m.CallOpen),
		CallClose: first(m.CallClose),
	}
}
