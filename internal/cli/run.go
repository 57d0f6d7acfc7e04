package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/config"
	"github.com/flowave-io/hclshell/internal/console"
	"github.com/flowave-io/hclshell/internal/monitor"
	"github.com/flowave-io/hclshell/internal/tui"
)

// RunConsole starts a session. On a terminal it runs the full-screen
// console; otherwise it evaluates stdin line by line.
func RunConsole(ctx context.Context, cfg config.Config, stdin *os.File, stdout, stderr io.Writer) error {
	interactive := term.IsTerminal(int(stdin.Fd()))
	s, err := NewSession(ctx, cfg, tui.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.Log.Warn("history compaction failed", "err", err)
		}
	}()

	if !interactive {
		if n := RunLines(s.Interp, stdin, stdout, stderr); n > 0 {
			return fmt.Errorf("%d statement(s) failed", n)
		}
		return nil
	}
	return runTUI(ctx, s)
}

func runTUI(ctx context.Context, s *Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = pslog.ContextWithLogger(ctx, s.Log)

	var changes <-chan struct{}
	if s.Config.Workspace.Watch {
		w, err := monitor.Watch(ctx, s.Dir, nil, 0)
		if err != nil {
			s.Log.Warn("workspace watch disabled", "dir", s.Dir, "err", err)
		} else {
			changes = w.C
		}
	}

	s.Control.Start(s.Banner())
	model := tui.New(s.Control, tui.Options{
		Styles:  tui.NewStyles(s.Config.Theme),
		Changes: changes,
		Reload:  s.Reload,
		Resize:  func(w int) { s.Local.SetWidth(uint(w)) },
		Logger:  s.Log,
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	s.Log.Info("console started", "dir", s.Dir, "backend", s.Config.Interpreter.Backend)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal user interface: %w", err)
	}
	return nil
}

// lineOutput sends results and errors to separate writers and counts errors.
type lineOutput struct {
	out, errw io.Writer
	errors    int
}

func (o *lineOutput) PrintResult(msg string) {
	fmt.Fprintln(o.out, console.Chomp(msg))
}

func (o *lineOutput) PrintError(msg string) {
	o.errors++
	fmt.Fprintln(o.errw, console.Chomp(msg))
}

// RunLines feeds r to interp one line at a time through a statement
// accumulator and returns the number of failed statements. An unfinished
// statement at end of input is submitted as if a blank line followed.
func RunLines(interp console.Interpreter, r io.Reader, stdout, stderr io.Writer) int {
	out := &lineOutput{out: stdout, errw: stderr}
	acc := console.NewAccumulator(interp)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		acc.Submit(sc.Text()+"\n", out)
	}
	if acc.Pending() {
		acc.Submit("\n", out)
	}
	return out.errors
}
