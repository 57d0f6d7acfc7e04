// Package tui is the Bubble Tea surface for a console session.
package tui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/console"
)

type changedMsg struct{}

type reloadedMsg struct{ err error }

// Options wires a Model to the rest of the session.
type Options struct {
	Styles Styles
	// Changes signals that the workspace changed on disk.
	Changes <-chan struct{}
	// Reload rebuilds the interpreter bindings after a change. It runs in a
	// tea.Cmd, off the Update goroutine.
	Reload func(ctx context.Context) error
	// Paste reads the clipboard. Nil uses the system clipboard.
	Paste func() (string, error)
	// Resize is told the terminal width on every resize.
	Resize func(width int)
	Logger pslog.Logger
}

// Model renders a console.Controller and feeds it keys.
type Model struct {
	ctl     *console.Controller
	vp      viewport.Model
	st      Styles
	changes <-chan struct{}
	reload  func(ctx context.Context) error
	paste   func() (string, error)
	resize  func(width int)
	log     pslog.Logger

	width    int
	height   int
	status   string
	statusOK bool
	follow   bool
	ready    bool
}

// New returns a Model for ctl. ctl must already be started.
func New(ctl *console.Controller, opts Options) *Model {
	if opts.Paste == nil {
		opts.Paste = clipboard.ReadAll
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	return &Model{
		ctl:     ctl,
		vp:      viewport.New(80, 24),
		st:      opts.Styles,
		changes: opts.Changes,
		reload:  opts.Reload,
		paste:   opts.Paste,
		resize:  opts.Resize,
		log:     opts.Logger,
		width:   80,
		height:  24,
		follow:  true,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width = msg.Width
		m.vp.Height = max(1, msg.Height-1)
		m.ready = true
		if m.resize != nil {
			m.resize(msg.Width)
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case changedMsg:
		if m.reload == nil {
			return m, m.waitForChange()
		}
		reload := m.reload
		return m, tea.Batch(func() tea.Msg {
			return reloadedMsg{err: reload(context.Background())}
		}, m.waitForChange())

	case reloadedMsg:
		if msg.err != nil {
			m.setStatus("workspace reload: "+firstLine(msg.err.Error()), false)
			m.log.Warn("workspace reload failed", "err", msg.err)
		} else {
			m.setStatus("workspace reloaded", true)
			m.log.Info("workspace reloaded")
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlD:
		if strings.TrimSpace(m.ctl.Input()) == "" && !m.ctl.Continuing() {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyCtrlV:
		text, err := m.paste()
		if err != nil {
			m.setStatus("paste: "+err.Error(), false)
			return m, nil
		}
		m.ctl.Paste(text)
		m.follow = true
		m.refresh()
		return m, nil
	case tea.KeyCtrlL:
		m.ctl.Reset()
		m.follow = true
		m.refresh()
		return m, nil
	case tea.KeyPgUp:
		m.follow = false
		m.vp.SetYOffset(m.vp.YOffset - m.vp.Height)
		return m, nil
	case tea.KeyPgDown:
		m.vp.SetYOffset(m.vp.YOffset + m.vp.Height)
		m.follow = m.vp.AtBottom()
		return m, nil
	}
	if msg.Paste {
		m.ctl.Paste(string(msg.Runes))
	} else {
		for _, ev := range translateKey(msg) {
			m.ctl.HandleKey(ev)
		}
	}
	m.follow = true
	m.refresh()
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.follow = false
		m.vp.SetYOffset(m.vp.YOffset - 3)
		return
	case tea.MouseButtonWheelDown:
		m.vp.SetYOffset(m.vp.YOffset + 3)
		m.follow = m.vp.AtBottom()
		return
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return
		}
	default:
		return
	}
	off, ok := offsetAt(m.ctl.Document(), m.ctl.Caret(), m.ctl.Overlay(), m.st, m.width, msg.X, msg.Y+m.vp.YOffset)
	if !ok {
		return
	}
	m.ctl.SetCaret(off)
	m.refresh()
}

func (m *Model) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

func (m *Model) refresh() {
	m.vp.SetContent(renderDocument(m.ctl.Document(), m.ctl.Caret(), m.ctl.Overlay(), m.st, m.width))
	if m.follow {
		m.vp.GotoBottom()
	}
}

func (m *Model) View() string {
	if !m.ready {
		m.refresh()
	}
	status := m.st.Status
	if !m.statusOK && m.status != "" {
		status = m.st.StatusError
	}
	return m.vp.View() + "\n" + status.Render(m.status)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
