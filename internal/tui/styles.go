package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/flowave-io/hclshell/internal/config"
	"github.com/flowave-io/hclshell/internal/console"
)

// Styles holds the look of each role and overlay.
type Styles struct {
	Roles         map[console.Role]lipgloss.Style
	Caret         lipgloss.Style
	Popup         lipgloss.Style
	PopupSelected lipgloss.Style
	Tip           lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
}

func fg(color string) lipgloss.Style {
	s := lipgloss.NewStyle()
	if color != "" {
		s = s.Foreground(lipgloss.Color(color))
	}
	return s
}

func bg(color string) lipgloss.Style {
	s := lipgloss.NewStyle()
	if color != "" {
		s = s.Background(lipgloss.Color(color))
	}
	return s
}

// NewStyles builds styles from a theme.
func NewStyles(t config.ThemeConfig) Styles {
	return Styles{
		Roles: map[console.Role]lipgloss.Style{
			console.RoleBanner:       fg(t.Banner).Italic(true),
			console.RolePrompt:       fg(t.Prompt).Bold(true),
			console.RoleContinuation: fg(t.Prompt),
			console.RoleInput:        fg(t.Input),
			console.RoleResult:       fg(t.Result),
			console.RoleError:        fg(t.Error),
		},
		Caret:         lipgloss.NewStyle().Reverse(true),
		Popup:         bg(t.Popup).PaddingLeft(1).PaddingRight(1),
		PopupSelected: bg(t.PopupSelected).Bold(true).PaddingLeft(1).PaddingRight(1),
		Tip: bg(t.Tip).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1).
			PaddingRight(1),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusError: fg(t.Error),
	}
}

func (s Styles) role(r console.Role) lipgloss.Style {
	if st, ok := s.Roles[r]; ok {
		return st
	}
	return lipgloss.NewStyle()
}
