package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/flowave-io/hclshell/internal/console"
)

var keyCodes = map[tea.KeyType]console.KeyEvent{
	tea.KeyEnter:      console.Key(console.KeyEnter),
	tea.KeyDelete:     console.Key(console.KeyDelete),
	tea.KeyBackspace:  console.Key(console.KeyBackspace),
	tea.KeyCtrlH:      {Code: console.KeyBackspace, Mods: console.ModCtrl},
	tea.KeyHome:       console.Key(console.KeyHome),
	tea.KeyCtrlA:      console.Key(console.KeyHome),
	tea.KeyEnd:        console.Key(console.KeyEnd),
	tea.KeyCtrlE:      console.Key(console.KeyEnd),
	tea.KeyUp:         console.Key(console.KeyUp),
	tea.KeyDown:       console.Key(console.KeyDown),
	tea.KeyLeft:       console.Key(console.KeyLeft),
	tea.KeyRight:      console.Key(console.KeyRight),
	tea.KeyEsc:        console.Key(console.KeyEscape),
	tea.KeyTab:        console.Key(console.KeyTab),
	tea.KeySpace:      console.Rune(' '),
	tea.KeyShiftLeft:  {Code: console.KeyLeft, Mods: console.ModShift},
	tea.KeyShiftRight: {Code: console.KeyRight, Mods: console.ModShift},
	tea.KeyShiftHome:  {Code: console.KeyHome, Mods: console.ModShift},
	tea.KeyShiftEnd:   {Code: console.KeyEnd, Mods: console.ModShift},
	tea.KeyCtrlLeft:   {Code: console.KeyLeft, Mods: console.ModCtrl},
	tea.KeyCtrlRight:  {Code: console.KeyRight, Mods: console.ModCtrl},
}

// translateKey turns a Bubble Tea key into console events. Typed runes
// arrive one event per rune.
func translateKey(msg tea.KeyMsg) []console.KeyEvent {
	var mods console.Modifiers
	if msg.Alt {
		mods |= console.ModAlt
	}
	if msg.Type == tea.KeyRunes {
		evs := make([]console.KeyEvent, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			evs = append(evs, console.KeyEvent{Code: console.KeyRune, Rune: r, Mods: mods})
		}
		return evs
	}
	ev, ok := keyCodes[msg.Type]
	if !ok {
		return nil
	}
	ev.Mods |= mods
	return []console.KeyEvent{ev}
}
