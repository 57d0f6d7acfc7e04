package console

// KeyCode identifies a raw key from the surface.
type KeyCode int

const (
	KeyNone KeyCode = iota
	KeyRune
	KeyEnter
	KeyDelete
	KeyBackspace
	KeyHome
	KeyEnd
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEscape
	KeyTab
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// KeyEvent is one raw keystroke. Rune is set for KeyRune.
type KeyEvent struct {
	Code KeyCode
	Mods Modifiers
	Rune rune
}

// Rune builds a KeyRune event.
func Rune(r rune) KeyEvent {
	return KeyEvent{Code: KeyRune, Rune: r}
}

// Key builds an unmodified event for a non-rune key.
func Key(code KeyCode) KeyEvent {
	return KeyEvent{Code: code}
}

// Command is what the controller does with a key.
type Command int

const (
	CmdNone Command = iota
	CmdSubmit
	CmdDelete
	CmdBackspace
	CmdHome
	CmdHistoryUp
	CmdHistoryDown
	CmdTriggerCompletion
	CmdTriggerSignatureOpen
	CmdTriggerSignatureClose
	CmdDismiss
	CmdInsertText
	CmdMoveLeft
	CmdMoveRight
	CmdMoveEnd
	// CmdIgnore swallows the key without touching the document.
	CmdIgnore
)

var commandNames = [...]string{
	CmdNone:                  "none",
	CmdSubmit:                "submit",
	CmdDelete:                "delete",
	CmdBackspace:             "backspace",
	CmdHome:                  "home",
	CmdHistoryUp:             "history-up",
	CmdHistoryDown:           "history-down",
	CmdTriggerCompletion:     "trigger-completion",
	CmdTriggerSignatureOpen:  "trigger-signature-open",
	CmdTriggerSignatureClose: "trigger-signature-close",
	CmdDismiss:               "dismiss",
	CmdInsertText:            "insert-text",
	CmdMoveLeft:              "move-left",
	CmdMoveRight:             "move-right",
	CmdMoveEnd:               "move-end",
	CmdIgnore:                "ignore",
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return "unknown"
}

// Markers are the characters that drive the overlays.
type Markers struct {
	Attribute rune
	CallOpen  rune
	CallClose rune
}

// DefaultMarkers returns '.', '(' and ')'.
func DefaultMarkers() Markers {
	return Markers{Attribute: '.', CallOpen: '(', CallClose: ')'}
}

// MapKey translates a raw key into a command. It depends on nothing but its
// arguments.
func MapKey(ev KeyEvent, m Markers) Command {
	switch ev.Code {
	case KeyEnter:
		return CmdSubmit
	case KeyDelete:
		if ev.Mods != 0 {
			return CmdIgnore
		}
		return CmdDelete
	case KeyBackspace:
		if ev.Mods != 0 {
			return CmdIgnore
		}
		return CmdBackspace
	case KeyHome:
		return CmdHome
	case KeyEnd:
		return CmdMoveEnd
	case KeyUp:
		return CmdHistoryUp
	case KeyDown:
		return CmdHistoryDown
	case KeyLeft:
		return CmdMoveLeft
	case KeyRight:
		return CmdMoveRight
	case KeyEscape:
		return CmdDismiss
	case KeyRune:
		if ev.Mods&(ModCtrl|ModAlt) != 0 {
			return CmdNone
		}
		switch ev.Rune {
		case m.Attribute:
			return CmdTriggerCompletion
		case m.CallOpen:
			return CmdTriggerSignatureOpen
		case m.CallClose:
			return CmdTriggerSignatureClose
		case '\n', '\r':
			return CmdSubmit
		}
		return CmdInsertText
	}
	return CmdNone
}
