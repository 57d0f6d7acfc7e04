package console

import (
	"strings"
	"unicode"
)

// OverlayKind says which transient overlay is showing.
type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayCompletion
	OverlayTip
)

func (k OverlayKind) String() string {
	switch k {
	case OverlayCompletion:
		return "completion"
	case OverlayTip:
		return "tip"
	}
	return "none"
}

// Overlay is a snapshot of the overlay for rendering. Items and Selected are
// set for OverlayCompletion, Tip for OverlayTip.
type Overlay struct {
	Kind     OverlayKind
	Anchor   Point
	Items    []string
	Selected int
	Tip      CallTip
}

// overlays holds at most one overlay. A single kind field makes showing both
// at once unrepresentable.
type overlays struct {
	kind   OverlayKind
	anchor Point
	popup  popup
	tip    CallTip
}

func (o *overlays) showCompletion(anchor Point, items []string) {
	o.hide(OverlayTip)
	o.kind = OverlayCompletion
	o.anchor = anchor
	o.popup = newPopup(items)
}

func (o *overlays) showTip(anchor Point, tip CallTip) {
	o.hide(OverlayCompletion)
	o.kind = OverlayTip
	o.anchor = anchor
	o.tip = tip
}

// hide closes the overlay if it is the given kind.
func (o *overlays) hide(kind OverlayKind) {
	if o.kind != kind {
		return
	}
	o.kind = OverlayNone
	o.popup = popup{}
	o.tip = CallTip{}
}

func (o *overlays) hideAll() {
	o.hide(OverlayCompletion)
	o.hide(OverlayTip)
}

func (o *overlays) snapshot() Overlay {
	ov := Overlay{Kind: o.kind, Anchor: o.anchor}
	switch o.kind {
	case OverlayCompletion:
		ov.Items = append([]string(nil), o.popup.visible...)
		ov.Selected = o.popup.selected
	case OverlayTip:
		ov.Tip = o.tip
	}
	return ov
}

// popup is the completion list. Typing narrows it by prefix.
type popup struct {
	items    []string
	visible  []string
	filter   string
	selected int
}

func newPopup(items []string) popup {
	p := popup{items: append([]string(nil), items...)}
	p.refilter()
	return p
}

func (p *popup) refilter() {
	p.visible = p.visible[:0]
	for _, it := range p.items {
		if strings.HasPrefix(it, p.filter) {
			p.visible = append(p.visible, it)
		}
	}
	p.selected = 0
}

// popupResult tells the controller what the popup did with a key.
type popupResult struct {
	consumed bool
	hide     bool
	insert   string
}

func (p *popup) handle(ev KeyEvent) popupResult {
	switch ev.Code {
	case KeyUp:
		if p.selected > 0 {
			p.selected--
		}
		return popupResult{consumed: true}
	case KeyDown:
		if p.selected < len(p.visible)-1 {
			p.selected++
		}
		return popupResult{consumed: true}
	case KeyEnter, KeyTab:
		if len(p.visible) == 0 {
			return popupResult{consumed: true, hide: true}
		}
		return popupResult{consumed: true, hide: true, insert: strings.TrimPrefix(p.visible[p.selected], p.filter)}
	case KeyEscape:
		return popupResult{consumed: true, hide: true}
	case KeyRune:
		if ev.Mods&(ModCtrl|ModAlt) != 0 || !isIdentRune(ev.Rune) {
			return popupResult{hide: true}
		}
		p.filter += string(ev.Rune)
		p.refilter()
		return popupResult{hide: len(p.visible) == 0}
	case KeyBackspace:
		if p.filter == "" || ev.Mods != 0 {
			return popupResult{hide: true}
		}
		rs := []rune(p.filter)
		p.filter = string(rs[:len(rs)-1])
		p.refilter()
		return popupResult{}
	}
	return popupResult{hide: true}
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
