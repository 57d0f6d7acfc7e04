package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/flowave-io/hclshell/internal/console"
)

const maxPopupRows = 8

// Metrics measures the document in terminal cells.
var Metrics = console.CellMetrics{Width: runewidth.StringWidth}

// renderDocument renders every line with role styles and the caret shown as
// a reversed cell. The overlay, if any, is drawn under the caret line.
func renderDocument(doc *console.Document, caret int, ov console.Overlay, st Styles, width int) string {
	lines := doc.Lines()
	caretLine := doc.LineIndex(caret)
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderLine(l, caret, i == caretLine, st))
		if i == caretLine && ov.Kind != console.OverlayNone {
			for _, row := range renderOverlay(ov, st, width) {
				b.WriteByte('\n')
				b.WriteString(row)
			}
		}
	}
	return b.String()
}

func renderLine(l console.Line, caret int, hasCaret bool, st Styles) string {
	var b strings.Builder
	off := l.Start
	for _, sp := range l.Spans {
		style := st.role(sp.Role)
		runes := []rune(sp.Text)
		if hasCaret && caret >= off && caret < off+len(runes) {
			i := caret - off
			b.WriteString(style.Render(string(runes[:i])))
			b.WriteString(st.Caret.Render(string(runes[i])))
			b.WriteString(style.Render(string(runes[i+1:])))
		} else {
			b.WriteString(style.Render(sp.Text))
		}
		off += len(runes)
	}
	if hasCaret && caret == l.End {
		b.WriteString(st.Caret.Render(" "))
	}
	return b.String()
}

// renderOverlay returns the overlay rows indented to the anchor column.
func renderOverlay(ov console.Overlay, st Styles, width int) []string {
	indent := strings.Repeat(" ", max(0, ov.Anchor.X))
	var rows []string
	switch ov.Kind {
	case console.OverlayCompletion:
		first := 0
		if ov.Selected >= maxPopupRows {
			first = ov.Selected - maxPopupRows + 1
		}
		last := min(len(ov.Items), first+maxPopupRows)
		w := 0
		for _, it := range ov.Items[first:last] {
			w = max(w, runewidth.StringWidth(it))
		}
		for i := first; i < last; i++ {
			item := runewidth.FillRight(ov.Items[i], w)
			style := st.Popup
			if i == ov.Selected {
				style = st.PopupSelected
			}
			rows = append(rows, indent+style.Render(item))
		}
	case console.OverlayTip:
		avail := width - ov.Anchor.X - 4
		if avail < 20 {
			avail = max(20, width-4)
			indent = ""
		}
		box := st.Tip.Render(wordwrap.String(ov.Tip.Text, avail))
		for _, row := range strings.Split(box, "\n") {
			rows = append(rows, indent+row)
		}
	}
	return rows
}

// offsetAt maps a cell position in the rendered document to a rune offset.
// Rows below the caret line that belong to an overlay are not addressable.
func offsetAt(doc *console.Document, caret int, ov console.Overlay, st Styles, width, x, y int) (int, bool) {
	lines := doc.Lines()
	caretLine := doc.LineIndex(caret)
	if ov.Kind != console.OverlayNone && y > caretLine {
		extra := len(renderOverlay(ov, st, width))
		if y <= caretLine+extra {
			return 0, false
		}
		y -= extra
	}
	if y < 0 || y >= len(lines) {
		return 0, false
	}
	l := lines[y]
	col := 0
	off := l.Start
	for _, r := range []rune(l.Text()) {
		w := runewidth.RuneWidth(r)
		if x < col+w {
			return off, true
		}
		col += w
		off++
	}
	return l.End, true
}
