package console

import (
	"strings"

	"pkt.systems/pslog"

	hlog "github.com/flowave-io/hclshell/pkg/log"
)

const (
	DefaultPrompt       = ">>> "
	DefaultContinuation = "... "
)

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Prompt       string
	Continuation string
	Markers      Markers
	// ScrollbackLines bounds the document; zero keeps everything.
	ScrollbackLines int
	Logger          pslog.Logger
	Metrics         Metrics
	History         *History
}

// Controller owns the document and the editable-region invariant. Every edit
// from the surface goes through it. It is not safe for concurrent use.
type Controller struct {
	doc    *Document
	prompt int
	caret  int

	selStart, selEnd int
	hasSel           bool

	interp  Interpreter
	comp    Completer
	acc     *Accumulator
	hist    *History
	ov      overlays
	metrics Metrics
	log     pslog.Logger

	promptText   string
	contText     string
	markers      Markers
	scrollback   int
	continuation bool
}

// NewController builds a controller over interp and comp. Either may be nil;
// a nil interpreter completes every statement silently and a nil completer
// never shows an overlay.
func NewController(interp Interpreter, comp Completer, opts Options) *Controller {
	c := &Controller{
		doc:        NewDocument(),
		interp:     interp,
		comp:       comp,
		acc:        NewAccumulator(interp),
		hist:       opts.History,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		promptText: opts.Prompt,
		contText:   opts.Continuation,
		markers:    opts.Markers,
		scrollback: opts.ScrollbackLines,
	}
	if c.promptText == "" {
		c.promptText = DefaultPrompt
	}
	if c.contText == "" {
		c.contText = DefaultContinuation
	}
	if c.markers == (Markers{}) {
		c.markers = DefaultMarkers()
	}
	if c.hist == nil {
		c.hist = NewHistory(nil, 0)
	}
	if c.metrics == nil {
		c.metrics = CellMetrics{}
	}
	if c.log == nil {
		c.log = hlog.Nop()
	}
	return c
}

// Start clears the document, writes banner and prints the first prompt.
func (c *Controller) Start(banner string) {
	c.doc.Reset()
	c.acc.Reset()
	c.ov.hideAll()
	c.hasSel = false
	c.continuation = false
	if banner != "" {
		c.doc.Append(strings.TrimSuffix(banner, "\n"), RoleBanner)
	}
	c.printPrompt()
}

// HandleKey processes one raw key and returns the command it ran. While the
// completion overlay is up the key goes to it first; keys it consumes return
// CmdIgnore.
func (c *Controller) HandleKey(ev KeyEvent) Command {
	if c.ov.kind == OverlayCompletion {
		res := c.ov.popup.handle(ev)
		if res.hide {
			c.ov.hide(OverlayCompletion)
		}
		if res.insert != "" {
			c.insertText(res.insert)
		}
		if res.consumed {
			return CmdIgnore
		}
	}
	cmd := MapKey(ev, c.markers)
	c.dispatch(cmd, ev)
	return cmd
}

func (c *Controller) dispatch(cmd Command, ev KeyEvent) {
	switch cmd {
	case CmdSubmit:
		c.Submit()
	case CmdDelete:
		c.deleteForward()
	case CmdBackspace:
		c.backspace()
	case CmdHome:
		c.home()
	case CmdHistoryUp:
		if line, ok := c.hist.Up(); ok {
			c.replaceInput(line)
		}
	case CmdHistoryDown:
		if line, ok := c.hist.Down(); ok {
			c.replaceInput(line)
		}
	case CmdTriggerCompletion:
		c.triggerCompletion()
	case CmdTriggerSignatureOpen:
		c.triggerSignatureOpen()
	case CmdTriggerSignatureClose:
		c.ov.hide(OverlayTip)
		c.insertText(string(c.markers.CallClose))
	case CmdDismiss:
		c.ov.hideAll()
	case CmdInsertText:
		c.insertText(string(ev.Rune))
	case CmdMoveLeft:
		c.clearSelection()
		if c.caret > c.prompt {
			c.caret--
		} else if c.caret < c.prompt && c.caret > 0 {
			c.caret--
		}
	case CmdMoveRight:
		c.clearSelection()
		if c.caret < c.doc.Len() {
			c.caret++
		}
	case CmdMoveEnd:
		c.clearSelection()
		c.caret = c.doc.Len()
	}
}

// Submit runs the editable tail through the accumulator, prints the next
// prompt and records the line in history.
func (c *Controller) Submit() Status {
	c.ov.hideAll()
	line := c.Input()
	status := c.acc.Submit(line, c)
	if status == StatusMore {
		c.printContinuation()
	} else {
		c.printPrompt()
	}
	c.hist.Append(Chomp(line))
	c.trimScrollback()
	c.clearSelection()
	return status
}

// Paste types text at the caret. Each newline submits the line before it.
func (c *Controller) Paste(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, part := range strings.Split(text, "\n") {
		if i > 0 {
			c.Submit()
		}
		if part != "" {
			c.ov.hide(OverlayCompletion)
			c.insertText(part)
		}
	}
}

// Write appends text at the document end and moves the caret there. Output
// arriving mid-edit lands after whatever has been typed.
func (c *Controller) Write(text string) {
	c.doc.Append(text, RoleResult)
	c.caret = c.doc.Len()
	c.clearSelection()
}

// PrintResult writes msg on its own line in the result role.
func (c *Controller) PrintResult(msg string) {
	c.addOutput(Chomp(msg), RoleResult)
}

// PrintError writes msg on its own line in the error role.
func (c *Controller) PrintError(msg string) {
	c.addOutput(Chomp(msg), RoleError)
}

func (c *Controller) addOutput(msg string, role Role) {
	if msg == "" {
		return
	}
	if c.doc.Len() > 0 {
		msg = "\n" + msg
	}
	c.doc.Append(msg, role)
	c.caret = c.doc.Len()
}

func (c *Controller) printPrompt() {
	c.continuation = false
	c.addOutput(c.promptText, RolePrompt)
	c.prompt = c.doc.Len()
}

func (c *Controller) printContinuation() {
	c.continuation = true
	c.addOutput(c.contText, RoleContinuation)
	c.prompt = c.doc.Len()
}

// Editable reports whether offset may be touched. A caret may sit at the
// prompt position; a deletion boundary must lie beyond it.
func (c *Controller) Editable(offset int, caret bool) bool {
	if caret {
		return offset >= c.prompt
	}
	return offset > c.prompt
}

// DeleteRange removes [start,end) if it lies inside the editable tail. It
// reports false and changes nothing otherwise.
func (c *Controller) DeleteRange(start, end int) bool {
	if start < c.prompt || end <= start || end > c.doc.Len() {
		return false
	}
	if !c.doc.Remove(start, end-start) {
		return false
	}
	c.caret = start
	c.clearSelection()
	return true
}

func (c *Controller) deleteSelection() bool {
	if !c.hasSel {
		return false
	}
	end := c.selEnd
	if !c.Editable(end, false) {
		return true
	}
	start := max(c.selStart, c.prompt)
	c.DeleteRange(start, end)
	return true
}

func (c *Controller) deleteForward() {
	if c.deleteSelection() {
		return
	}
	if !c.Editable(c.caret+1, false) {
		return
	}
	c.DeleteRange(c.caret, c.caret+1)
}

func (c *Controller) backspace() {
	if c.deleteSelection() {
		return
	}
	if !c.Editable(c.caret, false) {
		return
	}
	c.DeleteRange(c.caret-1, c.caret)
}

func (c *Controller) home() {
	c.clearSelection()
	start, end := c.LastLine()
	if c.caret >= start && c.caret <= end {
		c.caret = start
		return
	}
	ls, _ := c.doc.LineAt(c.caret)
	line := c.doc.Slice(ls, c.doc.Len())
	switch {
	case strings.HasPrefix(line, c.promptText):
		c.caret = ls + runeLen(c.promptText)
	case strings.HasPrefix(line, c.contText):
		c.caret = ls + runeLen(c.contText)
	default:
		c.caret = ls
	}
}

// insertText types text at the caret, moving the caret into the tail first
// when it sits in the transcript. A selection inside the tail is replaced.
func (c *Controller) insertText(text string) {
	if !c.Editable(c.caret, true) {
		c.caret = c.doc.Len()
		c.clearSelection()
	}
	if c.hasSel {
		c.deleteSelection()
		c.clearSelection()
	}
	c.doc.Insert(c.caret, text, RoleInput)
	c.caret += runeLen(text)
}

func (c *Controller) replaceInput(text string) {
	c.clearSelection()
	if c.doc.Len() > c.prompt {
		c.DeleteRange(c.prompt, c.doc.Len())
	}
	c.doc.Append(text, RoleInput)
	c.caret = c.doc.Len()
}

func (c *Controller) anchor() Point {
	p := c.metrics.CaretPoint(c.doc, c.caret)
	return Point{X: p.X + c.metrics.CharWidth(), Y: p.Y + c.metrics.LineHeight()}
}

func (c *Controller) candidate(marker rune) string {
	return Chomp(c.Input()) + string(marker)
}

func (c *Controller) triggerCompletion() {
	if !c.Editable(c.caret, true) {
		c.caret = c.doc.Len()
	}
	at := c.anchor()
	expr := c.candidate(c.markers.Attribute)
	c.insertText(string(c.markers.Attribute))
	if c.comp == nil {
		return
	}
	items, err := c.comp.CompletionList(expr, c.bindings())
	if err != nil {
		c.log.Debug("completion lookup failed", "expr", expr, "err", err)
		return
	}
	if len(items) == 0 {
		return
	}
	c.ov.showCompletion(at, items)
}

func (c *Controller) triggerSignatureOpen() {
	c.ov.hide(OverlayCompletion)
	if !c.Editable(c.caret, true) {
		c.caret = c.doc.Len()
	}
	at := c.anchor()
	expr := c.candidate(c.markers.CallOpen)
	c.insertText(string(c.markers.CallOpen))
	if c.comp == nil {
		return
	}
	tip, err := c.comp.CallTip(expr, c.bindings())
	if err != nil {
		c.log.Debug("call tip lookup failed", "expr", expr, "err", err)
		return
	}
	if tip.Text == "" {
		return
	}
	c.ov.showTip(at, tip)
}

func (c *Controller) bindings() Bindings {
	if c.interp == nil {
		return nil
	}
	return c.interp.Bindings()
}

func (c *Controller) trimScrollback() {
	n := c.doc.TrimLines(c.scrollback)
	if n == 0 {
		return
	}
	c.prompt -= n
	c.caret = max(c.caret-n, 0)
}

// LastLine returns the range of the final line, starting after a leading
// prompt or continuation marker.
func (c *Controller) LastLine() (int, int) {
	start, end := c.doc.LastLine()
	line := c.doc.Slice(start, end)
	switch {
	case strings.HasPrefix(line, c.promptText):
		start += runeLen(c.promptText)
	case strings.HasPrefix(line, c.contText):
		start += runeLen(c.contText)
	}
	return start, end
}

// Input returns the text of the editable line without its prompt.
func (c *Controller) Input() string {
	start, end := c.LastLine()
	return c.doc.Slice(start, end)
}

// SetCaret places the caret, as a mouse click would. It clears the selection.
func (c *Controller) SetCaret(offset int) {
	c.caret = min(max(offset, 0), c.doc.Len())
	c.clearSelection()
}

// SetSelection marks [start,end) as selected and puts the caret at end.
func (c *Controller) SetSelection(start, end int) {
	if start > end {
		start, end = end, start
	}
	start = min(max(start, 0), c.doc.Len())
	end = min(max(end, 0), c.doc.Len())
	if start == end {
		c.SetCaret(start)
		return
	}
	c.selStart, c.selEnd, c.hasSel = start, end, true
	c.caret = end
}

// Selection returns the selected range, if any.
func (c *Controller) Selection() (int, int, bool) {
	return c.selStart, c.selEnd, c.hasSel
}

func (c *Controller) clearSelection() {
	c.selStart, c.selEnd, c.hasSel = 0, 0, false
}

// Reset drops any half-entered statement and prints a fresh prompt.
func (c *Controller) Reset() {
	c.acc.Reset()
	c.ov.hideAll()
	c.clearSelection()
	c.printPrompt()
}

func (c *Controller) Document() *Document { return c.doc }

// PromptPosition is the offset of the first editable rune.
func (c *Controller) PromptPosition() int { return c.prompt }

func (c *Controller) Caret() int { return c.caret }

// Overlay returns a copy of the visible overlay state.
func (c *Controller) Overlay() Overlay { return c.ov.snapshot() }

func (c *Controller) History() *History { return c.hist }

func (c *Controller) Accumulator() *Accumulator { return c.acc }

// Continuing reports whether the last prompt printed was the continuation one.
func (c *Controller) Continuing() bool { return c.continuation }

func runeLen(s string) int {
	return len([]rune(s))
}
