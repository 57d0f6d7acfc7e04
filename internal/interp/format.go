package interp

import (
	"bytes"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	cty "github.com/zclconf/go-cty/cty"
)

const (
	unknownDisplay   = "(known after apply)"
	sensitiveDisplay = "(sensitive value)"
)

// FormatValue renders v the way terraform console does: as HCL literal
// syntax, with placeholders for values that cannot be shown.
func FormatValue(v cty.Value) string {
	if v.IsMarked() || v.ContainsMarked() {
		return sensitiveDisplay
	}
	if !v.IsWhollyKnown() {
		return unknownDisplay
	}
	if v.IsNull() {
		return "null"
	}
	if v.Type() == cty.String && strings.Contains(v.AsString(), "\n") {
		return heredoc(v.AsString())
	}
	return strings.TrimSpace(string(hclwrite.TokensForValue(v).Bytes()))
}

func heredoc(s string) string {
	var b strings.Builder
	b.WriteString("<<EOT\n")
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("EOT")
	return b.String()
}

// formatDiagnostics renders diags with source snippets from src.
func formatDiagnostics(diags hcl.Diagnostics, src []byte, width uint) string {
	var buf bytes.Buffer
	files := map[string]*hcl.File{consoleFilename: {Bytes: src}}
	w := hcl.NewDiagnosticTextWriter(&buf, files, width, false)
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		_ = w.WriteDiagnostic(d)
	}
	return strings.TrimSpace(buf.String())
}
