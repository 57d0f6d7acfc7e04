package interp

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// endsValue are tokens after which a tuple element is complete.
var endsValue = map[hclsyntax.TokenType]bool{
	hclsyntax.TokenIdent:     true,
	hclsyntax.TokenNumberLit: true,
	hclsyntax.TokenCQuote:    true,
	hclsyntax.TokenCHeredoc:  true,
	hclsyntax.TokenCBrack:    true,
	hclsyntax.TokenCBrace:    true,
	hclsyntax.TokenCParen:    true,
}

// startsValue are tokens that can begin a tuple element.
var startsValue = map[hclsyntax.TokenType]bool{
	hclsyntax.TokenIdent:     true,
	hclsyntax.TokenNumberLit: true,
	hclsyntax.TokenOQuote:    true,
	hclsyntax.TokenOHeredoc:  true,
	hclsyntax.TokenOBrack:    true,
	hclsyntax.TokenOBrace:    true,
	hclsyntax.TokenOParen:    true,
	hclsyntax.TokenMinus:     true,
	hclsyntax.TokenBang:      true,
}

// NormalizeCommas inserts the commas a tuple needs when its elements are
// written one per line:
//
//	[
//	  "a"
//	  "b"
//	]
//
// Object constructors already accept newlines between items and are left
// alone, as is single-line input.
func NormalizeCommas(source string) string {
	if !strings.Contains(source, "\n") {
		return source
	}
	src := []byte(source)
	toks, diags := hclsyntax.LexExpression(src, consoleFilename, hcl.InitialPos)
	if diags.HasErrors() {
		return source
	}

	var inserts []int
	var stack []hclsyntax.TokenType
	var prev hclsyntax.Token
	sawBreak := false
	for _, tok := range toks {
		switch tok.Type {
		case hclsyntax.TokenNewline:
			sawBreak = true
			continue
		case hclsyntax.TokenComment:
			if strings.HasSuffix(string(tok.Bytes), "\n") {
				sawBreak = true
			}
			continue
		}
		inTuple := len(stack) > 0 && stack[len(stack)-1] == hclsyntax.TokenCBrack
		if sawBreak && inTuple && endsValue[prev.Type] && startsValue[tok.Type] {
			inserts = append(inserts, prev.Range.End.Byte)
		}
		sawBreak = false

		if closer, ok := closerFor[tok.Type]; ok {
			stack = append(stack, closer)
		} else if n := len(stack); n > 0 && stack[n-1] == tok.Type {
			stack = stack[:n-1]
		}
		prev = tok
	}
	if len(inserts) == 0 {
		return source
	}

	var b strings.Builder
	b.Grow(len(src) + len(inserts))
	last := 0
	for _, at := range inserts {
		b.Write(src[last:at])
		b.WriteByte(',')
		last = at
	}
	b.Write(src[last:])
	return b.String()
}
