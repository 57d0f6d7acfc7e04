package interp

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// continuesAfter are tokens that cannot end an expression.
var continuesAfter = map[hclsyntax.TokenType]bool{
	hclsyntax.TokenPlus:          true,
	hclsyntax.TokenMinus:         true,
	hclsyntax.TokenStar:          true,
	hclsyntax.TokenSlash:         true,
	hclsyntax.TokenPercent:       true,
	hclsyntax.TokenAnd:           true,
	hclsyntax.TokenOr:            true,
	hclsyntax.TokenBang:          true,
	hclsyntax.TokenEqualOp:       true,
	hclsyntax.TokenNotEqual:      true,
	hclsyntax.TokenLessThan:      true,
	hclsyntax.TokenLessThanEq:    true,
	hclsyntax.TokenGreaterThan:   true,
	hclsyntax.TokenGreaterThanEq: true,
	hclsyntax.TokenQuestion:      true,
	hclsyntax.TokenColon:         true,
	hclsyntax.TokenEqual:         true,
	hclsyntax.TokenComma:         true,
	hclsyntax.TokenFatArrow:      true,
	hclsyntax.TokenDot:           true,
}

var closerFor = map[hclsyntax.TokenType]hclsyntax.TokenType{
	hclsyntax.TokenOBrace:          hclsyntax.TokenCBrace,
	hclsyntax.TokenOBrack:          hclsyntax.TokenCBrack,
	hclsyntax.TokenOParen:          hclsyntax.TokenCParen,
	hclsyntax.TokenOQuote:          hclsyntax.TokenCQuote,
	hclsyntax.TokenOHeredoc:        hclsyntax.TokenCHeredoc,
	hclsyntax.TokenTemplateInterp:  hclsyntax.TokenTemplateSeqEnd,
	hclsyntax.TokenTemplateControl: hclsyntax.TokenTemplateSeqEnd,
}

// NeedsMore reports whether source is an unfinished expression: a bracket,
// quote, heredoc or template sequence is still open, or the last token is an
// operator. A multi-line source whose last line is blank is always finished.
func NeedsMore(source string) bool {
	if strings.TrimSpace(source) == "" {
		return false
	}
	if i := strings.LastIndexByte(source, '\n'); i >= 0 && strings.TrimSpace(source[i+1:]) == "" {
		return false
	}
	toks, _ := hclsyntax.LexExpression([]byte(source), consoleFilename, hcl.InitialPos)
	var open []hclsyntax.TokenType
	var last hclsyntax.TokenType
	for _, tok := range toks {
		switch tok.Type {
		case hclsyntax.TokenEOF, hclsyntax.TokenNewline, hclsyntax.TokenComment:
			continue
		}
		if closer, ok := closerFor[tok.Type]; ok {
			open = append(open, closer)
		} else if n := len(open); n > 0 && open[n-1] == tok.Type {
			open = open[:n-1]
		}
		last = tok.Type
	}
	if len(open) > 0 {
		return true
	}
	return continuesAfter[last]
}

// splitAssignment recognises "name = expr". It returns the name and the
// byte offset where the expression starts.
func splitAssignment(source string) (string, int, bool) {
	toks, _ := hclsyntax.LexExpression([]byte(source), consoleFilename, hcl.InitialPos)
	var sig []hclsyntax.Token
	for _, tok := range toks {
		if tok.Type == hclsyntax.TokenNewline || tok.Type == hclsyntax.TokenComment {
			continue
		}
		sig = append(sig, tok)
		if len(sig) == 2 {
			break
		}
	}
	if len(sig) < 2 || sig[0].Type != hclsyntax.TokenIdent || sig[1].Type != hclsyntax.TokenEqual {
		return "", 0, false
	}
	return string(sig[0].Bytes), sig[1].Range.End.Byte, true
}
