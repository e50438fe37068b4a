package css

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/parser"
	"github.com/gorilla/css/scanner"
)

// Parser turns CSS text into a Stylesheet. Problems with individual rules
// or declarations are reported as diagnostics and never abort parsing.
type Parser struct {
	// IgnoreVendorPrefixes marks vendor-prefixed declarations as ignored.
	IgnoreVendorPrefixes bool
}

// NewParser creates a new CSS parser
func NewParser() *Parser {
	return &Parser{IgnoreVendorPrefixes: true}
}

// parseState holds the token stream of one Parse call.
type parseState struct {
	source      string
	tokens      []*scanner.Token
	pos         int
	diagnostics []Diagnostic
	sheet       *Stylesheet
}

// Parse parses CSS text into a Stylesheet
func (p *Parser) Parse(name, cssText string) (*Stylesheet, []Diagnostic) {
	st := &parseState{
		source: name,
		sheet:  &Stylesheet{Name: name},
	}
	st.tokenize(cssText)

	rules, mediaRules := p.parseBlock(st, nil)
	st.sheet.Rules = rules
	st.sheet.MediaRules = mediaRules
	return st.sheet, st.diagnostics
}

// newlines applies the scanner's own input normalization so that token
// values can be summed into byte offsets of text.
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n", "\x00", "\ufffd")

// tokenize drops comments. A scanner error is reported and scanning resumes
// on the next line; the rest of the broken line is kept as one token so
// the declaration holding it is re-emitted verbatim. An unclosed comment
// swallows the rest of the input.
func (st *parseState) tokenize(text string) {
	text = newlines.Replace(text)
	lineOffset := 0
	for text != "" {
		s := scanner.New(text)
		pos := 0
		var tok *scanner.Token
		for {
			tok = s.Next()
			tok.Line += lineOffset
			if tok.Type == scanner.TokenEOF {
				return
			}
			if tok.Type == scanner.TokenError {
				break
			}
			pos += len(tok.Value)
			if tok.Type == scanner.TokenComment || tok.Type == scanner.TokenBOM {
				continue
			}
			st.tokens = append(st.tokens, tok)
		}

		st.report(tok, fmt.Sprintf("syntax error: %s", tok.Value))
		rest := text[pos:]
		if strings.HasPrefix(rest, "/*") {
			return
		}
		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			end = len(rest)
		}
		st.tokens = append(st.tokens, &scanner.Token{
			Type:   scanner.TokenString,
			Value:  rest[:end],
			Line:   tok.Line,
			Column: tok.Column,
		})
		text = rest[end:]
		lineOffset = tok.Line - 1
	}
}

func (st *parseState) report(tok *scanner.Token, msg string) {
	st.diagnostics = append(st.diagnostics, Diagnostic{
		Source:  st.source,
		Line:    tok.Line,
		Column:  tok.Column,
		Message: msg,
	})
}

func (st *parseState) done() bool {
	return st.pos >= len(st.tokens)
}

func (st *parseState) peek() *scanner.Token {
	return st.tokens[st.pos]
}

func isChar(tok *scanner.Token, c string) bool {
	return tok.Type == scanner.TokenChar && tok.Value == c
}

func isSpace(tok *scanner.Token) bool {
	switch tok.Type {
	case scanner.TokenS, scanner.TokenCDO, scanner.TokenCDC:
		return true
	}
	return false
}

// parseBlock reads rules until the end of input or, inside scope, until the
// closing brace of the enclosing @media block.
func (p *Parser) parseBlock(st *parseState, scope *MediaRule) ([]*Rule, []*MediaRule) {
	nested := scope != nil
	var rules []*Rule
	var mediaRules []*MediaRule
	for !st.done() {
		tok := st.peek()
		switch {
		case isSpace(tok) || isChar(tok, ";"):
			st.pos++
		case isChar(tok, "}"):
			st.pos++
			if nested {
				return rules, mediaRules
			}
			st.report(tok, "unexpected '}'")
		case tok.Type == scanner.TokenAtKeyword && strings.EqualFold(tok.Value, "@media"):
			if mr := p.parseMedia(st, scope); mr != nil {
				mediaRules = append(mediaRules, mr)
			}
		case tok.Type == scanner.TokenAtKeyword:
			p.parseAtRule(st, scope)
		default:
			if r := p.parseStyleRule(st, scope); r != nil {
				rules = append(rules, r)
			}
		}
	}
	if nested {
		st.report(st.tokens[len(st.tokens)-1], "unterminated @media block")
	}
	return rules, mediaRules
}

func (p *Parser) parseMedia(st *parseState, scope *MediaRule) *MediaRule {
	start := st.peek()
	st.pos++
	prelude, ok := st.readUntilBrace()
	if !ok {
		st.report(start, "@media without block")
		return nil
	}
	query := collapse(tokensText(prelude))
	mr := &MediaRule{
		Location: Location{Line: start.Line, Column: start.Column},
		Query:    query,
		Media:    append(append([]string(nil), scope.media()...), query),
	}
	mr.Rules, mr.MediaRules = p.parseBlock(st, mr)
	return mr
}

// parseAtRule keeps any at-rule other than @media verbatim.
func (p *Parser) parseAtRule(st *parseState, scope *MediaRule) {
	start := st.peek()
	from := st.pos
	depth := 0
	for st.pos < len(st.tokens) {
		tok := st.tokens[st.pos]
		st.pos++
		switch {
		case isChar(tok, ";") && depth == 0:
			st.keepIgnored(start, from, scope)
			return
		case isChar(tok, "{"):
			depth++
		case isChar(tok, "}"):
			depth--
			if depth == 0 {
				st.keepIgnored(start, from, scope)
				return
			}
		}
	}
	st.keepIgnored(start, from, scope)
	st.report(start, fmt.Sprintf("unterminated %s", start.Value))
}

// keepIgnored stores the tokens read since from as an ignored rule of the
// enclosing media block, or of the sheet at top level.
func (st *parseState) keepIgnored(start *scanner.Token, from int, scope *MediaRule) {
	ir := &IgnoredRule{
		Location: Location{Line: start.Line, Column: start.Column},
		Media:    scope.media(),
		Text:     strings.TrimSpace(tokensText(st.tokens[from:st.pos])),
	}
	if scope != nil {
		scope.Ignored = append(scope.Ignored, ir)
		return
	}
	st.sheet.Ignored = append(st.sheet.Ignored, ir)
}

// readUntilBrace consumes tokens up to and including the next '{' outside
// parentheses and returns the tokens before it.
func (st *parseState) readUntilBrace() ([]*scanner.Token, bool) {
	from := st.pos
	depth := 0
	for st.pos < len(st.tokens) {
		tok := st.tokens[st.pos]
		switch {
		case tok.Type == scanner.TokenFunction || isChar(tok, "(") || isChar(tok, "["):
			depth++
		case isChar(tok, ")") || isChar(tok, "]"):
			depth--
		case depth <= 0 && isChar(tok, "{"):
			st.pos++
			return st.tokens[from : st.pos-1], true
		case depth <= 0 && (isChar(tok, "}") || isChar(tok, ";")):
			return st.tokens[from:st.pos], false
		}
		st.pos++
	}
	return st.tokens[from:], false
}

// readBlock consumes a declaration block up to its closing brace.
func (st *parseState) readBlock() ([]*scanner.Token, bool) {
	from := st.pos
	depth := 0
	for st.pos < len(st.tokens) {
		tok := st.tokens[st.pos]
		st.pos++
		switch {
		case isChar(tok, "{"):
			depth++
		case isChar(tok, "}"):
			if depth == 0 {
				return st.tokens[from : st.pos-1], true
			}
			depth--
		}
	}
	return st.tokens[from:], false
}

func (p *Parser) parseStyleRule(st *parseState, scope *MediaRule) *Rule {
	start := st.peek()
	from := st.pos
	prelude, ok := st.readUntilBrace()
	if !ok {
		if !st.done() && isChar(st.peek(), ";") {
			st.pos++
		}
		st.report(start, fmt.Sprintf("rule without declaration block: %q", collapse(tokensText(prelude))))
		return nil
	}
	block, closed := st.readBlock()
	if !closed {
		st.report(start, "unterminated declaration block")
		st.keepIgnored(start, from, scope)
		return nil
	}

	declarations := p.parseDeclarations(st, block)
	rule := &Rule{
		Location: Location{Line: start.Line, Column: start.Column},
		Media:    scope.media(),
	}
	for _, text := range splitSelectors(tokensText(prelude)) {
		sel := NewSelector(text)
		for _, d := range declarations {
			sel.Declarations = append(sel.Declarations, d.Clone())
		}
		rule.AddSelector(sel)
	}
	if len(rule.Selectors) == 0 {
		st.report(start, "rule without selectors")
		return nil
	}
	return rule
}

// parseDeclarations splits a block at top-level semicolons and decodes each
// declaration once. A declaration that cannot be decoded is kept ignored.
func (p *Parser) parseDeclarations(st *parseState, block []*scanner.Token) []*Declaration {
	var declarations []*Declaration
	for _, chunk := range splitTokens(block, ";") {
		text := strings.TrimSpace(tokensText(chunk))
		if text == "" {
			continue
		}
		first := firstSignificant(chunk)
		order := len(declarations)
		parsed, err := parser.ParseDeclarations(text + ";")
		if err != nil || len(parsed) != 1 {
			if err == nil {
				err = fmt.Errorf("expected one declaration, got %d", len(parsed))
			}
			st.report(first, fmt.Sprintf("failed to parse declaration %q: %v", text, err))
			declarations = append(declarations, rawDeclaration(text, order, first.Line))
			continue
		}
		d := &Declaration{
			Name:      NormalizePropertyName(parsed[0].Property),
			Value:     collapse(parsed[0].Value),
			Important: parsed[0].Important,
			Order:     order,
			Line:      first.Line,
		}
		if d.Name == "" || d.Value == "" {
			st.report(first, fmt.Sprintf("empty declaration %q", text))
			d.Ignored = true
		}
		if p.IgnoreVendorPrefixes && (IsVendorPrefixed(d.Name) || IsVendorPrefixed(d.Value)) {
			d.Ignored = true
		}
		declarations = append(declarations, d)
	}
	return declarations
}

// rawDeclaration keeps an undecodable declaration for verbatim output.
func rawDeclaration(text string, order, line int) *Declaration {
	d := &Declaration{Order: order, Line: line, Ignored: true}
	if i := strings.IndexByte(text, ':'); i >= 0 {
		d.Name = NormalizePropertyName(text[:i])
		d.Value = strings.TrimSpace(text[i+1:])
	} else {
		d.Name = text
	}
	return d
}

func firstSignificant(tokens []*scanner.Token) *scanner.Token {
	for _, tok := range tokens {
		if !isSpace(tok) {
			return tok
		}
	}
	return tokens[0]
}

// splitTokens splits at top-level occurrences of the given char.
func splitTokens(tokens []*scanner.Token, sep string) [][]*scanner.Token {
	var parts [][]*scanner.Token
	depth, from := 0, 0
	for i, tok := range tokens {
		switch {
		case tok.Type == scanner.TokenFunction || isChar(tok, "(") || isChar(tok, "[") || isChar(tok, "{"):
			depth++
		case isChar(tok, ")") || isChar(tok, "]") || isChar(tok, "}"):
			depth--
		case depth == 0 && isChar(tok, sep):
			parts = append(parts, tokens[from:i])
			from = i + 1
		}
	}
	if from < len(tokens) {
		parts = append(parts, tokens[from:])
	}
	return parts
}

// splitSelectors splits a selector list at commas outside brackets,
// parentheses and strings.
func splitSelectors(prelude string) []string {
	var parts []string
	depth, from := 0, 0
	var quote byte
	for i := 0; i < len(prelude); i++ {
		c := prelude[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			parts = appendNonEmpty(parts, prelude[from:i])
			from = i + 1
		}
	}
	return appendNonEmpty(parts, prelude[from:])
}

func appendNonEmpty(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		parts = append(parts, s)
	}
	return parts
}

func tokensText(tokens []*scanner.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Value)
	}
	return b.String()
}

// collapse trims s and folds whitespace runs into single blanks.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePropertyName normalizes CSS property names
func NormalizePropertyName(property string) string {
	return strings.ToLower(strings.TrimSpace(property))
}
