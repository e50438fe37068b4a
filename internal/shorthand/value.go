package shorthand

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Fields splits a property value at top-level whitespace. Function calls
// such as rgb(0, 0, 0) or url(a b.png) stay single fields, and a top-level
// slash or comma becomes a field of its own.
func Fields(value string) []string {
	var fields []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}

	lexer := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return fields
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			if depth > 0 {
				depth--
			}
		case css.WhitespaceToken, css.CommentToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.CommaToken:
			if depth == 0 {
				flush()
				fields = append(fields, ",")
				continue
			}
		case css.DelimToken:
			if depth == 0 && string(data) == "/" {
				flush()
				fields = append(fields, "/")
				continue
			}
		}
		cur.Write(data)
	}
}

var lengthKeywords = map[string]bool{"thin": true, "medium": true, "thick": true}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
	"auto": true,
}

// isLength reports whether a field is a length, a number, a percentage or
// a width keyword.
func isLength(field string) bool {
	lower := strings.ToLower(field)
	if lengthKeywords[lower] {
		return true
	}
	if strings.HasPrefix(lower, "calc(") {
		return true
	}
	lexer := css.NewLexer(parse.NewInputString(field))
	tt, _ := lexer.Next()
	switch tt {
	case css.NumberToken, css.DimensionToken, css.PercentageToken:
		next, _ := lexer.Next()
		return next == css.ErrorToken
	}
	return false
}

var backgroundRepeats = map[string]bool{
	"repeat": true, "repeat-x": true, "repeat-y": true, "no-repeat": true,
	"space": true, "round": true,
}

var backgroundAttachments = map[string]bool{"scroll": true, "fixed": true, "local": true}

var backgroundBoxes = map[string]bool{"border-box": true, "padding-box": true, "content-box": true}

var backgroundPositions = map[string]bool{
	"left": true, "right": true, "top": true, "bottom": true, "center": true,
}

func isImage(field string) bool {
	lower := strings.ToLower(field)
	return lower == "none" || strings.HasPrefix(lower, "url(") ||
		strings.Contains(lower, "gradient(") || strings.HasPrefix(lower, "image-set(")
}

func isPosition(field string) bool {
	return backgroundPositions[strings.ToLower(field)] || isLength(field)
}
