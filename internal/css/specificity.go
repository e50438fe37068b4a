package css

import "strings"

// ComputeSpecificity calculates the specificity of a filtered selector.
//
// The filtered text is split on whitespace; combinators and the universal
// selector weigh nothing. Within each compound, #id fragments count as IDs,
// .class, [attr] and any pseudo-class still present count as classes, and a
// leading element name counts as an element. Dynamic pseudo-classes have
// already been removed from the text, so the caller passes their number;
// a pseudo-element adds one element.
func ComputeSpecificity(filtered string, pseudoClassCount int, hasPseudoElement bool) Specificity {
	spec := Specificity{Classes: pseudoClassCount}
	if hasPseudoElement {
		spec.Elements++
	}
	for _, token := range strings.Fields(spaceCombinators(filtered)) {
		switch token {
		case "+", ">", "~", "*":
			continue
		}
		compound := compoundSpecificity(token)
		spec.IDs += compound.IDs
		spec.Classes += compound.Classes
		spec.Elements += compound.Elements
	}
	return spec
}

// compoundSpecificity weighs one compound selector such as a#x.y[z].
func compoundSpecificity(token string) Specificity {
	var spec Specificity
	i := 0
	if name := identAt(token, 0); name != "" {
		spec.Elements++
		i = len(name)
	} else if strings.HasPrefix(token, "*") {
		i = 1
	}
	for i < len(token) {
		switch token[i] {
		case '#':
			spec.IDs++
			i += 1 + len(identAt(token, i+1))
		case '.':
			spec.Classes++
			i += 1 + len(identAt(token, i+1))
		case '[':
			end := closing(token, i, '[', ']')
			if end < 0 {
				return spec
			}
			spec.Classes++
			i = end + 1
		case ':':
			j := i + 1
			if j < len(token) && token[j] == ':' {
				spec.Elements++
				j++
			} else {
				spec.Classes++
			}
			j += len(identAt(token, j))
			if j < len(token) && token[j] == '(' {
				if end := closing(token, j, '(', ')'); end >= 0 {
					j = end + 1
				} else {
					j = len(token)
				}
			}
			i = j
		default:
			i++
		}
	}
	return spec
}

// spaceCombinators surrounds child, sibling and adjacent combinators with
// blanks so that whitespace tokenizing separates them from compounds.
// Brackets and parentheses are copied untouched.
func spaceCombinators(sel string) string {
	var b strings.Builder
	depth := 0
	for _, c := range sel {
		switch c {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case '>', '+', '~':
			if depth == 0 {
				b.WriteByte(' ')
				b.WriteRune(c)
				b.WriteByte(' ')
				continue
			}
		}
		b.WriteRune(c)
	}
	return b.String()
}

// identAt returns the CSS identifier starting at s[i], or "".
func identAt(s string, i int) string {
	j := i
	for j < len(s) {
		c := s[j]
		if c == '\\' && j+1 < len(s) {
			j += 2
			continue
		}
		if c == '-' || c == '_' || c >= 0x80 ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(j > i && c >= '0' && c <= '9') {
			j++
			continue
		}
		break
	}
	return s[i:j]
}

// closing returns the index of the bracket closing the one at s[i],
// honouring nesting and quoted strings, or -1.
func closing(s string, i int, open, close byte) int {
	depth := 0
	var quote byte
	for j := i; j < len(s); j++ {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
