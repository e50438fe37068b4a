package css

import "strings"

// dynamicPseudoClasses depend on runtime UI state that a static DOM
// snapshot cannot represent. They are stripped before querying the DOM.
var dynamicPseudoClasses = map[string]bool{
	"link": true, "visited": true, "hover": true, "focus": true,
	"active": true, "checked": true, "enabled": true, "disabled": true,
	"target": true, "focus-within": true, "focus-visible": true,
	"indeterminate": true, "default": true, "valid": true, "invalid": true,
	"in-range": true, "out-of-range": true, "required": true,
	"optional": true, "read-only": true, "read-write": true,
	"placeholder-shown": true, "any-link": true, "fullscreen": true,
}

// legacyPseudoElements may be written with a single colon.
var legacyPseudoElements = map[string]bool{
	"before": true, "after": true, "first-line": true, "first-letter": true,
}

// NewSelector classifies the pseudo parts of text, derives the filtered
// query text and computes the specificity once.
func NewSelector(text string) *Selector {
	text = strings.Join(strings.Fields(text), " ")
	s := &Selector{Text: text}
	lower := strings.ToLower(text)
	if strings.Contains(lower, ":not(") || hasVendorPseudo(lower) {
		s.Ignored = true
	}
	s.Filtered = s.filter(text)
	s.Specificity = ComputeSpecificity(s.Filtered, s.PseudoClassCount, s.HasPseudoElement())
	return s
}

// filter removes pseudo-elements and dynamic pseudo-classes from text and
// records them on s. A compound that becomes empty is replaced by *.
func (s *Selector) filter(text string) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch c {
		case '[':
			end := closing(text, i, '[', ']')
			if end < 0 {
				end = len(text) - 1
			}
			b.WriteString(text[i : end+1])
			i = end + 1
			continue
		case '"', '\'':
			end := strings.IndexByte(text[i+1:], c)
			if end < 0 {
				b.WriteString(text[i:])
				return b.String()
			}
			b.WriteString(text[i : i+end+2])
			i += end + 2
			continue
		case ':':
		default:
			b.WriteByte(c)
			i++
			continue
		}

		start := i
		double := i+1 < len(text) && text[i+1] == ':'
		j := i + 1
		if double {
			j++
		}
		name := strings.ToLower(identAt(text, j))
		j += len(name)
		if j < len(text) && text[j] == '(' {
			if end := closing(text, j, '(', ')'); end >= 0 {
				j = end + 1
			} else {
				j = len(text)
			}
		}
		switch {
		case double || legacyPseudoElements[name]:
			s.PseudoElement = name
		case dynamicPseudoClasses[name] || strings.HasPrefix(name, "-"):
			s.PseudoClass = name
			s.PseudoClassCount++
		default:
			b.WriteString(text[start:j])
			i = j
			continue
		}
		if compoundEmpty(b.String()) && compoundEnds(text, j) {
			b.WriteByte('*')
		}
		i = j
	}
	return b.String()
}

// compoundEmpty reports whether the filtered output so far ends at a
// compound boundary.
func compoundEmpty(out string) bool {
	if out == "" {
		return true
	}
	switch out[len(out)-1] {
	case ' ', '>', '+', '~', ',':
		return true
	}
	return false
}

// compoundEnds reports whether nothing of the current compound follows j.
func compoundEnds(text string, j int) bool {
	if j >= len(text) {
		return true
	}
	switch text[j] {
	case ' ', '>', '+', '~', ',':
		return true
	case ':':
		return compoundEnds(text, skipPseudo(text, j))
	}
	return false
}

func skipPseudo(text string, j int) int {
	j++
	if j < len(text) && text[j] == ':' {
		j++
	}
	j += len(identAt(text, j))
	if j < len(text) && text[j] == '(' {
		if end := closing(text, j, '(', ')'); end >= 0 {
			return end + 1
		}
		return len(text)
	}
	return j
}

func hasVendorPseudo(sel string) bool {
	for _, prefix := range vendorPrefixes {
		if strings.Contains(sel, ":"+prefix) {
			return true
		}
	}
	return false
}

var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

// IsVendorPrefixed reports whether a property name carries a vendor prefix.
func IsVendorPrefixed(name string) bool {
	for _, prefix := range vendorPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
