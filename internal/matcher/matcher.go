// Package matcher runs stylesheet selectors against the DOM snapshots of
// application states and records the hits in an Index.
package matcher

import (
	"log/slog"
	"strings"

	"cssprune/internal/css"
	"cssprune/internal/html"
)

// State is one crawled application state.
type State struct {
	ID       string
	Document *html.Document
	// Stylesheets active in the state, in page inclusion order.
	Stylesheets []*css.Stylesheet
}

// Stats counts the work done for one state.
type Stats struct {
	Selectors int // selectors queried
	Matches   int // (selector, element) pairs recorded
	Filtered  int // results dropped by the pseudo-class filter
	Errors    int // selectors the query engine rejected
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Selectors += other.Selectors
	s.Matches += other.Matches
	s.Filtered += other.Filtered
	s.Errors += other.Errors
}

// Matcher evaluates selectors against DOM snapshots
type Matcher struct {
	logger *slog.Logger
}

// New creates a matcher. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{logger: logger}
}

// MatchState queries every non-ignored selector of the state's stylesheets
// against its document and registers the matches in idx. A selector the
// query engine rejects is logged and skipped.
func (m *Matcher) MatchState(state State, idx *Index) Stats {
	var stats Stats
	for order, sheet := range state.Stylesheets {
		for _, sel := range sheet.AllSelectors() {
			if sel.Ignored {
				continue
			}
			stats.Selectors++
			nodes, err := state.Document.Query(sel.Filtered)
			if err != nil {
				stats.Errors++
				m.logger.Warn("selector rejected",
					"state", state.ID, "stylesheet", sheet.Name,
					"selector", sel.Text, "line", sel.Location.Line, "error", err)
				continue
			}
			for _, node := range nodes {
				if sel.HasPseudoClass() && !PseudoCompatible(sel.PseudoClass, node) {
					stats.Filtered++
					continue
				}
				if node.IsDocument() {
					m.logger.Info("selector matched the whole document",
						"state", state.ID, "selector", sel.Text)
					sel.Matched = true
					continue
				}
				key := css.ElementKey{State: state.ID, XPath: node.XPath()}
				sel.AddElement(key)
				idx.Add(key, order, sel)
				stats.Matches++
			}
		}
	}
	m.logger.Debug("state matched", "state", state.ID,
		"selectors", stats.Selectors, "matches", stats.Matches, "errors", stats.Errors)
	return stats
}

// PseudoCompatible reports whether an element can ever be in the state
// named by a dynamic pseudo-class. Unknown pseudo-classes are compatible.
func PseudoCompatible(pseudo string, node *html.Node) bool {
	tag := node.TagName()
	inputType, _ := node.Attr("type")
	inputType = strings.ToLower(inputType)
	if inputType == "" {
		inputType = "text"
	}
	switch pseudo {
	case "link", "visited":
		_, href := node.Attr("href")
		return tag == "a" && href
	case "checked":
		return (tag == "input" && (inputType == "checkbox" || inputType == "radio")) || tag == "option"
	case "focus":
		return tag == "textarea" || (tag == "input" && (inputType == "button" || inputType == "text"))
	case "active":
		return tag == "a" || tag == "textarea" || (tag == "input" && (inputType == "button" || inputType == "text"))
	}
	return true
}
