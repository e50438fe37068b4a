package css

import (
	"fmt"
	"strings"
)

// specificityBase is the radix used to fold the three specificity components
// into one comparable integer. Components are capped at specificityBase-1.
const specificityBase = 100

// Specificity represents CSS specificity with individual components
// Following CSS specification: IDs, classes/attributes/pseudo-classes, elements/pseudo-elements
type Specificity struct {
	IDs      int // #id selectors
	Classes  int // .class, [attr], :pseudo-class
	Elements int // element, ::pseudo-element
}

// Rank folds the components into one integer so that plain integer
// comparison orders selectors by specificity.
func (s Specificity) Rank() int {
	return clamp(s.IDs)*specificityBase*specificityBase +
		clamp(s.Classes)*specificityBase +
		clamp(s.Elements)
}

// Compare returns -1 if s < other, 0 if equal, 1 if s > other
func (s Specificity) Compare(other Specificity) int {
	a, b := s.Rank(), other.Rank()
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.IDs, s.Classes, s.Elements)
}

func clamp(n int) int {
	if n >= specificityBase {
		return specificityBase - 1
	}
	return n
}

// Location is a position in a CSS source, 1-based.
type Location struct {
	Line   int
	Column int
}

// Before reports whether l comes strictly before other in source order.
func (l Location) Before(other Location) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// ElementKey identifies one element in one application state.
type ElementKey struct {
	State string
	XPath string
}

func (k ElementKey) String() string {
	return k.State + k.XPath
}

// Declaration represents a single CSS property declaration
type Declaration struct {
	Name      string // CSS property name (normalized)
	Value     string // CSS property value
	Important bool   // !important flag
	Order     int    // position inside the declaration block
	Line      int    // source line of the declaration

	// Ignored declarations are never analyzed but always re-emitted verbatim.
	Ignored bool
	// Effective is set by the cascade resolver.
	Effective bool
	// Shorthand names the shorthand this longhand was split from, if any.
	Shorthand string
}

// Clone returns a detached copy of d.
func (d *Declaration) Clone() *Declaration {
	c := *d
	return &c
}

// Key is the textual identity of a declaration: name, value and importance.
func (d *Declaration) Key() string {
	if d.Important {
		return d.Name + ":" + d.Value + "!important"
	}
	return d.Name + ":" + d.Value
}

func (d *Declaration) String() string {
	if d.Important {
		return d.Name + ": " + d.Value + " !important"
	}
	return d.Name + ": " + d.Value
}

// Selector is one complex selector of a rule together with its own copy of
// the rule's declaration block.
type Selector struct {
	Text     string // original selector text
	Filtered string // text used for DOM queries, dynamic pseudo-classes removed

	Specificity      Specificity
	PseudoClass      string // key (right-most) dynamic pseudo-class, without colon
	PseudoClassCount int
	PseudoElement    string // pseudo-element, without colons

	Media        []string
	Ignored      bool
	Declarations []*Declaration

	Location Location // location of the owning rule
	Index    int      // position inside the owning rule's selector list

	Matched  bool
	Elements []ElementKey

	// Includes names the mixins whose declarations were factored out of s.
	Includes []string

	rule     *Rule
	elements map[ElementKey]struct{}
}

// Rule returns the rule owning s.
func (s *Selector) Rule() *Rule {
	return s.rule
}

// HasPseudoClass reports whether s carries a dynamic pseudo-class.
func (s *Selector) HasPseudoClass() bool {
	return s.PseudoClass != ""
}

// HasPseudoElement reports whether s addresses a pseudo-element.
func (s *Selector) HasPseudoElement() bool {
	return s.PseudoElement != ""
}

// AddElement records that s matched the element identified by key.
func (s *Selector) AddElement(key ElementKey) {
	s.Matched = true
	if s.elements == nil {
		s.elements = make(map[ElementKey]struct{})
	}
	if _, ok := s.elements[key]; ok {
		return
	}
	s.elements[key] = struct{}{}
	s.Elements = append(s.Elements, key)
}

// HasIgnored reports whether any declaration of s is ignored.
func (s *Selector) HasIgnored() bool {
	for _, d := range s.Declarations {
		if d.Ignored {
			return true
		}
	}
	return false
}

// EffectiveCount returns the number of effective declarations.
func (s *Selector) EffectiveCount() int {
	n := 0
	for _, d := range s.Declarations {
		if d.Effective {
			n++
		}
	}
	return n
}

// SameMedia reports whether s and other are nested in the same media queries.
func (s *Selector) SameMedia(other *Selector) bool {
	if len(s.Media) != len(other.Media) {
		return false
	}
	for i := range s.Media {
		if s.Media[i] != other.Media[i] {
			return false
		}
	}
	return true
}

func (s *Selector) String() string {
	if len(s.Media) == 0 {
		return s.Text
	}
	return "@media " + strings.Join(s.Media, " and ") + " { " + s.Text + " }"
}

// Rule represents a single CSS style rule with its selectors
type Rule struct {
	Location  Location
	Media     []string // enclosing media queries, outermost first
	Selectors []*Selector
}

// AddSelector appends s to r and sets its back-reference.
func (r *Rule) AddSelector(s *Selector) {
	s.rule = r
	s.Location = r.Location
	s.Index = len(r.Selectors)
	s.Media = r.Media
	r.Selectors = append(r.Selectors, s)
}

// MediaRule is an @media block owning nested rules.
type MediaRule struct {
	Location   Location
	Query      string
	Media      []string // enclosing queries including Query
	Rules      []*Rule
	MediaRules []*MediaRule
	Ignored    []*IgnoredRule // nested at-rules kept verbatim
}

// media returns the full query list of m, nil for the top level.
func (m *MediaRule) media() []string {
	if m == nil {
		return nil
	}
	return m.Media
}

// IgnoredRule is a construct kept only for faithful re-emission.
type IgnoredRule struct {
	Location Location
	Media    []string
	Text     string
}

// Stylesheet represents the complete parsed CSS of one source
type Stylesheet struct {
	Name       string
	Rules      []*Rule
	MediaRules []*MediaRule
	Ignored    []*IgnoredRule
}

// AllRules returns every style rule of the sheet, media-nested ones included,
// in source order.
func (s *Stylesheet) AllRules() []*Rule {
	rules := append([]*Rule(nil), s.Rules...)
	var walk func(mrs []*MediaRule)
	walk = func(mrs []*MediaRule) {
		for _, mr := range mrs {
			rules = append(rules, mr.Rules...)
			walk(mr.MediaRules)
		}
	}
	walk(s.MediaRules)
	sortRules(rules)
	return rules
}

// AllSelectors returns the selectors of every rule in source order.
func (s *Stylesheet) AllSelectors() []*Selector {
	var sels []*Selector
	for _, r := range s.AllRules() {
		sels = append(sels, r.Selectors...)
	}
	return sels
}

// Diagnostic is a recoverable problem found while processing a stylesheet.
type Diagnostic struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Source, d.Line, d.Column, d.Message)
}
