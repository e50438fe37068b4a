package shorthand

import (
	"errors"
	"fmt"
	"strings"

	"cssprune/internal/css"
)

// family is the closed set of shorthand kinds that can be folded back.
type family int

const (
	familyBox        family = iota // margin, padding
	familyBorder                   // border
	familySide                     // border-top, border-right, …
	familyOutline                  // outline
	familyBackground               // background
)

func familyOf(shorthand string) family {
	switch {
	case shorthand == "border":
		return familyBorder
	case strings.HasPrefix(shorthand, "border-"):
		return familySide
	case shorthand == "outline":
		return familyOutline
	case shorthand == "background":
		return familyBackground
	}
	return familyBox
}

// errImportance signals longhands of one shorthand that disagree on
// !important.
var errImportance = errors.New("parts disagree on !important")

// merger accumulates the surviving longhands of one split shorthand and
// emits the most compact equivalent encoding.
type merger struct {
	family    family
	shorthand string
	parts     []*css.Declaration
	values    map[string]string // longhand name -> value
}

func newMerger(shorthand string) *merger {
	return &merger{
		family:    familyOf(shorthand),
		shorthand: shorthand,
		values:    make(map[string]string),
	}
}

// accumulate adds one longhand. A repeated longhand makes the group
// ambiguous.
func (m *merger) accumulate(d *css.Declaration) error {
	if _, dup := m.values[d.Name]; dup {
		return fmt.Errorf("%s appears twice", d.Name)
	}
	if len(m.parts) > 0 && m.parts[0].Important != d.Important {
		return errImportance
	}
	m.values[d.Name] = d.Value
	m.parts = append(m.parts, d)
	return nil
}

// emit returns the merged declarations and the longhands that stay as
// they are.
func (m *merger) emit() (merged, kept []*css.Declaration) {
	switch m.family {
	case familyBox:
		return m.emitBox()
	case familyBorder:
		return m.emitBorder()
	case familyBackground:
		return m.emitBackground()
	}
	value, used := m.joinParts(m.shorthand)
	return m.build(m.shorthand, value, used)
}

func (m *merger) emitBox() ([]*css.Declaration, []*css.Declaration) {
	var vals [4]string
	for i, side := range sides {
		v, ok := m.values[m.shorthand+"-"+side]
		if !ok {
			return nil, m.parts
		}
		vals[i] = v
	}
	return m.build(m.shorthand, CompressBox(vals[0], vals[1], vals[2], vals[3]), m.parts)
}

// emitBorder folds into one border shorthand when every present part is
// present and equal on all four sides, else into per-side shorthands.
func (m *merger) emitBorder() ([]*css.Declaration, []*css.Declaration) {
	uniform := true
	var fields []string
	for _, part := range borderParts {
		count := 0
		var first string
		for _, side := range sides {
			v, ok := m.values["border-"+side+"-"+part]
			if !ok {
				continue
			}
			if count == 0 {
				first = v
			} else if v != first {
				uniform = false
			}
			count++
		}
		if count != 0 && count != len(sides) {
			uniform = false
		}
		if count == len(sides) {
			fields = append(fields, first)
		}
	}
	if uniform && len(fields) > 0 {
		return m.build("border", strings.Join(fields, " "), m.parts)
	}

	var merged []*css.Declaration
	for _, side := range sides {
		name := "border-" + side
		value, used := m.joinParts(name)
		if len(used) == 0 {
			continue
		}
		out, _ := m.build(name, value, used)
		merged = append(merged, out...)
	}
	return merged, nil
}

// joinParts joins the width, style and color longhands of prefix.
func (m *merger) joinParts(prefix string) (string, []*css.Declaration) {
	var fields []string
	var used []*css.Declaration
	for _, part := range borderParts {
		name := prefix + "-" + part
		if v, ok := m.values[name]; ok {
			fields = append(fields, v)
			used = append(used, m.part(name))
		}
	}
	return strings.Join(fields, " "), used
}

func (m *merger) emitBackground() ([]*css.Declaration, []*css.Declaration) {
	var fields, kept []*css.Declaration
	var values []string
	take := func(name string) {
		if v, ok := m.values["background-"+name]; ok {
			values = append(values, v)
			fields = append(fields, m.part("background-"+name))
		}
	}
	take("color")
	take("image")
	take("repeat")
	take("attachment")
	if pos, ok := m.values["background-position"]; ok {
		values = append(values, pos)
		fields = append(fields, m.part("background-position"))
		if size, ok := m.values["background-size"]; ok {
			values = append(values, "/", size)
			fields = append(fields, m.part("background-size"))
		}
	} else if _, ok := m.values["background-size"]; ok {
		kept = append(kept, m.part("background-size"))
	}

	origin, hasOrigin := m.values["background-origin"]
	clip, hasClip := m.values["background-clip"]
	switch {
	case hasOrigin && hasClip && origin == clip:
		values = append(values, origin)
		fields = append(fields, m.part("background-origin"), m.part("background-clip"))
	case hasOrigin && hasClip:
		values = append(values, origin, clip)
		fields = append(fields, m.part("background-origin"), m.part("background-clip"))
	case hasOrigin:
		kept = append(kept, m.part("background-origin"))
	case hasClip:
		kept = append(kept, m.part("background-clip"))
	}
	if len(fields) == 0 {
		return nil, kept
	}
	merged, _ := m.build("background", strings.Join(values, " "), fields)
	return merged, kept
}

func (m *merger) part(name string) *css.Declaration {
	for _, d := range m.parts {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// build creates one shorthand declaration standing for parts. It keeps the
// smallest order and line among them.
func (m *merger) build(name, value string, parts []*css.Declaration) ([]*css.Declaration, []*css.Declaration) {
	if len(parts) == 0 {
		return nil, nil
	}
	d := &css.Declaration{
		Name:      name,
		Value:     value,
		Important: parts[0].Important,
		Order:     parts[0].Order,
		Line:      parts[0].Line,
	}
	for _, p := range parts {
		d.Effective = d.Effective || p.Effective
		if p.Order < d.Order {
			d.Order = p.Order
		}
		if p.Line < d.Line {
			d.Line = p.Line
		}
	}
	return []*css.Declaration{d}, nil
}

// CompressBox returns the shortest top/right/bottom/left encoding.
func CompressBox(top, right, bottom, left string) string {
	switch {
	case top == right && right == bottom && bottom == left:
		return top
	case top == bottom && right == left:
		return top + " " + right
	case right == left:
		return top + " " + right + " " + bottom
	}
	return top + " " + right + " " + bottom + " " + left
}

// groupKey identifies the longhands produced by one shorthand declaration.
type groupKey struct {
	shorthand string
	order     int
}

// Merge folds the surviving split longhands of every selector back into
// shorthands. Groups that cannot be folded stay longhand; nothing is lost
// or duplicated.
func Merge(sheets []*css.Stylesheet) (Stats, []css.Diagnostic) {
	var stats Stats
	var diagnostics []css.Diagnostic
	for _, sheet := range sheets {
		for _, sel := range sheet.AllSelectors() {
			s, errs := MergeSelector(sel)
			stats.Merged += s.Merged
			stats.Kept += s.Kept
			for _, err := range errs {
				diagnostics = append(diagnostics, css.Diagnostic{
					Source:  sheet.Name,
					Line:    sel.Location.Line,
					Column:  sel.Location.Column,
					Message: fmt.Sprintf("%s: %v", sel.Text, err),
				})
			}
		}
	}
	return stats, diagnostics
}

// MergeSelector merges the split longhands of one selector in place.
func MergeSelector(sel *css.Selector) (Stats, []error) {
	var stats Stats
	var errs []error
	groups := make(map[groupKey]*merger)
	broken := make(map[groupKey]bool)
	for _, d := range sel.Declarations {
		if d.Shorthand == "" || d.Ignored {
			continue
		}
		key := groupKey{d.Shorthand, d.Order}
		if broken[key] {
			continue
		}
		m, ok := groups[key]
		if !ok {
			m = newMerger(d.Shorthand)
			groups[key] = m
		}
		if err := m.accumulate(d); err != nil {
			errs = append(errs, fmt.Errorf("not merging %s: %w", d.Shorthand, err))
			broken[key] = true
			delete(groups, key)
		}
	}
	if len(groups) == 0 {
		return stats, errs
	}

	replaced := make(map[*css.Declaration][]*css.Declaration)
	consumed := make(map[*css.Declaration]bool)
	for _, m := range groups {
		merged, kept := m.emit()
		keep := make(map[*css.Declaration]bool, len(kept))
		for _, d := range kept {
			keep[d] = true
		}
		stats.Merged += len(merged)
		stats.Kept += len(kept)
		first := true
		for _, d := range m.parts {
			if keep[d] {
				continue
			}
			consumed[d] = true
			if first {
				replaced[d] = merged
				first = false
			}
		}
	}

	out := make([]*css.Declaration, 0, len(sel.Declarations))
	for _, d := range sel.Declarations {
		if merged, ok := replaced[d]; ok {
			out = append(out, merged...)
			continue
		}
		if consumed[d] {
			continue
		}
		out = append(out, d)
	}
	sel.Declarations = out
	return stats, errs
}
