// Package shorthand expands shorthand declarations into longhands before
// cascade resolution and folds surviving longhands back afterwards.
package shorthand

import (
	"errors"
	"fmt"
	"strings"

	"cssprune/internal/css"
)

// Stats counts split and merge work.
type Stats struct {
	Split  int // shorthand declarations expanded
	Parts  int // longhand declarations produced by splitting
	Merged int // shorthand declarations produced by merging
	Kept   int // split longhands left as longhand by merging
}

var sides = []string{"top", "right", "bottom", "left"}

var borderParts = []string{"width", "style", "color"}

// ErrNotSplittable is returned for values that do not decompose into the
// expected parts.
var ErrNotSplittable = errors.New("value does not decompose")

// Splittable reports whether name is a shorthand this package expands.
func Splittable(name string) bool {
	switch name {
	case "margin", "padding", "border", "outline", "background",
		"border-top", "border-right", "border-bottom", "border-left":
		return true
	}
	return false
}

// Split expands the splittable shorthands of every analyzable selector.
// A shorthand whose value does not decompose is left untouched and
// reported.
func Split(sheets []*css.Stylesheet) (Stats, []css.Diagnostic) {
	var stats Stats
	var diagnostics []css.Diagnostic
	for _, sheet := range sheets {
		for _, sel := range sheet.AllSelectors() {
			if sel.Ignored {
				continue
			}
			out := make([]*css.Declaration, 0, len(sel.Declarations))
			for _, d := range sel.Declarations {
				if d.Ignored || !Splittable(d.Name) {
					out = append(out, d)
					continue
				}
				parts, err := SplitDeclaration(d)
				if err != nil {
					diagnostics = append(diagnostics, css.Diagnostic{
						Source:  sheet.Name,
						Line:    d.Line,
						Message: fmt.Sprintf("%s: keeping shorthand: %v", sel.Text, err),
					})
					out = append(out, d)
					continue
				}
				stats.Split++
				stats.Parts += len(parts)
				out = append(out, parts...)
			}
			sel.Declarations = out
		}
	}
	return stats, diagnostics
}

// SplitDeclaration expands one shorthand declaration into longhands that
// inherit its importance, order and line.
func SplitDeclaration(d *css.Declaration) ([]*css.Declaration, error) {
	fields := Fields(d.Value)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: empty value: %w", d.Name, ErrNotSplittable)
	}
	if global(d.Value) {
		return nil, fmt.Errorf("%s: %q applies to every longhand: %w", d.Name, d.Value, ErrNotSplittable)
	}

	var pairs [][2]string
	var err error
	switch {
	case d.Name == "margin" || d.Name == "padding":
		pairs, err = splitBox(d.Name, fields)
	case d.Name == "border":
		var parts map[string]string
		parts, err = borderValues(fields)
		for _, side := range sides {
			for _, part := range borderParts {
				if v, ok := parts[part]; ok {
					pairs = append(pairs, [2]string{"border-" + side + "-" + part, v})
				}
			}
		}
	case d.Name == "outline" || strings.HasPrefix(d.Name, "border-"):
		var parts map[string]string
		parts, err = borderValues(fields)
		for _, part := range borderParts {
			if v, ok := parts[part]; ok {
				pairs = append(pairs, [2]string{d.Name + "-" + part, v})
			}
		}
	case d.Name == "background":
		pairs, err = splitBackground(fields)
	default:
		err = ErrNotSplittable
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %q: %w", d.Name, d.Value, err)
	}

	parts := make([]*css.Declaration, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, &css.Declaration{
			Name:      p[0],
			Value:     p[1],
			Important: d.Important,
			Order:     d.Order,
			Line:      d.Line,
			Shorthand: d.Name,
		})
	}
	return parts, nil
}

func global(value string) bool {
	switch strings.ToLower(value) {
	case "inherit", "initial", "unset", "revert", "revert-layer":
		return true
	}
	return strings.Contains(strings.ToLower(value), "var(")
}

func splitBox(name string, fields []string) ([][2]string, error) {
	for _, f := range fields {
		if f == "," || f == "/" {
			return nil, ErrNotSplittable
		}
	}
	var t, r, b, l string
	switch len(fields) {
	case 1:
		t, r, b, l = fields[0], fields[0], fields[0], fields[0]
	case 2:
		t, r, b, l = fields[0], fields[1], fields[0], fields[1]
	case 3:
		t, r, b, l = fields[0], fields[1], fields[2], fields[1]
	case 4:
		t, r, b, l = fields[0], fields[1], fields[2], fields[3]
	default:
		return nil, fmt.Errorf("%d values: %w", len(fields), ErrNotSplittable)
	}
	return [][2]string{
		{name + "-top", t},
		{name + "-right", r},
		{name + "-bottom", b},
		{name + "-left", l},
	}, nil
}

// borderValues classifies up to three fields into width, style and color.
func borderValues(fields []string) (map[string]string, error) {
	if len(fields) > 3 {
		return nil, fmt.Errorf("%d values: %w", len(fields), ErrNotSplittable)
	}
	parts := make(map[string]string, 3)
	for _, f := range fields {
		part := "color"
		switch {
		case f == "," || f == "/":
			return nil, ErrNotSplittable
		case borderStyles[strings.ToLower(f)]:
			part = "style"
		case isLength(f):
			part = "width"
		}
		if _, dup := parts[part]; dup {
			return nil, fmt.Errorf("two %s values: %w", part, ErrNotSplittable)
		}
		parts[part] = f
	}
	return parts, nil
}

func splitBackground(fields []string) ([][2]string, error) {
	var color, image, attachment string
	var repeat, position, size, boxes []string
	afterSlash := false
	for _, f := range fields {
		lower := strings.ToLower(f)
		switch {
		case f == ",":
			return nil, fmt.Errorf("multiple layers: %w", ErrNotSplittable)
		case f == "/":
			if len(position) == 0 || afterSlash {
				return nil, ErrNotSplittable
			}
			afterSlash = true
		case afterSlash && len(size) < 2 && (isLength(f) || lower == "auto" || lower == "cover" || lower == "contain"):
			size = append(size, f)
		case image == "" && isImage(f):
			image = f
		case backgroundRepeats[lower] && len(repeat) < 2:
			repeat = append(repeat, f)
		case attachment == "" && backgroundAttachments[lower]:
			attachment = f
		case backgroundBoxes[lower] && len(boxes) < 2:
			boxes = append(boxes, f)
		case !afterSlash && len(position) < 4 && isPosition(f):
			position = append(position, f)
		case color == "":
			color = f
		default:
			return nil, fmt.Errorf("unexpected %q: %w", f, ErrNotSplittable)
		}
		if afterSlash && f != "/" && len(size) == 0 {
			return nil, fmt.Errorf("missing size after '/': %w", ErrNotSplittable)
		}
	}
	if afterSlash && len(size) == 0 {
		return nil, fmt.Errorf("missing size after '/': %w", ErrNotSplittable)
	}

	var pairs [][2]string
	add := func(name, value string) {
		if value != "" {
			pairs = append(pairs, [2]string{"background-" + name, value})
		}
	}
	add("color", color)
	add("image", image)
	add("position", strings.Join(position, " "))
	add("size", strings.Join(size, " "))
	add("repeat", strings.Join(repeat, " "))
	add("attachment", attachment)
	switch len(boxes) {
	case 1:
		add("origin", boxes[0])
		add("clip", boxes[0])
	case 2:
		add("origin", boxes[0])
		add("clip", boxes[1])
	}
	return pairs, nil
}
