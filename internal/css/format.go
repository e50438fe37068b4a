package css

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xlab/treeprint"
)

// Format writes sheet back as CSS text, ordering top-level constructs by
// their original location.
func Format(w io.Writer, sheet *Stylesheet) error {
	for _, item := range topLevel(sheet.Rules, sheet.MediaRules, sheet.Ignored, nil) {
		if _, err := io.WriteString(w, item.text("")); err != nil {
			return fmt.Errorf("failed to write %s: %w", sheet.Name, err)
		}
	}
	return nil
}

// FormatRule converts a CSS rule back to CSS text. Mixins a selector
// includes are written as SCSS @include lines ahead of its declarations.
func FormatRule(rule *Rule, indent string) string {
	var b strings.Builder
	for _, sel := range rule.Selectors {
		b.WriteString(indent)
		b.WriteString(sel.Text)
		b.WriteString(" {\n")
		for _, name := range sel.Includes {
			fmt.Fprintf(&b, "%s  @include %s;\n", indent, name)
		}
		for _, d := range sel.Declarations {
			fmt.Fprintf(&b, "%s  %s;\n", indent, d)
		}
		b.WriteString(indent)
		b.WriteString("}\n")
	}
	return b.String()
}

type emitted struct {
	loc   Location
	rule  *Rule
	media *MediaRule
	raw   *IgnoredRule
}

func (e emitted) text(indent string) string {
	switch {
	case e.rule != nil:
		return FormatRule(e.rule, indent)
	case e.media != nil:
		var b strings.Builder
		fmt.Fprintf(&b, "%s@media %s {\n", indent, e.media.Query)
		for _, item := range topLevel(e.media.Rules, e.media.MediaRules, e.media.Ignored, nil) {
			b.WriteString(item.text(indent + "  "))
		}
		b.WriteString(indent)
		b.WriteString("}\n")
		return b.String()
	}
	return indent + e.raw.Text + "\n"
}

func topLevel(rules []*Rule, media []*MediaRule, ignored []*IgnoredRule, out []emitted) []emitted {
	for _, r := range rules {
		out = append(out, emitted{loc: r.Location, rule: r})
	}
	for _, mr := range media {
		out = append(out, emitted{loc: mr.Location, media: mr})
	}
	for _, ir := range ignored {
		out = append(out, emitted{loc: ir.Location, raw: ir})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].loc.Before(out[j].loc)
	})
	return out
}

// Tree renders the rule structure of sheet for debugging.
func Tree(sheet *Stylesheet) string {
	root := treeprint.NewWithRoot(sheet.Name)
	addRules(root, sheet.Rules)
	addMedia(root, sheet.MediaRules)
	if len(sheet.Ignored) > 0 {
		ign := root.AddBranch("ignored")
		for _, ir := range sheet.Ignored {
			ign.AddMetaNode(ir.Location.String(), firstLine(ir.Text))
		}
	}
	return root.String()
}

func addRules(branch treeprint.Tree, rules []*Rule) {
	for _, r := range rules {
		for _, sel := range r.Selectors {
			meta := fmt.Sprintf("%s %s", r.Location, sel.Specificity)
			if sel.Ignored {
				meta += " ignored"
			}
			sb := branch.AddMetaBranch(meta, sel.Text)
			for _, d := range sel.Declarations {
				sb.AddNode(d.String())
			}
		}
	}
}

func addMedia(branch treeprint.Tree, media []*MediaRule) {
	for _, mr := range media {
		mb := branch.AddMetaBranch(mr.Location.String(), "@media "+mr.Query)
		addRules(mb, mr.Rules)
		addMedia(mb, mr.MediaRules)
		for _, ir := range mr.Ignored {
			mb.AddMetaNode(ir.Location.String(), firstLine(ir.Text))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
