package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	"cssprune/internal/css"
	"cssprune/internal/matcher"
)

// Resolver approximates the browser cascade for every matched element and
// marks each declaration effective or overridden.
type Resolver struct {
	logger *slog.Logger
}

// New creates a new cascade resolver. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Stats describes one Resolve or Prune run.
type Stats struct {
	Elements     int // matched elements visited
	Cascades     int // distinct selector sets resolved
	Memoized     int // elements whose selector set was already resolved
	Declarations int // ineffective declarations removed
	Selectors    int // dead selectors removed
	Rules        int // rules left without selectors
	MediaRules   int // media rules left empty
}

// mark is the per-pass state of a declaration.
type mark int

const (
	markUnknown mark = iota
	markEffective
	markOverridden
)

// compareMode selects how a more significant declaration overrides a less
// significant one of the same name.
type compareMode int

const (
	compareDefault compareMode = iota // name match is enough
	compareMedia                      // unconditional vs. media-scoped
	comparePseudo                     // different dynamic pseudo-classes: name and value
)

// Resolve runs the cascade for every element of idx. Elements matched by
// an identical, identically ordered selector list share one resolution.
func (r *Resolver) Resolve(idx *matcher.Index) Stats {
	var stats Stats
	resolved := make(map[string]bool)
	for _, key := range idx.Keys() {
		stats.Elements++
		cascade := idx.Cascade(key)
		sig := signature(cascade)
		if resolved[sig] {
			stats.Memoized++
			continue
		}
		resolved[sig] = true
		stats.Cascades++
		r.resolveElement(cascade)
	}
	r.logger.Debug("cascade resolved", "elements", stats.Elements,
		"cascades", stats.Cascades, "memoized", stats.Memoized)
	return stats
}

// ResolveCascade resolves one cascade-ordered selector list.
func (r *Resolver) ResolveCascade(cascade []matcher.Entry) {
	r.resolveElement(cascade)
}

func signature(cascade []matcher.Entry) string {
	var b strings.Builder
	for _, e := range cascade {
		fmt.Fprintf(&b, "%p/%d;", e.Selector, e.Order)
	}
	return b.String()
}

func (r *Resolver) resolveElement(cascade []matcher.Entry) {
	marks := make(map[*css.Declaration]mark)
	for i, ei := range cascade {
		si := ei.Selector
		shadowWithin(si, marks)
		for _, d := range si.Declarations {
			if d.Ignored || marks[d] == markOverridden {
				continue
			}
			alreadyEffective := d.Effective
			d.Effective = true
			marks[d] = markEffective

		lower:
			for _, ej := range cascade[i+1:] {
				sj := ej.Selector
				mode, comparable := modeFor(si, sj)
				if !comparable {
					continue
				}
				for _, dj := range sj.Declarations {
					if dj.Ignored || dj.Name != d.Name {
						continue
					}
					switch mode {
					case compareMedia:
						if !dj.Important || d.Important {
							marks[dj] = markOverridden
						}
					case comparePseudo:
						if dj.Value != d.Value {
							continue
						}
						if !override(d, dj, alreadyEffective, marks) {
							break lower
						}
					default:
						if !override(d, dj, alreadyEffective, marks) {
							break lower
						}
					}
				}
			}
		}
	}
}

// shadowWithin resolves repeated properties inside one declaration block:
// the later one wins unless only the earlier one is !important.
func shadowWithin(sel *css.Selector, marks map[*css.Declaration]mark) {
	for i, d := range sel.Declarations {
		if d.Ignored {
			continue
		}
		for _, later := range sel.Declarations[i+1:] {
			if later.Ignored || later.Name != d.Name {
				continue
			}
			if d.Important && !later.Important {
				marks[later] = markOverridden
				continue
			}
			marks[d] = markOverridden
		}
	}
}

// override applies the same-context rule: dj loses to d unless dj is
// !important and d is neither !important nor confirmed effective elsewhere.
// It returns false when d itself was downgraded.
func override(d, dj *css.Declaration, alreadyEffective bool, marks map[*css.Declaration]mark) bool {
	if dj.Important && !alreadyEffective && !d.Important {
		d.Effective = false
		marks[d] = markOverridden
		return false
	}
	marks[dj] = markOverridden
	return true
}

// modeFor decides whether sj can be overridden by the more significant si
// and which comparison applies.
func modeFor(si, sj *css.Selector) (compareMode, bool) {
	iMedia, jMedia := len(si.Media) > 0, len(sj.Media) > 0
	mode := compareDefault
	switch {
	case iMedia && !jMedia:
		return mode, false
	case iMedia && jMedia && !si.SameMedia(sj):
		return mode, false
	case !iMedia && jMedia:
		mode = compareMedia
	}

	if (si.HasPseudoElement() || sj.HasPseudoElement()) && si.PseudoElement != sj.PseudoElement {
		return mode, false
	}
	if mode == compareDefault && (si.HasPseudoClass() || sj.HasPseudoClass()) && si.PseudoClass != sj.PseudoClass {
		mode = comparePseudo
	}
	return mode, true
}

// Prune removes ineffective declarations and dead selectors, then rules and
// media rules left empty. A selector survives when it has at least one
// effective or ignored declaration, or when it matched only the document
// itself and was never resolved; only surviving selectors lose their
// ineffective declarations. Ignored declarations and selectors are always
// kept.
func (r *Resolver) Prune(sheets []*css.Stylesheet) Stats {
	var stats Stats
	for _, sheet := range sheets {
		ps := sheet.Prune(func(sel *css.Selector) bool {
			if sel.Matched && len(sel.Elements) == 0 {
				return true
			}
			if sel.EffectiveCount() == 0 && !sel.HasIgnored() {
				return false
			}
			kept := sel.Declarations[:0]
			for _, d := range sel.Declarations {
				if d.Effective || d.Ignored {
					kept = append(kept, d)
					continue
				}
				stats.Declarations++
			}
			sel.Declarations = kept
			return true
		})
		stats.Selectors += ps.Selectors
		stats.Rules += ps.Rules
		stats.MediaRules += ps.MediaRules
	}
	r.logger.Debug("stylesheets pruned", "declarations", stats.Declarations,
		"selectors", stats.Selectors, "rules", stats.Rules, "media_rules", stats.MediaRules)
	return stats
}
