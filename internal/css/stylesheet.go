package css

import (
	"sort"
	"strings"
)

// Finding is one entry of an external validation report. A finding naming
// a property marks that declaration ignored; a finding without a property
// marks the selectors of the rule starting on Line ignored.
type Finding struct {
	Line     int
	Property string
	Message  string
}

// ApplyFindings marks the constructs named by findings as ignored and
// returns the number of declarations and selectors affected.
func ApplyFindings(sheet *Stylesheet, findings []Finding) int {
	if len(findings) == 0 {
		return 0
	}
	byLine := make(map[int][]Finding)
	for _, f := range findings {
		byLine[f.Line] = append(byLine[f.Line], f)
	}

	marked := 0
	for _, rule := range sheet.AllRules() {
		for _, f := range byLine[rule.Location.Line] {
			if f.Property != "" {
				continue
			}
			for _, sel := range rule.Selectors {
				if !sel.Ignored {
					sel.Ignored = true
					marked++
				}
			}
		}
		for _, sel := range rule.Selectors {
			for _, d := range sel.Declarations {
				for _, f := range byLine[d.Line] {
					if strings.EqualFold(f.Property, d.Name) && !d.Ignored {
						d.Ignored = true
						marked++
					}
				}
			}
		}
	}
	return marked
}

// PruneStats counts what Prune removed.
type PruneStats struct {
	Selectors  int
	Rules      int
	MediaRules int
}

// Prune drops dead selectors, rules left without selectors and media rules
// left empty. Media rules holding ignored at-rules are never empty. A selector is kept if it is ignored or keep reports true.
func (s *Stylesheet) Prune(keep func(*Selector) bool) PruneStats {
	var stats PruneStats
	s.Rules = pruneRules(s.Rules, keep, &stats)
	s.MediaRules = pruneMedia(s.MediaRules, keep, &stats)
	return stats
}

func pruneRules(in []*Rule, keep func(*Selector) bool, stats *PruneStats) []*Rule {
	out := in[:0]
	for _, r := range in {
		kept := r.Selectors[:0]
		for _, sel := range r.Selectors {
			if sel.Ignored || keep(sel) {
				kept = append(kept, sel)
				continue
			}
			stats.Selectors++
		}
		r.Selectors = kept
		if len(r.Selectors) == 0 {
			stats.Rules++
			continue
		}
		out = append(out, r)
	}
	return out
}

func pruneMedia(in []*MediaRule, keep func(*Selector) bool, stats *PruneStats) []*MediaRule {
	out := in[:0]
	for _, mr := range in {
		mr.Rules = pruneRules(mr.Rules, keep, stats)
		mr.MediaRules = pruneMedia(mr.MediaRules, keep, stats)
		if len(mr.Rules) == 0 && len(mr.MediaRules) == 0 && len(mr.Ignored) == 0 {
			stats.MediaRules++
			continue
		}
		out = append(out, mr)
	}
	return out
}

func sortRules(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Location.Before(rules[j].Location)
	})
}
