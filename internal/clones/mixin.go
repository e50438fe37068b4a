// Package clones finds declaration groups repeated across selectors and
// factors them into mixins using frequent pattern growth.
package clones

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"cssprune/internal/css"
)

// MinSupport is the number of selectors that must share a declaration set.
const MinSupport = 2

// Mixin is a set of declarations shared by several selectors.
type Mixin struct {
	Name         string
	Declarations []*css.Declaration
	Selectors    []*css.Selector
}

// Options controls mining.
type Options struct {
	// MinDeclarations is the smallest itemset worth a mixin.
	MinDeclarations int
	Logger          *slog.Logger
}

// Mine repeatedly extracts the heaviest declaration set shared by at least
// two selectors into a mixin, removing the captured declarations from their
// selectors and recording the mixin in their Includes, until no shared set
// is left. Ignored selectors and ignored
// declarations never take part.
func Mine(selectors []*css.Selector, opts Options) []*Mixin {
	if opts.MinDeclarations < 1 {
		opts.MinDeclarations = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var mixins []*Mixin
	for {
		transactions, owners := itemsets(selectors)
		if len(transactions) < MinSupport {
			break
		}
		found := FPMax(transactions, MinSupport)
		best, ok := heaviest(found, opts.MinDeclarations)
		if !ok {
			break
		}
		mixin := extract(best, owners)
		if len(mixin.Selectors) < MinSupport {
			break
		}
		mixin.Name = fmt.Sprintf("mixin-%d", len(mixins)+1)
		for _, sel := range mixin.Selectors {
			sel.Includes = append(sel.Includes, mixin.Name)
		}
		mixins = append(mixins, mixin)
		logger.Debug("mixin extracted", "mixin", mixin.Name,
			"declarations", len(mixin.Declarations), "selectors", len(mixin.Selectors))
	}
	return mixins
}

// owner is a selector taking part in mining with its declarations by key.
type owner struct {
	selector *css.Selector
	items    map[string]bool
}

// itemsets builds one transaction per selector holding the declaration keys
// that occur in at least two selectors.
func itemsets(selectors []*css.Selector) ([][]string, []owner) {
	support := make(map[string]int)
	var owners []owner
	for _, sel := range selectors {
		if sel.Ignored {
			continue
		}
		items := make(map[string]bool)
		for _, d := range sel.Declarations {
			if !d.Ignored {
				items[d.Key()] = true
			}
		}
		for k := range items {
			support[k]++
		}
		owners = append(owners, owner{selector: sel, items: items})
	}

	var transactions [][]string
	var kept []owner
	for _, o := range owners {
		var tx []string
		for k := range o.items {
			if support[k] >= MinSupport {
				tx = append(tx, k)
			}
		}
		if len(tx) == 0 {
			continue
		}
		sort.Strings(tx)
		transactions = append(transactions, tx)
		kept = append(kept, o)
	}
	return transactions, kept
}

// heaviest picks the itemset with the largest declaration byte weight.
// Ties prefer more supporting selectors, then the lexically smaller set.
func heaviest(found map[int][]Itemset, minSize int) (Itemset, bool) {
	var best Itemset
	bestWeight := -1
	for size, sets := range found {
		if size < minSize {
			continue
		}
		for _, set := range sets {
			w := weight(set.Items)
			switch {
			case w > bestWeight,
				w == bestWeight && set.Support > best.Support,
				w == bestWeight && set.Support == best.Support && key(set.Items) < key(best.Items):
				best, bestWeight = set, w
			}
		}
	}
	return best, bestWeight >= 0
}

func weight(items []string) int {
	w := 0
	for _, it := range items {
		w += len(it)
	}
	return w
}

// extract materializes set as a mixin and removes its declarations from
// every selector containing the whole set.
func extract(set Itemset, owners []owner) *Mixin {
	mixin := &Mixin{}
	wanted := make(map[string]bool, len(set.Items))
	for _, it := range set.Items {
		wanted[it] = true
	}
	for _, o := range owners {
		if !containsAll(o.items, set.Items) {
			continue
		}
		mixin.Selectors = append(mixin.Selectors, o.selector)
		kept := o.selector.Declarations[:0]
		for _, d := range o.selector.Declarations {
			if d.Ignored || !wanted[d.Key()] {
				kept = append(kept, d)
				continue
			}
			if len(mixin.Declarations) < len(set.Items) && !hasKey(mixin.Declarations, d.Key()) {
				mixin.Declarations = append(mixin.Declarations, d.Clone())
			}
		}
		o.selector.Declarations = kept
	}
	sort.SliceStable(mixin.Declarations, func(i, j int) bool {
		return mixin.Declarations[i].Order < mixin.Declarations[j].Order
	})
	return mixin
}

func containsAll(items map[string]bool, set []string) bool {
	for _, it := range set {
		if !items[it] {
			return false
		}
	}
	return true
}

func hasKey(decls []*css.Declaration, k string) bool {
	for _, d := range decls {
		if d.Key() == k {
			return true
		}
	}
	return false
}

// FormatMixins writes the mixin definitions in SCSS syntax. Selectors
// reference them through their Includes.
func FormatMixins(w io.Writer, mixins []*Mixin) error {
	var b strings.Builder
	for _, m := range mixins {
		fmt.Fprintf(&b, "@mixin %s {\n", m.Name)
		for _, d := range m.Declarations {
			fmt.Fprintf(&b, "  %s;\n", d)
		}
		b.WriteString("}\n")
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write mixins: %w", err)
	}
	return nil
}
