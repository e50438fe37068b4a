package matcher

import (
	"sort"
	"sync"

	"cssprune/internal/css"
)

// Entry is one selector that matched an element, together with the
// inclusion order of its stylesheet in the element's state.
type Entry struct {
	Order    int
	Selector *css.Selector
}

// Index maps every matched element of every state to the selectors that
// matched it. It lives for one analysis run.
type Index struct {
	mu      sync.Mutex
	keys    []css.ElementKey
	entries map[css.ElementKey][]Entry
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{entries: make(map[css.ElementKey][]Entry)}
}

// Add registers that sel, from the stylesheet included at position order,
// matched the element identified by key. Safe for concurrent use.
func (x *Index) Add(key css.ElementKey, order int, sel *css.Selector) {
	x.mu.Lock()
	defer x.mu.Unlock()

	list, seen := x.entries[key]
	if !seen {
		x.keys = append(x.keys, key)
	}
	for _, e := range list {
		if e.Selector == sel {
			return
		}
	}
	x.entries[key] = append(list, Entry{Order: order, Selector: sel})
}

// Keys returns the matched elements in registration order.
func (x *Index) Keys() []css.ElementKey {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]css.ElementKey(nil), x.keys...)
}

// Len returns the number of matched elements.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.keys)
}

// Cascade returns the selectors matching key, most significant first.
func (x *Index) Cascade(key css.ElementKey) []Entry {
	x.mu.Lock()
	list := append([]Entry(nil), x.entries[key]...)
	x.mu.Unlock()

	sort.SliceStable(list, func(i, j int) bool {
		return Precedes(list[i], list[j])
	})
	return list
}

// Precedes is the cascade comparator: higher specificity first, then the
// later included stylesheet, then the later source line, then the later
// position in the same line or rule.
func Precedes(a, b Entry) bool {
	if c := a.Selector.Specificity.Compare(b.Selector.Specificity); c != 0 {
		return c > 0
	}
	if a.Order != b.Order {
		return a.Order > b.Order
	}
	la, lb := a.Selector.Location, b.Selector.Location
	if la != lb {
		return lb.Before(la)
	}
	return a.Selector.Index > b.Selector.Index
}
