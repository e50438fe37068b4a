package clones

import "sort"

// Itemset is a frequent set of items with its support.
type Itemset struct {
	Items   []string
	Support int
}

// fpNode is a node of a frequent-pattern prefix tree.
type fpNode struct {
	item     string
	count    int
	parent   *fpNode
	children map[string]*fpNode
	next     *fpNode // next node carrying the same item
}

// fpTree is a prefix tree with its header table.
type fpTree struct {
	root   *fpNode
	heads  map[string]*fpNode
	counts map[string]int
	rank   map[string]int // global item order shared by conditional trees
	order  []string       // header items in rank order
}

// weighted is a transaction (or conditional pattern) with a multiplicity.
type weighted struct {
	items []string
	count int
}

// buildTree builds the prefix tree of the items reaching minSupport. A nil
// rank orders items by descending frequency, then lexically.
func buildTree(transactions []weighted, minSupport int, rank map[string]int) *fpTree {
	counts := make(map[string]int)
	for _, t := range transactions {
		for _, item := range t.items {
			counts[item] += t.count
		}
	}
	tree := &fpTree{
		root:   &fpNode{children: make(map[string]*fpNode)},
		heads:  make(map[string]*fpNode),
		counts: make(map[string]int),
	}
	for item, c := range counts {
		if c >= minSupport {
			tree.counts[item] = c
			tree.order = append(tree.order, item)
		}
	}
	if rank == nil {
		sort.Slice(tree.order, func(i, j int) bool {
			a, b := tree.order[i], tree.order[j]
			if tree.counts[a] != tree.counts[b] {
				return tree.counts[a] > tree.counts[b]
			}
			return a < b
		})
		rank = make(map[string]int, len(tree.order))
		for i, item := range tree.order {
			rank[item] = i
		}
	}
	tree.rank = rank
	sort.Slice(tree.order, func(i, j int) bool {
		return tree.less(tree.order[i], tree.order[j])
	})

	for _, t := range transactions {
		items := make([]string, 0, len(t.items))
		for _, item := range t.items {
			if _, ok := tree.counts[item]; ok {
				items = append(items, item)
			}
		}
		sort.Slice(items, func(i, j int) bool {
			return tree.less(items[i], items[j])
		})
		tree.insert(items, t.count)
	}
	return tree
}

func (t *fpTree) less(a, b string) bool {
	return t.rank[a] < t.rank[b]
}

func (t *fpTree) insert(items []string, count int) {
	node := t.root
	for _, item := range items {
		child, ok := node.children[item]
		if !ok {
			child = &fpNode{
				item:     item,
				parent:   node,
				children: make(map[string]*fpNode),
				next:     t.heads[item],
			}
			t.heads[item] = child
			node.children[item] = child
		}
		child.count += count
		node = child
	}
}

// FPMax returns the maximal itemsets contained in at least minSupport
// transactions, grouped by itemset size. Every frequent itemset is a subset
// of one of them.
func FPMax(transactions [][]string, minSupport int) map[int][]Itemset {
	weightedTx := make([]weighted, 0, len(transactions))
	for _, t := range transactions {
		weightedTx = append(weightedTx, weighted{items: t, count: 1})
	}
	var maximal []maximalSet
	mine(buildTree(weightedTx, minSupport, nil), nil, minSupport, &maximal)

	result := make(map[int][]Itemset)
	for _, m := range maximal {
		result[len(m.Items)] = append(result[len(m.Items)], m.Itemset)
	}
	for size := range result {
		sets := result[size]
		sort.Slice(sets, func(i, j int) bool {
			return key(sets[i].Items) < key(sets[j].Items)
		})
	}
	return result
}

type maximalSet struct {
	Itemset
	members map[string]bool
}

// mine walks the header table from the last ranked item. A conditional
// tree that is a single path yields one candidate, the suffix extended by
// the whole path; other trees are mined recursively. Conditional trees keep
// the global rank, so no candidate found later contains one found earlier
// and a subset test against the earlier ones decides maximality.
func mine(tree *fpTree, suffix []string, minSupport int, maximal *[]maximalSet) {
	for i := len(tree.order) - 1; i >= 0; i-- {
		item := tree.order[i]
		head := append(append([]string(nil), suffix...), item)

		var base []weighted
		for node := tree.heads[item]; node != nil; node = node.next {
			var path []string
			for p := node.parent; p != nil && p.parent != nil; p = p.parent {
				path = append(path, p.item)
			}
			if len(path) > 0 {
				base = append(base, weighted{items: path, count: node.count})
			}
		}
		conditional := buildTree(base, minSupport, tree.rank)
		if subsumed(append(append([]string(nil), head...), conditional.order...), *maximal) {
			continue
		}

		path, support, single := conditional.singlePath()
		if !single {
			mine(conditional, head, minSupport, maximal)
			continue
		}
		if len(path) == 0 {
			support = tree.counts[item]
		}
		items := append(head, path...)
		sort.Strings(items)
		members := make(map[string]bool, len(items))
		for _, it := range items {
			members[it] = true
		}
		*maximal = append(*maximal, maximalSet{
			Itemset: Itemset{Items: items, Support: support},
			members: members,
		})
	}
}

// singlePath returns the items of t when it has no branches, with the
// count of the deepest node.
func (t *fpTree) singlePath() ([]string, int, bool) {
	var items []string
	count := 0
	for node := t.root; len(node.children) > 0; {
		if len(node.children) > 1 {
			return nil, 0, false
		}
		for _, child := range node.children {
			node = child
		}
		items = append(items, node.item)
		count = node.count
	}
	return items, count, true
}

func subsumed(items []string, maximal []maximalSet) bool {
	for _, m := range maximal {
		if len(m.members) < len(items) {
			continue
		}
		all := true
		for _, it := range items {
			if !m.members[it] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func key(items []string) string {
	n := 0
	for _, it := range items {
		n += len(it) + 1
	}
	b := make([]byte, 0, n)
	for _, it := range items {
		b = append(b, it...)
		b = append(b, 0)
	}
	return string(b)
}
