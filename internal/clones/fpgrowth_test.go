package clones

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFPMax(t *testing.T) {
	tests := []struct {
		name         string
		transactions [][]string
		want         map[int][]Itemset
	}{
		{
			name: "branching tree",
			transactions: [][]string{
				{"a", "b", "c"},
				{"a", "b"},
				{"a", "c", "d"},
				{"b", "c"},
				{"a", "b", "c"},
			},
			want: map[int][]Itemset{3: {{[]string{"a", "b", "c"}, 2}}},
		},
		{
			name: "skewed counts",
			transactions: [][]string{
				{"x", "y"},
				{"x", "y"},
				{"x", "z"},
				{"x"},
			},
			want: map[int][]Itemset{2: {{[]string{"x", "y"}, 2}}},
		},
		{
			name: "pairs around a common item",
			transactions: [][]string{
				{"a", "b", "c"},
				{"a", "b", "d"},
				{"a", "c", "d"},
			},
			want: map[int][]Itemset{2: {
				{[]string{"a", "b"}, 2},
				{[]string{"a", "c"}, 2},
				{[]string{"a", "d"}, 2},
			}},
		},
		{
			name:         "single item",
			transactions: [][]string{{"x"}, {"x"}, {"y"}},
			want:         map[int][]Itemset{1: {{[]string{"x"}, 2}}},
		},
		{
			name: "disjoint groups",
			transactions: [][]string{
				{"a", "b"},
				{"a", "b"},
				{"c", "d", "e"},
				{"c", "d", "e"},
				{"c", "d"},
			},
			want: map[int][]Itemset{
				2: {{[]string{"a", "b"}, 2}},
				3: {{[]string{"c", "d", "e"}, 2}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FPMax(tt.transactions, 2))
		})
	}
}

func TestFPMaxManySharedItems(t *testing.T) {
	var shared []string
	for i := 0; i < 24; i++ {
		shared = append(shared, fmt.Sprintf("prop-%02d:value", i))
	}
	var transactions [][]string
	for i := 0; i < 3; i++ {
		tx := append(append([]string(nil), shared...), fmt.Sprintf("own-%d:value", i))
		transactions = append(transactions, tx)
	}

	got := FPMax(transactions, 2)

	require.Len(t, got, 1)
	require.Len(t, got[24], 1)
	assert.Equal(t, shared, got[24][0].Items)
	assert.Equal(t, 3, got[24][0].Support)
}

func TestFPMaxNothingFrequent(t *testing.T) {
	assert.Empty(t, FPMax([][]string{{"a"}, {"b"}}, 2))
	assert.Empty(t, FPMax(nil, 2))
}
