package css

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSpecificity(t *testing.T) {
	tests := []struct {
		selector string
		want     Specificity
	}{
		{"#id", Specificity{1, 0, 0}},
		{".class", Specificity{0, 1, 0}},
		{"div", Specificity{0, 0, 1}},
		{"#id.class", Specificity{1, 1, 0}},
		{"div#main.wide", Specificity{1, 1, 1}},
		{"div span a em", Specificity{0, 0, 4}},
		{".a.b.c.d.e", Specificity{0, 5, 0}},
		{`input[type="text"][name]`, Specificity{0, 2, 1}},
		{"ul li:first-child", Specificity{0, 1, 2}},
		{"*", Specificity{}},
		{"* > p", Specificity{0, 0, 1}},
		{"a>b", Specificity{0, 0, 2}},
		{"h1 + p ~ span", Specificity{0, 0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSpecificity(tt.selector, 0, false))
		})
	}
}

func TestSpecificityCombinatorsWeighNothing(t *testing.T) {
	assert.Equal(t, ComputeSpecificity("a b", 0, false), ComputeSpecificity("a > b", 0, false))
	assert.Equal(t, ComputeSpecificity("a b", 0, false), ComputeSpecificity("a ~ b", 0, false))
}

func TestSpecificityOrdering(t *testing.T) {
	id := ComputeSpecificity("#a", 0, false)
	classes := ComputeSpecificity(".a.b.c.d.e", 0, false)
	elements := ComputeSpecificity("div span a em", 0, false)

	assert.Greater(t, id.Rank(), classes.Rank())
	assert.Greater(t, classes.Rank(), elements.Rank())
	assert.Equal(t, 1, id.Compare(classes))
	assert.Equal(t, -1, elements.Compare(classes))
	assert.Equal(t, 0, id.Compare(ComputeSpecificity("#b", 0, false)))
}

func TestSpecificityPseudoArguments(t *testing.T) {
	assert.Equal(t, Specificity{0, 2, 1}, ComputeSpecificity("a.nav", 1, false))
	assert.Equal(t, Specificity{0, 0, 2}, ComputeSpecificity("p", 0, true))
}

func TestSpecificityRankCapsComponents(t *testing.T) {
	many := ComputeSpecificity(strings.Repeat(".c", 150), 0, false)
	assert.Equal(t, 150, many.Classes)
	assert.Equal(t, 99*100, many.Rank())
	assert.Less(t, many.Rank(), ComputeSpecificity("#x", 0, false).Rank())
}

func TestNewSelectorFiltersPseudo(t *testing.T) {
	tests := []struct {
		text          string
		filtered      string
		pseudoClass   string
		count         int
		pseudoElement string
		spec          Specificity
	}{
		{"a.nav:hover", "a.nav", "hover", 1, "", Specificity{0, 2, 1}},
		{"p::before", "p", "", 0, "before", Specificity{0, 0, 2}},
		{"p:after", "p", "", 0, "after", Specificity{0, 0, 2}},
		{":focus", "*", "focus", 1, "", Specificity{0, 1, 0}},
		{"a:hover span:active", "a span", "active", 2, "", Specificity{0, 2, 2}},
		{"li:first-child:hover", "li:first-child", "hover", 1, "", Specificity{0, 2, 1}},
		{"a   >  b", "a > b", "", 0, "", Specificity{0, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := NewSelector(tt.text)
			assert.Equal(t, tt.filtered, s.Filtered)
			assert.Equal(t, tt.pseudoClass, s.PseudoClass)
			assert.Equal(t, tt.count, s.PseudoClassCount)
			assert.Equal(t, tt.pseudoElement, s.PseudoElement)
			assert.Equal(t, tt.spec, s.Specificity)
			assert.False(t, s.Ignored)
		})
	}
}

func TestNewSelectorIgnoresNegationAndVendorPseudo(t *testing.T) {
	assert.True(t, NewSelector("li:not(.active)").Ignored)
	assert.True(t, NewSelector("input::-moz-placeholder").Ignored)
	assert.False(t, NewSelector("li.active").Ignored)
}
