package shorthand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cssprune/internal/css"
)

// splitSelector builds a selector from a declaration block and splits it.
func splitSelector(t *testing.T, block string) *css.Selector {
	t.Helper()
	sheet, diags := css.NewParser().Parse("m.css", ".x { "+block+" }")
	require.Empty(t, diags)
	_, diags = Split([]*css.Stylesheet{sheet})
	require.Empty(t, diags)
	return sheet.AllSelectors()[0]
}

func without(sel *css.Selector, names ...string) {
	drop := make(map[string]bool)
	for _, n := range names {
		drop[n] = true
	}
	kept := sel.Declarations[:0]
	for _, d := range sel.Declarations {
		if !drop[d.Name] {
			kept = append(kept, d)
		}
	}
	sel.Declarations = kept
}

func find(sel *css.Selector, name string) *css.Declaration {
	for _, d := range sel.Declarations {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func TestCompressBox(t *testing.T) {
	tests := []struct {
		t, r, b, l string
		want       string
	}{
		{"1px", "1px", "1px", "1px", "1px"},
		{"1px", "2px", "1px", "2px", "1px 2px"},
		{"1px", "2px", "3px", "2px", "1px 2px 3px"},
		{"1px", "2px", "3px", "4px", "1px 2px 3px 4px"},
		{"1px", "2px", "1px", "4px", "1px 2px 1px 4px"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, CompressBox(tt.t, tt.r, tt.b, tt.l))
		})
	}
}

func TestMergeRoundTrip(t *testing.T) {
	tests := []struct {
		block string
		want  [][2]string
	}{
		{"margin: 10px 20px", [][2]string{{"margin", "10px 20px"}}},
		{"padding: 1px 2px 3px 4px", [][2]string{{"padding", "1px 2px 3px 4px"}}},
		{"border: 1px solid rgb(0, 0, 0)", [][2]string{{"border", "1px solid rgb(0, 0, 0)"}}},
		{"border: solid", [][2]string{{"border", "solid"}}},
		{"border-left: 2px dashed", [][2]string{{"border-left", "2px dashed"}}},
		{"outline: thin dotted #ccc", [][2]string{{"outline", "thin dotted #ccc"}}},
		{"background: #fff url(a.png) no-repeat center / cover", [][2]string{
			{"background", "#fff url(a.png) no-repeat center / cover"},
		}},
		{"color: red; margin: 0 auto; display: block", [][2]string{
			{"color", "red"}, {"margin", "0 auto"}, {"display", "block"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.block, func(t *testing.T) {
			sel := splitSelector(t, tt.block)

			stats, errs := MergeSelector(sel)

			assert.Empty(t, errs)
			assert.Equal(t, len(tt.want)-countPlain(tt.want), stats.Merged)
			assert.Equal(t, tt.want, pairs(sel.Declarations))
			for _, d := range sel.Declarations {
				assert.Empty(t, d.Shorthand)
			}
		})
	}
}

func countPlain(want [][2]string) int {
	n := 0
	for _, p := range want {
		if !Splittable(p[0]) {
			n++
		}
	}
	return n
}

func TestMergeKeepsOrderAndFlags(t *testing.T) {
	sel := splitSelector(t, "color: red; margin: 0 !important")
	for _, d := range sel.Declarations {
		d.Effective = true
	}

	MergeSelector(sel)

	require.Len(t, sel.Declarations, 2)
	m := sel.Declarations[1]
	assert.Equal(t, "margin", m.Name)
	assert.Equal(t, "0", m.Value)
	assert.True(t, m.Important)
	assert.True(t, m.Effective)
	assert.Equal(t, 1, m.Order)
	assert.Equal(t, 1, m.Line)
}

func TestMergePartialBoxStaysLonghand(t *testing.T) {
	sel := splitSelector(t, "margin: 1px 2px")
	without(sel, "margin-left")

	stats, errs := MergeSelector(sel)

	assert.Empty(t, errs)
	assert.Equal(t, 0, stats.Merged)
	assert.Equal(t, 3, stats.Kept)
	assert.Equal(t, [][2]string{
		{"margin-top", "1px"}, {"margin-right", "2px"}, {"margin-bottom", "1px"},
	}, pairs(sel.Declarations))
}

func TestMergeBorderFallsBackToSides(t *testing.T) {
	sel := splitSelector(t, "border: 1px solid red")
	find(sel, "border-top-color").Value = "blue"
	without(sel, "border-left-width")

	MergeSelector(sel)

	assert.Equal(t, [][2]string{
		{"border-top", "1px solid blue"},
		{"border-right", "1px solid red"},
		{"border-bottom", "1px solid red"},
		{"border-left", "solid red"},
	}, pairs(sel.Declarations))
}

func TestMergeBorderSideMissingAltogether(t *testing.T) {
	sel := splitSelector(t, "border: 1px solid")
	without(sel, "border-bottom-width", "border-bottom-style")

	MergeSelector(sel)

	assert.Equal(t, [][2]string{
		{"border-top", "1px solid"},
		{"border-right", "1px solid"},
		{"border-left", "1px solid"},
	}, pairs(sel.Declarations))
}

func TestMergeImportanceMismatch(t *testing.T) {
	sel := splitSelector(t, "padding: 0")
	find(sel, "padding-top").Important = true

	stats, errs := MergeSelector(sel)

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errImportance)
	assert.Zero(t, stats.Merged)
	assert.Len(t, sel.Declarations, 4)
}

func TestMergeBackgroundPartial(t *testing.T) {
	sel := splitSelector(t, "background: red url(a.png) center / cover padding-box")
	without(sel, "background-position", "background-clip")

	stats, _ := MergeSelector(sel)

	assert.Equal(t, 1, stats.Merged)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, [][2]string{
		{"background", "red url(a.png)"},
		{"background-size", "cover"},
		{"background-origin", "padding-box"},
	}, pairs(sel.Declarations))
}

func TestMergeSeparatesRepeatedShorthands(t *testing.T) {
	sel := splitSelector(t, "margin: 0; margin: 1px 2px")

	MergeSelector(sel)

	assert.Equal(t, [][2]string{{"margin", "0"}, {"margin", "1px 2px"}}, pairs(sel.Declarations))
}

func TestMerge(t *testing.T) {
	sheet, _ := css.NewParser().Parse("m.css", ".a { margin: 0 }\n.b { padding: 1px }\n.c { color: red }")
	_, _ = Split([]*css.Stylesheet{sheet})
	sels := sheet.AllSelectors()
	find(sels[1], "padding-left").Important = true

	stats, diags := Merge([]*css.Stylesheet{sheet})

	assert.Equal(t, 1, stats.Merged)
	require.Len(t, diags, 1)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, [][2]string{{"margin", "0"}}, pairs(sels[0].Declarations))
	assert.Len(t, sels[1].Declarations, 4)
	assert.Equal(t, [][2]string{{"color", "red"}}, pairs(sels[2].Declarations))
}
