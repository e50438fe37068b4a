package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cssprune/internal/config"
	"cssprune/internal/css"
)

const siteCSS = `body { margin: 0; color: #333 }
.btn { color: red; font-weight: bold; padding: 4px 8px }
.btn:hover { color: blue }
.unused { color: green }
#main .btn { color: black }
.card { color: red; font-weight: bold }
`

const statePage = `<html>
<head>
  <link rel="stylesheet" href="/static/site.css">
  <style>.card { border: 1px solid red }</style>
</head>
<body>
  <div id="main"><a class="btn" href="#">go</a></div>
  <div class="card">card</div>
</body>
</html>`

func input() Input {
	return Input{
		Stylesheets: []Source{{Name: "site.css", Text: siteCSS}},
		States:      []StateInput{{ID: "home", HTML: statePage}},
	}
}

func format(t *testing.T, sheet *css.Stylesheet) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, css.Format(&b, sheet))
	return b.String()
}

func TestOptimize(t *testing.T) {
	result, err := NewWithDefaults().Optimize(input())
	require.NoError(t, err)

	require.Len(t, result.Stylesheets, 2)
	site, embedded := result.Stylesheets[0], result.Stylesheets[1]
	assert.Equal(t, "site.css", site.Name)
	assert.True(t, strings.HasPrefix(embedded.Name, "embedded:"))

	assert.Equal(t, `body {
  margin: 0;
  color: #333;
}
.btn {
  @include mixin-1;
  padding: 4px 8px;
}
.btn:hover {
  color: blue;
}
#main .btn {
  color: black;
}
.card {
  @include mixin-1;
  color: red;
}
`, format(t, site))
	assert.Equal(t, ".card {\n  border: 1px solid red;\n}\n", format(t, embedded))

	require.Len(t, result.Mixins, 1)
	mixin := result.Mixins[0]
	assert.Equal(t, "font-weight: bold", mixin.Declarations[0].String())
	var owners []string
	for _, sel := range mixin.Selectors {
		owners = append(owners, sel.Text)
	}
	assert.Equal(t, []string{".btn", ".card"}, owners)

	assert.Empty(t, result.Diagnostics)
	stats := result.ProcessingStats
	assert.Equal(t, 2, stats.StylesheetsParsed)
	assert.Equal(t, 7, stats.SelectorsParsed)
	assert.Equal(t, 1, stats.StatesMatched)
	assert.Equal(t, 3, stats.ElementsMatched)
	assert.Equal(t, 3, stats.ShorthandsSplit)
	assert.Equal(t, 1, stats.DeclarationsRemoved)
	assert.Equal(t, 1, stats.SelectorsRemoved)
	assert.Equal(t, 1, stats.RulesRemoved)
	assert.Equal(t, 3, stats.ShorthandsMerged)
	assert.Equal(t, 1, stats.MixinsExtracted)
}

func TestOptimizeKeepsVendorPrefixedRules(t *testing.T) {
	result, err := OptimizeCSS(Input{
		Stylesheets: []Source{{Name: "box.css", Text: ".box { -webkit-transition: all 1s }\n.box { color: red }\n.gone { color: blue }\n"}},
		States:      []StateInput{{ID: "home", HTML: `<html><head><link rel="stylesheet" href="box.css"></head><body><div class="box">x</div></body></html>`}},
	})
	require.NoError(t, err)

	require.Len(t, result.Stylesheets, 1)
	assert.Equal(t, ".box {\n  -webkit-transition: all 1s;\n}\n.box {\n  color: red;\n}\n", format(t, result.Stylesheets[0]))
	assert.Equal(t, 1, result.ProcessingStats.SelectorsRemoved)
}

func TestOptimizeFindingsKeepSelectors(t *testing.T) {
	in := input()
	in.Findings = map[string][]css.Finding{
		"site.css":  {{Line: 4, Message: "unknown selector"}},
		"other.css": {{Line: 1}},
	}

	result, err := NewWithDefaults().Optimize(in)
	require.NoError(t, err)

	assert.Contains(t, format(t, result.Stylesheets[0]), ".unused {\n  color: green;\n}")
	assert.Zero(t, result.ProcessingStats.SelectorsRemoved)
}

func TestOptimizeStagesFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.RemoveIneffective = false
	cfg.MergeShorthands = false
	cfg.ExtractMixins = false

	result, err := New(cfg, nil).Optimize(input())
	require.NoError(t, err)

	out := format(t, result.Stylesheets[0])
	assert.Contains(t, out, ".unused {")
	assert.Contains(t, out, "margin-top: 0;")
	assert.Contains(t, out, "font-weight: bold;")
	assert.Empty(t, result.Mixins)

	btn := result.Stylesheets[0].AllSelectors()[1]
	require.Equal(t, ".btn", btn.Text)
	assert.False(t, btn.Declarations[0].Effective)
	assert.True(t, btn.Declarations[1].Effective)
}

func TestOptimizeSharesEmbeddedStyles(t *testing.T) {
	in := input()
	in.States = append(in.States, StateInput{ID: "about", HTML: statePage})

	result, err := NewWithDefaults().Optimize(in)
	require.NoError(t, err)

	assert.Len(t, result.Stylesheets, 2)
	assert.Equal(t, 2, result.ProcessingStats.StatesMatched)
	assert.Equal(t, 6, result.ProcessingStats.ElementsMatched)
}

func TestOptimizeMissingLinkedStylesheet(t *testing.T) {
	result, err := OptimizeCSS(Input{States: []StateInput{{ID: "home", HTML: statePage}}})
	require.NoError(t, err)

	require.Len(t, result.Stylesheets, 1)
	assert.Equal(t, ".card {\n  border: 1px solid red;\n}\n", format(t, result.Stylesheets[0]))
}

func TestOptimizeRejectsDuplicateStylesheets(t *testing.T) {
	in := input()
	in.Stylesheets = append(in.Stylesheets, Source{Name: "site.css", Text: "a { color: red }"})

	_, err := NewWithDefaults().Optimize(in)
	assert.Error(t, err)
}

func TestOptimizeReportsParseDiagnostics(t *testing.T) {
	in := input()
	in.Stylesheets[0].Text += ".broken { color: red\n"

	result, err := NewWithDefaults().Optimize(in)
	require.NoError(t, err)

	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, "site.css", result.Diagnostics[0].Source)
	assert.Equal(t, 7, result.Diagnostics[0].Line)
}
