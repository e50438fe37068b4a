package optimizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"time"

	"cssprune/internal/clones"
	"cssprune/internal/config"
	"cssprune/internal/css"
	"cssprune/internal/html"
	"cssprune/internal/matcher"
	"cssprune/internal/resolver"
	"cssprune/internal/shorthand"
)

// Optimizer is the main CSS optimization engine
type Optimizer struct {
	config   config.Config
	parser   *css.Parser
	matcher  *matcher.Matcher
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// New creates a new optimizer with the given configuration. A nil logger
// uses slog.Default().
func New(cfg config.Config, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	parser := css.NewParser()
	parser.IgnoreVendorPrefixes = cfg.IgnoreVendorPrefixes
	return &Optimizer{
		config:   cfg,
		parser:   parser,
		matcher:  matcher.New(logger),
		resolver: resolver.New(logger),
		logger:   logger,
	}
}

// NewWithDefaults creates a new optimizer running every stage
func NewWithDefaults() *Optimizer {
	return New(config.Default(), nil)
}

// Source is the text of one external stylesheet
type Source struct {
	Name string // URL or path as referenced by <link href>
	Text string
}

// StateInput is the DOM snapshot of one application state
type StateInput struct {
	ID   string
	HTML string
}

// Input is everything one analysis run consumes
type Input struct {
	Stylesheets []Source
	States      []StateInput
	// Findings of an external validator, keyed by stylesheet name
	Findings map[string][]css.Finding
}

// Result contains the result of an optimization run
type Result struct {
	Stylesheets     []*css.Stylesheet // optimized sheets, external first
	Mixins          []*clones.Mixin   // extracted mixins
	Diagnostics     []css.Diagnostic  // recoverable problems
	ProcessingStats ProcessingStats   // Performance and processing statistics
}

// ProcessingStats contains metrics from the optimization run
type ProcessingStats struct {
	StylesheetsParsed   int
	SelectorsParsed     int
	StatesMatched       int
	ElementsMatched     int
	SelectorsMatched    int // (selector, element) pairs
	MatchErrors         int
	ShorthandsSplit     int
	CascadesResolved    int
	DeclarationsRemoved int
	SelectorsRemoved    int
	RulesRemoved        int
	ShorthandsMerged    int
	MixinsExtracted     int
	ProcessingTimeMs    int64
}

// run holds the stylesheets of one Optimize call.
type run struct {
	sheets      []*css.Stylesheet
	byName      map[string]*css.Stylesheet
	diagnostics []css.Diagnostic
	stats       ProcessingStats
}

// Optimize parses the stylesheets, matches them against every state and
// runs the optimization stages enabled in the configuration.
func (o *Optimizer) Optimize(in Input) (*Result, error) {
	startTime := time.Now()
	r := &run{byName: make(map[string]*css.Stylesheet)}

	for _, src := range in.Stylesheets {
		if _, dup := r.byName[src.Name]; dup {
			return nil, fmt.Errorf("duplicate stylesheet %q", src.Name)
		}
		r.add(o.parse(r, src.Name, src.Text))
	}

	var states []matcher.State
	for _, st := range in.States {
		state, err := o.buildState(r, st)
		if err != nil {
			return nil, fmt.Errorf("failed to load state %s: %w", st.ID, err)
		}
		states = append(states, state)
	}

	for name, findings := range in.Findings {
		sheet, ok := r.byName[name]
		if !ok {
			o.logger.Warn("findings for unknown stylesheet", "stylesheet", name)
			continue
		}
		n := css.ApplyFindings(sheet, findings)
		o.logger.Debug("validation findings applied", "stylesheet", name, "ignored", n)
	}

	result := o.Run(r.sheets, states)
	result.Diagnostics = append(r.diagnostics, result.Diagnostics...)
	result.ProcessingStats.StylesheetsParsed = r.stats.StylesheetsParsed
	result.ProcessingStats.SelectorsParsed = r.stats.SelectorsParsed
	result.ProcessingStats.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

// Run executes the pipeline on already parsed stylesheets and states:
// match per state, split, resolve, prune, merge, mine.
func (o *Optimizer) Run(sheets []*css.Stylesheet, states []matcher.State) *Result {
	result := &Result{Stylesheets: sheets}
	stats := &result.ProcessingStats

	idx := matcher.NewIndex()
	for _, state := range states {
		ms := o.matcher.MatchState(state, idx)
		stats.StatesMatched++
		stats.SelectorsMatched += ms.Matches
		stats.MatchErrors += ms.Errors
	}
	stats.ElementsMatched = idx.Len()

	if o.config.SplitShorthands {
		ss, diags := shorthand.Split(sheets)
		stats.ShorthandsSplit = ss.Split
		result.Diagnostics = append(result.Diagnostics, diags...)
	}

	rs := o.resolver.Resolve(idx)
	stats.CascadesResolved = rs.Cascades

	if o.config.RemoveIneffective {
		ps := o.resolver.Prune(sheets)
		stats.DeclarationsRemoved = ps.Declarations
		stats.SelectorsRemoved = ps.Selectors
		stats.RulesRemoved = ps.Rules
	}

	if o.config.MergeShorthands {
		ms, diags := shorthand.Merge(sheets)
		stats.ShorthandsMerged = ms.Merged
		result.Diagnostics = append(result.Diagnostics, diags...)
	}

	if o.config.ExtractMixins {
		var selectors []*css.Selector
		for _, sheet := range sheets {
			selectors = append(selectors, sheet.AllSelectors()...)
		}
		result.Mixins = clones.Mine(selectors, clones.Options{
			MinDeclarations: o.config.MinMixinDeclarations,
			Logger:          o.logger,
		})
		stats.MixinsExtracted = len(result.Mixins)
	}

	o.logger.Info("optimization finished",
		"states", stats.StatesMatched,
		"elements", stats.ElementsMatched,
		"declarations_removed", stats.DeclarationsRemoved,
		"selectors_removed", stats.SelectorsRemoved,
		"mixins", stats.MixinsExtracted)
	return result
}

func (o *Optimizer) parse(r *run, name, text string) *css.Stylesheet {
	sheet, diags := o.parser.Parse(name, text)
	r.diagnostics = append(r.diagnostics, diags...)
	r.stats.StylesheetsParsed++
	r.stats.SelectorsParsed += len(sheet.AllSelectors())
	for _, d := range diags {
		o.logger.Debug("css diagnostic", "stylesheet", d.Source, "line", d.Line, "message", d.Message)
	}
	return sheet
}

func (r *run) add(sheet *css.Stylesheet) {
	r.sheets = append(r.sheets, sheet)
	r.byName[sheet.Name] = sheet
}

// buildState parses a snapshot and resolves its style sources to
// stylesheets. Identical <style> blocks share one stylesheet across states.
func (o *Optimizer) buildState(r *run, in StateInput) (matcher.State, error) {
	doc, err := html.ParseString(in.HTML)
	if err != nil {
		return matcher.State{}, err
	}
	state := matcher.State{ID: in.ID, Document: doc}
	for _, src := range doc.StyleSources() {
		if !src.Embedded() {
			sheet := r.lookup(src.Href)
			if sheet == nil {
				o.logger.Warn("linked stylesheet not provided", "state", in.ID, "href", src.Href)
				continue
			}
			state.Stylesheets = append(state.Stylesheets, sheet)
			continue
		}
		sum := sha256.Sum256([]byte(src.Text))
		name := "embedded:" + hex.EncodeToString(sum[:6])
		sheet, ok := r.byName[name]
		if !ok {
			sheet = o.parse(r, name, src.Text)
			r.add(sheet)
		}
		state.Stylesheets = append(state.Stylesheets, sheet)
	}
	return state, nil
}

// lookup finds a stylesheet by href, falling back to its base name.
func (r *run) lookup(href string) *css.Stylesheet {
	if sheet, ok := r.byName[href]; ok {
		return sheet
	}
	base := path.Base(href)
	for _, sheet := range r.sheets {
		if path.Base(sheet.Name) == base {
			return sheet
		}
	}
	return nil
}

// OptimizeCSS is a convenience function that optimizes with default configuration
func OptimizeCSS(in Input) (*Result, error) {
	return NewWithDefaults().Optimize(in)
}
