package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cssprune/internal/clones"
	"cssprune/internal/config"
	"cssprune/internal/css"
	"cssprune/pkg/optimizer"
)

var (
	// Input/Output flags
	statesDir  = flag.String("states", "", "Directory of HTML snapshots, one file per application state")
	cssDir     = flag.String("css", "", "Directory of external CSS files referenced by the snapshots")
	outputDir  = flag.String("output-dir", "", "Write optimized stylesheets and mixins here (default: stdout)")
	configFile = flag.String("config", "", "YAML configuration file")

	// Pipeline flags
	split   = flag.Bool("split", true, "Split shorthands before cascade resolution")
	remove  = flag.Bool("remove", true, "Remove ineffective declarations and dead selectors")
	merge   = flag.Bool("merge", true, "Merge longhands back into shorthands")
	mixins  = flag.Bool("mixins", true, "Extract repeated declaration sets into mixins")
	minDecl = flag.Int("min-mixin-declarations", 1, "Smallest declaration set worth a mixin")

	// Output control flags
	verbose = flag.Bool("verbose", false, "Verbose output with debug logging")
	quiet   = flag.Bool("quiet", false, "Suppress all output except errors")
	stats   = flag.Bool("stats", false, "Show processing statistics")
	tree    = flag.Bool("tree", false, "Print the rule tree of every optimized stylesheet")
	diags   = flag.Bool("diagnostics", false, "Show parse and normalization diagnostics")
)

func main() {
	flag.Parse()

	if err := validateArgs(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	input, err := loadInput()
	if err != nil {
		logger.Error("failed to load input", "error", err)
		os.Exit(1)
	}

	result, err := optimizer.New(cfg, logger).Optimize(input)
	if err != nil {
		logger.Error("optimization failed", "error", err)
		os.Exit(1)
	}

	if err := writeResult(result); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}

	if *diags {
		for _, d := range result.Diagnostics {
			fmt.Fprintln(os.Stderr, d)
		}
	}
	if *tree {
		for _, sheet := range result.Stylesheets {
			fmt.Fprintln(os.Stderr, css.Tree(sheet))
		}
	}
	if *stats || *verbose {
		showProcessingStats(result)
	}
}

// validateArgs validates command line arguments
func validateArgs() error {
	if *statesDir == "" {
		return fmt.Errorf("-states is required")
	}
	if *quiet && *verbose {
		return fmt.Errorf("cannot specify both -quiet and -verbose")
	}
	if *minDecl < 1 {
		return fmt.Errorf("-min-mixin-declarations must be at least 1")
	}
	return nil
}

// buildConfig loads the config file, if any, and applies the flags that
// were set explicitly on the command line.
func buildConfig() (config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "split":
			cfg.SplitShorthands = *split
		case "remove":
			cfg.RemoveIneffective = *remove
		case "merge":
			cfg.MergeShorthands = *merge
		case "mixins":
			cfg.ExtractMixins = *mixins
		case "min-mixin-declarations":
			cfg.MinMixinDeclarations = *minDecl
		}
	})
	switch {
	case *verbose:
		cfg.LogLevel = "debug"
	case *quiet:
		cfg.LogLevel = "error"
	}
	return cfg, nil
}

// loadInput reads the state snapshots and external stylesheets
func loadInput() (optimizer.Input, error) {
	var input optimizer.Input

	htmlFiles, err := findFiles(*statesDir, ".html", ".htm")
	if err != nil {
		return input, fmt.Errorf("failed to find HTML files: %w", err)
	}
	if len(htmlFiles) == 0 {
		return input, fmt.Errorf("no HTML files found in directory: %s", *statesDir)
	}
	for _, p := range htmlFiles {
		content, err := os.ReadFile(p)
		if err != nil {
			return input, fmt.Errorf("failed to read %s: %w", p, err)
		}
		rel, _ := filepath.Rel(*statesDir, p)
		input.States = append(input.States, optimizer.StateInput{
			ID:   strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel)),
			HTML: string(content),
		})
	}

	if *cssDir == "" {
		return input, nil
	}
	cssFiles, err := findFiles(*cssDir, ".css")
	if err != nil {
		return input, fmt.Errorf("failed to find CSS files: %w", err)
	}
	for _, p := range cssFiles {
		content, err := os.ReadFile(p)
		if err != nil {
			return input, fmt.Errorf("failed to read %s: %w", p, err)
		}
		rel, _ := filepath.Rel(*cssDir, p)
		input.Stylesheets = append(input.Stylesheets, optimizer.Source{
			Name: filepath.ToSlash(rel),
			Text: string(content),
		})
	}
	return input, nil
}

// writeResult writes every stylesheet and the mixins to the output
// directory, or to stdout. Stylesheets including mixins are written as SCSS
// importing the mixins partial.
func writeResult(result *optimizer.Result) error {
	if *outputDir == "" {
		if err := clones.FormatMixins(os.Stdout, result.Mixins); err != nil {
			return err
		}
		for _, sheet := range result.Stylesheets {
			fmt.Printf("/* %s */\n", sheet.Name)
			if err := css.Format(os.Stdout, sheet); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if len(result.Mixins) > 0 {
		if err := writeFile(filepath.Join(*outputDir, "_mixins.scss"), func(f *os.File) error {
			return clones.FormatMixins(f, result.Mixins)
		}); err != nil {
			return err
		}
	}
	for _, sheet := range result.Stylesheets {
		name := strings.NewReplacer(":", "-", "/", "_").Replace(sheet.Name)
		name = strings.TrimSuffix(name, ".css")
		scss := includesMixins(sheet)
		if scss {
			name += ".scss"
		} else {
			name += ".css"
		}
		if err := writeFile(filepath.Join(*outputDir, name), func(f *os.File) error {
			if scss {
				if _, err := io.WriteString(f, "@import \"mixins\";\n\n"); err != nil {
					return fmt.Errorf("failed to write %s: %w", name, err)
				}
			}
			return css.Format(f, sheet)
		}); err != nil {
			return err
		}
	}
	return nil
}

func includesMixins(sheet *css.Stylesheet) bool {
	for _, sel := range sheet.AllSelectors() {
		if len(sel.Includes) > 0 {
			return true
		}
	}
	return false
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// findFiles finds all files with one of the extensions in a directory
func findFiles(dir string, exts ...string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == e {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

// showProcessingStats displays processing statistics
func showProcessingStats(result *optimizer.Result) {
	s := result.ProcessingStats
	fmt.Fprintf(os.Stderr, "\nProcessing Statistics:\n")
	fmt.Fprintf(os.Stderr, "  Stylesheets parsed: %d\n", s.StylesheetsParsed)
	fmt.Fprintf(os.Stderr, "  Selectors parsed: %d\n", s.SelectorsParsed)
	fmt.Fprintf(os.Stderr, "  States matched: %d\n", s.StatesMatched)
	fmt.Fprintf(os.Stderr, "  Elements matched: %d\n", s.ElementsMatched)
	fmt.Fprintf(os.Stderr, "  Selector matches: %d\n", s.SelectorsMatched)
	fmt.Fprintf(os.Stderr, "  Match errors: %d\n", s.MatchErrors)
	fmt.Fprintf(os.Stderr, "  Shorthands split: %d\n", s.ShorthandsSplit)
	fmt.Fprintf(os.Stderr, "  Cascades resolved: %d\n", s.CascadesResolved)
	fmt.Fprintf(os.Stderr, "  Declarations removed: %d\n", s.DeclarationsRemoved)
	fmt.Fprintf(os.Stderr, "  Selectors removed: %d\n", s.SelectorsRemoved)
	fmt.Fprintf(os.Stderr, "  Rules removed: %d\n", s.RulesRemoved)
	fmt.Fprintf(os.Stderr, "  Shorthands merged: %d\n", s.ShorthandsMerged)
	fmt.Fprintf(os.Stderr, "  Mixins extracted: %d\n", s.MixinsExtracted)
	fmt.Fprintf(os.Stderr, "  Processing time: %dms\n", s.ProcessingTimeMs)
}
