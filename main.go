// cycheck
//
// Checklist tracker for qualitative text-to-Cypher evaluation runs: loads a
// markdown test checklist, drives pending cases through the external
// expert-cli generator, classifies the captured output, and rewrites the
// checklist plus a JSON run record.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mika/cycheck/internal/checklist"
	"github.com/mika/cycheck/internal/classify"
	"github.com/mika/cycheck/internal/config"
	"github.com/mika/cycheck/internal/generator"
	"github.com/mika/cycheck/internal/model"
	"github.com/mika/cycheck/internal/report"
	"github.com/mika/cycheck/internal/runner"
	"github.com/mika/cycheck/internal/stats"
	"github.com/mika/cycheck/internal/ui"
)

// Exit codes: 0 all run cases passed, 1 at least one failed, 2 structural
// error (config or checklist unreadable).
const (
	exitOK         = 0
	exitFailures   = 1
	exitStructural = 2
)

// sliceFlag allows repeating --skip
type sliceFlag []string

func (s *sliceFlag) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *sliceFlag) Set(val string) error {
	*s = append(*s, val)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flagConfig      string
		flagChecklist   string
		flagOnly        string
		flagSkipVals    sliceFlag
		flagAll         bool
		flagRerunFailed bool
		flagParallel    int
		flagDryRun      bool
		flagVerbose     bool
		flagNoColor     bool
		flagStats       bool
		flagImportJUnit string
		flagInit        bool
	)

	flag.StringVar(&flagConfig, "config", "", "Path to config file (default: cycheck.toml)")
	flag.StringVar(&flagChecklist, "checklist", "", "Path to checklist markdown (overrides config)")
	flag.StringVar(&flagOnly, "only", "", "Run only cases whose id or category matches this glob")
	flag.Var(&flagSkipVals, "skip", "Skip a case by id (can be specified multiple times)")
	flag.BoolVar(&flagAll, "all", false, "Re-run every case, not just pending ones")
	flag.BoolVar(&flagRerunFailed, "rerun-failed", false, "Also re-run previously failed cases")
	flag.IntVar(&flagParallel, "parallel", 0, "Number of parallel workers (overrides config)")
	flag.BoolVar(&flagDryRun, "dry-run", false, "List selected cases without executing them")
	flag.BoolVar(&flagVerbose, "verbose", false, "Verbose output, including captured generations")
	flag.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&flagStats, "stats", false, "Print catalog aggregates and exit")
	flag.StringVar(&flagImportJUnit, "import-junit", "", "Fold outcomes from a JUnit XML file into the checklist")
	flag.BoolVar(&flagInit, "init", false, "Scaffold cycheck.toml and an empty checklist")
	flag.Parse()

	enableColors := !flagNoColor && ui.IsColorEnabled()
	renderer := ui.NewRenderer(os.Stdout, enableColors, flagVerbose)

	if flagInit {
		return scaffold(flagConfig, flagChecklist)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}
	merged := config.MergeWithDefaults(cfg)

	checklistPath := merged.Checklist.Path
	if flagChecklist != "" {
		checklistPath = flagChecklist
	}

	catalog, warnings, err := checklist.LoadFile(checklistPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	if err := merged.ValidateCatalog(catalog); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}

	if flagStats {
		renderer.RenderStats(stats.Compute(catalog), categoryOrder(catalog))
		return exitOK
	}

	if flagImportJUnit != "" {
		return importJUnit(flagImportJUnit, checklistPath, catalog, renderer)
	}

	// Attach per-case schema blocks when a schemas file is configured.
	if merged.Checklist.Schemas != "" {
		schemas, err := config.LoadSchemas(merged.Checklist.Schemas)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return exitStructural
		}
		for _, tc := range catalog.Cases() {
			if schema, ok := schemas[tc.ID]; ok {
				tc.Schema = schema
			}
		}
	}

	selected, err := selectCases(catalog, flagOnly, flagSkipVals, flagAll, flagRerunFailed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}

	if flagDryRun {
		for _, tc := range selected {
			fmt.Printf("%s [%s] %s\n", tc.ID, tc.Category, tc.Description)
		}
		fmt.Printf("%d cases selected (dry-run)\n", len(selected))
		return exitOK
	}

	if len(selected) == 0 {
		fmt.Println("nothing to run: no pending cases match the selection")
		renderer.RenderStats(stats.Compute(catalog), categoryOrder(catalog))
		return exitOK
	}

	parallel := merged.Run.Parallel
	if flagParallel > 0 {
		parallel = flagParallel
	}

	gen := generator.NewCLI(generator.Options{
		Path:        merged.CLI.Path,
		Expert:      merged.CLI.Expert,
		Device:      merged.CLI.Device,
		MaxTokens:   merged.CLI.MaxTokens,
		Temperature: merged.CLI.Temperature,
		TopP:        merged.CLI.TopP,
		TopK:        merged.CLI.TopK,
		RawPrompt:   merged.CLI.RawPrompt,
		Timeout:     time.Duration(merged.CLI.TimeoutSeconds) * time.Second,
		MaxOutput:   merged.Run.MaxOutputBytes,
	})

	runID := report.MakeRunID()
	renderer.RenderHeader(runID, merged.CLI.Expert, checklistPath, len(selected))

	attempts, runErr := runner.Run(context.Background(), selected, runner.Config{
		Generator:  gen,
		Classifier: classify.NewCypher(),
		Parallel:   parallel,
		Progress:   renderer,
	})
	if runErr != nil {
		// Interrupted mid-run; completed outcomes are still persisted below.
		fmt.Fprintf(os.Stderr, "WARNING: run stopped early: %v\n", runErr)
	}

	renderer.RenderStats(stats.Compute(catalog), categoryOrder(catalog))

	// All workers have joined; now render and replace, all-or-nothing.
	if err := checklist.WriteFile(checklistPath, catalog); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}

	record := buildRunRecord(runID, merged.CLI.Expert, checklistPath, attempts, model.RunFlags{
		Only:        flagOnly,
		Skip:        flagSkipVals,
		All:         flagAll,
		RerunFailed: flagRerunFailed,
		Parallel:    parallel,
		DryRun:      flagDryRun,
		Config:      flagConfig,
		Checklist:   flagChecklist,
	})
	if path, err := report.WriteRunRecord(merged.Run.OutputRoot, record); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: failed to write run record: %v\n", err)
	} else if flagVerbose {
		fmt.Printf("run record: %s\n", path)
	}

	if record.Failed > 0 {
		return exitFailures
	}
	return exitOK
}

// selectCases picks the cases to run: pending ones by default, failed ones
// with -rerun-failed, everything with -all, narrowed by the -only glob and
// the -skip list.
func selectCases(catalog *model.Catalog, only string, skip []string, all, rerunFailed bool) ([]*model.TestCase, error) {
	if only != "" {
		if !doublestar.ValidatePattern(only) {
			return nil, fmt.Errorf("invalid -only pattern: %s", only)
		}
	}

	skipSet := map[string]struct{}{}
	for _, id := range skip {
		skipSet[id] = struct{}{}
	}

	var out []*model.TestCase
	for _, tc := range catalog.Cases() {
		if _, skipped := skipSet[tc.ID]; skipped {
			continue
		}
		if !all {
			switch tc.Status {
			case model.StatusPending:
			case model.StatusFail:
				if !rerunFailed {
					continue
				}
			default:
				continue
			}
		}
		if only != "" {
			idMatch, _ := doublestar.Match(only, tc.ID)
			catMatch, _ := doublestar.Match(only, tc.Category)
			if !idMatch && !catMatch {
				continue
			}
		}
		out = append(out, tc)
	}
	return out, nil
}

func buildRunRecord(runID, expert, checklistPath string, attempts []model.Attempt, flags model.RunFlags) model.RunRecord {
	record := model.RunRecord{
		RunID:     runID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Expert:    expert,
		Checklist: checklistPath,
		Flags:     flags,
		Attempts:  attempts,
	}
	for _, a := range attempts {
		switch a.Status {
		case model.StatusPass:
			record.Passed++
		case model.StatusFail:
			record.Failed++
		}
	}
	return record
}

func importJUnit(junitPath, checklistPath string, catalog *model.Catalog, renderer *ui.Renderer) int {
	summary, err := report.ImportJUnit(junitPath, catalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}
	for _, name := range summary.Unknown {
		fmt.Fprintf(os.Stderr, "WARNING: junit testcase %q has no matching checklist id\n", name)
	}
	if err := checklist.WriteFile(checklistPath, catalog); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}
	fmt.Printf("imported %d outcomes from %s\n", summary.Applied, junitPath)
	renderer.RenderStats(stats.Compute(catalog), categoryOrder(catalog))
	return exitOK
}

// scaffold writes a starter config and an empty checklist document.
func scaffold(configPath, checklistPath string) int {
	if configPath == "" {
		configPath = "cycheck.toml"
	}
	if err := config.GenerateDefault(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}

	merged := config.MergeWithDefaults(nil)
	if checklistPath == "" {
		checklistPath = merged.Checklist.Path
	}
	if _, err := os.Stat(checklistPath); err == nil {
		fmt.Fprintf(os.Stderr, "ERROR: checklist already exists: %s\n", checklistPath)
		return exitStructural
	}

	catalog := &model.Catalog{
		Title: merged.Checklist.Title,
		Categories: []model.Category{
			{Name: "Basic MATCH"},
			{Name: "WHERE Filters"},
			{Name: "Relationships"},
			{Name: "Aggregations"},
			{Name: "ORDER / LIMIT"},
			{Name: "Complex Queries"},
		},
	}
	if err := checklist.WriteFile(checklistPath, catalog); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitStructural
	}

	fmt.Printf("created %s and %s\n", configPath, checklistPath)
	return exitOK
}

func categoryOrder(catalog *model.Catalog) []string {
	order := make([]string, 0, len(catalog.Categories))
	for i := range catalog.Categories {
		order = append(order, catalog.Categories[i].Name)
	}
	return order
}
