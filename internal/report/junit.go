package report

import (
	"fmt"

	"github.com/joshdk/go-junit"
	"github.com/mika/cycheck/internal/model"
)

// ImportSummary describes what a JUnit import changed.
type ImportSummary struct {
	Applied int      // outcomes folded into the catalog
	Unknown []string // testcase names with no matching catalog id
}

// ImportJUnit ingests a JUnit XML file produced by an external evaluation
// harness and folds its outcomes into the catalog: a testcase whose name
// matches a catalog id overwrites that case's status, same as a re-run would.
// Skipped testcases are ignored; they carry no outcome. Uses
// github.com/joshdk/go-junit so all the usual XML variants (single suite,
// testsuites wrapper, multiple roots) are accepted.
func ImportJUnit(path string, catalog *model.Catalog) (*ImportSummary, error) {
	suites, err := junit.IngestFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest junit file %s: %w", path, err)
	}

	summary := &ImportSummary{}

	for _, suite := range suites {
		for _, test := range suite.Tests {
			if test.Status == junit.StatusSkipped {
				continue
			}

			tc := catalog.Find(test.Name)
			if tc == nil {
				summary.Unknown = append(summary.Unknown, test.Name)
				continue
			}

			switch test.Status {
			case junit.StatusPassed:
				tc.Status = model.StatusPass
				tc.FailureReason = ""
			case junit.StatusFailed:
				tc.Status = model.StatusFail
				tc.FailureReason = importedReason(test, "assertion failed")
			case junit.StatusError:
				tc.Status = model.StatusFail
				tc.FailureReason = importedReason(test, "runtime error")
			default:
				continue
			}
			if test.SystemOut != "" {
				tc.LastOutput = test.SystemOut
			}
			summary.Applied++
		}
	}

	return summary, nil
}

func importedReason(test junit.Test, fallback string) string {
	if test.Error != nil {
		return fmt.Sprintf("imported: %s", test.Error.Error())
	}
	return fmt.Sprintf("imported: %s", fallback)
}
