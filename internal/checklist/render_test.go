package checklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mika/cycheck/internal/model"
)

func testCatalog() *model.Catalog {
	return &model.Catalog{
		Title: "Expert Neo4j Test Checklist",
		Categories: []model.Category{
			{
				Name: "Basic MATCH",
				Cases: []model.TestCase{
					{
						ID: "match_001", Category: "Basic MATCH",
						Description: "Find all people",
						Status:      model.StatusPass,
						LastOutput:  "MATCH (p:Person) RETURN p",
					},
					{
						ID: "match_002", Category: "Basic MATCH",
						Description: "List all movies",
						Status:      model.StatusPending,
					},
					{
						ID: "match_003", Category: "Basic MATCH",
						Description:   "Get all products",
						Status:        model.StatusFail,
						LastOutput:    "Let me check the schema again...",
						FailureReason: "explanatory text instead of query",
					},
				},
			},
			{
				Name: "Aggregations",
			},
		},
	}
}

func TestRenderHeaderCounts(t *testing.T) {
	doc := Render(testCatalog())

	if !strings.Contains(doc, "## Status: 2/3 completed") {
		t.Errorf("missing status header, got:\n%s", doc)
	}
	if !strings.Contains(doc, "## Basic MATCH (2/3)") {
		t.Errorf("missing category counter, got:\n%s", doc)
	}
	if !strings.Contains(doc, "## Aggregations (0/0)") {
		t.Errorf("empty category must still render, got:\n%s", doc)
	}
	if !strings.Contains(doc, "- [x] match_001 - Find all people") {
		t.Errorf("passed case must render checked")
	}
	// A failed case renders unchecked; a checked box never means Fail.
	if !strings.Contains(doc, "- [ ] match_003 - Get all products") {
		t.Errorf("failed case must render unchecked")
	}
	if !strings.Contains(doc, "- **Reason**: explanatory text instead of query") {
		t.Errorf("failure reason missing from results appendix")
	}
}

func TestRenderIdempotent(t *testing.T) {
	catalog := testCatalog()
	first := Render(catalog)
	second := Render(catalog)
	if first != second {
		t.Errorf("rendering an unchanged catalog is not byte-stable")
	}
}

// Round-trip property: Render -> Parse -> Render preserves ids, categories,
// and statuses.
func TestRoundTrip(t *testing.T) {
	original := testCatalog()
	doc := Render(original)

	reparsed, warnings, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("round-trip produced warnings: %v", warnings)
	}

	if got := Render(reparsed); got != doc {
		t.Errorf("round-trip not stable:\n--- first ---\n%s\n--- second ---\n%s", doc, got)
	}

	for _, want := range original.Cases() {
		got := reparsed.Find(want.ID)
		if got == nil {
			t.Fatalf("case %s lost in round-trip", want.ID)
		}
		if got.Status != want.Status || got.Category != want.Category {
			t.Errorf("%s: got (%s, %s), want (%s, %s)",
				want.ID, got.Status, got.Category, want.Status, want.Category)
		}
	}
}

// Captured output containing backtick fences must survive verbatim.
func TestRoundTripFencedOutput(t *testing.T) {
	catalog := &model.Catalog{
		Categories: []model.Category{{
			Name: "Complex Queries",
			Cases: []model.TestCase{{
				ID: "complex_001", Category: "Complex Queries",
				Description:   "Query wrapped in markdown",
				Status:        model.StatusFail,
				LastOutput:    "Here is the query:\n```\nMATCH (n) RETURN n\n```",
				FailureReason: "explanatory text instead of query",
			}},
		}},
	}

	reparsed, _, err := Parse(Render(catalog))
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v", err)
	}
	got := reparsed.Find("complex_001")
	if got.LastOutput != catalog.Categories[0].Cases[0].LastOutput {
		t.Errorf("fenced output not verbatim:\ngot:  %q\nwant: %q",
			got.LastOutput, catalog.Categories[0].Cases[0].LastOutput)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_checklist.md")

	catalog := testCatalog()
	if err := WriteFile(path, catalog); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loaded, _, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Total() != catalog.Total() {
		t.Errorf("Total() = %d, want %d", loaded.Total(), catalog.Total())
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the checklist in %s, found %d entries", dir, len(entries))
	}
}
