// Package checklist reads and writes the markdown checklist document that
// holds the test catalog and its recorded results.
package checklist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mika/cycheck/internal/model"
)

// ParseError indicates the document has no recognizable checklist structure
// at all. Individual malformed lines never produce a ParseError; they are
// skipped with a warning.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("checklist parse error: %s", e.Message)
}

var (
	// ## Basic MATCH (3/10)  — the counter suffix is optional and recomputed.
	categoryRe = regexp.MustCompile(`^##\s+(.+?)(?:\s+\((\d+)/(\d+)\))?\s*$`)
	// - [x] match_001 - Find all people
	itemRe  = regexp.MustCompile(`^-\s+\[([ xX])\]\s+(\S+)\s+-\s+(.+)$`)
	blockRe = regexp.MustCompile(`^####\s+(\S+)\s*$`)
)

// resultsHeading marks the start of the results appendix; everything after it
// is per-case result blocks, not categories.
const resultsHeading = "## Results"

// Parse reads a checklist document into a catalog. Checked boxes load as
// PASS, unchecked as PENDING; failures are only recorded in the results
// appendix, never inferred from a checkbox. Malformed item lines are skipped
// and reported in the returned warnings. A document with zero category
// headings fails with *ParseError.
func Parse(doc string) (*model.Catalog, []string, error) {
	catalog := &model.Catalog{}
	var warnings []string
	seen := map[string]bool{}

	lines := strings.Split(doc, "\n")
	var current *model.Category
	inResults := false

	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			continue
		}

		// Document title
		if strings.HasPrefix(trimmed, "# ") && !strings.HasPrefix(trimmed, "## ") {
			if catalog.Title == "" {
				catalog.Title = strings.TrimSpace(trimmed[2:])
			}
			continue
		}

		// Overall status header is derived state; ignore the stored counts.
		if strings.HasPrefix(trimmed, "## Status:") {
			continue
		}

		if trimmed == resultsHeading {
			inResults = true
			current = nil
			i = parseResults(lines, i+1, catalog, &warnings)
			continue
		}

		if inResults {
			continue
		}

		if m := categoryRe.FindStringSubmatch(trimmed); m != nil {
			catalog.Categories = append(catalog.Categories, model.Category{Name: m[1]})
			current = &catalog.Categories[len(catalog.Categories)-1]
			continue
		}

		if m := itemRe.FindStringSubmatch(trimmed); m != nil {
			if current == nil {
				warnings = append(warnings, fmt.Sprintf("line %d: item %q before any category heading, skipped", i+1, m[2]))
				continue
			}
			if seen[m[2]] {
				warnings = append(warnings, fmt.Sprintf("line %d: duplicate case id %q, skipped", i+1, m[2]))
				continue
			}
			seen[m[2]] = true
			tc := model.TestCase{
				ID:          m[2],
				Category:    current.Name,
				Description: strings.TrimSpace(m[3]),
				Status:      model.StatusPending,
			}
			if m[1] == "x" || m[1] == "X" {
				tc.Status = model.StatusPass
			}
			current.Cases = append(current.Cases, tc)
			continue
		}

		// Anything shaped like an item but not matching the contract.
		if strings.HasPrefix(trimmed, "- [") {
			warnings = append(warnings, fmt.Sprintf("line %d: malformed item line, skipped: %s", i+1, truncateLine(trimmed)))
		}
	}

	if len(catalog.Categories) == 0 {
		return nil, warnings, &ParseError{Message: "no category headings found"}
	}

	return catalog, warnings, nil
}

// parseResults reads the results appendix starting at lines[start] and folds
// recorded outcomes back into the catalog. The last block for an id wins,
// matching the overwrite semantics of the live catalog. Returns the index of
// the last consumed line.
func parseResults(lines []string, start int, catalog *model.Catalog, warnings *[]string) int {
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		m := blockRe.FindStringSubmatch(trimmed)
		if m == nil {
			i++
			continue
		}

		id := m[1]
		tc := catalog.Find(id)
		if tc == nil {
			*warnings = append(*warnings, fmt.Sprintf("line %d: result block for unknown case %q, skipped", i+1, id))
			i++
			continue
		}

		i++
		i = parseResultBlock(lines, i, tc)
	}
	return i - 1
}

// parseResultBlock reads the fields of one result block into the case.
// A FAIL recorded here overrides an unchecked checkbox; legacy blocks with a
// FAIL status and no captured output are accepted as-is.
func parseResultBlock(lines []string, start int, tc *model.TestCase) int {
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		// Next block or heading ends this one.
		if strings.HasPrefix(trimmed, "#") {
			return i
		}

		switch {
		case strings.HasPrefix(trimmed, "- **Prompt**:"):
			// The prompt is authoritative in the category section; the
			// appendix copy is informational only.
			i++
		case strings.HasPrefix(trimmed, "- **Output**:"):
			out, next := parseFencedBlock(lines, i+1)
			tc.LastOutput = out
			i = next
		case strings.HasPrefix(trimmed, "- **Status**:"):
			val := strings.TrimSpace(strings.TrimPrefix(trimmed, "- **Status**:"))
			if strings.Contains(val, string(model.StatusFail)) {
				tc.Status = model.StatusFail
			} else if strings.Contains(val, string(model.StatusPass)) {
				tc.Status = model.StatusPass
				tc.FailureReason = ""
			}
			i++
		case strings.HasPrefix(trimmed, "- **Reason**:"):
			tc.FailureReason = strings.TrimSpace(strings.TrimPrefix(trimmed, "- **Reason**:"))
			i++
		default:
			i++
		}
	}
	return i
}

// parseFencedBlock reads a ``` fenced block starting at or after lines[start].
// The captured text is returned verbatim. Returns the index after the closing
// fence.
func parseFencedBlock(lines []string, start int) (string, int) {
	i := start
	// Find the opening fence; tolerate blank lines before it.
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		return "", start
	}
	fence := strings.TrimSpace(lines[i])
	i++

	var body []string
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == fence {
			return strings.Join(body, "\n"), i + 1
		}
		body = append(body, lines[i])
		i++
	}
	// Unterminated fence: take what we have.
	return strings.Join(body, "\n"), i
}

func truncateLine(s string) string {
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
