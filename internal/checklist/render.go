package checklist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mika/cycheck/internal/model"
)

// DefaultTitle is used when a catalog carries no title of its own.
const DefaultTitle = "Test Checklist"

// Render produces the canonical checklist document for a catalog: status
// header, one checkbox section per category, and a results appendix with the
// verbatim captured output of every executed case. Rendering the same catalog
// twice yields byte-identical documents.
func Render(catalog *model.Catalog) string {
	var sb strings.Builder

	title := catalog.Title
	if title == "" {
		title = DefaultTitle
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString(fmt.Sprintf("## Status: %d/%d completed\n", catalog.Completed(), catalog.Total()))

	for i := range catalog.Categories {
		cat := &catalog.Categories[i]
		sb.WriteString(fmt.Sprintf("\n## %s (%d/%d)\n\n", cat.Name, cat.Completed(), len(cat.Cases)))
		for j := range cat.Cases {
			tc := &cat.Cases[j]
			box := " "
			if tc.Status == model.StatusPass {
				box = "x"
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s - %s\n", box, tc.ID, tc.Description))
		}
	}

	executed := executedCases(catalog)
	if len(executed) > 0 {
		sb.WriteString("\n" + resultsHeading + "\n")
		for _, tc := range executed {
			renderResultBlock(&sb, tc)
		}
	}

	return sb.String()
}

func executedCases(catalog *model.Catalog) []*model.TestCase {
	var out []*model.TestCase
	for _, tc := range catalog.Cases() {
		if tc.Executed() {
			out = append(out, tc)
		}
	}
	return out
}

func renderResultBlock(sb *strings.Builder, tc *model.TestCase) {
	sb.WriteString(fmt.Sprintf("\n#### %s\n", tc.ID))
	sb.WriteString(fmt.Sprintf("- **Prompt**: %s\n", tc.Description))
	if tc.LastOutput != "" {
		fence := outputFence(tc.LastOutput)
		sb.WriteString("- **Output**:\n")
		sb.WriteString(fence + "\n")
		sb.WriteString(tc.LastOutput + "\n")
		sb.WriteString(fence + "\n")
	}
	switch tc.Status {
	case model.StatusPass:
		sb.WriteString(fmt.Sprintf("- **Status**: [OK] %s\n", model.StatusPass))
	case model.StatusFail:
		sb.WriteString(fmt.Sprintf("- **Status**: [FAIL] %s\n", model.StatusFail))
	}
	if tc.Status == model.StatusFail && tc.FailureReason != "" {
		sb.WriteString(fmt.Sprintf("- **Reason**: %s\n", tc.FailureReason))
	}
}

// outputFence picks a fence longer than any backtick run inside the output so
// the captured text survives round-tripping verbatim.
func outputFence(output string) string {
	fence := "```"
	for strings.Contains(output, fence) {
		fence += "`"
	}
	return fence
}

// WriteFile atomically replaces the checklist at path with the rendered
// catalog. The write is all-or-nothing: a temp file in the same directory is
// renamed over the target only once fully written.
func WriteFile(path string, catalog *model.Catalog) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checklist-*.md")
	if err != nil {
		return fmt.Errorf("failed to create temp checklist: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(Render(catalog)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write checklist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close checklist: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace checklist %s: %w", path, err)
	}
	return nil
}

// LoadFile reads and parses the checklist at path.
func LoadFile(path string) (*model.Catalog, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read checklist %s: %w", path, err)
	}
	return Parse(string(data))
}
