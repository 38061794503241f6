package features

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/mika/cycheck/internal/checklist"
	"github.com/mika/cycheck/internal/classify"
	"github.com/mika/cycheck/internal/model"
	"github.com/mika/cycheck/internal/runner"
)

// sharedContext holds ALL state for a scenario - used by all step definitions
type sharedContext struct {
	document string
	catalog  *model.Catalog
	warnings []string
	loadErr  error

	answers  map[string]string
	failures map[string]string

	verdict model.Verdict
}

func newSharedContext() *sharedContext {
	return &sharedContext{
		answers:  map[string]string{},
		failures: map[string]string{},
	}
}

// scriptedGenerator serves canned answers keyed by case id; the prompt is
// looked up through the catalog the scenario loaded.
type scriptedGenerator struct {
	ctx *sharedContext
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	id := g.ctx.caseIDForPrompt(prompt)
	if msg, ok := g.ctx.failures[id]; ok {
		return "", fmt.Errorf("%s", msg)
	}
	if out, ok := g.ctx.answers[id]; ok {
		return out, nil
	}
	return "", nil
}

func (c *sharedContext) caseIDForPrompt(prompt string) string {
	if c.catalog == nil {
		return ""
	}
	for _, tc := range c.catalog.Cases() {
		if tc.Description == prompt {
			return tc.ID
		}
	}
	return ""
}

func (c *sharedContext) aChecklistDocument(doc *godog.DocString) error {
	c.document = doc.Content
	return nil
}

func (c *sharedContext) theGeneratorAnswersWith(id string, doc *godog.DocString) error {
	c.answers[id] = doc.Content
	return nil
}

func (c *sharedContext) theGeneratorFailsForWith(id, message string) error {
	c.failures[id] = message
	return nil
}

func (c *sharedContext) iLoadTheChecklist() error {
	c.catalog, c.warnings, c.loadErr = checklist.Parse(c.document)
	return nil
}

func (c *sharedContext) iRunAllPendingCases() error {
	if c.loadErr != nil {
		return fmt.Errorf("checklist did not load: %w", c.loadErr)
	}
	var pending []*model.TestCase
	for _, tc := range c.catalog.Cases() {
		if tc.Status == model.StatusPending {
			pending = append(pending, tc)
		}
	}
	_, err := runner.Run(context.Background(), pending, runner.Config{
		Generator:  &scriptedGenerator{ctx: c},
		Classifier: classify.NewCypher(),
	})
	return err
}

func (c *sharedContext) theCatalogHasCasesInCategories(cases, categories int) error {
	if c.loadErr != nil {
		return fmt.Errorf("checklist did not load: %w", c.loadErr)
	}
	if got := c.catalog.Total(); got != cases {
		return fmt.Errorf("expected %d cases, got %d", cases, got)
	}
	if got := len(c.catalog.Categories); got != categories {
		return fmt.Errorf("expected %d categories, got %d", categories, got)
	}
	return nil
}

func (c *sharedContext) caseHasStatus(id, status string) error {
	tc, err := c.findCase(id)
	if err != nil {
		return err
	}
	if string(tc.Status) != status {
		return fmt.Errorf("case %s has status %s, expected %s", id, tc.Status, status)
	}
	return nil
}

func (c *sharedContext) caseHasFailureReason(id, reason string) error {
	tc, err := c.findCase(id)
	if err != nil {
		return err
	}
	if tc.FailureReason != reason {
		return fmt.Errorf("case %s has reason %q, expected %q", id, tc.FailureReason, reason)
	}
	return nil
}

func (c *sharedContext) findCase(id string) (*model.TestCase, error) {
	if c.catalog == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}
	tc := c.catalog.Find(id)
	if tc == nil {
		return nil, fmt.Errorf("case %s not found", id)
	}
	return tc, nil
}

func (c *sharedContext) loadingFailsWithAParseError() error {
	if c.loadErr == nil {
		return fmt.Errorf("expected a parse error, load succeeded")
	}
	var pe *checklist.ParseError
	if !asParseError(c.loadErr, &pe) {
		return fmt.Errorf("expected *checklist.ParseError, got %T: %v", c.loadErr, c.loadErr)
	}
	return nil
}

func (c *sharedContext) warningsAreReported(n int) error {
	if got := len(c.warnings); got != n {
		return fmt.Errorf("expected %d warnings, got %d: %v", n, got, c.warnings)
	}
	return nil
}

func (c *sharedContext) theRenderedDocumentContains(snippet string) error {
	doc := checklist.Render(c.catalog)
	if !contains(doc, snippet) {
		return fmt.Errorf("rendered document missing %q:\n%s", snippet, doc)
	}
	return nil
}

func (c *sharedContext) renderingTwiceYieldsIdenticalDocuments() error {
	first := checklist.Render(c.catalog)
	second := checklist.Render(c.catalog)
	if first != second {
		return fmt.Errorf("re-rendering an unchanged catalog changed the document")
	}
	return nil
}

func (c *sharedContext) iClassifyTheOutput(output string) error {
	c.verdict = classify.NewCypher().Classify(output)
	return nil
}

func (c *sharedContext) theVerdictIsWithReason(status, reason string) error {
	if string(c.verdict.Status) != status {
		return fmt.Errorf("verdict status %s, expected %s", c.verdict.Status, status)
	}
	if c.verdict.Reason != reason {
		return fmt.Errorf("verdict reason %q, expected %q", c.verdict.Reason, reason)
	}
	return nil
}
