// Package model defines the shared data types for cycheck.
package model

import "context"

// Status represents the recorded outcome of a test case.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
)

// TestCase is a single categorized prompt with its recorded outcome.
// ID and Category are fixed once the catalog is defined; Status, LastOutput
// and FailureReason are overwritten in place on every run.
type TestCase struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Schema        string `json:"schema,omitempty"`
	Status        Status `json:"status"`
	LastOutput    string `json:"lastOutput,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Executed reports whether the case has a recorded outcome.
func (t *TestCase) Executed() bool {
	return t.Status != StatusPending
}

// Category is an ordered group of test cases under one heading.
type Category struct {
	Name  string     `json:"name"`
	Cases []TestCase `json:"cases"`
}

// Completed returns how many cases in the category have an outcome.
func (c *Category) Completed() int {
	n := 0
	for i := range c.Cases {
		if c.Cases[i].Executed() {
			n++
		}
	}
	return n
}

// Catalog is the full ordered checklist: categories in document order, each
// with its cases in document order. Nothing is ever deleted from a catalog;
// outcomes are only overwritten.
type Catalog struct {
	Title      string     `json:"title"`
	Categories []Category `json:"categories"`
}

// Total returns the number of cases across all categories.
func (c *Catalog) Total() int {
	n := 0
	for i := range c.Categories {
		n += len(c.Categories[i].Cases)
	}
	return n
}

// Completed returns the number of cases with a recorded outcome.
func (c *Catalog) Completed() int {
	n := 0
	for i := range c.Categories {
		n += c.Categories[i].Completed()
	}
	return n
}

// Find returns a pointer to the case with the given id, or nil. The pointer
// aliases catalog storage so callers can mutate in place.
func (c *Catalog) Find(id string) *TestCase {
	for i := range c.Categories {
		for j := range c.Categories[i].Cases {
			if c.Categories[i].Cases[j].ID == id {
				return &c.Categories[i].Cases[j]
			}
		}
	}
	return nil
}

// Cases returns pointers to every case in catalog order.
func (c *Catalog) Cases() []*TestCase {
	out := make([]*TestCase, 0, c.Total())
	for i := range c.Categories {
		for j := range c.Categories[i].Cases {
			out = append(out, &c.Categories[i].Cases[j])
		}
	}
	return out
}

// Verdict is the result of classifying one captured generator output.
type Verdict struct {
	Status Status
	Reason string
}

// Classifier decides whether a captured output counts as a usable query.
// Implementations must be fail-closed: anything ambiguous is a Fail, never a
// silent Pass.
type Classifier interface {
	Classify(output string) Verdict
}

// Generator produces text for a prompt, optionally conditioned on a schema
// description. It stands in for the external expert-cli process; errors are
// process-level failures (spawn, timeout), not bad generations.
type Generator interface {
	Generate(ctx context.Context, prompt, schema string) (string, error)
}

// Attempt records one execution of one case within a run. The catalog keeps
// only the latest outcome; the ordered attempt history lives in the run record.
type Attempt struct {
	CaseID     string `json:"caseId"`
	Category   string `json:"category"`
	Prompt     string `json:"prompt"`
	Output     string `json:"output,omitempty"`
	Status     Status `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// RunFlags captures CLI flags for run.json.
type RunFlags struct {
	Only        string   `json:"only,omitempty"`
	Skip        []string `json:"skip,omitempty"`
	All         bool     `json:"all"`
	RerunFailed bool     `json:"rerunFailed"`
	Parallel    int      `json:"parallel"`
	DryRun      bool     `json:"dryRun"`
	Config      string   `json:"config,omitempty"`
	Checklist   string   `json:"checklist,omitempty"`
}

// RunRecord is the top-level JSON written per run.
type RunRecord struct {
	RunID     string    `json:"runId"`
	Timestamp string    `json:"timestamp"`
	Expert    string    `json:"expert"`
	Checklist string    `json:"checklist"`
	Flags     RunFlags  `json:"flags"`
	Attempts  []Attempt `json:"attempts"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
}
