// Package classify decides whether captured generator output is a usable
// Cypher query. The checks are heuristic string inspection, kept behind the
// model.Classifier interface so a grammar-backed validator can replace them
// without touching the tracking or rendering code.
package classify

import (
	"regexp"
	"strings"

	"github.com/mika/cycheck/internal/model"
)

// Failure reasons recorded alongside FAIL verdicts. Advisory text only.
const (
	ReasonEmpty         = "empty output"
	ReasonTimeout       = "timeout"
	ReasonRuntimeError  = "runtime error"
	ReasonWrongDialect  = "wrong dialect"
	ReasonExplanatory   = "explanatory text instead of query"
	ReasonNoProjection  = "incomplete: missing projection clause"
	ReasonNoMatchClause = "incomplete: missing match clause"
	ReasonAmbiguous     = "ambiguous output"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)

	// Pattern-match clauses that open a Cypher query.
	matchClauseRe = regexp.MustCompile(`(?im)^\s*(OPTIONAL\s+)?(MATCH|CREATE|MERGE)\b`)
	// Result-projection clauses. Write terminals (DELETE, SET) count for the
	// update-shaped categories, which have no RETURN in their gold queries.
	projectionRe = regexp.MustCompile(`(?i)\b(RETURN|DELETE|DETACH\s+DELETE|SET)\b`)

	sqlDialectRe = regexp.MustCompile(`(?is)\bSELECT\b.*\bFROM\b`)

	errorMarkerRe = regexp.MustCompile(`(?i)^\[?ERROR\b|^Error:`)

	// Conversational openers the base model falls back to when it explains
	// instead of answering with a query.
	proseOpenerRe = regexp.MustCompile(`(?i)^(Okay|Ok,|Let me|Let's|I need|I will|I'll|Wait|Hmm|So |Sure|First|To |The user|Looking at|Here)`)
)

// Cypher is the heuristic classifier used against expert-cli output.
type Cypher struct{}

// NewCypher returns the default heuristic classifier.
func NewCypher() *Cypher {
	return &Cypher{}
}

// Classify inspects raw generator output and returns a verdict. Only output
// containing both a pattern-match clause and a result-projection clause
// passes; every other shape fails with a best-effort reason. Ambiguity is
// fail-closed: an unusable result must never be recorded as success.
func (c *Cypher) Classify(output string) model.Verdict {
	// Reasoning blocks are scaffolding, not the answer.
	cleaned := strings.TrimSpace(thinkBlockRe.ReplaceAllString(output, ""))

	if cleaned == "" {
		return fail(ReasonEmpty)
	}
	if cleaned == "[TIMEOUT]" {
		return fail(ReasonTimeout)
	}
	if errorMarkerRe.MatchString(cleaned) {
		return fail(ReasonRuntimeError)
	}

	hasMatch := matchClauseRe.MatchString(cleaned)
	hasProjection := projectionRe.MatchString(cleaned)

	if hasMatch && hasProjection {
		return model.Verdict{Status: model.StatusPass}
	}

	if sqlDialectRe.MatchString(cleaned) && !hasMatch {
		return fail(ReasonWrongDialect)
	}
	if proseOpenerRe.MatchString(cleaned) {
		return fail(ReasonExplanatory)
	}
	if hasMatch && !hasProjection {
		return fail(ReasonNoProjection)
	}
	if hasProjection && !hasMatch {
		return fail(ReasonNoMatchClause)
	}

	return fail(ReasonAmbiguous)
}

func fail(reason string) model.Verdict {
	return model.Verdict{Status: model.StatusFail, Reason: reason}
}
