package classify

import (
	"testing"

	"github.com/mika/cycheck/internal/model"
)

func TestClassify(t *testing.T) {
	c := NewCypher()

	tests := []struct {
		name   string
		output string
		status model.Status
		reason string
	}{
		{
			name:   "plain match return",
			output: "MATCH (p:Person) RETURN p.name",
			status: model.StatusPass,
		},
		{
			name:   "multiline with where",
			output: "MATCH (p:Person)\nWHERE p.age > 30\nRETURN p.name, p.age",
			status: model.StatusPass,
		},
		{
			name:   "optional match",
			output: "OPTIONAL MATCH (p:Person)-[:ACTED_IN]->(m:Movie)\nRETURN p, m",
			status: model.StatusPass,
		},
		{
			name:   "create with return",
			output: "CREATE (p:Person {name: 'Ana'}) RETURN p",
			status: model.StatusPass,
		},
		{
			name:   "delete terminal counts as projection",
			output: "MATCH (p:Person {name: 'Ana'}) DETACH DELETE p",
			status: model.StatusPass,
		},
		{
			name:   "reasoning block stripped before inspection",
			output: "<think>The user wants everyone.</think>\nMATCH (p:Person) RETURN p",
			status: model.StatusPass,
		},
		{
			name:   "explanatory prose",
			output: "Let me check the schema again...",
			status: model.StatusFail,
			reason: ReasonExplanatory,
		},
		{
			name:   "prose mentioning keywords inline",
			output: "To answer this I would match people and return their names.",
			status: model.StatusFail,
			reason: ReasonExplanatory,
		},
		{
			name:   "missing projection clause",
			output: "MATCH (p:Person) WHERE p.age > 30",
			status: model.StatusFail,
			reason: ReasonNoProjection,
		},
		{
			name:   "missing match clause",
			output: "RETURN 42",
			status: model.StatusFail,
			reason: ReasonNoMatchClause,
		},
		{
			name:   "sql dialect",
			output: "SELECT name FROM person WHERE age > 30;",
			status: model.StatusFail,
			reason: ReasonWrongDialect,
		},
		{
			name:   "runtime error marker",
			output: "Error: Training(NotFound) model.safetensors not found",
			status: model.StatusFail,
			reason: ReasonRuntimeError,
		},
		{
			name:   "bracketed error marker",
			output: "[ERROR: CLI not found]",
			status: model.StatusFail,
			reason: ReasonRuntimeError,
		},
		{
			name:   "timeout marker",
			output: "[TIMEOUT]",
			status: model.StatusFail,
			reason: ReasonTimeout,
		},
		{
			name:   "empty output",
			output: "",
			status: model.StatusFail,
			reason: ReasonEmpty,
		},
		{
			name:   "only a reasoning block",
			output: "<think>hmm, not sure what to do here</think>",
			status: model.StatusFail,
			reason: ReasonEmpty,
		},
		{
			name:   "unclassifiable fragment fails closed",
			output: "(p:Person)-[:KNOWS]->(q)",
			status: model.StatusFail,
			reason: ReasonAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(tt.output)
			if v.Status != tt.status {
				t.Errorf("Classify(%q).Status = %s, want %s", tt.output, v.Status, tt.status)
			}
			if tt.status == model.StatusFail && v.Reason != tt.reason {
				t.Errorf("Classify(%q).Reason = %q, want %q", tt.output, v.Reason, tt.reason)
			}
			if tt.status == model.StatusPass && v.Reason != "" {
				t.Errorf("pass verdict carries reason %q", v.Reason)
			}
		})
	}
}
