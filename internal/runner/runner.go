// Package runner implements the case execution loop.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mika/cycheck/internal/model"
	"golang.org/x/sync/errgroup"
)

// Progress receives per-case notifications as the run advances. Calls are
// serialized by the runner.
type Progress interface {
	CaseStarted(tc *model.TestCase, index, total int)
	CaseFinished(tc *model.TestCase, attempt model.Attempt)
}

// Config holds the knobs for one run.
type Config struct {
	Generator  model.Generator
	Classifier model.Classifier
	Parallel   int // worker bound; values below 2 mean sequential
	Progress   Progress
}

// Run executes the given cases against the generator, classifying and
// recording each outcome in place. Per-case failures, including generator
// process errors and timeouts, never abort the loop: they land as FAIL
// outcomes and the run continues. The returned attempts are in catalog order
// regardless of worker interleaving, and the function only returns once every
// in-flight case has completed, so callers may render immediately after.
func Run(ctx context.Context, cases []*model.TestCase, cfg Config) ([]model.Attempt, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}

	attempts := make([]model.Attempt, len(cases))

	if cfg.Parallel < 2 {
		for i, tc := range cases {
			if ctx.Err() != nil {
				return attempts[:i], ctx.Err()
			}
			notifyStart(cfg, tc, i, len(cases))
			attempts[i] = RunCase(ctx, tc, cfg.Generator, cfg.Classifier)
			notifyFinish(cfg, tc, attempts[i])
		}
		return attempts, nil
	}

	// Parallel mode: each case is touched by exactly one worker and the
	// errgroup wait is the barrier before any summary render.
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)

	for i, tc := range cases {
		i, tc := i, tc
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			mu.Lock()
			notifyStart(cfg, tc, i, len(cases))
			mu.Unlock()

			attempt := RunCase(gctx, tc, cfg.Generator, cfg.Classifier)

			mu.Lock()
			attempts[i] = attempt
			notifyFinish(cfg, tc, attempt)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return attempts, err
	}
	return attempts, nil
}

// RunCase executes a single case: invoke the generator with the case prompt
// and schema, classify the captured output, and overwrite the case outcome in
// place. The case always leaves in PASS or FAIL, never PENDING.
func RunCase(ctx context.Context, tc *model.TestCase, gen model.Generator, cls model.Classifier) model.Attempt {
	start := time.Now()

	attempt := model.Attempt{
		CaseID:   tc.ID,
		Category: tc.Category,
		Prompt:   tc.Description,
	}

	output, err := gen.Generate(ctx, tc.Description, tc.Schema)
	attempt.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		tc.Status = model.StatusFail
		tc.LastOutput = ""
		tc.FailureReason = fmt.Sprintf("generator error: %s", err)
		attempt.Status = tc.Status
		attempt.Reason = tc.FailureReason
		attempt.Error = err.Error()
		return attempt
	}

	verdict := cls.Classify(output)

	tc.Status = verdict.Status
	tc.LastOutput = output
	tc.FailureReason = ""
	if verdict.Status == model.StatusFail {
		tc.FailureReason = verdict.Reason
	}

	attempt.Output = output
	attempt.Status = tc.Status
	attempt.Reason = tc.FailureReason
	return attempt
}

func notifyStart(cfg Config, tc *model.TestCase, index, total int) {
	if cfg.Progress != nil {
		cfg.Progress.CaseStarted(tc, index, total)
	}
}

func notifyFinish(cfg Config, tc *model.TestCase, attempt model.Attempt) {
	if cfg.Progress != nil {
		cfg.Progress.CaseFinished(tc, attempt)
	}
}
