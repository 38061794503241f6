// Package generator invokes the external expert-cli process that turns a
// natural-language prompt into query text.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
)

// DefaultMaxOutputBytes caps captured output. A pathological generation is
// truncated, never rejected, so a single runaway response cannot grow the
// checklist unboundedly.
const DefaultMaxOutputBytes = 8192

// assistantPrefix separates the echoed conversation from the generation in
// expert-cli chat output.
const assistantPrefix = "Assistant:"

// Options configure the CLI invocation.
type Options struct {
	Path        string // path to the expert-cli binary
	Expert      string // expert identifier, e.g. "neo4j@0.2.3"
	Device      string // device selector passed through when set
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	RawPrompt   bool          // pass the prompt through without the chat template
	Timeout     time.Duration // per-invocation bound; zero means no bound
	MaxOutput   int           // captured output cap in bytes; zero means DefaultMaxOutputBytes
}

// CLI is a model.Generator backed by the expert-cli subprocess.
type CLI struct {
	opts Options
}

// NewCLI returns a generator that shells out to expert-cli with the given
// options.
func NewCLI(opts Options) *CLI {
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = DefaultMaxOutputBytes
	}
	return &CLI{opts: opts}
}

// Generate runs one chat invocation and returns the sanitized generation.
// The prompt sent to the CLI is the schema block followed by the question,
// matching the format the adapter was trained on. Errors are process-level
// only: spawn failure, non-zero exit, or deadline exceeded.
func (g *CLI) Generate(ctx context.Context, prompt, schema string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.opts.Path, g.buildArgs(fullPrompt(prompt, schema))...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("timed out after %s", g.opts.Timeout)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", fmt.Errorf("exit %d: %s", ee.ExitCode(), firstLine(stderr.String()))
		}
		return "", err
	}

	return g.sanitize(stdout.String()), nil
}

func (g *CLI) buildArgs(prompt string) []string {
	args := []string{
		"chat",
		"--experts", g.opts.Expert,
		"--prompt", prompt,
	}
	if g.opts.MaxTokens > 0 {
		args = append(args, "--max-tokens", strconv.Itoa(g.opts.MaxTokens))
	}
	if g.opts.Temperature > 0 {
		args = append(args, "--temperature", strconv.FormatFloat(g.opts.Temperature, 'f', -1, 64))
	}
	if g.opts.TopP > 0 {
		args = append(args, "--top-p", strconv.FormatFloat(g.opts.TopP, 'f', -1, 64))
	}
	if g.opts.TopK > 0 {
		args = append(args, "--top-k", strconv.Itoa(g.opts.TopK))
	}
	if g.opts.Device != "" {
		args = append(args, "--device", g.opts.Device)
	}
	if g.opts.RawPrompt {
		args = append(args, "--raw-prompt")
	}
	return args
}

// sanitize strips terminal escape codes, drops the echoed conversation up to
// the Assistant: marker, and enforces the output cap.
func (g *CLI) sanitize(raw string) string {
	out := stripansi.Strip(raw)
	out = strings.TrimSpace(out)
	if idx := strings.Index(out, assistantPrefix); idx >= 0 {
		out = strings.TrimSpace(out[idx+len(assistantPrefix):])
	}
	return Truncate(out, g.opts.MaxOutput)
}

// Truncate bounds s to max bytes, marking the cut so a truncated capture is
// distinguishable from a complete one.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n[truncated]"
}

func fullPrompt(prompt, schema string) string {
	if schema == "" {
		return prompt
	}
	return schema + "\n\n" + prompt
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
