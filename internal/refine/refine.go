package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Refiner turns a raw annotation text into a list of clean statements.
type Refiner interface {
	Refine(ctx context.Context, text string) ([]string, error)
}

// New returns the refiner for a provider name. "none" or "" yields a
// LineSplitter.
func New(provider, apiKey, model string) (Refiner, error) {
	switch strings.ToLower(provider) {
	case "", "none":
		return LineSplitter{}, nil
	case "claude", "anthropic":
		return NewClaude(apiKey, model)
	case "openai", "gpt":
		return NewOpenAI(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown refine provider: %s (supported: none, claude, openai)", provider)
	}
}

// LineSplitter splits text on newlines and drops blank lines.
type LineSplitter struct{}

func (LineSplitter) Refine(_ context.Context, text string) ([]string, error) {
	return SplitLines(text), nil
}

// SplitLines returns the trimmed non-empty lines of text.
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// DegradedError accompanies usable lines produced by the fallback after the
// wrapped refiner failed.
type DegradedError struct {
	Err error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("refine degraded to line split: %v", e.Err)
}

func (e *DegradedError) Unwrap() error { return e.Err }

// Fallback wraps a Refiner so that a failure still yields the split lines
// of the input. The lines are returned alongside a *DegradedError.
type Fallback struct {
	next    Refiner
	stats   *Stats
	log     *slog.Logger
	observe func(ok bool)
}

func WithFallback(next Refiner, stats *Stats, log *slog.Logger) *Fallback {
	return &Fallback{next: next, stats: stats, log: log}
}

func (f *Fallback) Refine(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	start := time.Now()
	lines, err := f.next.Refine(ctx, text)
	if f.stats != nil {
		f.stats.Record(time.Since(start).Milliseconds(), err == nil)
	}
	if f.observe != nil {
		f.observe(err == nil && len(lines) > 0)
	}
	if err != nil {
		if f.log != nil {
			f.log.Warn("refine failed, using raw lines", "error", err)
		}
		return SplitLines(text), &DegradedError{Err: err}
	}
	if len(lines) == 0 {
		return SplitLines(text), nil
	}
	return lines, nil
}

// Observe registers fn to be told whether each call was served by the
// wrapped refiner (true) or by the fallback (false).
func (f *Fallback) Observe(fn func(ok bool)) *Fallback {
	f.observe = fn
	return f
}

// Stats returns the latency tracker, which may be nil.
func (f *Fallback) Stats() *Stats {
	return f.stats
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// parseLines reads a JSON array of strings out of a model response that may
// be wrapped in a code fence or surrounding prose.
func parseLines(response string) ([]string, error) {
	text := stripCodeBlock(response)

	var lines []string
	if err := json.Unmarshal([]byte(text), &lines); err == nil {
		return cleanLines(lines), nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response: %s", truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &lines); err != nil {
		return nil, fmt.Errorf("parse lines json: %w (raw: %s)", err, truncate(text, 200))
	}
	return cleanLines(lines), nil
}

func cleanLines(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
