package refine

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubRefiner struct {
	lines []string
	err   error
}

func (s stubRefiner) Refine(context.Context, string) ([]string, error) {
	return s.lines, s.err
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("first\n\n  second  \n\t\nthird")
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestFallback_ProviderError(t *testing.T) {
	stats := NewStats(time.Hour)
	f := WithFallback(stubRefiner{err: errors.New("boom")}, stats, nil)

	got, err := f.Refine(context.Background(), "line one\nline two")
	var de *DegradedError
	if !errors.As(err, &de) || de.Err.Error() != "boom" {
		t.Fatalf("expected DegradedError wrapping the provider error, got %v", err)
	}
	if len(got) != 2 || got[0] != "line one" || got[1] != "line two" {
		t.Errorf("expected split lines, got %v", got)
	}
	if snap := stats.Snapshot(); snap.Count != 1 || snap.Failures != 1 {
		t.Errorf("expected one failed sample, got %+v", snap)
	}
}

func TestFallback_ProviderSuccess(t *testing.T) {
	f := WithFallback(stubRefiner{lines: []string{"merged statement"}}, nil, nil)
	got, err := f.Refine(context.Background(), "merged\nstatement")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "merged statement" {
		t.Errorf("expected provider lines, got %v", got)
	}
}

func TestFallback_EmptyInput(t *testing.T) {
	f := WithFallback(stubRefiner{err: errors.New("should not be called")}, nil, nil)
	got, err := f.Refine(context.Background(), "   ")
	if err != nil || got != nil {
		t.Errorf("expected nil result for blank input, got %v, %v", got, err)
	}
}

func TestFallback_Observe(t *testing.T) {
	var seen []bool
	f := WithFallback(stubRefiner{err: errors.New("boom")}, nil, nil).
		Observe(func(ok bool) { seen = append(seen, ok) })
	f.Refine(context.Background(), "a\nb")

	ok := WithFallback(stubRefiner{lines: []string{"a"}}, nil, nil).
		Observe(func(ok bool) { seen = append(seen, ok) })
	ok.Refine(context.Background(), "a")

	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Errorf("expected [false true], got %v", seen)
	}
}

func TestParseLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"bare array", `["a", "b"]`, 2},
		{"code fence", "```json\n[\"a\", \" \", \"b\"]\n```", 2},
		{"surrounding prose", `Here you go: ["a"] done`, 1},
	}
	for _, tt := range tests {
		got, err := parseLines(tt.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("%s: expected %d lines, got %v", tt.name, tt.want, got)
		}
	}

	if _, err := parseLines("no array here"); err == nil {
		t.Error("expected error without a JSON array")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("bard", "", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	r, err := New("none", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.(LineSplitter); !ok {
		t.Errorf("expected LineSplitter, got %T", r)
	}
}
