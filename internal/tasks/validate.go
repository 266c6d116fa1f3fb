package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxTitleLen = 200
	maxNoteLen  = 2000
	dateLayout  = "2006-01-02"
)

var validStatuses = map[TaskStatus]bool{
	TaskTodo:       true,
	TaskInProgress: true,
	TaskDone:       true,
	TaskBlocked:    true,
}

var validResults = map[TestResult]bool{
	ResultUntested: true,
	ResultPass:     true,
	ResultFail:     true,
	ResultBlocked:  true,
}

// Validate checks a plan and normalizes it in place: missing ids are
// generated, blank status/result get defaults and progress is clamped.
func Validate(p *Plan) error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalid)
	}
	p.FigmaID = strings.TrimSpace(p.FigmaID)
	if p.FigmaID == "" {
		return fmt.Errorf("%w: figmaId is required", ErrInvalid)
	}

	for i := range p.Tasks {
		if err := validateTask(&p.Tasks[i]); err != nil {
			return fmt.Errorf("%w: task %d: %s", ErrInvalid, i, err)
		}
	}
	for i := range p.Tests {
		if err := validateTest(&p.Tests[i]); err != nil {
			return fmt.Errorf("%w: test %d: %s", ErrInvalid, i, err)
		}
	}
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	if p.Tests == nil {
		p.Tests = []TestCase{}
	}
	return nil
}

func validateTask(t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" || len(t.Title) > maxTitleLen {
		return fmt.Errorf("title must be 1-%d characters", maxTitleLen)
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if !validStatuses[t.Status] {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	t.Progress = min(max(t.Progress, 0), 100)

	var start, end time.Time
	var err error
	if t.Start != "" {
		if start, err = time.Parse(dateLayout, t.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if t.End != "" {
		if end, err = time.Parse(dateLayout, t.End); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end %s is before start %s", t.End, t.Start)
	}
	return nil
}

func validateTest(tc *TestCase) error {
	tc.Title = strings.TrimSpace(tc.Title)
	if tc.Title == "" || len(tc.Title) > maxTitleLen {
		return fmt.Errorf("title must be 1-%d characters", maxTitleLen)
	}
	if len(tc.Note) > maxNoteLen {
		return fmt.Errorf("note exceeds %d characters", maxNoteLen)
	}
	if tc.ID == "" {
		tc.ID = uuid.New().String()
	}
	if tc.Result == "" {
		tc.Result = ResultUntested
	}
	if !validResults[tc.Result] {
		return fmt.Errorf("unknown result %q", tc.Result)
	}
	return nil
}

// Summary counts task and test outcomes of a plan.
type Summary struct {
	Tasks     int `json:"tasks"`
	TasksDone int `json:"tasksDone"`
	Tests     int `json:"tests"`
	TestsPass int `json:"testsPass"`
	TestsFail int `json:"testsFail"`
}

func (p *Plan) Summary() Summary {
	var s Summary
	if p == nil {
		return s
	}
	s.Tasks = len(p.Tasks)
	for _, t := range p.Tasks {
		if t.Status == TaskDone {
			s.TasksDone++
		}
	}
	s.Tests = len(p.Tests)
	for _, tc := range p.Tests {
		switch tc.Result {
		case ResultPass:
			s.TestsPass++
		case ResultFail:
			s.TestsFail++
		}
	}
	return s
}
