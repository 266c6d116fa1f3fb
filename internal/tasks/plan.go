package tasks

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no plan is stored for a figma id.
	ErrNotFound = errors.New("tasks: plan not found")

	// ErrInvalid is returned when a plan fails validation.
	ErrInvalid = errors.New("tasks: invalid plan")
)

// TaskStatus is the state of a WBS task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// TestResult is the outcome of a QA test case.
type TestResult string

const (
	ResultUntested TestResult = "untested"
	ResultPass     TestResult = "pass"
	ResultFail     TestResult = "fail"
	ResultBlocked  TestResult = "blocked"
)

// Task is one WBS planning item for a screen.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Assignee string     `json:"assignee,omitempty"`
	Start    string     `json:"start,omitempty"` // YYYY-MM-DD
	End      string     `json:"end,omitempty"`   // YYYY-MM-DD
	Progress int        `json:"progress"`
	Status   TaskStatus `json:"status"`
}

// TestCase is one QA check for a screen.
type TestCase struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Precondition string     `json:"precondition,omitempty"`
	Steps        []string   `json:"steps,omitempty"`
	Expected     string     `json:"expected,omitempty"`
	Result       TestResult `json:"result"`
	Note         string     `json:"note,omitempty"`
}

// Plan is everything stored for one screen, keyed by its figma id.
type Plan struct {
	FigmaID   string     `json:"figmaId"`
	Tasks     []Task     `json:"tasks"`
	Tests     []TestCase `json:"tests"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Store persists plans by figma id.
type Store interface {
	Get(ctx context.Context, figmaID string) (*Plan, error)
	Put(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, figmaID string) error
	List(ctx context.Context) ([]*Plan, error)
	Close() error
}
