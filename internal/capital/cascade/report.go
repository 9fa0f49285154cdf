package cascade

import (
	"errors"
	"fmt"

	"github.com/equity-capital-ledger/internal/domain/shared"
)

// Action is the kind of step the walker performed
type Action string

const (
	ActionCancel Action = "cancel"
	ActionUnlink Action = "unlink"
	ActionDelete Action = "delete"
)

// Outcome is the result of a single step
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomeBlocked Outcome = "blocked"
)

// Step records one action taken, or not taken, during a cascade
type Step struct {
	Action  Action  `json:"action"`
	Ref     Ref     `json:"ref"`
	Child   *Ref    `json:"child,omitempty"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
	Reason  string  `json:"reason,omitempty"`
}

func (s Step) String() string {
	if s.Child != nil {
		return fmt.Sprintf("%s %s -> %s: %s", s.Action, s.Ref, *s.Child, s.Outcome)
	}
	return fmt.Sprintf("%s %s: %s", s.Action, s.Ref, s.Outcome)
}

// Report collects every step of a cascade in execution order
type Report struct {
	Root  Ref    `json:"root"`
	Steps []Step `json:"steps"`
}

func (r *Report) add(s Step) {
	if s.Err != nil {
		s.Reason = s.Err.Error()
	}
	r.Steps = append(r.Steps, s)
}

// Failed returns the steps that failed outright
func (r *Report) Failed() []Step {
	var failed []Step
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// Completed reports whether no step failed or was blocked
func (r *Report) Completed() bool {
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed || s.Outcome == OutcomeBlocked {
			return false
		}
	}
	return true
}

// Err joins the errors of all failed steps, or returns nil when the cascade completed
func (r *Report) Err() error {
	if r.Completed() {
		return nil
	}
	failed := r.Failed()
	errs := make([]error, 0, len(failed))
	for _, s := range failed {
		errs = append(errs, fmt.Errorf("%s: %w", s.String(), s.Err))
	}
	return shared.ErrCascadeIncomplete{Root: r.Root.String(), Failed: len(failed), Cause: errors.Join(errs...)}
}
