// Package crew defines the domain model for the content generation
// pipeline: the submitted request, the agent stages that run against it,
// the run record that tracks execution, and the decomposed outcome.
package crew

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies which pipeline agent produced a piece of text.
type Role string

const (
	RoleWriter     Role = "writer"
	RoleReviewer   Role = "reviewer"
	RoleCompliance Role = "compliance"
)

// Label returns the agent name used to prefix a role's output when it is
// injected into a later stage's prompt. Downstream stages (and the blob
// decomposer) locate prior sections by these labels.
func (r Role) Label() string {
	switch r {
	case RoleWriter:
		return "Creative Content Writer"
	case RoleReviewer:
		return "Brand Compliance Reviewer"
	case RoleCompliance:
		return "Legal and Ethics Compliance Officer"
	}
	return string(r)
}

// Request is the caller-supplied input for a pipeline run.
type Request struct {
	Topic      string `json:"topic"`
	Guidelines string `json:"guidelines"`
}

// Normalize trims surrounding whitespace from both fields.
func (r Request) Normalize() Request {
	return Request{
		Topic:      strings.TrimSpace(r.Topic),
		Guidelines: strings.TrimSpace(r.Guidelines),
	}
}

// Validate checks the non-empty invariant. Both fields must be non-empty
// after trimming; a violation rejects the request before any stage runs.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return &ValidationError{Field: "topic", Reason: "topic is required"}
	}
	if strings.TrimSpace(r.Guidelines) == "" {
		return &ValidationError{Field: "guidelines", Reason: "brand guidelines are required"}
	}
	return nil
}

// StageSpec is the static configuration for one pipeline stage. Specs are
// never mutated at runtime.
type StageSpec struct {
	Role           Role   `json:"role"`
	Goal           string `json:"goal"`
	Backstory      string `json:"backstory"`
	Description    string `json:"description"`     // prompt template with {{topic}}/{{guidelines}}
	ExpectedOutput string `json:"expected_output"` // advisory shape hint passed to the model
	DependsOn      []Role `json:"depends_on,omitempty"`
}

// StageResult is the immutable output of one executed stage.
type StageResult struct {
	Role       Role      `json:"role"`
	RawText    string    `json:"raw_text"`
	ProducedAt time.Time `json:"produced_at"`
}

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether no further transitions may leave this status.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether s -> to is a legal state transition.
func (s RunStatus) CanTransition(to RunStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	}
	return false
}

// Run tracks a single end-to-end execution of the stage sequence.
// It is created at submission and mutated only by its owning execution
// goroutine: status transitions and stage-result appends.
type Run struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"project_id"`
	Status      RunStatus     `json:"status"`
	Stages      []StageResult `json:"stages,omitempty"`
	ErrorDetail string        `json:"error_detail,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// SetStatus applies a state transition, rejecting any transition out of a
// terminal state or otherwise not permitted by the state machine.
func (r *Run) SetStatus(to RunStatus) error {
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("run %q: illegal transition %s -> %s", r.ID, r.Status, to)
	}
	r.Status = to
	if to.Terminal() {
		now := time.Now()
		r.CompletedAt = &now
	}
	return nil
}

// ValidationError reports invalid input rejected before a run is created.
// It is always surfaced synchronously to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
