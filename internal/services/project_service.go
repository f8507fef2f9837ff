package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brandcrew/brandcrew/internal/crew"
	"github.com/brandcrew/brandcrew/internal/repository"
)

// SubmitInput is the caller-supplied payload for a new project.
type SubmitInput struct {
	Topic       string
	Guidelines  string
	ProjectName string
	APIKey      string // optional override of the configured provider credential
}

// ProjectService owns the project lifecycle: validation, submission,
// background execution, and status reads.
type ProjectService struct {
	projects      repository.ProjectRepository
	runs          repository.RunRepository
	runner        *Runner
	limiter       *ConcurrencyLimiter
	stages        []crew.StageSpec
	hasCredential bool
}

func NewProjectService(
	projects repository.ProjectRepository,
	runs repository.RunRepository,
	runner *Runner,
	limiter *ConcurrencyLimiter,
	stages []crew.StageSpec,
	hasCredential bool,
) *ProjectService {
	return &ProjectService{
		projects:      projects,
		runs:          runs,
		runner:        runner,
		limiter:       limiter,
		stages:        stages,
		hasCredential: hasCredential,
	}
}

// Submit validates the input, creates the project and its run, and starts
// execution in the background. It returns immediately: the project's
// observable status at this point is pending or processing, never a
// terminal one. Validation failures are synchronous and create nothing.
func (s *ProjectService) Submit(ctx context.Context, in SubmitInput) (*crew.Project, error) {
	req := crew.Request{Topic: in.Topic, Guidelines: in.Guidelines}.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if in.APIKey == "" && !s.hasCredential {
		return nil, &crew.ValidationError{Field: "api_key", Reason: "provider API key is required"}
	}

	name := in.ProjectName
	if name == "" {
		name = crew.DefaultName(req.Topic)
	}

	now := time.Now()
	project := &crew.Project{
		ID:          uuid.NewString(),
		ProjectName: name,
		Topic:       req.Topic,
		Guidelines:  req.Guidelines,
		Status:      crew.ProjectPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	run := &crew.Run{
		ID:        crew.GenerateID("run"),
		ProjectID: project.ID,
		Status:    crew.StatusPending,
		StartedAt: now,
	}
	project.RunID = run.ID

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}

	// Snapshot before handing the record to its owning goroutine; after
	// the go statement only that goroutine may touch project.
	snapshot := *project

	// Fire and forget: the run outlives the submit request, so execution
	// gets a detached context. A caller abandoning interest does not stop
	// in-flight generation calls.
	go s.process(context.Background(), project, run, req, in.APIKey)

	return &snapshot, nil
}

// process is the run's owning goroutine. A failed run only marks its own
// records; it never affects unrelated runs.
func (s *ProjectService) process(ctx context.Context, project *crew.Project, run *crew.Run, req crew.Request, apiKey string) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx, project.ID); err != nil {
			s.markError(ctx, project, err.Error())
			return
		}
		defer s.limiter.Release(project.ID)
	}

	s.setProjectStatus(ctx, project, crew.ProjectProcessing)

	outcome, err := s.runner.Execute(ctx, run, req, s.stages, apiKey)
	if err != nil {
		s.markError(ctx, project, err.Error())
		return
	}

	project.WriterOutput = outcome.Fields[crew.FieldDraft]
	project.ReviewerFeedback = outcome.Fields[crew.FieldReview]
	project.FinalOutput = outcome.FinalText
	s.setProjectStatus(ctx, project, crew.ProjectCompleted)
}

func (s *ProjectService) setProjectStatus(ctx context.Context, project *crew.Project, status string) {
	project.Status = status
	project.UpdatedAt = time.Now()
	if err := s.projects.Update(ctx, project); err != nil {
		slog.Error("project update failed", "project", project.ID, "err", err)
	}
}

func (s *ProjectService) markError(ctx context.Context, project *crew.Project, msg string) {
	project.ErrorMessage = msg
	s.setProjectStatus(ctx, project, crew.ProjectError)
}

func (s *ProjectService) Get(ctx context.Context, id string) (*crew.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]*crew.Project, error) {
	return s.projects.List(ctx)
}

// Merge applies a raw field merge onto an existing project, mirroring the
// unchecked update endpoint of the HTTP surface. It is not part of the
// pipeline core and performs no validation beyond existence.
func (s *ProjectService) Merge(ctx context.Context, id string, fields map[string]any) (*crew.Project, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, key string) {
		if v, ok := fields[key].(string); ok {
			*dst = v
		}
	}
	setString(&project.ProjectName, "project_name")
	setString(&project.Topic, "topic")
	setString(&project.Guidelines, "guidelines")
	setString(&project.Status, "status")
	setString(&project.WriterOutput, "writer_output")
	setString(&project.ReviewerFeedback, "reviewer_feedback")
	setString(&project.FinalOutput, "final_output")
	setString(&project.ErrorMessage, "error_message")

	project.UpdatedAt = time.Now()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// RunStatus returns the run record and, once the run has completed, its
// decomposed outcome. Reads never block on in-flight execution.
func (s *ProjectService) RunStatus(ctx context.Context, runID string) (*crew.Run, *crew.Outcome, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != crew.StatusCompleted {
		return run, nil, nil
	}
	outcome, err := crew.Decompose(run.Stages, "")
	if err != nil {
		return run, nil, nil
	}
	return run, outcome, nil
}
