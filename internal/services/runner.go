// Package services wires the domain model to storage and the generation
// capability: the stage runner, the project lifecycle, and concurrency
// limits.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brandcrew/brandcrew/internal/crew"
	"github.com/brandcrew/brandcrew/internal/provider"
	"github.com/brandcrew/brandcrew/internal/repository"
)

// Runner executes pipeline stages sequentially. Each stage receives the
// topic, the guidelines, and the labeled output of every dependency, and
// triggers exactly one generation call. The first failure aborts the rest
// of the pipeline; completed stage results are never rolled back.
type Runner struct {
	gen          provider.Generator
	runRepo      repository.RunRepository
	stageTimeout time.Duration
}

func NewRunner(gen provider.Generator, runRepo repository.RunRepository, stageTimeout time.Duration) *Runner {
	return &Runner{gen: gen, runRepo: runRepo, stageTimeout: stageTimeout}
}

// Execute runs the given stages in order against req, mutating run as the
// single owner of its record and persisting it at every transition.
// On success it returns the decomposed outcome. No retries happen at this
// level; a single failed generation call is fatal to the run.
func (r *Runner) Execute(ctx context.Context, run *crew.Run, req crew.Request, stages []crew.StageSpec, apiKey string) (*crew.Outcome, error) {
	if err := run.SetStatus(crew.StatusRunning); err != nil {
		return nil, err
	}
	r.persist(ctx, run)

	if err := crew.ValidateStages(stages); err != nil {
		return nil, r.fail(ctx, run, fmt.Errorf("invalid stage list: %w", err))
	}

	for _, spec := range stages {
		prompt, err := crew.BuildPrompt(spec, req, run.Stages)
		if err != nil {
			return nil, r.fail(ctx, run, fmt.Errorf("stage %s: %w", spec.Role, err))
		}

		text, err := r.generate(ctx, spec, prompt, apiKey)
		if err != nil {
			return nil, r.fail(ctx, run, fmt.Errorf("stage %s: %w", spec.Role, err))
		}

		run.Stages = append(run.Stages, crew.StageResult{
			Role:       spec.Role,
			RawText:    text,
			ProducedAt: time.Now(),
		})
		r.persist(ctx, run)
		slog.Info("stage completed", "run", run.ID, "role", spec.Role, "chars", len(text))
	}

	if err := run.SetStatus(crew.StatusCompleted); err != nil {
		return nil, err
	}
	r.persist(ctx, run)

	return crew.Decompose(run.Stages, "")
}

// generate performs the single bounded generation call for one stage.
// An empty result is treated the same as a failed call.
func (r *Runner) generate(ctx context.Context, spec crew.StageSpec, prompt, apiKey string) (string, error) {
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
	}

	text, err := r.gen.Generate(ctx, &provider.GenerateRequest{
		System:         crew.SystemPrompt(spec),
		Prompt:         prompt,
		ExpectedOutput: spec.ExpectedOutput,
		APIKey:         apiKey,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned empty output")
	}
	return text, nil
}

// persist writes the run record. A storage failure is logged rather than
// aborting execution; the in-memory record stays authoritative for reads.
func (r *Runner) persist(ctx context.Context, run *crew.Run) {
	if err := r.runRepo.Update(ctx, run); err != nil {
		slog.Error("run update failed", "run", run.ID, "err", err)
	}
}

// fail records the aborting error on the run. Stage results completed
// before the failure stay readable on the run record.
func (r *Runner) fail(ctx context.Context, run *crew.Run, err error) error {
	run.ErrorDetail = err.Error()
	if terr := run.SetStatus(crew.StatusFailed); terr != nil {
		slog.Error("run transition failed", "run", run.ID, "err", terr)
	}
	r.persist(ctx, run)
	slog.Warn("run failed", "run", run.ID, "err", err)
	return err
}
