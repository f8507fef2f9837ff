package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brandcrew/brandcrew/internal/crew"
	"github.com/brandcrew/brandcrew/internal/provider"
	"github.com/brandcrew/brandcrew/internal/repository"
)

// stubGenerator scripts generation responses and records requests.
type stubGenerator struct {
	mu      sync.Mutex
	calls   []provider.GenerateRequest
	respond func(ctx context.Context, call int, req *provider.GenerateRequest) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, req *provider.GenerateRequest) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, *req)
	call := len(s.calls)
	s.mu.Unlock()
	return s.respond(ctx, call, req)
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newPendingRun() *crew.Run {
	return &crew.Run{ID: crew.GenerateID("run"), ProjectID: "p1", Status: crew.StatusPending, StartedAt: time.Now()}
}

var testRequest = crew.Request{Topic: "The Future of Agentic AI", Guidelines: "Optimistic tone"}

func TestRunnerExecutesAllStagesInOrder(t *testing.T) {
	outputs := map[int]string{1: "draft A", 2: "review B", 3: "verdict C"}
	gen := &stubGenerator{respond: func(_ context.Context, call int, _ *provider.GenerateRequest) (string, error) {
		return outputs[call], nil
	}}
	runRepo := repository.NewMemoryRunRepository()
	runner := NewRunner(gen, runRepo, 0)

	run := newPendingRun()
	runRepo.Create(context.Background(), run)

	outcome, err := runner.Execute(context.Background(), run, testRequest, crew.DefaultStages(), "")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if run.Status != crew.StatusCompleted {
		t.Errorf("expected completed, got %q", run.Status)
	}
	if len(run.Stages) != 3 {
		t.Fatalf("expected 3 stage results, got %d", len(run.Stages))
	}
	wantRoles := []crew.Role{crew.RoleWriter, crew.RoleReviewer, crew.RoleCompliance}
	for i, role := range wantRoles {
		if run.Stages[i].Role != role {
			t.Errorf("stage %d: expected %q, got %q", i, role, run.Stages[i].Role)
		}
	}

	if outcome.Fields[crew.FieldDraft] != "draft A" || outcome.Fields[crew.FieldVerdict] != "verdict C" {
		t.Errorf("unexpected outcome fields: %v", outcome.Fields)
	}

	// The compliance prompt must carry both labeled prior sections.
	last := gen.calls[2]
	if !strings.Contains(last.Prompt, crew.RoleWriter.Label()+":\ndraft A") {
		t.Errorf("compliance prompt missing writer section: %q", last.Prompt)
	}
	if !strings.Contains(last.Prompt, crew.RoleReviewer.Label()+":\nreview B") {
		t.Errorf("compliance prompt missing reviewer section: %q", last.Prompt)
	}
	if last.ExpectedOutput == "" {
		t.Error("expected-output hint should be forwarded")
	}
}

func TestRunnerFailureAbortsRemainingStages(t *testing.T) {
	gen := &stubGenerator{respond: func(_ context.Context, call int, _ *provider.GenerateRequest) (string, error) {
		if call == 2 {
			return "", errors.New("provider exploded")
		}
		return "ok", nil
	}}
	runRepo := repository.NewMemoryRunRepository()
	runner := NewRunner(gen, runRepo, 0)

	run := newPendingRun()
	runRepo.Create(context.Background(), run)

	_, err := runner.Execute(context.Background(), run, testRequest, crew.DefaultStages(), "")
	if err == nil {
		t.Fatal("expected error")
	}

	if run.Status != crew.StatusFailed {
		t.Errorf("expected failed, got %q", run.Status)
	}
	// Only the stage before the failure is recorded; it is not rolled back.
	if len(run.Stages) != 1 || run.Stages[0].Role != crew.RoleWriter {
		t.Errorf("expected the writer result to survive, got %+v", run.Stages)
	}
	if !strings.Contains(run.ErrorDetail, string(crew.RoleReviewer)) {
		t.Errorf("error detail should name the failing role: %q", run.ErrorDetail)
	}
	if !strings.Contains(run.ErrorDetail, "provider exploded") {
		t.Errorf("error detail should carry the provider message: %q", run.ErrorDetail)
	}
	if gen.callCount() != 2 {
		t.Errorf("no stages should run after a failure, got %d calls", gen.callCount())
	}

	// The persisted record matches.
	stored, _ := runRepo.Get(context.Background(), run.ID)
	if stored.Status != crew.StatusFailed || len(stored.Stages) != 1 {
		t.Errorf("persisted run out of sync: %+v", stored)
	}
}

func TestRunnerEmptyOutputIsFailure(t *testing.T) {
	gen := &stubGenerator{respond: func(context.Context, int, *provider.GenerateRequest) (string, error) {
		return "   \n", nil
	}}
	runRepo := repository.NewMemoryRunRepository()
	runner := NewRunner(gen, runRepo, 0)

	run := newPendingRun()
	runRepo.Create(context.Background(), run)

	if _, err := runner.Execute(context.Background(), run, testRequest, crew.DefaultStages(), ""); err == nil {
		t.Fatal("expected error for empty model output")
	}
	if run.Status != crew.StatusFailed {
		t.Errorf("expected failed, got %q", run.Status)
	}
	if len(run.Stages) != 0 {
		t.Errorf("expected no stage results, got %d", len(run.Stages))
	}
}

func TestRunnerStageTimeout(t *testing.T) {
	gen := &stubGenerator{respond: func(ctx context.Context, _ int, _ *provider.GenerateRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	runRepo := repository.NewMemoryRunRepository()
	runner := NewRunner(gen, runRepo, 10*time.Millisecond)

	run := newPendingRun()
	runRepo.Create(context.Background(), run)

	if _, err := runner.Execute(context.Background(), run, testRequest, crew.DefaultStages(), ""); err == nil {
		t.Fatal("expected timeout to fail the run")
	}
	if run.Status != crew.StatusFailed {
		t.Errorf("expected failed, got %q", run.Status)
	}
}

func TestRunnerRejectsInvalidStageList(t *testing.T) {
	gen := &stubGenerator{respond: func(context.Context, int, *provider.GenerateRequest) (string, error) {
		return "ok", nil
	}}
	runRepo := repository.NewMemoryRunRepository()
	runner := NewRunner(gen, runRepo, 0)

	run := newPendingRun()
	runRepo.Create(context.Background(), run)

	bad := []crew.StageSpec{
		{Role: crew.RoleReviewer, DependsOn: []crew.Role{crew.RoleWriter}},
	}
	if _, err := runner.Execute(context.Background(), run, testRequest, bad, ""); err == nil {
		t.Fatal("expected error for unsatisfiable dependency")
	}
	if gen.callCount() != 0 {
		t.Error("no generation call should happen for an invalid stage list")
	}
	if run.Status != crew.StatusFailed {
		t.Errorf("expected failed, got %q", run.Status)
	}
}

// failingRunRepo rejects every write, standing in for an unreachable
// database behind the write-through layer.
type failingRunRepo struct {
	repository.RunRepository
	updates int
}

func (f *failingRunRepo) Update(context.Context, *crew.Run) error {
	f.updates++
	return errors.New("connection refused")
}

func TestRunnerSurvivesPersistenceErrors(t *testing.T) {
	gen := &stubGenerator{respond: func(_ context.Context, call int, _ *provider.GenerateRequest) (string, error) {
		return fmt.Sprintf("out %d", call), nil
	}}
	repo := &failingRunRepo{RunRepository: repository.NewMemoryRunRepository()}
	runner := NewRunner(gen, repo, 0)

	run := newPendingRun()
	outcome, err := runner.Execute(context.Background(), run, testRequest, crew.DefaultStages(), "")
	if err != nil {
		t.Fatalf("execute should not abort on a persistence error: %v", err)
	}
	if run.Status != crew.StatusCompleted {
		t.Errorf("expected completed, got %q", run.Status)
	}
	if outcome.Fields[crew.FieldDraft] != "out 1" {
		t.Errorf("unexpected outcome: %+v", outcome.Fields)
	}
	if repo.updates == 0 {
		t.Error("expected persistence attempts despite failures")
	}
}

func TestRunnerReducedVariant(t *testing.T) {
	gen := &stubGenerator{respond: func(_ context.Context, call int, _ *provider.GenerateRequest) (string, error) {
		if call == 1 {
			return "the draft", nil
		}
		return "APPROVED", nil
	}}
	runRepo := repository.NewMemoryRunRepository()
	runner := NewRunner(gen, runRepo, 0)

	run := newPendingRun()
	runRepo.Create(context.Background(), run)

	outcome, err := runner.Execute(context.Background(), run, testRequest, crew.ReviewStages(), "")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(run.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(run.Stages))
	}
	if outcome.FinalText != "APPROVED" {
		t.Errorf("final text should come from the last stage, got %q", outcome.FinalText)
	}
}
