package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/brandcrew/brandcrew/internal/crew"
)

const maxRunRecords = 1000

// MemoryRunRepository stores run records in memory with FIFO eviction.
// Records are copied on every write and read so the owning execution
// goroutine's mutations are never visible to pollers mid-update.
type MemoryRunRepository struct {
	mu    sync.RWMutex
	runs  map[string]*crew.Run
	order []string // insertion order for FIFO eviction
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*crew.Run)}
}

func (r *MemoryRunRepository) Create(_ context.Context, run *crew.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// FIFO eviction when at capacity.
	if len(r.order) >= maxRunRecords {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.runs, oldest)
	}

	r.runs[run.ID] = cloneRun(run)
	r.order = append(r.order, run.ID)
	return nil
}

func (r *MemoryRunRepository) Get(_ context.Context, id string) (*crew.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

func (r *MemoryRunRepository) Update(_ context.Context, run *crew.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return ErrNotFound
	}
	r.runs[run.ID] = cloneRun(run)
	return nil
}

func (r *MemoryRunRepository) ListByProject(_ context.Context, projectID string) ([]*crew.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*crew.Run
	for _, run := range r.runs {
		if run.ProjectID == projectID {
			out = append(out, cloneRun(run))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func cloneRun(run *crew.Run) *crew.Run {
	cp := *run
	if run.Stages != nil {
		cp.Stages = make([]crew.StageResult, len(run.Stages))
		copy(cp.Stages, run.Stages)
	}
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
