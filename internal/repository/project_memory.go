package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/brandcrew/brandcrew/internal/crew"
)

// MemoryProjectRepository implements ProjectRepository in-memory.
type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*crew.Project
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[string]*crew.Project)}
}

func (r *MemoryProjectRepository) Create(_ context.Context, p *crew.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[p.ID]; exists {
		return ErrAlreadyExists
	}
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *MemoryProjectRepository) Get(_ context.Context, id string) (*crew.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryProjectRepository) List(_ context.Context) ([]*crew.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*crew.Project, 0, len(r.projects))
	for _, p := range r.projects {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryProjectRepository) Update(_ context.Context, p *crew.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[p.ID]; !exists {
		return ErrNotFound
	}
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}
