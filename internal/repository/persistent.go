package repository

import (
	"context"
	"fmt"

	"github.com/brandcrew/brandcrew/internal/crew"
)

// ProjectDB defines the DB-layer methods needed by the persistent project
// repo. *db.DB satisfies this interface.
type ProjectDB interface {
	CreateProject(ctx context.Context, p *crew.Project) error
	GetProject(ctx context.Context, id string) (*crew.Project, error)
	ListProjects(ctx context.Context) ([]*crew.Project, error)
	UpdateProject(ctx context.Context, p *crew.Project) error
}

// RunDB defines the DB-layer methods needed by the persistent run repo.
type RunDB interface {
	CreateRun(ctx context.Context, run *crew.Run) error
	GetRun(ctx context.Context, id string) (*crew.Run, error)
	ListRunsByProject(ctx context.Context, projectID string) ([]*crew.Run, error)
	UpdateRun(ctx context.Context, run *crew.Run) error
}

// PersistentProjectRepository wraps MemoryProjectRepository with a
// PostgreSQL backend. Writes go to both. Reads try memory first; on miss,
// fall back to DB and cache.
type PersistentProjectRepository struct {
	mem *MemoryProjectRepository
	db  ProjectDB
}

func NewPersistentProjectRepository(mem *MemoryProjectRepository, db ProjectDB) *PersistentProjectRepository {
	return &PersistentProjectRepository{mem: mem, db: db}
}

func (r *PersistentProjectRepository) Create(ctx context.Context, p *crew.Project) error {
	_ = r.mem.Create(ctx, p)
	if err := r.db.CreateProject(ctx, p); err != nil {
		return fmt.Errorf("db create project: %w", err)
	}
	return nil
}

func (r *PersistentProjectRepository) Get(ctx context.Context, id string) (*crew.Project, error) {
	if p, err := r.mem.Get(ctx, id); err == nil {
		return p, nil
	}
	p, err := r.db.GetProject(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	_ = r.mem.Create(ctx, p)
	return p, nil
}

func (r *PersistentProjectRepository) List(ctx context.Context) ([]*crew.Project, error) {
	return r.db.ListProjects(ctx)
}

func (r *PersistentProjectRepository) Update(ctx context.Context, p *crew.Project) error {
	_ = r.mem.Update(ctx, p)
	if err := r.db.UpdateProject(ctx, p); err != nil {
		return fmt.Errorf("db update project: %w", err)
	}
	return nil
}

// PersistentRunRepository wraps MemoryRunRepository with a PostgreSQL
// backend using the same write-through discipline.
type PersistentRunRepository struct {
	mem *MemoryRunRepository
	db  RunDB
}

func NewPersistentRunRepository(mem *MemoryRunRepository, db RunDB) *PersistentRunRepository {
	return &PersistentRunRepository{mem: mem, db: db}
}

func (r *PersistentRunRepository) Create(ctx context.Context, run *crew.Run) error {
	_ = r.mem.Create(ctx, run)
	if err := r.db.CreateRun(ctx, run); err != nil {
		return fmt.Errorf("db create run: %w", err)
	}
	return nil
}

func (r *PersistentRunRepository) Get(ctx context.Context, id string) (*crew.Run, error) {
	if run, err := r.mem.Get(ctx, id); err == nil {
		return run, nil
	}
	run, err := r.db.GetRun(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	_ = r.mem.Create(ctx, run)
	return run, nil
}

func (r *PersistentRunRepository) Update(ctx context.Context, run *crew.Run) error {
	_ = r.mem.Update(ctx, run)
	if err := r.db.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("db update run: %w", err)
	}
	return nil
}

func (r *PersistentRunRepository) ListByProject(ctx context.Context, projectID string) ([]*crew.Run, error) {
	return r.db.ListRunsByProject(ctx, projectID)
}
