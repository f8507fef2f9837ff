// Package repository defines storage interfaces for projects and runs,
// with in-memory implementations and optional PostgreSQL write-through.
package repository

import (
	"context"
	"errors"

	"github.com/brandcrew/brandcrew/internal/crew"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when creating a record whose ID is taken.
var ErrAlreadyExists = errors.New("already exists")

// ProjectRepository stores caller-facing project records.
type ProjectRepository interface {
	Create(ctx context.Context, p *crew.Project) error
	Get(ctx context.Context, id string) (*crew.Project, error)
	List(ctx context.Context) ([]*crew.Project, error)
	Update(ctx context.Context, p *crew.Project) error
}

// RunRepository is the run registry: it serializes concurrent access to
// run records keyed by run identifier.
type RunRepository interface {
	Create(ctx context.Context, run *crew.Run) error
	Get(ctx context.Context, id string) (*crew.Run, error)
	Update(ctx context.Context, run *crew.Run) error
	ListByProject(ctx context.Context, projectID string) ([]*crew.Run, error)
}
