package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brandcrew/brandcrew/internal/crew"
)

// CreateProject inserts a new project record.
func (d *DB) CreateProject(ctx context.Context, p *crew.Project) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO projects (id, project_name, topic, guidelines, status,
		    writer_output, reviewer_feedback, final_output, error_message, run_id,
		    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.ProjectName, p.Topic, p.Guidelines, p.Status,
		p.WriterOutput, p.ReviewerFeedback, p.FinalOutput, p.ErrorMessage, p.RunID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (d *DB) GetProject(ctx context.Context, id string) (*crew.Project, error) {
	var p crew.Project
	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, project_name, topic, guidelines, status,
		    writer_output, reviewer_feedback, final_output, error_message, run_id,
		    created_at, updated_at
		 FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.ProjectName, &p.Topic, &p.Guidelines, &p.Status,
		&p.WriterOutput, &p.ReviewerFeedback, &p.FinalOutput, &p.ErrorMessage, &p.RunID,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects ordered by created_at descending.
func (d *DB) ListProjects(ctx context.Context) ([]*crew.Project, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, project_name, topic, guidelines, status,
		    writer_output, reviewer_feedback, final_output, error_message, run_id,
		    created_at, updated_at
		 FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var result []*crew.Project
	for rows.Next() {
		var p crew.Project
		if err := rows.Scan(&p.ID, &p.ProjectName, &p.Topic, &p.Guidelines, &p.Status,
			&p.WriterOutput, &p.ReviewerFeedback, &p.FinalOutput, &p.ErrorMessage, &p.RunID,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return result, nil
}

// UpdateProject updates every mutable field of an existing project.
func (d *DB) UpdateProject(ctx context.Context, p *crew.Project) error {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE projects SET project_name = $1, topic = $2, guidelines = $3, status = $4,
		    writer_output = $5, reviewer_feedback = $6, final_output = $7,
		    error_message = $8, run_id = $9, updated_at = $10
		 WHERE id = $11`,
		p.ProjectName, p.Topic, p.Guidelines, p.Status,
		p.WriterOutput, p.ReviewerFeedback, p.FinalOutput,
		p.ErrorMessage, p.RunID, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %q not found", p.ID)
	}
	return nil
}
