package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brandcrew/brandcrew/internal/crew"
)

// CreateRun inserts a new run. Stage results are stored as JSONB.
func (d *DB) CreateRun(ctx context.Context, run *crew.Run) error {
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	_, err = d.Pool.ExecContext(ctx,
		`INSERT INTO runs (id, project_id, status, stages, error_detail, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.ProjectID, run.Status, stagesJSON, run.ErrorDetail, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (d *DB) GetRun(ctx context.Context, id string) (*crew.Run, error) {
	var run crew.Run
	var stagesJSON []byte
	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, project_id, status, stages, error_detail, started_at, completed_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.ProjectID, &run.Status, &stagesJSON, &run.ErrorDetail, &run.StartedAt, &run.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if err := json.Unmarshal(stagesJSON, &run.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}
	return &run, nil
}

// ListRunsByProject returns all runs for a project, newest first.
func (d *DB) ListRunsByProject(ctx context.Context, projectID string) ([]*crew.Run, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, project_id, status, stages, error_detail, started_at, completed_at
		 FROM runs WHERE project_id = $1 ORDER BY started_at DESC`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*crew.Run
	for rows.Next() {
		var run crew.Run
		var stagesJSON []byte
		if err := rows.Scan(&run.ID, &run.ProjectID, &run.Status, &stagesJSON,
			&run.ErrorDetail, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal(stagesJSON, &run.Stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages: %w", err)
		}
		result = append(result, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

// UpdateRun updates a run's status, stages, error detail, and completion time.
func (d *DB) UpdateRun(ctx context.Context, run *crew.Run) error {
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE runs SET status = $1, stages = $2, error_detail = $3, completed_at = $4
		 WHERE id = $5`,
		run.Status, stagesJSON, run.ErrorDetail, run.CompletedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %q not found", run.ID)
	}
	return nil
}
