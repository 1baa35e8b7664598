package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/lib/pq"
)

const (
	runColumns = `
			id
		  , workflow_id
		  , organization_id
		  , user_id
		  , status
		  , input
		  , output
		  , error
		  , started_at
		  , completed_at`

	uniqueViolation = "23505"
)

// RunRepository handles run-related database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

func (r *RunRepository) Create(ctx context.Context, run *models.WorkflowRun) error {
	inputJSON, err := marshalNullable(run.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	query := `
		INSERT INTO workflow_runs (id, workflow_id, organization_id, user_id, status, input, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		run.OrganizationID,
		run.UserID,
		string(run.Status),
		inputJSON,
		run.StartedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewRunError("CreateRun", run.ID, persistence.ErrRunAlreadyExists)
		}

		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	return nil
}

// Finish applies a terminal transition; the update only matches runs still in the running state.
func (r *RunRepository) Finish(
	ctx context.Context, op, id string, status models.RunStatus, output any, message string, completedAt time.Time,
) error {
	outputJSON, err := marshalNullable(output)
	if err != nil {
		return persistence.NewRunError(op, id, fmt.Errorf("failed to marshal output: %w", err))
	}

	errorText := sql.NullString{String: message, Valid: message != ""}

	query := `
		UPDATE workflow_runs
		SET status = $2, output = $3, error = $4, completed_at = $5
		WHERE id = $1 AND status = 'running'
	`

	result, err := r.db.ExecContext(ctx, query, id, string(status), outputJSON, errorText, completedAt)
	if err != nil {
		return persistence.NewRunError(op, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRunError(op, id, err)
	}

	if affected > 0 {
		return nil
	}

	var exists bool

	err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM workflow_runs WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return persistence.NewRunError(op, id, err)
	}

	if !exists {
		return persistence.NewRunError(op, id, persistence.ErrRunNotFound)
	}

	return persistence.NewRunError(op, id, persistence.ErrRunAlreadyFinished)
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	query := `SELECT` + runColumns + `
		FROM workflow_runs
		WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("RunByID", id, err)
	}

	return run, nil
}

func (r *RunRepository) GetByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowRun, error) {
	query := `SELECT` + runColumns + `
		FROM workflow_runs
		WHERE workflow_id = $1
		ORDER BY started_at DESC
	`

	args := []any{workflowID}
	if limit > 0 {
		query += " LIMIT $2"

		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.WorkflowRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func scanRun(row rowScanner) (*models.WorkflowRun, error) {
	var (
		run         models.WorkflowRun
		status      string
		inputJSON   []byte
		outputJSON  []byte
		errorText   sql.NullString
		completedAt sql.NullTime
	)

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.OrganizationID,
		&run.UserID,
		&status,
		&inputJSON,
		&outputJSON,
		&errorText,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Status = models.RunStatus(status)
	run.Error = errorText.String

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	if len(inputJSON) > 0 {
		err = json.Unmarshal(inputJSON, &run.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal input: %w", err)
		}
	}

	if len(outputJSON) > 0 {
		err = json.Unmarshal(outputJSON, &run.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal output: %w", err)
		}
	}

	return &run, nil
}
