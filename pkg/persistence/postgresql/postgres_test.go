package postgresql_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aaiaas/automation/pkg/models"
	"github.com/aaiaas/automation/pkg/persistence"
	"github.com/aaiaas/automation/pkg/persistence/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflow_runs", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("automation_test"),
			postgres.WithUsername("automation"),
			postgres.WithPassword("automation"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)
		require.NoError(t, store.Close(ctx))
		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	store, ctx, databaseURL := setupTestDB(t)

	require.NoError(t, store.HealthCheck(ctx))

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	var version int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)

	// Running again on a migrated database is a no-op.
	again, err := postgresql.NewPersistence(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), databaseURL)
	require.NoError(t, err)
	require.NoError(t, again.Close(ctx))
}

func TestPersistence_WorkflowLifecycle(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	workflow := &models.WorkflowDefinition{
		OrganizationID: "org-1",
		Name:           "Score check",
		Description:    "branches on score",
		Nodes: []*models.WorkflowNode{
			{ID: "t", Type: models.NodeTypeTrigger, Next: []string{"c"}},
			{ID: "c", Type: models.NodeTypeCondition, Config: map[string]any{"condition": "{{score}} > 10"}, Next: []string{}},
		},
		Variables: map[string]any{"threshold": float64(10)},
	}

	require.NoError(t, store.SaveWorkflow(ctx, workflow))
	require.NotEmpty(t, workflow.ID)

	loaded, err := store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Score check", loaded.Name)
	assert.Equal(t, "org-1", loaded.OrganizationID)
	assert.Equal(t, workflow.Nodes, loaded.Nodes)
	assert.Equal(t, workflow.Variables, loaded.Variables)

	workflow.Name = "Renamed"
	require.NoError(t, store.SaveWorkflow(ctx, workflow))

	loaded, err = store.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)

	require.NoError(t, store.SaveWorkflow(ctx, &models.WorkflowDefinition{
		OrganizationID: "org-2",
		Name:           "Other",
		Nodes:          []*models.WorkflowNode{{ID: "t", Type: models.NodeTypeTrigger}},
	}))

	scoped, err := store.Workflows(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	all, err := store.Workflows(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.DeleteWorkflow(ctx, workflow.ID))

	_, err = store.WorkflowByID(ctx, workflow.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	require.ErrorIs(t, store.DeleteWorkflow(ctx, workflow.ID), persistence.ErrWorkflowNotFound)
}

func TestPersistence_RunLifecycle(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := &models.WorkflowRun{
		ID:             "exec-1",
		WorkflowID:     "wf-1",
		OrganizationID: "org-1",
		UserID:         "user-1",
		Status:         models.RunStatusRunning,
		Input:          map[string]any{"score": float64(15)},
		StartedAt:      started,
	}

	require.NoError(t, store.CreateRun(ctx, run))
	require.ErrorIs(t, store.CreateRun(ctx, run), persistence.ErrRunAlreadyExists)

	loaded, err := store.RunByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, loaded.Status)
	assert.Equal(t, run.Input, loaded.Input)
	assert.Nil(t, loaded.Output)
	assert.Nil(t, loaded.CompletedAt)
	assert.True(t, started.Equal(loaded.StartedAt))

	completed := started.Add(3 * time.Second)
	require.NoError(t, store.CompleteRun(ctx, "exec-1", map[string]any{"conditionMet": true}, completed))

	loaded, err = store.RunByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, loaded.Status)
	assert.Equal(t, map[string]any{"conditionMet": true}, loaded.Output)
	require.NotNil(t, loaded.CompletedAt)
	assert.Equal(t, 3*time.Second, loaded.Duration())

	require.ErrorIs(t, store.FailRun(ctx, "exec-1", "boom", completed), persistence.ErrRunAlreadyFinished)
	require.ErrorIs(t, store.CancelRun(ctx, "missing", completed), persistence.ErrRunNotFound)

	_, err = store.RunByID(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrRunNotFound)
}

func TestPersistence_FailedRunKeepsOutputUnset(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	now := time.Now().UTC()
	require.NoError(t, store.CreateRun(ctx, &models.WorkflowRun{
		ID: "exec-f", WorkflowID: "wf-1", OrganizationID: "org-1", Status: models.RunStatusRunning, StartedAt: now,
	}))
	require.NoError(t, store.FailRun(ctx, "exec-f", "Unknown action type: send_fax", now))

	loaded, err := store.RunByID(ctx, "exec-f")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, loaded.Status)
	assert.Equal(t, "Unknown action type: send_fax", loaded.Error)
	assert.Nil(t, loaded.Output)
}

func TestPersistence_RunsByWorkflow(t *testing.T) {
	store, ctx, _ := setupTestDB(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.CreateRun(ctx, &models.WorkflowRun{
			ID: id, WorkflowID: "wf-1", OrganizationID: "org-1", Status: models.RunStatusRunning,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.RunsByWorkflow(ctx, "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "r3", runs[0].ID)

	runs, err = store.RunsByWorkflow(ctx, "wf-1", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	runs, err = store.RunsByWorkflow(ctx, "wf-unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
