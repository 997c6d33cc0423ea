//go:build integration

package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
)

// startPostgres launches a PostgreSQL 16 container, applies the embedded
// migrations and returns the open connection.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "lexcase",
				"POSTGRES_PASSWORD": "lexcase",
				"POSTGRES_DB":       "lexcase_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	conn, err := postgres.NewConnection(config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "lexcase",
		Password: "lexcase",
		DBName:   "lexcase_test",
		SSLMode:  "disable",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.RunMigrations(""))
	return conn
}

func TestIntegration_CaseAndPlaybookRoundTrip(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()
	cases := repositories.NewCaseRepo(conn, logging.NewNopLogger())
	playbooks := repositories.NewPlaybookRepo(conn, logging.NewNopLogger())

	state, err := conn.MigrationStatus("")
	require.NoError(t, err)
	assert.Equal(t, uint(1), state.Version)
	assert.False(t, state.Dirty)

	err = cases.WithTx(ctx, func(tx *repositories.CaseRepo) error {
		if err := tx.SaveCase(ctx, &legalcase.Case{
			ID: "case-1", Title: "Doe v. Acme", CaseType: "employment",
			Summary: "wrongful termination after complaint", KeyParties: []string{"Doe", "Acme"}, PlaybookID: "pb-emp",
		}); err != nil {
			return err
		}
		if err := tx.SaveDocument(ctx, &legalcase.Document{ID: "doc-1", CaseID: "case-1", Name: "letter.pdf", DocumentType: "correspondence"}); err != nil {
			return err
		}
		return tx.SaveDocumentAnalysis(ctx, &legalcase.DocumentAnalysisRecord{
			DocumentID: "doc-1", DocumentType: "correspondence", KeyDates: []string{"2024-02-01"},
		})
	})
	require.NoError(t, err)

	got, err := cases.GetCase(ctx, "case-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"Doe", "Acme"}, got.KeyParties)

	docs, err := cases.ListCaseDocuments(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	rec, err := cases.GetDocumentAnalysis(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"2024-02-01"}, rec.KeyDates)

	require.NoError(t, playbooks.UpsertPlaybook(ctx, &legalcase.Playbook{
		ID: "pb-emp", CaseType: "employment",
		Rules: []legalcase.PlaybookRule{{ID: "r1", Condition: "wrongful termination", Action: "file", Weight: 0.9}},
	}))
	pb, err := playbooks.GetPlaybook(ctx, "pb-emp")
	require.NoError(t, err)
	require.NotNil(t, pb)
	assert.Len(t, pb.Rules, 1)

	missing, err := cases.GetCase(ctx, "ghost")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

//Personal.AI order the ending
