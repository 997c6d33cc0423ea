package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/LexCase-Intelligence/internal/testutil"
	pkgerrors "github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const employmentDefinition = `{
	"name": "stale name",
	"rules": [{"id": "r1", "condition": "wrongful termination", "action": "file claim", "weight": 0.9}],
	"decision_tree": {
		"root": "start",
		"nodes": {
			"start": {"condition": "wrongful termination", "yes": "strong", "no": "moderate_case"},
			"strong": {"result": "strong claim", "monetary_range": "high"},
			"moderate_case": {"result": "moderate case", "monetary_range": "medium"}
		}
	},
	"monetary_ranges": {"high": {"range": [50000, 150000], "description": "Significant damages", "factors": ["tenure"]}}
}`

var playbookRowColumns = []string{"id", "case_type", "name", "definition"}

func newPlaybookRepo(t *testing.T) (*PlaybookRepo, sqlmock.Sqlmock, *testutil.MockLogger) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	log := testutil.NewMockLogger()
	return NewPlaybookRepo(postgres.NewConnectionWithDB(db, log), log), mock, log
}

func TestPlaybookRepo_GetPlaybook_DecodesDefinition(t *testing.T) {
	repo, mock, _ := newPlaybookRepo(t)
	mock.ExpectQuery("SELECT id, case_type, name, definition FROM playbooks WHERE id = \\$1").
		WithArgs("pb-emp").
		WillReturnRows(sqlmock.NewRows(playbookRowColumns).
			AddRow("pb-emp", "employment", "Employment", []byte(employmentDefinition)))

	pb, err := repo.GetPlaybook(context.Background(), "pb-emp")

	require.NoError(t, err)
	require.NotNil(t, pb)
	assert.Equal(t, "pb-emp", pb.ID)
	assert.Equal(t, "employment", pb.CaseType)
	assert.Equal(t, "Employment", pb.Name)
	require.Len(t, pb.Rules, 1)
	assert.InDelta(t, 0.9, pb.Rules[0].Weight, 1e-9)
	assert.Equal(t, "strong", pb.DecisionTree.Nodes["strong"].ID)
	assert.Equal(t, [2]float64{50000, 150000}, pb.MonetaryRanges["high"].Range)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaybookRepo_GetPlaybook_Missing(t *testing.T) {
	repo, mock, _ := newPlaybookRepo(t)
	mock.ExpectQuery("FROM playbooks WHERE id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(playbookRowColumns))

	pb, err := repo.GetPlaybook(context.Background(), "nope")

	assert.NoError(t, err)
	assert.Nil(t, pb)
}

func TestPlaybookRepo_ListPlaybooks_SkipsBrokenRows(t *testing.T) {
	repo, mock, log := newPlaybookRepo(t)
	mock.ExpectQuery("SELECT id, case_type, name, definition FROM playbooks ORDER BY id").
		WillReturnRows(sqlmock.NewRows(playbookRowColumns).
			AddRow("pb-bad", "contract", "", []byte(`{broken`)).
			AddRow("pb-emp", "employment", "", []byte(employmentDefinition)))

	pbs, err := repo.ListPlaybooks(context.Background())

	require.NoError(t, err)
	require.Len(t, pbs, 1)
	assert.Equal(t, "pb-emp", pbs[0].ID)
	assert.Equal(t, "stale name", pbs[0].Name)
	assert.True(t, log.HasMessage("warn", "skipping undecodable playbook"))
}

func TestPlaybookRepo_UpsertPlaybook(t *testing.T) {
	repo, mock, _ := newPlaybookRepo(t)
	mock.ExpectExec("INSERT INTO playbooks (.+) ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("pb-emp", "employment", "Employment", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertPlaybook(context.Background(), &legalcase.Playbook{ID: "pb-emp", CaseType: "employment", Name: "Employment"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaybookRepo_UpsertPlaybook_Validates(t *testing.T) {
	repo, _, _ := newPlaybookRepo(t)

	err := repo.UpsertPlaybook(context.Background(), &legalcase.Playbook{ID: "pb"})

	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

//Personal.AI order the ending
