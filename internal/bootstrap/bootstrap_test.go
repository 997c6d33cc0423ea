package bootstrap

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/storage/filestore"
	"github.com/turtacn/LexCase-Intelligence/internal/testutil"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const employmentPlaybook = `
id: pb-1
case_type: employment
rules:
  - id: r1
    condition: unfair dismissal
    action: Challenge dismissal
    weight: 0.8
monetary_ranges:
  medium:
    range: [5000, 20000]
    description: Typical award
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	writeFile(t, path, data)
}

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, filestore.CasesFile), []legalcase.Case{{
		ID:         "c1",
		Title:      "Doe v Acme",
		CaseType:   "employment",
		Summary:    "Claim of unfair dismissal after a whistleblowing report",
		PlaybookID: "pb-1",
	}})
	writeJSON(t, filepath.Join(dir, filestore.DocumentsFile), []legalcase.Document{
		{ID: "d1", CaseID: "c1", Name: "Contract"},
	})
	writeJSON(t, filepath.Join(dir, filestore.DocumentAnalysesDir, "d1.json"), legalcase.DocumentAnalysisRecord{
		DocumentType: "contract",
		KeyDates:     []string{"2024-03-01"},
	})
	writeJSON(t, filepath.Join(dir, filestore.CorpusFile), []legalcase.CorpusItem{
		{ID: "p1", Category: "precedents", Title: "Smith v Acme", ResearchAreas: []string{"employment"}},
	})
	writeFile(t, filepath.Join(dir, filestore.PlaybooksDir, "employment.yaml"), []byte(employmentPlaybook))
	return dir
}

func fileConfig(dir string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Storage.DataDir = dir
	return cfg
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNew_FileBackends(t *testing.T) {
	dir := seedDataDir(t)
	log := testutil.NewMockLogger()

	app, err := New(context.Background(), fileConfig(dir), log)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Postgres)
	assert.Nil(t, app.Redis)
	assert.Nil(t, app.OpenSearch)
	assert.Nil(t, app.Producer)
	assert.Empty(t, app.HealthCheckers())
	assert.True(t, log.HasMessage("info", "service graph ready"))

	outcome := app.Service.AnalyzeCase(context.Background(), "c1", false)
	require.False(t, outcome.Failed(), outcome.Error)
	assert.Equal(t, "c1", outcome.Result.CaseID)

	_, err = os.Stat(filepath.Join(dir, filestore.AnalysesFile))
	assert.NoError(t, err, "analysis should be persisted in the data directory")

	stats, err := app.Service.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAnalyses)
}

func TestNew_CorpusItems(t *testing.T) {
	app, err := New(context.Background(), fileConfig(seedDataDir(t)), nil)
	require.NoError(t, err)
	defer app.Close()

	items, err := app.CorpusItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fileConfig(seedDataDir(t))
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.PlaybookTTL = time.Minute
	cfg.Redis.Addr = mr.Addr()

	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.NotNil(t, app.Redis)
	checkers := app.HealthCheckers()
	require.Len(t, checkers, 1)
	assert.Equal(t, "redis", checkers[0].Name())
	assert.NoError(t, checkers[0].Check(context.Background()))

	outcome := app.Service.AnalyzeCase(context.Background(), "c1", false)
	require.False(t, outcome.Failed(), outcome.Error)

	fields, err := mr.HKeys(cfg.Redis.KeyPrefix + "case_analyses")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, fields)

	summary, err := app.Service.RegenerateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AnalyzedCases)
	assert.False(t, mr.Exists(cfg.Redis.KeyPrefix+"lock:"+batchLockName), "batch lock should be released")

	require.NoError(t, app.Close())
	assert.Error(t, checkers[0].Check(context.Background()))
}

func TestBatchLock_OutlivesTTLWhileHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()}, testutil.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	const ttl = 300 * time.Millisecond
	running := newBatchLock(client, testutil.NewNopLogger(), ttl)
	other := newBatchLock(client, testutil.NewNopLogger(), ttl)

	ok, err := running.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// miniredis only expires keys on FastForward; advance well past the TTL
	// in steps while the watchdog keeps renewing in real time.
	for i := 0; i < 5; i++ {
		time.Sleep(150 * time.Millisecond)
		mr.FastForward(150 * time.Millisecond)
	}

	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a second batch must not start while the first still runs")
	assert.NoError(t, running.Unlock(ctx))

	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, other.Unlock(ctx))
}

func TestNew_ClosesOpenedBackendsOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fileConfig(seedDataDir(t))
	cfg.Cache.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNew_KafkaProducerWired(t *testing.T) {
	cfg := fileConfig(seedDataDir(t))
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"127.0.0.1:9092"}

	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, app.Producer)
	assert.NoError(t, app.Close())
}

//Personal.AI order the ending
