package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/storage/filestore"
	httpserver "github.com/turtacn/LexCase-Intelligence/internal/interfaces/http"
	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/LexCase-Intelligence/internal/testutil"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Analyze(ctx context.Context, caseID string, force bool) (*legalcase.CaseAnalysisResult, error) {
	args := m.Called(ctx, caseID, force)
	res, _ := args.Get(0).(*legalcase.CaseAnalysisResult)
	return res, args.Error(1)
}

func (m *mockService) AnalyzeCase(ctx context.Context, caseID string, force bool) *caseanalysis.AnalysisOutcome {
	return m.Called(ctx, caseID, force).Get(0).(*caseanalysis.AnalysisOutcome)
}

func (m *mockService) EvaluatePlaybook(ctx context.Context, caseID string) (*legalcase.PlaybookEvaluation, error) {
	args := m.Called(ctx, caseID)
	res, _ := args.Get(0).(*legalcase.PlaybookEvaluation)
	return res, args.Error(1)
}

func (m *mockService) RegenerateAll(ctx context.Context) (*legalcase.RegenerateSummary, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*legalcase.RegenerateSummary)
	return res, args.Error(1)
}

func (m *mockService) Statistics(ctx context.Context) (*legalcase.Statistics, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*legalcase.Statistics)
	return res, args.Error(1)
}

type fakeRequester struct {
	requests []kafka.AnalysisRequestedPayload
	err      error
	closed   bool
}

func (f *fakeRequester) RequestAnalysis(_ context.Context, req kafka.AnalysisRequestedPayload) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeRequester) Close() error {
	f.closed = true
	return nil
}

// withService returns options that serve every command from svc over a
// default file-backed configuration.
func withService(svc caseanalysis.Service, cfg *config.Config) []RootOption {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return []RootOption{
		WithConfig(cfg),
		WithAppFactory(func(_ context.Context, cfg *config.Config, log logging.Logger) (*bootstrap.App, error) {
			return &bootstrap.App{
				Config:  cfg,
				Logger:  log,
				Service: svc,
				Files:   filestore.NewStore(cfg.Storage.DataDir, log),
			}, nil
		}),
	}
}

func sampleResult() *legalcase.CaseAnalysisResult {
	return &legalcase.CaseAnalysisResult{
		CaseID:            "c1",
		CaseInfo:          legalcase.CaseInfo{Title: "Dismissal of A. Worker", CaseType: "employment"},
		AnalysisTimestamp: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC),
		DocumentAnalysis:  legalcase.CaseDocumentSummary{Status: legalcase.SummaryStatusOK, TotalDocuments: 2},
		PlaybookAnalysis:  legalcase.PlaybookAnalysis{PlaybookID: "pb-1"},
		StrategicRecommendations: []legalcase.Recommendation{
			{Category: "playbook", Priority: legalcase.PriorityHigh, Recommendation: "Challenge dismissal", Basis: "rule r1"},
		},
		CaseAssessment: legalcase.CaseAssessment{
			Mode: "comprehensive", OverallScore: 0.74, AssessmentLevel: legalcase.StrengthStrong, Confidence: legalcase.ConfidenceHigh,
		},
	}
}

func TestAnalyzeCommand_Text(t *testing.T) {
	svc := &mockService{}
	svc.On("AnalyzeCase", mock.Anything, "c1", false).Return(&caseanalysis.AnalysisOutcome{Result: sampleResult()})

	out, err := execute(t, withService(svc, nil), "analyze", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Dismissal of A. Worker (c1)")
	assert.Contains(t, out, "Strong (score 0.74, confidence High)")
	assert.Contains(t, out, "1. [High] playbook: Challenge dismissal")
	svc.AssertExpectations(t)
}

func TestAnalyzeCommand_JSONForce(t *testing.T) {
	svc := &mockService{}
	svc.On("AnalyzeCase", mock.Anything, "c1", true).Return(&caseanalysis.AnalysisOutcome{Result: sampleResult()})

	out, err := execute(t, withService(svc, nil), "analyze", "c1", "--force", "-o", "json")
	require.NoError(t, err)

	var got legalcase.CaseAnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "c1", got.CaseID)
	assert.Equal(t, 0.74, got.CaseAssessment.OverallScore)
}

func TestAnalyzeCommand_Table(t *testing.T) {
	svc := &mockService{}
	svc.On("AnalyzeCase", mock.Anything, "c1", false).Return(&caseanalysis.AnalysisOutcome{Result: sampleResult()})

	out, err := execute(t, withService(svc, nil), "analyze", "c1", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Challenge dismissal")
	assert.Contains(t, out, "rule r1")
}

func TestAnalyzeCommand_FailedOutcome(t *testing.T) {
	svc := &mockService{}
	svc.On("AnalyzeCase", mock.Anything, "c9", false).Return(&caseanalysis.AnalysisOutcome{
		Error: "case c9 not found", Code: errors.ErrCodeNotFound,
	})

	_, err := execute(t, withService(svc, nil), "analyze", "c9")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestAnalyzeCommand_RequiresCaseID(t *testing.T) {
	_, err := execute(t, withService(&mockService{}, nil), "analyze")
	require.Error(t, err)
}

func TestAnalyzeCommand_AppFactoryError(t *testing.T) {
	opts := []RootOption{
		WithConfig(config.NewDefaultConfig()),
		WithAppFactory(func(context.Context, *config.Config, logging.Logger) (*bootstrap.App, error) {
			return nil, errors.New(errors.ErrCodeDatabaseError, "connection refused")
		}),
	}
	_, err := execute(t, opts, "analyze", "c1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestEvaluateCommand(t *testing.T) {
	svc := &mockService{}
	svc.On("EvaluatePlaybook", mock.Anything, "c1").Return(&legalcase.PlaybookEvaluation{
		CaseID:          "c1",
		PlaybookID:      "pb-1",
		CaseType:        "employment",
		AverageWeight:   0.7,
		AssessmentLevel: legalcase.StrengthModerate,
		Confidence:      legalcase.ConfidenceMedium,
		Evaluation: legalcase.RuleEvaluation{
			RulesEvaluated: 2,
			RulesMatched:   1,
			TotalWeight:    0.7,
			AppliedRules:   []legalcase.PlaybookRule{{ID: "r1", Condition: "unpaid_compensation", Action: "Claim arrears", Weight: 0.7}},
		},
	}, nil)

	out, err := execute(t, withService(svc, nil), "evaluate", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "pb-1 (employment)")
	assert.Contains(t, out, "1/2 matched")
	assert.Contains(t, out, "r1 (0.70): Claim arrears")
}

func TestEvaluateCommand_Error(t *testing.T) {
	svc := &mockService{}
	svc.On("EvaluatePlaybook", mock.Anything, "c1").Return(nil,
		errors.New(errors.ErrCodeValidation, "case c1 has no playbook assignment"))

	_, err := execute(t, withService(svc, nil), "evaluate", "c1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestRegenerateCommand_PrintsSummaryOnError(t *testing.T) {
	svc := &mockService{}
	svc.On("RegenerateAll", mock.Anything).Return(&legalcase.RegenerateSummary{
		TotalCases: 3, AnalyzedCases: 1, FailedCases: 1, FailedCaseIDs: []string{"c2"}, AverageConfidence: 0.5,
	}, errors.New(errors.ErrCodeTimeout, "regeneration interrupted"))

	out, err := execute(t, withService(svc, nil), "regenerate-all")
	require.Error(t, err)
	assert.Contains(t, out, "Cases:              3")
	assert.Contains(t, out, "Failed:             1 (c2)")
}

func TestRegenerateCommand_Locked(t *testing.T) {
	svc := &mockService{}
	svc.On("RegenerateAll", mock.Anything).Return(nil,
		errors.New(errors.ErrCodeAnalysisLocked, "regeneration already running"))

	out, err := execute(t, withService(svc, nil), "regenerate-all")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnalysisLocked))
	assert.Empty(t, out)
}

func TestStatsCommand(t *testing.T) {
	svc := &mockService{}
	svc.On("Statistics", mock.Anything).Return(&legalcase.Statistics{
		TotalAnalyses: 4, RecentAnalyses: 2, AverageConfidence: 0.61,
	}, nil)

	out, err := execute(t, withService(svc, nil), "stats", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_analyses":4,"recent_analyses":2,"average_confidence":0.61}`, out)
}

func TestEnqueueCommand(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	req := &fakeRequester{}
	opts := append(withService(&mockService{}, cfg),
		WithRequesterFactory(func(config.KafkaConfig, logging.Logger) (AnalysisRequester, error) { return req, nil }))

	out, err := execute(t, opts, "enqueue", "c1", "c2", "--force", "--requested-by", "ops")
	require.NoError(t, err)
	require.Len(t, req.requests, 2)
	assert.Equal(t, "c1", req.requests[0].CaseID)
	assert.True(t, req.requests[1].Force)
	assert.Equal(t, "ops", req.requests[1].RequestedBy)
	assert.False(t, req.requests[0].RequestedAt.IsZero())
	assert.True(t, req.closed)
	assert.Contains(t, out, "OK: queued analysis of c2")
}

func TestEnqueueCommand_PublishError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Kafka.Enabled = true
	req := &fakeRequester{err: stderrors.New("broker unreachable")}
	opts := append(withService(&mockService{}, cfg),
		WithRequesterFactory(func(config.KafkaConfig, logging.Logger) (AnalysisRequester, error) { return req, nil }))

	_, err := execute(t, opts, "enqueue", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue c1")
}

func TestKafkaCommands_Disabled(t *testing.T) {
	for _, args := range [][]string{{"enqueue", "c1"}, {"worker"}} {
		_, err := execute(t, withService(&mockService{}, nil), args...)
		assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled), "args %v", args)
	}
}

func TestCorpusSync_RequiresOpenSearch(t *testing.T) {
	_, err := execute(t, withService(&mockService{}, nil), "corpus", "sync")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestImport_RequiresTarget(t *testing.T) {
	_, err := execute(t, withService(&mockService{}, nil), "import")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

func TestMigrate_InvalidArguments(t *testing.T) {
	_, err := execute(t, withService(&mockService{}, nil), "migrate", "sideways")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = execute(t, withService(&mockService{}, nil), "migrate", "down", "--steps", "0")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func newTestApp(t *testing.T, svc caseanalysis.Service, cfg *config.Config) *bootstrap.App {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "lexcase"}, testutil.NewNopLogger())
	require.NoError(t, err)
	return &bootstrap.App{
		Config:    cfg,
		Logger:    testutil.NewNopLogger(),
		Service:   svc,
		Collector: collector,
		Metrics:   prometheus.NewAppMetrics(collector),
	}
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestBuildRouter_MetricsAndHealth(t *testing.T) {
	httpserver.SetMode("test")
	cfg := config.NewDefaultConfig()
	cfg.Metrics.Enabled = true

	svc := &mockService{}
	svc.On("Statistics", mock.Anything).Return(&legalcase.Statistics{TotalAnalyses: 1}, nil)

	router, release := buildRouter(newTestApp(t, svc, cfg))
	defer release()

	assert.Equal(t, http.StatusOK, get(router, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/analyses/statistics").Code)

	w := get(router, cfg.Metrics.Path)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lexcase_http_requests_total")
}

func TestBuildRouter_MetricsDisabled(t *testing.T) {
	httpserver.SetMode("test")
	cfg := config.NewDefaultConfig()
	cfg.Metrics.Enabled = false

	router, release := buildRouter(newTestApp(t, &mockService{}, cfg))
	defer release()
	assert.Equal(t, http.StatusNotFound, get(router, "/metrics").Code)
}

func TestBuildRouter_RateLimit(t *testing.T) {
	httpserver.SetMode("test")
	cfg := config.NewDefaultConfig()
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1

	svc := &mockService{}
	svc.On("Statistics", mock.Anything).Return(&legalcase.Statistics{}, nil)

	router, release := buildRouter(newTestApp(t, svc, cfg))
	defer release()

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/analyses/statistics").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/api/v1/analyses/statistics").Code)
	// Health probes bypass the limiter.
	assert.Equal(t, http.StatusOK, get(router, "/healthz").Code)
}

func TestRemoteMode(t *testing.T) {
	httpserver.SetMode("test")
	svc := &mockService{}
	svc.On("AnalyzeCase", mock.Anything, "c1", true).Return(&caseanalysis.AnalysisOutcome{Result: sampleResult()})
	svc.On("AnalyzeCase", mock.Anything, "c9", false).Return(&caseanalysis.AnalysisOutcome{
		Error: "case c9 not found", Code: errors.ErrCodeNotFound,
	})
	svc.On("Statistics", mock.Anything).Return(&legalcase.Statistics{TotalAnalyses: 7}, nil)

	router, release := buildRouter(newTestApp(t, svc, config.NewDefaultConfig()))
	defer release()
	server := httptest.NewServer(router)
	defer server.Close()

	// The local app factory must not be used.
	opts := []RootOption{
		WithConfig(config.NewDefaultConfig()),
		WithAppFactory(func(context.Context, *config.Config, logging.Logger) (*bootstrap.App, error) {
			t.Fatal("local backends opened in remote mode")
			return nil, nil
		}),
	}

	out, err := execute(t, opts, "--server", server.URL, "analyze", "c1", "--force", "-o", "json")
	require.NoError(t, err)
	var got legalcase.CaseAnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, legalcase.StrengthStrong, got.CaseAssessment.AssessmentLevel)

	_, err = execute(t, opts, "--server", server.URL, "analyze", "c9")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	out, err = execute(t, opts, "--server", server.URL, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total analyses:     7")
	svc.AssertExpectations(t)
}

func TestRemoteMode_Auth(t *testing.T) {
	httpserver.SetMode("test")
	const secret = "0123456789abcdef0123456789abcdef"
	cfg := config.NewDefaultConfig()
	cfg.Server.Auth = config.AuthConfig{Enabled: true, HMACSecret: secret, AdminRole: "admin"}

	svc := &mockService{}
	svc.On("Statistics", mock.Anything).Return(&legalcase.Statistics{TotalAnalyses: 2}, nil)

	router, release := buildRouter(newTestApp(t, svc, cfg))
	defer release()
	server := httptest.NewServer(router)
	defer server.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Roles:            []string{"viewer"},
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	opts := []RootOption{WithConfig(config.NewDefaultConfig())}

	_, err = execute(t, opts, "--server", server.URL, "stats")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))

	out, err := execute(t, opts, "--server", server.URL, "--token", token, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total analyses:     2")

	_, err = execute(t, opts, "--server", server.URL, "--token", token, "regenerate-all")
	assert.True(t, errors.IsCode(err, errors.ErrCodeForbidden))
	svc.AssertNotCalled(t, "RegenerateAll", mock.Anything)
}

func TestRemoteMode_Unreachable(t *testing.T) {
	_, err := execute(t, []RootOption{WithConfig(config.NewDefaultConfig())},
		"--server", "http://127.0.0.1:1", "--timeout", "2s", "evaluate", "c1")
	require.Error(t, err)
}

//Personal.AI order the ending
