package caseanalysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/testutil"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAnalysisCompleted(ctx context.Context, evt AnalysisCompletedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// gatedCases holds GetCase until release is closed, then fails if the
// calling context is done.
type gatedCases struct {
	legalcase.CaseRepository
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedCases) GetCase(ctx context.Context, id string) (*legalcase.Case, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.CaseRepository.GetCase(ctx, id)
}

type panickySearcher struct{}

func (panickySearcher) Search(context.Context, string) ([]legalcase.CorpusItem, error) {
	panic("index corrupted")
}

func employmentPlaybook() legalcase.Playbook {
	return legalcase.Playbook{
		ID:       "pb-employment",
		CaseType: "employment",
		Rules: []legalcase.PlaybookRule{
			{ID: "r1", Condition: "termination_within_protected_period", Action: "Challenge dismissal", Weight: 0.9},
			{ID: "r2", Condition: "unpaid_compensation", Action: "Claim arrears", Weight: 0.5},
		},
		DecisionTree: legalcase.DecisionTree{
			Root: "protected",
			Nodes: map[string]legalcase.DecisionNode{
				"protected":   {ID: "protected", Condition: "termination_within_protected_period", Yes: "strong_case", No: "moderate_case"},
				"strong_case": {ID: "strong_case", Result: "strong case", MonetaryRange: "high", RecommendedActions: []string{"File claim", "Request disclosure", "Prepare witnesses"}},
				"moderate_case": {ID: "moderate_case", Result: "moderate case", MonetaryRange: "medium", RecommendedActions: []string{"Negotiate"}},
			},
		},
		MonetaryRanges: map[string]legalcase.MonetaryRange{
			"high":   {Range: [2]float64{50000, 150000}, Description: "Strong protected-period claim", Factors: []string{"tenure"}},
			"medium": {Range: [2]float64{10000, 50000}, Description: "Typical settlement"},
		},
		KeyStatutes: []string{"Employment Rights Act"},
	}
}

func fixtureRepo() *testutil.MemoryRepository {
	repo := testutil.NewMemoryRepository()
	repo.AddCase(legalcase.Case{
		ID: "case-1", Title: "Doe v Acme", CaseType: "employment", PlaybookID: "pb-employment",
		Summary:    "Employee was terminated and fired after filing a protected disclosure",
		KeyParties: []string{"Jane Doe", "Acme Corp"},
	})
	repo.AddCase(legalcase.Case{
		ID: "case-2", Title: "Roe v Beta", CaseType: "employment", PlaybookID: "pb-employment",
		Summary: "Unpaid overtime wages",
	})
	repo.AddCase(legalcase.Case{
		ID: "case-3", Title: "Lease dispute", CaseType: "landlord", PlaybookID: "pb-landlord",
		Summary: "Deposit withheld",
	})
	repo.AddDocument(legalcase.Document{ID: "doc-1", CaseID: "case-1", Name: "Contract", DocumentType: "contract"},
		&legalcase.DocumentAnalysisRecord{
			DocumentType:    "contract",
			KeyDates:        []string{"2023-01-01", "2024-09-01"},
			PartiesInvolved: []string{"Jane Doe", "Acme Corp"},
			KeyClauses:      []string{"Termination requires notice"},
			PotentialIssues: []string{"Short notice period"},
		})
	repo.AddDocument(legalcase.Document{ID: "doc-2", CaseID: "case-1", Name: "Scan"}, nil)
	repo.Playbooks = []legalcase.Playbook{employmentPlaybook()}
	repo.Corpus = []legalcase.CorpusItem{
		{ID: "p1", Category: "precedents", Title: "Smith v Acme (employment)", ResearchAreas: []string{"employment", "termination"}},
		{ID: "s1", Category: "statutes", Title: "Employment Rights Act", ResearchAreas: []string{"employment"}},
	}
	return repo
}

type harness struct {
	repo   *testutil.MemoryRepository
	store  *testutil.MemoryAnalysisStore
	clock  *fakeClock
	logger *testutil.MockLogger
	svc    Service
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		repo:   fixtureRepo(),
		store:  testutil.NewMemoryAnalysisStore(),
		clock:  newFakeClock(),
		logger: testutil.NewMockLogger(),
	}
	opts = append([]Option{WithClock(h.clock.Now)}, opts...)
	svc, err := NewService(h.deps(), opts...)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Cases:            h.repo,
		Documents:        h.repo,
		DocumentAnalyses: h.repo,
		Corpus:           h.repo,
		Playbooks:        h.repo,
		Store:            h.store,
		Logger:           h.logger,
	}
}

func TestNewService_MissingDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	assert.Contains(t, err.Error(), "Store")
}

func TestAnalyze_FullPipeline(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)

	assert.Equal(t, "case-1", res.CaseID)
	assert.Equal(t, "Doe v Acme", res.CaseInfo.Title)
	assert.Equal(t, h.clock.Now(), res.AnalysisTimestamp)

	assert.Equal(t, 1, res.DocumentAnalysis.TotalDocuments)
	assert.Equal(t, []string{"contract", "termination", "notice"}, res.DocumentAnalysis.Themes)
	assert.Equal(t, []string{"Contract"}, res.DocumentAnalysis.Timeline[0].RelatedDocuments)

	assert.Equal(t, 2, res.ResearchAnalysis.TotalFound)
	assert.Equal(t, "p1", res.ResearchAnalysis.TopRelevant[0].ID)

	pa := res.PlaybookAnalysis
	assert.Empty(t, pa.Error)
	assert.Equal(t, "pb-employment", pa.PlaybookID)
	require.NotNil(t, pa.RuleEvaluation)
	assert.Equal(t, 1, pa.RuleEvaluation.RulesMatched)
	require.NotNil(t, pa.DecisionPath)
	assert.Equal(t, "strong_case", pa.DecisionPath.NodeID)
	require.NotNil(t, pa.MonetaryAssessment)
	assert.Equal(t, [2]float64{50000, 150000}, pa.MonetaryAssessment.Range)

	recs := res.StrategicRecommendations
	require.Len(t, recs, 5)
	assert.Equal(t, "Risk Management", recs[0].Category)
	assert.Equal(t, "Legal Precedents", recs[1].Category)
	assert.Equal(t, "File claim", recs[2].Recommendation)
	assert.Equal(t, "Request disclosure", recs[3].Recommendation)
	assert.Equal(t, "Timeline Management", recs[4].Category)

	// doc 0.7, research 0.2, playbook 0.9
	ca := res.CaseAssessment
	assert.Equal(t, legalcase.ModeComprehensive, ca.Mode)
	assert.Equal(t, 0.61, ca.OverallScore)
	assert.Equal(t, legalcase.StrengthModerate, ca.AssessmentLevel)
	assert.Equal(t, 1, h.store.Puts())
}

func TestAnalyze_CachedWithinWindow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Analyze(ctx, "case-1", false)
	require.NoError(t, err)

	h.clock.Advance(23 * time.Hour)
	second, err := h.svc.Analyze(ctx, "case-1", false)
	require.NoError(t, err)

	assert.Equal(t, first.AnalysisTimestamp, second.AnalysisTimestamp)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.store.Puts())
}

func TestAnalyze_StaleEntryRecomputed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Analyze(ctx, "case-1", false)
	require.NoError(t, err)

	h.clock.Advance(25 * time.Hour)
	second, err := h.svc.Analyze(ctx, "case-1", false)
	require.NoError(t, err)

	assert.True(t, second.AnalysisTimestamp.After(first.AnalysisTimestamp))
	assert.Equal(t, 2, h.store.Puts())
}

func TestAnalyze_ForceAlwaysAdvancesTimestamp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prev, err := h.svc.Analyze(ctx, "case-1", true)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		// the clock does not move, so the timestamp must be bumped
		next, err := h.svc.Analyze(ctx, "case-1", true)
		require.NoError(t, err)
		assert.True(t, next.AnalysisTimestamp.After(prev.AnalysisTimestamp))
		prev = next
	}
	assert.Equal(t, 4, h.store.Puts())
}

func TestAnalyze_CaseNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Analyze(context.Background(), "missing", false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCaseNotFound))

	out := h.svc.AnalyzeCase(context.Background(), "missing", false)
	assert.True(t, out.Failed())
	assert.Nil(t, out.Result)
	assert.Equal(t, errors.ErrCodeCaseNotFound, out.Code)
	assert.Contains(t, out.Error, "missing")
}

func TestAnalyze_EmptyCaseID(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Analyze(context.Background(), "  ", false)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestAnalyze_CaseStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.GetCaseErr["case-1"] = fmt.Errorf("connection reset")

	out := h.svc.AnalyzeCase(context.Background(), "case-1", false)
	assert.True(t, out.Failed())
	assert.Equal(t, errors.ErrCodeDatabaseError, out.Code)
}

func TestAnalyze_MissingPlaybookDegrades(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Analyze(context.Background(), "case-3", false)
	require.NoError(t, err)

	pa := res.PlaybookAnalysis
	assert.Equal(t, string(errors.ErrCodePlaybookNotFound), pa.ErrorCode)
	assert.Contains(t, pa.Error, "landlord")
	assert.Nil(t, pa.DecisionPath)
	assert.Equal(t, 0.0, res.CaseAssessment.ComponentScores.PlaybookScore)

	// no documents: only the no-risk bonus
	assert.True(t, res.DocumentAnalysis.NoDocuments())
	assert.Equal(t, 0.3, res.CaseAssessment.ComponentScores.DocumentScore)
}

func TestAnalyze_NoPlaybookAssigned(t *testing.T) {
	h := newHarness(t)
	h.repo.AddCase(legalcase.Case{ID: "case-4", CaseType: "employment", Summary: "fired"})

	res, err := h.svc.Analyze(context.Background(), "case-4", false)
	require.NoError(t, err)
	assert.Equal(t, string(errors.ErrCodeNoPlaybookAssigned), res.PlaybookAnalysis.ErrorCode)
}

func TestAnalyze_UnderspecifiedTreeFallsBack(t *testing.T) {
	h := newHarness(t)
	pb := employmentPlaybook()
	pb.DecisionTree = legalcase.DecisionTree{}
	h.repo.Playbooks = []legalcase.Playbook{pb}

	res, err := h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)
	path := res.PlaybookAnalysis.DecisionPath
	require.NotNil(t, path)
	assert.True(t, path.Fallback)
	assert.Equal(t, 0.6, res.CaseAssessment.ComponentScores.PlaybookScore)
	assert.Equal(t, "Typical settlement", res.PlaybookAnalysis.MonetaryAssessment.Description)
	assert.True(t, h.logger.HasMessage("info", "decision tree underspecified, using moderate assessment"))
}

func TestAnalyze_CacheWriteFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.store.PutErr = fmt.Errorf("disk full")

	res, err := h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)
	assert.Equal(t, "case-1", res.CaseID)
	assert.True(t, h.logger.HasMessage("warn", "failed to persist analysis, returning uncached result"))
}

func TestAnalyze_CacheReadFailureRecomputes(t *testing.T) {
	h := newHarness(t)
	h.store.GetErr = fmt.Errorf("corrupt cache")

	res, err := h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.True(t, h.logger.HasMessage("warn", "analysis cache lookup failed, recomputing"))
}

func TestAnalyze_CorpusOutageDegrades(t *testing.T) {
	h := newHarness(t)
	h.repo.SearchErr = fmt.Errorf("search cluster down")

	res, err := h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)
	assert.Empty(t, res.ResearchAnalysis.TopRelevant)
	assert.Equal(t, 0.0, res.CaseAssessment.ComponentScores.ResearchScore)
}

func TestAnalyzeCase_RecoversPanics(t *testing.T) {
	h := newHarness(t)
	deps := h.deps()
	deps.Corpus = panickySearcher{}
	svc, err := NewService(deps, WithClock(h.clock.Now))
	require.NoError(t, err)

	out := svc.AnalyzeCase(context.Background(), "case-1", false)
	assert.True(t, out.Failed())
	assert.Equal(t, errors.ErrCodeComputationError, out.Code)
	assert.Equal(t, 0, h.store.Puts())
}

func TestAnalyze_JoinedCallerSurvivesFirstCallerCancel(t *testing.T) {
	h := newHarness(t)
	gate := &gatedCases{CaseRepository: h.repo, entered: make(chan struct{}), release: make(chan struct{})}
	deps := h.deps()
	deps.Cases = gate
	svc, err := NewService(deps, WithClock(h.clock.Now))
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(firstCtx, "case-1", false)
		firstErr <- err
	}()
	<-gate.entered

	type outcome struct {
		res *legalcase.CaseAnalysisResult
		err error
	}
	joined := make(chan outcome, 1)
	go func() {
		res, err := svc.Analyze(context.Background(), "case-1", false)
		joined <- outcome{res, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting for the shared analysis")
	}

	close(gate.release)
	select {
	case got := <-joined:
		require.NoError(t, got.err)
		assert.Equal(t, "case-1", got.res.CaseID)
	case <-time.After(2 * time.Second):
		t.Fatal("joined caller never received the shared result")
	}
	assert.EqualValues(t, 1, gate.calls.Load(), "both callers share one run")
	assert.Equal(t, 1, h.store.Puts())
}

func TestAnalyze_PublishesEvent(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishAnalysisCompleted", mock.Anything, mock.MatchedBy(func(e AnalysisCompletedEvent) bool {
		return e.CaseID == "case-1" && e.PlaybookID == "pb-employment" && e.EventID != "" && !e.Forced
	})).Return(fmt.Errorf("broker down")).Once()

	h := newHarness(t, WithEventPublisher(pub))
	_, err := h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)

	// cached read does not publish again
	_, err = h.svc.Analyze(context.Background(), "case-1", false)
	require.NoError(t, err)

	pub.AssertExpectations(t)
	assert.True(t, h.logger.HasMessage("warn", "failed to publish analysis event"))
}

func TestAnalyze_ConcurrentForcedDifferentCases(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, id := range []string{"case-1", "case-2"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := h.svc.Analyze(ctx, id, true)
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	all, err := h.store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "case-1", all[0].CaseID)
	assert.Equal(t, "case-2", all[1].CaseID)
}

func TestEvaluatePlaybook_QuickMode(t *testing.T) {
	h := newHarness(t)

	ev, err := h.svc.EvaluatePlaybook(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, legalcase.ModeQuick, ev.Mode)
	assert.Equal(t, "pb-employment", ev.PlaybookID)
	assert.Equal(t, 0.9, ev.AverageWeight)
	assert.Equal(t, legalcase.StrengthStrong, ev.AssessmentLevel)
	assert.Equal(t, legalcase.ConfidenceHigh, ev.Confidence)
	assert.Equal(t, 0, h.store.Puts())
}

func TestEvaluatePlaybook_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.EvaluatePlaybook(context.Background(), "case-3")
	assert.True(t, errors.IsCode(err, errors.ErrCodePlaybookNotFound))

	_, err = h.svc.EvaluatePlaybook(context.Background(), "nope")
	assert.True(t, errors.IsCode(err, errors.ErrCodeCaseNotFound))
}

func TestNextTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC)
	assert.Equal(t, now.Truncate(time.Microsecond), nextTimestamp(now, nil))

	prev := &legalcase.CaseAnalysisResult{AnalysisTimestamp: now.Add(time.Hour)}
	got := nextTimestamp(now, prev)
	assert.True(t, got.After(prev.AnalysisTimestamp))
	assert.Equal(t, time.Microsecond, got.Sub(prev.AnalysisTimestamp.Truncate(time.Microsecond)))
}

//Personal.AI order the ending
