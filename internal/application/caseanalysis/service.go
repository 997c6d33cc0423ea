// Package caseanalysis provides the application-level service that runs the
// case assessment pipeline, caches its results and exposes batch and
// statistics operations to the CLI and HTTP layers.
package caseanalysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/assessment"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// Service defines the case analysis operations.
type Service interface {
	// Analyze returns the cached analysis for caseID when it is fresh, and
	// otherwise runs the full pipeline and caches the result.  force skips
	// the cache lookup.
	Analyze(ctx context.Context, caseID string, force bool) (*legalcase.CaseAnalysisResult, error)

	// AnalyzeCase is Analyze for callers that want a value rather than an
	// error: failures, including panics inside the pipeline, are reported
	// in the returned outcome.
	AnalyzeCase(ctx context.Context, caseID string, force bool) *AnalysisOutcome

	// EvaluatePlaybook scores a case from playbook rule weights alone.
	EvaluatePlaybook(ctx context.Context, caseID string) (*legalcase.PlaybookEvaluation, error)

	// RegenerateAll force-analyses every case, isolating failures per case.
	RegenerateAll(ctx context.Context) (*legalcase.RegenerateSummary, error)

	// Statistics summarises the analysis cache.
	Statistics(ctx context.Context) (*legalcase.Statistics, error)
}

// AnalysisOutcome is either a result or an error description.
type AnalysisOutcome struct {
	Result *legalcase.CaseAnalysisResult `json:"result,omitempty"`
	Error  string                        `json:"error,omitempty"`
	Code   errors.ErrorCode              `json:"code,omitempty"`
}

// Failed reports whether the outcome carries an error.
func (o *AnalysisOutcome) Failed() bool { return o.Error != "" }

// Dependencies are the collaborators of the service.  Logger may be nil.
type Dependencies struct {
	Cases            legalcase.CaseRepository
	Documents        legalcase.DocumentRepository
	DocumentAnalyses legalcase.DocumentAnalysisSource
	Corpus           legalcase.CorpusSearcher
	Playbooks        legalcase.PlaybookRepository
	Store            legalcase.AnalysisStore
	Logger           logging.Logger
}

func (d Dependencies) validate() error {
	var missing []string
	if d.Cases == nil {
		missing = append(missing, "Cases")
	}
	if d.Documents == nil {
		missing = append(missing, "Documents")
	}
	if d.DocumentAnalyses == nil {
		missing = append(missing, "DocumentAnalyses")
	}
	if d.Corpus == nil {
		missing = append(missing, "Corpus")
	}
	if d.Playbooks == nil {
		missing = append(missing, "Playbooks")
	}
	if d.Store == nil {
		missing = append(missing, "Store")
	}
	if len(missing) > 0 {
		return errors.InvalidParam("caseanalysis: missing dependencies: " + strings.Join(missing, ", "))
	}
	return nil
}

// Option configures the service.
type Option func(*serviceImpl)

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(s *serviceImpl) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithFreshnessWindow sets how long cached analyses are served.
func WithFreshnessWindow(d time.Duration) Option {
	return func(s *serviceImpl) { s.freshness = d }
}

// WithRecentWindow sets the look-back used for Statistics.RecentAnalyses.
func WithRecentWindow(d time.Duration) Option {
	return func(s *serviceImpl) {
		if d > 0 {
			s.recentWindow = d
		}
	}
}

// WithEventPublisher installs the analysis-completed publisher.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *serviceImpl) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *serviceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithBatchLock makes RegenerateAll hold lock for its whole run.
func WithBatchLock(l BatchLock) Option {
	return func(s *serviceImpl) { s.batchLock = l }
}

// WithConditionRegistry shares a condition registry between the rule engine
// and the decision navigator.
func WithConditionRegistry(r *assessment.ConditionRegistry) Option {
	return func(s *serviceImpl) {
		if r != nil {
			s.registry = r
		}
	}
}

// DefaultRecentWindow is the look-back of Statistics.RecentAnalyses.
const DefaultRecentWindow = 7 * 24 * time.Hour

type serviceImpl struct {
	deps   Dependencies
	logger logging.Logger

	clock        Clock
	freshness    time.Duration
	recentWindow time.Duration
	publisher    EventPublisher
	metrics      Metrics
	batchLock    BatchLock
	registry     *assessment.ConditionRegistry

	cache     *AnalysisCache
	ranker    *assessment.Ranker
	engine    *assessment.RuleEngine
	navigator *assessment.Navigator
	resolver  *assessment.PlaybookResolver

	inflight singleflight.Group
}

// NewService creates a new case analysis service.
func NewService(deps Dependencies, opts ...Option) (Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		deps:         deps,
		logger:       logger.Named("caseanalysis"),
		clock:        time.Now,
		freshness:    DefaultFreshnessWindow,
		recentWindow: DefaultRecentWindow,
		publisher:    noopPublisher{},
		metrics:      noopMetrics{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.registry == nil {
		s.registry = assessment.NewConditionRegistry()
	}

	s.cache = NewAnalysisCache(deps.Store, s.freshness, s.clock, s.logger)
	s.ranker = assessment.NewRanker(deps.Corpus, assessment.WithQueryErrorHandler(func(q string, err error) {
		s.logger.Warn("corpus query failed, skipping", logging.String("query", q), logging.Err(err))
	}))
	s.engine = assessment.NewRuleEngine(s.registry)
	s.navigator = assessment.NewNavigator(s.registry)
	s.resolver = assessment.NewPlaybookResolver(deps.Playbooks)
	return s, nil
}

func (s *serviceImpl) Analyze(ctx context.Context, caseID string, force bool) (*legalcase.CaseAnalysisResult, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, errors.InvalidParam("case id is required")
	}

	// The shared run outlives any one caller; each caller waits on its own ctx.
	key := fmt.Sprintf("%s|%t", caseID, force)
	flightCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (interface{}, error) {
		return s.analyze(flightCtx, caseID, force)
	})

	select {
	case <-ctx.Done():
		err := errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "analysis wait interrupted")
		s.metrics.RecordAnalysisFailure(string(err.Code))
		return nil, err
	case r := <-ch:
		if r.Err != nil {
			s.metrics.RecordAnalysisFailure(string(errors.GetCode(r.Err)))
			return nil, r.Err
		}
		return r.Val.(*legalcase.CaseAnalysisResult), nil
	}
}

func (s *serviceImpl) AnalyzeCase(ctx context.Context, caseID string, force bool) (outcome *AnalysisOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.ComputationError("analysis", fmt.Errorf("panic: %v", r))
			s.logger.Error("analysis panicked", logging.CaseID(caseID), logging.Err(err))
			outcome = &AnalysisOutcome{Error: err.Error(), Code: err.Code}
		}
	}()

	res, err := s.Analyze(ctx, caseID, force)
	if err != nil {
		return &AnalysisOutcome{Error: err.Error(), Code: errors.GetCode(err)}
	}
	return &AnalysisOutcome{Result: res}
}

// analyze runs the pipeline.  Panics inside the pipeline are turned into
// ComputationError so that Analyze never panics either.
func (s *serviceImpl) analyze(ctx context.Context, caseID string, force bool) (res *legalcase.CaseAnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.ComputationError("analysis", fmt.Errorf("panic: %v", r))
			s.logger.Error("analysis panicked", logging.CaseID(caseID), logging.Err(err))
		}
	}()

	log := s.logger.With(logging.CaseID(caseID), logging.Bool("force", force))
	start := s.clock()

	prev, fresh, lookupErr := s.cache.Lookup(ctx, caseID)
	if lookupErr != nil {
		log.Warn("analysis cache lookup failed, recomputing", logging.Err(lookupErr))
	}
	if !force {
		s.metrics.RecordCacheLookup(fresh)
		if fresh {
			log.Debug("serving cached analysis")
			return prev, nil
		}
	}

	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	summary := assessment.Aggregate(s.collectDocumentAnalyses(ctx, log, caseID))

	research, err := s.ranker.Rank(ctx, c.CaseType, summary.Themes)
	if err != nil {
		log.Warn("research ranking unavailable", logging.Err(err))
	}

	playbook, path := s.analyzePlaybook(ctx, log, c, &summary)

	now := s.clock()
	assessed, err := assessment.Score(legalcase.ModeComprehensive, assessment.ScoreInput{
		Summary:  &summary,
		Research: &research,
		Path:     path,
	})
	if err != nil {
		return nil, errors.ComputationError("strength scoring", err)
	}

	result := &legalcase.CaseAnalysisResult{
		CaseID:                   c.ID,
		CaseInfo:                 c.Snapshot(),
		AnalysisTimestamp:        nextTimestamp(now, prev),
		DocumentAnalysis:         summary,
		ResearchAnalysis:         research,
		PlaybookAnalysis:         playbook,
		StrategicRecommendations: assessment.Synthesize(&summary, &research, path, now),
		CaseAssessment:           assessed,
	}

	if err := s.cache.Store(ctx, result); err != nil {
		s.metrics.RecordCacheWriteFailure()
		log.Warn("failed to persist analysis, returning uncached result", logging.Err(err))
	}
	if err := s.publisher.PublishAnalysisCompleted(ctx, newCompletedEvent(result, force)); err != nil {
		log.Warn("failed to publish analysis event", logging.Err(err))
	}

	elapsed := s.clock().Sub(start)
	s.metrics.ObserveAnalysis(legalcase.ModeComprehensive, assessed.AssessmentLevel, elapsed)
	log.Info("case analysed",
		logging.Float64("overall_score", assessed.OverallScore),
		logging.String("assessment_level", assessed.AssessmentLevel),
		logging.Int("documents", summary.TotalDocuments),
		logging.Duration("elapsed", elapsed))
	return result, nil
}

func (s *serviceImpl) loadCase(ctx context.Context, caseID string) (*legalcase.Case, error) {
	c, err := s.deps.Cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeDatabaseError, "failed to load case "+caseID)
	}
	if c == nil {
		return nil, errors.CaseNotFound(caseID)
	}
	return c, nil
}

// collectDocumentAnalyses loads the analysis of every document attached to
// the case.  Documents whose analysis is missing or unreadable are skipped.
func (s *serviceImpl) collectDocumentAnalyses(ctx context.Context, log logging.Logger, caseID string) []legalcase.DocumentAnalysisRecord {
	docs, err := s.deps.Documents.ListCaseDocuments(ctx, caseID)
	if err != nil {
		log.Warn("failed to list case documents, continuing without documents", logging.Err(err))
		return nil
	}

	records := make([]legalcase.DocumentAnalysisRecord, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		rec, err := s.deps.DocumentAnalyses.GetDocumentAnalysis(ctx, doc.ID)
		if err != nil {
			log.Warn("failed to load document analysis, skipping", logging.String("document_id", doc.ID), logging.Err(err))
			continue
		}
		if rec == nil {
			log.Debug("document has no analysis, skipping", logging.String("document_id", doc.ID))
			continue
		}
		if rec.DocumentID == "" {
			rec.DocumentID = doc.ID
		}
		if rec.DocumentName == "" {
			rec.DocumentName = doc.DisplayName()
		}
		if rec.DocumentType == "" {
			rec.DocumentType = doc.DocumentType
		}
		records = append(records, *rec)
	}
	return records
}

// analyzePlaybook runs the rule engine, the decision navigator and the
// monetary calculator.  Failures degrade the section to an error entry; the
// returned path is nil in that case, which scores the playbook component 0.
func (s *serviceImpl) analyzePlaybook(ctx context.Context, log logging.Logger, c *legalcase.Case, summary *legalcase.CaseDocumentSummary) (legalcase.PlaybookAnalysis, *legalcase.DecisionPathResult) {
	pb, err := s.resolver.Resolve(ctx, c)
	if err != nil {
		log.Warn("playbook unavailable, continuing without playbook", logging.Err(err))
		return playbookError(err), nil
	}

	facts := assessment.FactsFor(c, summary)
	rules := s.engine.Evaluate(facts, pb)

	analysis := legalcase.PlaybookAnalysis{
		PlaybookID:      pb.ID,
		CaseType:        pb.CaseType,
		RuleEvaluation:  &rules,
		KeyStatutes:     pb.KeyStatutes,
		SuccessFactors:  pb.SuccessFactors,
		EscalationPaths: pb.EscalationPaths,
	}

	path, err := s.navigator.Navigate(pb.DecisionTree, facts)
	if err != nil {
		log.Warn("decision tree navigation failed", logging.String("playbook_id", pb.ID), logging.Err(err))
		failed := playbookError(err)
		analysis.Error, analysis.ErrorCode = failed.Error, failed.ErrorCode
		return analysis, nil
	}
	if path.Fallback {
		log.Info("decision tree underspecified, using moderate assessment",
			logging.String("playbook_id", pb.ID),
			logging.String("reason", path.FallbackReason))
	}

	monetary := assessment.AssessMonetary(pb.MonetaryRanges, path.MonetaryRange)
	analysis.DecisionPath = &path
	analysis.MonetaryAssessment = &monetary
	return analysis, &path
}

func playbookError(err error) legalcase.PlaybookAnalysis {
	msg := err.Error()
	var ae *errors.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	return legalcase.PlaybookAnalysis{Error: msg, ErrorCode: string(errors.GetCode(err))}
}

func (s *serviceImpl) EvaluatePlaybook(ctx context.Context, caseID string) (*legalcase.PlaybookEvaluation, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, errors.InvalidParam("case id is required")
	}
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	pb, err := s.resolver.Resolve(ctx, c)
	if err != nil {
		return nil, err
	}

	start := s.clock()
	eval := s.engine.Evaluate(assessment.FactsFor(c, nil), pb)
	assessed, err := assessment.Score(legalcase.ModeQuick, assessment.ScoreInput{Rules: &eval})
	if err != nil {
		return nil, errors.ComputationError("rule weight scoring", err)
	}
	s.metrics.ObserveAnalysis(legalcase.ModeQuick, assessed.AssessmentLevel, s.clock().Sub(start))

	return &legalcase.PlaybookEvaluation{
		CaseID:          c.ID,
		PlaybookID:      pb.ID,
		CaseType:        pb.CaseType,
		Evaluation:      eval,
		AverageWeight:   assessed.OverallScore,
		AssessmentLevel: assessed.AssessmentLevel,
		Confidence:      assessed.Confidence,
		Mode:            legalcase.ModeQuick,
	}, nil
}

//Personal.AI order the ending
