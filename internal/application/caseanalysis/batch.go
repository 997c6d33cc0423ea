package caseanalysis

import (
	"context"
	"math"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

func (s *serviceImpl) RegenerateAll(ctx context.Context) (*legalcase.RegenerateSummary, error) {
	if s.batchLock != nil {
		ok, err := s.batchLock.TryLock(ctx)
		if err != nil {
			return nil, errors.Propagate(err, errors.ErrCodeCacheError, "failed to acquire regeneration lock")
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeAnalysisLocked, "another regeneration is already running")
		}
		defer func() {
			if err := s.batchLock.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release regeneration lock", logging.Err(err))
			}
		}()
	}

	cases, err := s.deps.Cases.ListCases(ctx)
	if err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeDatabaseError, "failed to list cases")
	}

	summary := &legalcase.RegenerateSummary{TotalCases: len(cases)}
	var scoreSum float64
	for i := range cases {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("regeneration interrupted",
				logging.Int("analyzed", summary.AnalyzedCases),
				logging.Int("remaining", len(cases)-i))
			summary.AverageConfidence = average(scoreSum, summary.AnalyzedCases)
			return summary, errors.Wrap(err, errors.ErrCodeTimeout, "regeneration interrupted")
		}

		outcome := s.AnalyzeCase(ctx, cases[i].ID, true)
		if outcome.Failed() {
			summary.FailedCases++
			summary.FailedCaseIDs = append(summary.FailedCaseIDs, cases[i].ID)
			s.logger.Warn("case regeneration failed",
				logging.CaseID(cases[i].ID),
				logging.String("code", string(outcome.Code)),
				logging.String("error", outcome.Error))
			continue
		}
		summary.AnalyzedCases++
		scoreSum += outcome.Result.CaseAssessment.OverallScore
	}
	summary.AverageConfidence = average(scoreSum, summary.AnalyzedCases)

	s.metrics.RecordBatch(*summary)
	s.logger.Info("regeneration complete",
		logging.Int("total", summary.TotalCases),
		logging.Int("analyzed", summary.AnalyzedCases),
		logging.Int("failed", summary.FailedCases),
		logging.Float64("average_confidence", summary.AverageConfidence))
	return summary, nil
}

func (s *serviceImpl) Statistics(ctx context.Context) (*legalcase.Statistics, error) {
	all, err := s.cache.All(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	stats := &legalcase.Statistics{TotalAnalyses: len(all)}
	var scoreSum float64
	for i := range all {
		if now.Sub(all[i].AnalysisTimestamp) <= s.recentWindow {
			stats.RecentAnalyses++
		}
		scoreSum += all[i].CaseAssessment.OverallScore
	}
	stats.AverageConfidence = average(scoreSum, len(all))
	return stats, nil
}

// average returns sum/n rounded to two decimals, 0 when n is 0.
func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}

//Personal.AI order the ending
