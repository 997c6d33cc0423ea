package caseanalysis

import (
	"context"
	"time"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// DefaultFreshnessWindow is how long a cached analysis is served without
// recomputation.
const DefaultFreshnessWindow = 24 * time.Hour

// AnalysisCache applies the freshness policy on top of an AnalysisStore.
// Staleness is decided at read time from the stored timestamp; the store
// itself never expires entries.
type AnalysisCache struct {
	store  legalcase.AnalysisStore
	window time.Duration
	clock  Clock
	logger logging.Logger
}

// NewAnalysisCache wraps store.  A non-positive window means
// DefaultFreshnessWindow.
func NewAnalysisCache(store legalcase.AnalysisStore, window time.Duration, clock Clock, logger logging.Logger) *AnalysisCache {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisCache{store: store, window: window, clock: clock, logger: logger}
}

// Window reports the freshness window.
func (c *AnalysisCache) Window() time.Duration { return c.window }

// Lookup returns the stored entry for caseID, if any, and whether it is
// still fresh.
func (c *AnalysisCache) Lookup(ctx context.Context, caseID string) (*legalcase.CaseAnalysisResult, bool, error) {
	cached, err := c.store.Get(ctx, caseID)
	if err != nil {
		return nil, false, errors.Propagate(err, errors.ErrCodeCacheError, "failed to read analysis cache")
	}
	if cached == nil {
		return nil, false, nil
	}
	if !cached.IsFresh(c.clock(), c.window) {
		c.logger.Debug("cached analysis is stale",
			logging.CaseID(caseID),
			logging.String("code", string(errors.ErrCodeAnalysisCacheStale)),
			logging.Time("analysis_timestamp", cached.AnalysisTimestamp))
		return cached, false, nil
	}
	return cached, true, nil
}

// Store replaces the entry for result.CaseID.
func (c *AnalysisCache) Store(ctx context.Context, result *legalcase.CaseAnalysisResult) error {
	if err := c.store.Put(ctx, result); err != nil {
		return errors.Propagate(err, errors.ErrCodeCacheError, "failed to write analysis cache")
	}
	return nil
}

// All lists every stored entry regardless of freshness.
func (c *AnalysisCache) All(ctx context.Context) ([]legalcase.CaseAnalysisResult, error) {
	all, err := c.store.List(ctx)
	if err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeCacheError, "failed to list analysis cache")
	}
	return all, nil
}

// nextTimestamp returns now truncated to microseconds, bumped past prev so
// that a recomputed analysis always carries a strictly later timestamp.
func nextTimestamp(now time.Time, prev *legalcase.CaseAnalysisResult) time.Time {
	ts := now.UTC().Truncate(time.Microsecond)
	if prev != nil && !ts.After(prev.AnalysisTimestamp) {
		ts = prev.AnalysisTimestamp.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return ts
}

//Personal.AI order the ending
