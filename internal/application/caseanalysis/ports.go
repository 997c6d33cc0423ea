package caseanalysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

// AnalysisCompletedEvent is emitted after every computed (not cached)
// analysis.
type AnalysisCompletedEvent struct {
	EventID         string    `json:"event_id"`
	CaseID          string    `json:"case_id"`
	CaseType        string    `json:"case_type"`
	PlaybookID      string    `json:"playbook_id,omitempty"`
	OverallScore    float64   `json:"overall_score"`
	AssessmentLevel string    `json:"assessment_level"`
	Confidence      string    `json:"confidence"`
	Forced          bool      `json:"forced"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

func newCompletedEvent(r *legalcase.CaseAnalysisResult, forced bool) AnalysisCompletedEvent {
	return AnalysisCompletedEvent{
		EventID:         uuid.New().String(),
		CaseID:          r.CaseID,
		CaseType:        r.CaseInfo.CaseType,
		PlaybookID:      r.PlaybookAnalysis.PlaybookID,
		OverallScore:    r.CaseAssessment.OverallScore,
		AssessmentLevel: r.CaseAssessment.AssessmentLevel,
		Confidence:      r.CaseAssessment.Confidence,
		Forced:          forced,
		AnalyzedAt:      r.AnalysisTimestamp,
	}
}

// EventPublisher delivers analysis events to downstream consumers.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, evt AnalysisCompletedEvent) error
}

// Metrics receives pipeline measurements.
type Metrics interface {
	ObserveAnalysis(mode, level string, duration time.Duration)
	RecordAnalysisFailure(code string)
	RecordCacheLookup(hit bool)
	RecordCacheWriteFailure()
	RecordBatch(summary legalcase.RegenerateSummary)
}

// BatchLock serialises RegenerateAll runs across processes.
type BatchLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Clock returns the current time.
type Clock func() time.Time

type noopPublisher struct{}

func (noopPublisher) PublishAnalysisCompleted(context.Context, AnalysisCompletedEvent) error {
	return nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveAnalysis(string, string, time.Duration) {}
func (noopMetrics) RecordAnalysisFailure(string)                  {}
func (noopMetrics) RecordCacheLookup(bool)                        {}
func (noopMetrics) RecordCacheWriteFailure()                      {}
func (noopMetrics) RecordBatch(legalcase.RegenerateSummary)       {}

//Personal.AI order the ending
