package kafka

import (
	"context"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// CaseAnalyzer is the part of caseanalysis.Service the worker drives.
type CaseAnalyzer interface {
	AnalyzeCase(ctx context.Context, caseID string, force bool) *caseanalysis.AnalysisOutcome
}

// AnalysisRequestHandler runs one analysis per analysis.requested event.
// Requests that can never succeed (malformed, unknown case) are logged and
// acknowledged; other failures are returned so the consumer retries them.
func AnalysisRequestHandler(svc CaseAnalyzer, log logging.Logger) MessageHandler {
	return func(ctx context.Context, msg *Message) error {
		env, err := MessageToEventEnvelope(msg)
		if err != nil {
			log.Warn("dropping undecodable analysis request", logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		if env.EventType != EventAnalysisRequested {
			log.Warn("ignoring unexpected event type", logging.String("event_type", env.EventType))
			return nil
		}
		var req AnalysisRequestedPayload
		if err := env.DecodePayload(&req); err != nil || req.CaseID == "" {
			log.Warn("dropping analysis request without case id", logging.String("event_id", env.EventID))
			return nil
		}

		outcome := svc.AnalyzeCase(ctx, req.CaseID, req.Force)
		if !outcome.Failed() {
			log.Info("analysis request processed",
				logging.CaseID(req.CaseID),
				logging.Bool("force", req.Force),
				logging.String("level", outcome.Result.CaseAssessment.AssessmentLevel))
			return nil
		}

		if permanentFailure(outcome.Code) {
			log.Warn("analysis request rejected",
				logging.CaseID(req.CaseID),
				logging.String("code", string(outcome.Code)),
				logging.String("error", outcome.Error))
			return nil
		}
		return errors.New(outcome.Code, outcome.Error)
	}
}

func permanentFailure(code errors.ErrorCode) bool {
	switch code {
	case errors.ErrCodeCaseNotFound, errors.CodeInvalidParam, errors.ErrCodeValidation:
		return true
	}
	return false
}

//Personal.AI order the ending
