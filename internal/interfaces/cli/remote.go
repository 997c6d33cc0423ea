package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/client"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// openRemoteApp serves the analysis commands from a running API server
// instead of local backends.  No backend handles are set.
func openRemoteApp(cliCtx *CLIContext) (*bootstrap.App, error) {
	c, err := client.NewClient(cliCtx.Server,
		client.WithLogger(sdkLogger{cliCtx.Logger}),
		client.WithUserAgent("lexcase-cli/"+Version),
		client.WithAPIKey(cliCtx.Token))
	if err != nil {
		return nil, err
	}
	return &bootstrap.App{
		Config:  cliCtx.Config,
		Logger:  cliCtx.Logger,
		Service: &remoteService{client: c},
	}, nil
}

// remoteService implements caseanalysis.Service over the HTTP API.
type remoteService struct {
	client *client.Client
}

var _ caseanalysis.Service = (*remoteService)(nil)

func (s *remoteService) Analyze(ctx context.Context, caseID string, force bool) (*legalcase.CaseAnalysisResult, error) {
	res, err := s.client.Cases().Analysis(ctx, caseID, force)
	if err != nil {
		return nil, remoteError(err)
	}
	return res, nil
}

func (s *remoteService) AnalyzeCase(ctx context.Context, caseID string, force bool) *caseanalysis.AnalysisOutcome {
	res, err := s.Analyze(ctx, caseID, force)
	if err != nil {
		return &caseanalysis.AnalysisOutcome{Error: errorMessage(err), Code: errors.GetCode(err)}
	}
	return &caseanalysis.AnalysisOutcome{Result: res}
}

func (s *remoteService) EvaluatePlaybook(ctx context.Context, caseID string) (*legalcase.PlaybookEvaluation, error) {
	eval, err := s.client.Cases().PlaybookEvaluation(ctx, caseID)
	if err != nil {
		return nil, remoteError(err)
	}
	return eval, nil
}

func (s *remoteService) RegenerateAll(ctx context.Context) (*legalcase.RegenerateSummary, error) {
	sum, err := s.client.Analyses().Regenerate(ctx)
	if err != nil {
		return nil, remoteError(err)
	}
	return sum, nil
}

func (s *remoteService) Statistics(ctx context.Context) (*legalcase.Statistics, error) {
	stats, err := s.client.Analyses().Statistics(ctx)
	if err != nil {
		return nil, remoteError(err)
	}
	return stats, nil
}

// remoteError restores the server's error code so exit paths match local
// runs.
func remoteError(err error) error {
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) && apiErr.Code != "" {
		return errors.New(errors.ErrorCode(apiErr.Code), apiErr.Message)
	}
	return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "api request failed")
}

func errorMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// sdkLogger adapts logging.Logger to the SDK's printf-style interface.
type sdkLogger struct {
	log logging.Logger
}

func (l sdkLogger) Debugf(format string, args ...interface{}) { l.log.Debug(fmt.Sprintf(format, args...)) }
func (l sdkLogger) Infof(format string, args ...interface{})  { l.log.Info(fmt.Sprintf(format, args...)) }
func (l sdkLogger) Errorf(format string, args ...interface{}) { l.log.Error(fmt.Sprintf(format, args...)) }

//Personal.AI order the ending
