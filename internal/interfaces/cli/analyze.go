package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// runWithApp opens the service graph for the duration of fn.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd, cliCtx)
	defer cancel()

	app, err := cliCtx.OpenApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			cliCtx.Logger.Warn("failed to close backends", logging.Err(cerr))
		}
	}()
	return fn(ctx, cliCtx, app)
}

func newAnalyzeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "analyze <case-id>",
		Short: "Run or fetch the comprehensive analysis of a case",
		Long: `Analyze returns the cached analysis of a case when it is fresh and otherwise
runs the full pipeline: document summary, research ranking, playbook
evaluation, recommendations and the overall strength assessment.`,
		Example: `  lexcase analyze case-42
  lexcase analyze case-42 --force -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error {
				outcome := app.Service.AnalyzeCase(ctx, args[0], force)
				if outcome.Failed() {
					return errors.New(outcome.Code, outcome.Error)
				}
				return PrintResult(cmd, analysisView{result: outcome.Result})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "recompute even when a fresh cached analysis exists")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <case-id>",
		Short: "Score a case from its playbook rules alone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error {
				eval, err := app.Service.EvaluatePlaybook(ctx, args[0])
				if err != nil {
					return err
				}
				return PrintResult(cmd, evaluationView{eval: eval})
			})
		},
	}
}

func newRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate-all",
		Short: "Force a fresh analysis of every case",
		Long: `Regenerate-all recomputes the analysis of every case, isolating failures per
case.  The summary is printed even when the run is interrupted by --timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error {
				summary, err := app.Service.RegenerateAll(ctx)
				if summary != nil {
					if perr := PrintResult(cmd, regenerateView{summary: summary}); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the analysis cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error {
				stats, err := app.Service.Statistics(ctx)
				if err != nil {
					return err
				}
				return PrintResult(cmd, statsView{stats: stats})
			})
		},
	}
}

//Personal.AI order the ending
