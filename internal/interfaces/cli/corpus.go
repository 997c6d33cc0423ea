package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/search/opensearch"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the research corpus",
	}
	cmd.AddCommand(newCorpusSyncCmd())
	return cmd
}

// syncView reports a bulk load.
type syncView struct {
	Source string                 `json:"source"`
	Total  int                    `json:"total"`
	Result *opensearch.BulkResult `json:"result"`
}

func (v syncView) String() string {
	s := fmt.Sprintf("Loaded %d of %d corpus items from %s\n", v.Result.Succeeded, v.Total, v.Source)
	for _, e := range v.Result.Errors {
		s += fmt.Sprintf("  rejected %s: %s (%s)\n", orDash(e.DocID), e.Reason, e.ErrorType)
	}
	return s
}

func (v syncView) TableHeaders() []string {
	return []string{"Document", "Error Type", "Reason"}
}

func (v syncView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Result.Errors))
	for _, e := range v.Result.Errors {
		rows = append(rows, []string{orDash(e.DocID), e.ErrorType, truncateString(e.Reason, 60)})
	}
	return rows
}

func newCorpusSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Load corpus.json from the data directory into the OpenSearch index",
		Long: `Sync bulk-indexes every item of corpus.json under storage.data_dir into the
configured corpus index, creating the index first when it does not exist.
Items keep their ids, so repeated runs overwrite rather than duplicate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error {
				if app.Indexer == nil {
					return errors.New(errors.ErrCodeFeatureDisabled, "corpus sync requires search.backend=opensearch")
				}
				items, err := app.CorpusItems(ctx)
				if err != nil {
					return err
				}
				result, err := app.Indexer.BulkIndex(ctx, items)
				if err != nil {
					return err
				}
				if err := PrintResult(cmd, syncView{Source: app.Files.Dir(), Total: len(items), Result: result}); err != nil {
					return err
				}
				if result.Failed > 0 {
					return errors.Newf(errors.ErrCodeCorpusUnavailable, "%d corpus items were rejected", result.Failed)
				}
				return nil
			})
		},
	}
}

//Personal.AI order the ending
