package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/application/dataimport"
	"github.com/turtacn/LexCase-Intelligence/internal/bootstrap"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/storage/minio"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

type importView struct {
	Source  string              `json:"source"`
	Targets []string            `json:"targets"`
	Summary *dataimport.Summary `json:"summary"`
}

func (v importView) String() string {
	s := v.Summary
	return fmt.Sprintf("Imported from %s into %v: %d cases, %d documents, %d document analyses, %d playbooks\n",
		v.Source, v.Targets, s.Cases, s.Documents, s.DocumentAnalyses, s.Playbooks)
}

func (v importView) TableHeaders() []string {
	return []string{"Cases", "Documents", "Document Analyses", "Playbooks"}
}

func (v importView) TableRows() [][]string {
	s := v.Summary
	return [][]string{{fmt.Sprint(s.Cases), fmt.Sprint(s.Documents), fmt.Sprint(s.DocumentAnalyses), fmt.Sprint(s.Playbooks)}}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Copy the file data directory into the configured backends",
		Long: `Import reads cases, documents, document analyses and playbooks from
storage.data_dir and writes them to PostgreSQL (storage.backend=postgres)
and, with storage.analysis_source=minio, the document analyses to object
storage.  Cases and documents are written in one transaction.  Records are
upserted by id, so re-running an import is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, cliCtx *CLIContext, app *bootstrap.App) error {
				if app.Postgres == nil && app.MinIO == nil {
					return errors.New(errors.ErrCodeFeatureDisabled,
						"import requires storage.backend=postgres or storage.analysis_source=minio")
				}

				view := importView{Source: app.Files.Dir()}
				var opts dataimport.Options
				if app.MinIO != nil {
					if err := app.MinIO.EnsureBucket(ctx); err != nil {
						return err
					}
					opts.Analyses = minio.NewDocumentAnalysisSource(app.MinIO, cliCtx.Logger)
					view.Targets = append(view.Targets, "minio")
				}

				run := func(opts dataimport.Options) error {
					im, err := dataimport.NewImporter(app.Files, opts, cliCtx.Logger)
					if err != nil {
						return err
					}
					view.Summary, err = im.Run(ctx)
					return err
				}

				var err error
				if app.Postgres != nil {
					view.Targets = append(view.Targets, "postgres")
					opts.Playbooks = repositories.NewPlaybookRepo(app.Postgres, cliCtx.Logger)
					cases := repositories.NewCaseRepo(app.Postgres, cliCtx.Logger)
					err = cases.WithTx(ctx, func(tx *repositories.CaseRepo) error {
						opts.Cases = tx
						return run(opts)
					})
				} else {
					err = run(opts)
				}
				if err != nil {
					return err
				}
				return PrintResult(cmd, view)
			})
		},
	}
}

//Personal.AI order the ending
