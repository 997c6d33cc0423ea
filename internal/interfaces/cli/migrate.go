package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

func newMigrateCmd() *cobra.Command {
	var (
		dir   string
		steps int
	)

	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Apply, roll back or inspect the PostgreSQL schema",
		Long: `Migrate manages the schema used by storage.backend=postgres.  Without --dir the
migrations compiled into the binary are used.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			switch action {
			case "up", "down", "status":
			default:
				return errors.InvalidParam(fmt.Sprintf("unknown migrate action %q; expected up|down|status", action))
			}
			if action == "down" && steps <= 0 {
				return errors.InvalidParam("--steps must be positive")
			}

			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cliCtx.Config.Database.MigrationPath
			}

			conn, err := postgres.NewConnection(cliCtx.Config.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			switch action {
			case "down":
				if err := conn.RollbackMigration(dir, steps); err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
				return nil
			case "status":
				state, err := conn.MigrationStatus(dir)
				if err != nil {
					return err
				}
				return PrintResult(cmd, migrationView(state))
			default:
				if err := conn.RunMigrations(dir); err != nil {
					return err
				}
				PrintSuccess(cmd, "schema is up to date")
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back with down")
	return cmd
}

type migrationView postgres.MigrationState

func (v migrationView) String() string {
	if v.Dirty {
		return fmt.Sprintf("Schema version %d (dirty: a failed migration needs manual repair)\n", v.Version)
	}
	return fmt.Sprintf("Schema version %d\n", v.Version)
}

func (v migrationView) TableHeaders() []string { return []string{"Version", "Dirty"} }

func (v migrationView) TableRows() [][]string {
	return [][]string{{fmt.Sprint(v.Version), fmt.Sprint(v.Dirty)}}
}

//Personal.AI order the ending
