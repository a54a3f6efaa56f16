package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/logdb"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit log into a SQLite index",
		Long: `Project the audit trail into a SQLite database for ad-hoc SQL
querying. The database is derived data: deleting it loses nothing, and
re-running export after new transitions inserts only the new entries.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			eng, err := rootOpts.buildEngine(f)
			if err != nil {
				return err
			}
			st, err := eng.State()
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeState, err.Error(), nil)
			}

			db, err := logdb.Open(dbPath)
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}
			defer db.Close()

			inserted, skipped, err := db.Export(cmd.Context(), st)
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}
			f.VerboseLog("exported to %s: %d inserted, %d skipped", dbPath, inserted, skipped)

			summary, err := db.Summarize(cmd.Context())
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}

			return f.Success(
				fmt.Sprintf("exported %d new entr(ies) to %s (%d total)", inserted, dbPath, summary.Total),
				map[string]any{
					"inserted": inserted,
					"skipped":  skipped,
					"summary":  summary,
				})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "substrate-log.db", "path to the SQLite index file")

	return cmd
}
