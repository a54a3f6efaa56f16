package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/audit"
)

// NewLogCommand creates the log command group.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect the audit trail",
	}

	cmd.AddCommand(newLogShowCommand(rootOpts))
	cmd.AddCommand(newLogVerifyCommand(rootOpts))

	return cmd
}

func newLogShowCommand(rootOpts *RootOptions) *cobra.Command {
	var packetID string

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Print audit entries in order",
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

			entries := st.Log
			if packetID != "" {
				filtered := entries[:0:0]
				for _, e := range entries {
					if e.PacketID == packetID {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}

			if f.Format == "json" {
				return f.Success("", map[string]any{
					"entries":        entries,
					"integrity_mode": st.LogIntegrityMode,
				})
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-12s %-24s %s", e.Timestamp, e.Event, e.PacketID, e.Actor)
				if e.Notes != "" {
					line += "  " + e.Notes
				}
				fmt.Fprintln(f.Writer, line)
			}
			fmt.Fprintf(f.Writer, "\n%d entr(ies), integrity mode %s\n", len(entries), st.LogIntegrityMode)
			return nil
		},
	}

	cmd.Flags().StringVar(&packetID, "packet", "", "show only entries for this packet")

	return cmd
}

func newLogVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the audit hash chain",
		Long: `Recompute every hashed entry and check chain linkage. Entries
written before hash-chain mode was enabled are reported as unhashed,
not as corruption.`,
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

			report := audit.VerifyIntegrity(st.Log)
			if report.Valid {
				return f.Success(
					fmt.Sprintf("✓ chain valid (%d hashed entr(ies) of %d)", report.HashedEvents, len(st.Log)),
					report)
			}

			if f.Format != "json" {
				fmt.Fprintf(f.Writer, "✗ chain invalid (%d issue(s))\n", len(report.Issues))
				for _, issue := range report.Issues {
					fmt.Fprintf(f.Writer, "  - %s\n", issue)
				}
				return NewExitError(ExitRejected, "audit chain verification failed")
			}
			return f.Failure(ExitRejected, ErrCodeIntegrity, "audit chain verification failed", report)
		},
	}
}
