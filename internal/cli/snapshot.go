package cli

import (
	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/engine"
	"github.com/substratehq/substrate/internal/state"
)

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <label>",
		Short: "Capture a labeled snapshot of all packet states",
		Long: `Deep-copy the current packet states under a unique label for a
later diff. Labels are immutable: snapshotting an existing label is
rejected rather than overwritten.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Snapshot(args[0], actor)
			})
		},
	}
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "diff <label-a> <label-b>",
		Short:         "Show packets that differ between two snapshots",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Diff(args[0], args[1])
			})
		},
	}
}
