package cli

import (
	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/state"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var integrity string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Register definition packets in the governance document",
		Long: `Seed a pending runtime state for every packet in the definition
document. Idempotent: re-running only registers packets added to the
definition since the last init.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			eng, err := rootOpts.buildEngine(f)
			if err != nil {
				return err
			}

			res, err := eng.Init(state.IntegrityMode(integrity), rootOpts.actorContext())
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeState, err.Error(), nil)
			}
			return f.Result(res)
		},
	}

	cmd.Flags().StringVar(&integrity, "log-integrity", "", "log integrity mode (plain|hash_chain); empty keeps the current mode")

	return cmd
}
