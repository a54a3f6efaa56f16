package cli

import (
	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/engine"
	"github.com/substratehq/substrate/internal/state"
)

// NewHandoverCommand creates the handover command.
func NewHandoverCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		toAgent       string
		progressNotes string
		remainingWork string
	)

	cmd := &cobra.Command{
		Use:   "handover <packet-id>",
		Short: "Hand a packet over to another agent",
		Long: `Suspend ownership of a packet you hold. The packet keeps its
status but cannot be completed or failed until someone resumes it.
With --to, only the named agent may resume; without it, anyone may.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Handover(args[0], actor, toAgent, progressNotes, remainingWork)
			})
		},
	}

	cmd.Flags().StringVar(&toAgent, "to", "", "agent the handover is reserved for (empty: anyone may resume)")
	cmd.Flags().StringVar(&progressNotes, "progress", "", "what has been done so far")
	cmd.Flags().StringVar(&remainingWork, "remaining", "", "what is left to do")

	return cmd
}

// NewResumeCommand creates the resume command.
func NewResumeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "resume <packet-id>",
		Short:         "Take over a packet's active handover",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Resume(args[0], actor)
			})
		},
	}
}
