package cli

import (
	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/engine"
	"github.com/substratehq/substrate/internal/state"
)

// runTransition is the shared body of the single-packet lifecycle
// commands.
func runTransition(rootOpts *RootOptions, cmd *cobra.Command, fn func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error)) error {
	f := rootOpts.formatter(cmd)
	eng, err := rootOpts.buildEngine(f)
	if err != nil {
		return err
	}

	res, err := fn(eng, rootOpts.actorContext())
	if err != nil {
		return f.Failure(ExitCommandError, ErrCodeState, err.Error(), nil)
	}
	return f.Result(res)
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <packet-id>",
		Short: "Claim a pending packet",
		Long: `Transition a pending packet to in_progress for the acting user.
The claim is gated: policy, ontology, dependency completion and the
acyclicity of the dependency graph are all checked before anything is
written. A rejected claim leaves the document untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Claim(args[0], actor)
			})
		},
	}
}

// NewDoneCommand creates the done command.
func NewDoneCommand(rootOpts *RootOptions) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:           "done <packet-id>",
		Short:         "Complete an in_progress packet",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Done(args[0], actor, notes)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "completion notes recorded on the packet")
	return cmd
}

// NewNoteCommand creates the note command.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "note <packet-id> <message>",
		Short: "Annotate a packet",
		Long: `Record a free-form note on any existing packet. Notes bypass
policy and dependency gates; only the packet's existence is checked.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Note(args[0], actor, args[1])
			})
		},
	}
}

// NewFailCommand creates the fail command.
func NewFailCommand(rootOpts *RootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "fail <packet-id>",
		Short: "Fail a packet and block its dependents",
		Long: `Mark a pending or in_progress packet failed. Every transitive
dependent still in flight is set to blocked in the same atomic write,
each with its own audit entry naming its direct blocker.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Fail(args[0], actor, reason)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "failure reason recorded in the audit trail")
	return cmd
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reset <packet-id>",
		Short:         "Return an in_progress packet to pending",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, cmd, func(eng *engine.Engine, actor state.ActorContext) (engine.Result, error) {
				return eng.Reset(args[0], actor)
			})
		},
	}
}
