// Package cli implements the substrate command tree. Commands are thin
// adapters: they parse flags, build an engine over the configured
// documents, and render the engine's result. All gating lives in the
// engine; the CLI never mutates state directly.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/definition"
	"github.com/substratehq/substrate/internal/engine"
	"github.com/substratehq/substrate/internal/state"
	"github.com/substratehq/substrate/internal/storage"
)

// RootOptions holds the global flags shared by every command.
type RootOptions struct {
	StatePath string
	DefsPath  string
	Format    string // "json" | "text"
	Verbose   bool

	Actor  string
	Role   string
	Source string
}

// ValidFormats lists the allowed --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the substrate root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "substrate",
		Short: "Packet governance kernel",
		Long: `substrate governs work packets through a gated lifecycle:
dependency-aware claims, policy authorization, and a tamper-evident
audit trail over an atomically updated state document.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.StatePath, "state", "substrate.json", "path to the governance state document")
	cmd.PersistentFlags().StringVar(&opts.DefsPath, "defs", "packets.yaml", "path to the packet definition document (.yaml, .json or .cue)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostic output on stderr")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", defaultActor(), "acting user id")
	cmd.PersistentFlags().StringVar(&opts.Role, "role", "", "acting role for policy evaluation")
	cmd.PersistentFlags().StringVar(&opts.Source, "source", "cli", "actor source recorded in the audit trail")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewClaimCommand(opts))
	cmd.AddCommand(NewDoneCommand(opts))
	cmd.AddCommand(NewNoteCommand(opts))
	cmd.AddCommand(NewFailCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewHandoverCommand(opts))
	cmd.AddCommand(NewResumeCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPolicyCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func defaultActor() string {
	if u := os.Getenv("SUBSTRATE_ACTOR"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

func (o *RootOptions) actorContext() state.ActorContext {
	return state.ActorContext{UserID: o.Actor, Role: o.Role, Source: o.Source}
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// buildEngine loads the definition document and wires an engine over
// the state store. Definition problems are command errors, not gate
// rejections.
func (o *RootOptions) buildEngine(f *OutputFormatter) (*engine.Engine, error) {
	defs, err := definition.Load(o.DefsPath)
	if err != nil {
		return nil, f.Failure(ExitCommandError, ErrCodeDefs, err.Error(), nil)
	}
	if err := defs.Validate(); err != nil {
		return nil, f.Failure(ExitCommandError, ErrCodeDefs, fmt.Sprintf("invalid definition: %v", err), nil)
	}

	store := storage.New(o.StatePath)
	return engine.New(store, defs), nil
}
