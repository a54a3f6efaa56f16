package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the governance document and definition for structural problems",
		Long: `Run the structural self-check: packet statuses, handover counts,
dependency referential integrity, graph acyclicity and the entity
ontology. All issues are reported, not just the first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			eng, err := rootOpts.buildEngine(f)
			if err != nil {
				return err
			}

			res, err := eng.Validate()
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeState, err.Error(), nil)
			}
			if res.OK {
				return f.Success("✓ "+res.Message, res.Payload)
			}

			if f.Format != "json" {
				fmt.Fprintln(f.Writer, "✗ "+res.Message)
				if issues, ok := res.Payload["issues"].([]string); ok {
					for _, issue := range issues {
						fmt.Fprintf(f.Writer, "  - %s\n", issue)
					}
				}
				return NewExitError(ExitRejected, res.Message)
			}
			return f.Failure(ExitRejected, ErrCodeRejected, res.Message, res.Payload)
		},
	}
}
