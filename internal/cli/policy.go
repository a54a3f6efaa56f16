package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/substratehq/substrate/internal/state"
)

// NewPolicyCommand creates the policy command group.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage versioned policy documents",
	}

	cmd.AddCommand(newPolicyRegisterCommand(rootOpts))
	cmd.AddCommand(newPolicyActivateCommand(rootOpts))
	cmd.AddCommand(newPolicyShowCommand(rootOpts))

	return cmd
}

func newPolicyRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var rationale string

	cmd := &cobra.Command{
		Use:   "register <policy-file>",
		Short: "Register a policy document as a draft version",
		Long: `Parse a YAML or JSON policy document and register it in the
governance document's policy registry. Drafts do not govern until
activated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("read policy file: %v", err), nil)
			}
			var doc state.PolicyDocument
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return f.Failure(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("parse policy file: %v", err), nil)
			}

			eng, err := rootOpts.buildEngine(f)
			if err != nil {
				return err
			}
			res, err := eng.RegisterPolicy(doc, rootOpts.actorContext(), rationale)
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeState, err.Error(), nil)
			}
			return f.Result(res)
		},
	}

	cmd.Flags().StringVar(&rationale, "rationale", "", "why this policy version is being introduced")

	return cmd
}

func newPolicyActivateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		approvals []string
		rationale string
	)

	cmd := &cobra.Command{
		Use:           "activate <version>",
		Short:         "Activate a registered policy draft",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			eng, err := rootOpts.buildEngine(f)
			if err != nil {
				return err
			}
			res, err := eng.ActivatePolicy(args[0], rootOpts.actorContext(), approvals, rationale)
			if err != nil {
				return f.Failure(ExitCommandError, ErrCodeState, err.Error(), nil)
			}
			return f.Result(res)
		},
	}

	cmd.Flags().StringArrayVar(&approvals, "approve", nil, "approver recorded with the activation (repeatable)")
	cmd.Flags().StringVar(&rationale, "rationale", "", "why this version is being activated")

	return cmd
}

func newPolicyShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show registered policy versions",
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

			reg := st.PolicyRegistry
			if reg == nil || len(reg.Versions) == 0 {
				return f.Success("no policy versions registered", map[string]any{"versions": nil})
			}

			if f.Format == "json" {
				return f.Success("", map[string]any{
					"active_version": reg.ActiveVersion,
					"versions":       reg.Versions,
				})
			}
			versions := make([]string, 0, len(reg.Versions))
			for version := range reg.Versions {
				versions = append(versions, version)
			}
			sort.Strings(versions)
			for _, version := range versions {
				rec := reg.Versions[version]
				marker := " "
				if version == reg.ActiveVersion {
					marker = "*"
				}
				fmt.Fprintf(f.Writer, "%s %-16s %-10s %d rule(s)\n", marker, version, rec.Status, len(rec.Document.Rules))
			}
			return nil
		},
	}
}
