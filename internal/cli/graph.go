package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/definition"
	"github.com/substratehq/substrate/internal/graph"
)

// NewGraphCommand creates the graph command group.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Dependency graph analytics",
	}

	cmd.AddCommand(newGraphCycleCommand(rootOpts))
	cmd.AddCommand(newGraphDepsCommand(rootOpts))
	cmd.AddCommand(newGraphImpactCommand(rootOpts))
	cmd.AddCommand(newGraphCriticalPathCommand(rootOpts))

	return cmd
}

// loadDefs loads and validates the definition document for the
// read-only graph commands, which need no engine.
func loadDefs(rootOpts *RootOptions, f *OutputFormatter) (*definition.Document, error) {
	defs, err := definition.Load(rootOpts.DefsPath)
	if err != nil {
		return nil, f.Failure(ExitCommandError, ErrCodeDefs, err.Error(), nil)
	}
	if err := defs.Validate(); err != nil {
		return nil, f.Failure(ExitCommandError, ErrCodeDefs, fmt.Sprintf("invalid definition: %v", err), nil)
	}
	return defs, nil
}

func newGraphCycleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "cycle",
		Short:         "Detect a dependency cycle",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			defs, err := loadDefs(rootOpts, f)
			if err != nil {
				return err
			}

			cycle := graph.DetectCycle(defs.Dependencies)
			if cycle == nil {
				return f.Success("no cycle", map[string]any{"cycle": nil})
			}
			return f.Failure(ExitRejected, ErrCodeRejected,
				fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
				map[string]any{"cycle": cycle})
		},
	}
}

func newGraphDepsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "deps <packet-id>",
		Short:         "List everything a packet transitively depends on",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			defs, err := loadDefs(rootOpts, f)
			if err != nil {
				return err
			}
			if defs.Packet(args[0]) == nil {
				return f.Failure(ExitCommandError, ErrCodeDefs, fmt.Sprintf("unknown packet %q", args[0]), nil)
			}

			deps := graph.Upstream(args[0], defs.Dependencies)
			return f.Success(strings.Join(deps, "\n"), map[string]any{
				"packet_id": args[0],
				"upstream":  deps,
			})
		},
	}
}

func newGraphImpactCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "impact <packet-id>",
		Short:         "List everything transitively depending on a packet",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			defs, err := loadDefs(rootOpts, f)
			if err != nil {
				return err
			}
			if defs.Packet(args[0]) == nil {
				return f.Failure(ExitCommandError, ErrCodeDefs, fmt.Sprintf("unknown packet %q", args[0]), nil)
			}

			impacted := graph.ImpactAnalysis(args[0], defs.Dependencies)
			return f.Success(strings.Join(impacted, "\n"), map[string]any{
				"packet_id":  args[0],
				"downstream": impacted,
			})
		},
	}
}

func newGraphCriticalPathCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "critical-path",
		Short:         "Show the longest dependency chain",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			defs, err := loadDefs(rootOpts, f)
			if err != nil {
				return err
			}

			nodes := make([]string, 0, len(defs.Packets))
			for _, p := range defs.Packets {
				nodes = append(nodes, p.ID)
			}
			path := graph.CriticalPath(defs.Dependencies, nodes)
			if path == nil {
				return f.Failure(ExitRejected, ErrCodeRejected, "no critical path: dependency graph has a cycle", nil)
			}
			return f.Success(strings.Join(path, " -> "), map[string]any{
				"path":   path,
				"length": len(path),
			})
		},
	}
}
