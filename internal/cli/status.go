package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/substratehq/substrate/internal/state"
)

// packetStatus is the per-packet projection shown by status.
type packetStatus struct {
	ID           string       `json:"id"`
	Title        string       `json:"title,omitempty"`
	Status       state.Status `json:"status"`
	AssignedTo   string       `json:"assigned_to,omitempty"`
	HandoverOpen bool         `json:"handover_open,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the lifecycle state of every packet",
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

			defs := eng.Definition()

			ids := make([]string, 0, len(st.Packets))
			for id := range st.Packets {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			var rows []packetStatus
			counts := map[state.Status]int{}
			for _, id := range ids {
				p := st.Packets[id]
				if only != "" && string(p.Status) != only {
					continue
				}
				row := packetStatus{
					ID:           id,
					Status:       p.Status,
					AssignedTo:   p.AssignedTo,
					HandoverOpen: p.ActiveHandover() != nil,
					Notes:        p.Notes,
				}
				if def := defs.Packet(id); def != nil {
					row.Title = def.Title
				}
				rows = append(rows, row)
				counts[p.Status]++
			}

			if f.Format == "json" {
				return f.Success("", map[string]any{
					"packets": rows,
					"counts":  counts,
					"log_len": len(st.Log),
				})
			}

			if len(rows) == 0 {
				fmt.Fprintln(f.Writer, "no packets (run init)")
				return nil
			}
			for _, row := range rows {
				line := fmt.Sprintf("%-24s %-12s", row.ID, row.Status)
				if row.AssignedTo != "" {
					line += " @" + row.AssignedTo
				}
				if row.HandoverOpen {
					line += " [handover open]"
				}
				fmt.Fprintln(f.Writer, line)
			}
			fmt.Fprintf(f.Writer, "\n%d packet(s), %d log entr(ies)\n", len(rows), len(st.Log))
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "show only packets with this status")

	return cmd
}
