// Package history implements the 'history' subcommand.
package history

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kestrad/planchette/internal/planctl/cmd/util"
)

var historyExample = heredoc.Doc(`
		# List the tool call history of the current user
		planctl history

		# List the history of another user
		planctl history --user alice`)

// NewCmdHistory returns the 'history' subcommand.
func NewCmdHistory(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "history",
		DisableFlagsInUseLine: true,
		Short:                 "List the tool call history of a user",
		Long: heredoc.Doc(`
			List the recorded tool calls of a user, oldest first. The server
			keeps a bounded number of records per user and discards the
			oldest when the limit is exceeded.`),
		Example: historyExample,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runHistory(cmd.Context(), f, ioStreams))
		},
	}
}

func runHistory(ctx context.Context, f util.Factory, ioStreams util.IOStreams) error {
	records, err := f.Client().ListHistory(ctx, f.UserID())
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("CREATED", "TOOL", "STATUS", "PLAN", "SUMMARY")
	for _, rec := range records {
		table.AddRow(rec.CreatedAt, rec.ToolName, rec.Status, rec.PlanStatus, rec.Summary)
	}
	fmt.Fprintf(ioStreams.Out, "%v\n", table)

	return nil
}
