// Package tool implements the 'tool' subcommand group.
package tool

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kestrad/planchette/internal/planctl/cmd/util"
)

// NewCmdTool returns the 'tool' subcommand group.
func NewCmdTool(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tool",
		Aliases: []string{"tools"},
		Short:   "Inspect the server's tool catalog",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(newCmdList(f, ioStreams))

	return cmd
}

func newCmdList(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Short:                 "List the tools available for planning",
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runList(cmd.Context(), f, ioStreams))
		},
	}
}

func runList(ctx context.Context, f util.Factory, ioStreams util.IOStreams) error {
	tools, err := f.Client().ListTools(ctx)
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("NAME", "SOURCE", "DESCRIPTION")
	for _, t := range tools {
		table.AddRow(t.Name, t.Source, t.Description)
	}
	fmt.Fprintf(ioStreams.Out, "%v\n", table)

	return nil
}
