// Package run implements the 'run' subcommand group.
package run

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kestrad/planchette/internal/planctl/cmd/util"
	"github.com/kestrad/planchette/internal/planctl/render"
)

// NewCmdRun returns the 'run' subcommand group.
func NewCmdRun(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect and resume plan runs",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(newCmdGet(f, ioStreams))
	cmd.AddCommand(newCmdResume(f, ioStreams))
	cmd.AddCommand(newCmdList(f, ioStreams))

	return cmd
}

func newCmdGet(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "get RUN_ID",
		DisableFlagsInUseLine: true,
		Short:                 "Print one run with its per-step outcomes",
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runGet(cmd.Context(), f, ioStreams, args[0]))
		},
	}
}

func runGet(ctx context.Context, f util.Factory, ioStreams util.IOStreams, runID string) error {
	run, err := f.Client().GetRun(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(ioStreams.Out, "ID:       %s\n", run.ID)
	fmt.Fprintf(ioStreams.Out, "Session:  %s\n", run.SessionID)
	fmt.Fprintf(ioStreams.Out, "Status:   %s\n", run.Status)
	fmt.Fprintf(ioStreams.Out, "Request:  %s\n", run.Request)
	if run.Error != nil {
		fmt.Fprintf(ioStreams.Out, "Error:    %s\n", run.Error.Error())
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("STEP", "TOOL", "STATUS")
	for _, step := range run.Steps {
		table.AddRow(step.ID, step.Tool, step.Status)
	}
	fmt.Fprintf(ioStreams.Out, "\n%v\n", table)

	return nil
}

func newCmdResume(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "resume RUN_ID",
		DisableFlagsInUseLine: true,
		Short:                 "Resume an unfinished run and follow its stream",
		Long: heredoc.Doc(`
			Resume a run that was interrupted before reaching a terminal
			state. Steps that already completed are not re-executed; their
			narration is replayed and execution continues from the first
			unfinished step.`),
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runResume(cmd.Context(), f, ioStreams, args[0]))
		},
	}
}

func runResume(ctx context.Context, f util.Factory, ioStreams util.IOStreams, runID string) error {
	r := render.NewStreamRenderer(ioStreams.Out)
	if err := f.Client().ResumeRun(ctx, runID, r.Render); err != nil {
		return err
	}
	r.Summary()
	return nil
}

func newCmdList(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "list SESSION_ID",
		DisableFlagsInUseLine: true,
		Short:                 "List the runs of a session",
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runList(cmd.Context(), f, ioStreams, args[0]))
		},
	}
}

func runList(ctx context.Context, f util.Factory, ioStreams util.IOStreams, sessionID string) error {
	runs, err := f.Client().ListRuns(ctx, sessionID)
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("ID", "STATUS", "STEPS", "CREATED", "REQUEST")
	for _, run := range runs {
		table.AddRow(run.ID, run.Status, len(run.Steps), run.CreatedAt, run.Request)
	}
	fmt.Fprintf(ioStreams.Out, "%v\n", table)

	return nil
}
