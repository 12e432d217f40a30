// Package planctl implements the planctl command line client.
package planctl

import (
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kestrad/planchette/internal/planctl/cmd/history"
	"github.com/kestrad/planchette/internal/planctl/cmd/plan"
	"github.com/kestrad/planchette/internal/planctl/cmd/run"
	"github.com/kestrad/planchette/internal/planctl/cmd/session"
	"github.com/kestrad/planchette/internal/planctl/cmd/tool"
	"github.com/kestrad/planchette/internal/planctl/cmd/util"
)

// NewDefaultPlanCtlCommand creates the `planctl` command with default
// arguments.
func NewDefaultPlanCtlCommand() *cobra.Command {
	return NewPlanCtlCommand(os.Stdin, os.Stdout, os.Stderr)
}

// NewPlanCtlCommand creates the `planctl` command with the given streams.
func NewPlanCtlCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cmds := &cobra.Command{
		Use:   "planctl",
		Short: "planctl controls a planchette server",
		Long: heredoc.Doc(`
			planctl is the CLI client for the planchette plan execution server.

			It submits natural language requests for planning and execution,
			follows the narration stream, and inspects sessions, runs and the
			tool call history.

			Find more information at:
				https://github.com/kestrad/planchette`),
		Run: runHelp,
	}

	ioStreams := util.IOStreams{In: in, Out: out, ErrOut: errOut}
	f := util.NewFactory(cmds.PersistentFlags())

	cmds.AddCommand(plan.NewCmdPlan(f, ioStreams))
	cmds.AddCommand(run.NewCmdRun(f, ioStreams))
	cmds.AddCommand(session.NewCmdSession(f, ioStreams))
	cmds.AddCommand(history.NewCmdHistory(f, ioStreams))
	cmds.AddCommand(tool.NewCmdTool(f, ioStreams))

	return cmds
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
