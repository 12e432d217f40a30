// Package plan implements the 'plan' subcommand.
package plan

import (
	"context"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/kestrad/planchette/internal/planctl/cmd/util"
	"github.com/kestrad/planchette/internal/planctl/render"
)

var planExample = heredoc.Doc(`
		# Plan and execute a request, following the narration stream
		planctl plan "email the top contact for Acme and book a follow-up call"

		# Continue an existing session
		planctl plan --session 2f1c... "now update their CRM record"`)

// Options holds the flags of the 'plan' subcommand.
type Options struct {
	SessionID string
	util.IOStreams
}

// NewCmdPlan returns the 'plan' subcommand.
func NewCmdPlan(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "plan REQUEST...",
		DisableFlagsInUseLine: true,
		Short:                 "Plan and execute a natural language request",
		Long: heredoc.Doc(`
			Submit a natural language request. The server plans an ordered
			sequence of tool calls, executes them in order, and streams
			narration back as each step starts and finishes.`),
		Example: planExample,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context(), f, args))
		},
	}

	cmd.Flags().StringVar(&o.SessionID, "session", "",
		"Session to continue. A new session is created when empty.")

	return cmd
}

// Run executes the 'plan' subcommand.
func (o *Options) Run(ctx context.Context, f util.Factory, args []string) error {
	request := strings.Join(args, " ")

	r := render.NewStreamRenderer(o.Out)
	if err := f.Client().ExecutePlan(ctx, request, o.SessionID, f.UserID(), r.Render); err != nil {
		return err
	}

	r.Summary()
	return nil
}
