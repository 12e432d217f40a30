// Package session implements the 'session' subcommand group.
package session

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/kestrad/planchette/internal/planctl/cmd/util"
)

// NewCmdSession returns the 'session' subcommand group.
func NewCmdSession(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage conversation sessions",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(newCmdList(f, ioStreams))
	cmd.AddCommand(newCmdGet(f, ioStreams))
	cmd.AddCommand(newCmdDelete(f, ioStreams))

	return cmd
}

func newCmdList(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Short:                 "List the sessions of the current user",
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runList(cmd.Context(), f, ioStreams))
		},
	}
}

func runList(ctx context.Context, f util.Factory, ioStreams util.IOStreams) error {
	sessions, err := f.Client().ListSessions(ctx, f.UserID())
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("ID", "USER", "CREATED", "UPDATED")
	for _, sess := range sessions {
		table.AddRow(sess.ID, sess.UserID, sess.CreatedAt, sess.UpdatedAt)
	}
	fmt.Fprintf(ioStreams.Out, "%v\n", table)

	return nil
}

func newCmdGet(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "get SESSION_ID",
		DisableFlagsInUseLine: true,
		Short:                 "Print one session",
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runGet(cmd.Context(), f, ioStreams, args[0]))
		},
	}
}

func runGet(ctx context.Context, f util.Factory, ioStreams util.IOStreams, sessionID string) error {
	sess, err := f.Client().GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(ioStreams.Out, "ID:       %s\n", sess.ID)
	fmt.Fprintf(ioStreams.Out, "User:     %s\n", sess.UserID)
	fmt.Fprintf(ioStreams.Out, "Created:  %s\n", sess.CreatedAt)
	fmt.Fprintf(ioStreams.Out, "Updated:  %s\n", sess.UpdatedAt)
	for k, v := range sess.Metadata {
		fmt.Fprintf(ioStreams.Out, "Meta:     %s=%s\n", k, v)
	}

	return nil
}

func newCmdDelete(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "delete SESSION_ID",
		DisableFlagsInUseLine: true,
		Short:                 "Delete a session and its runs",
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(runDelete(cmd.Context(), f, ioStreams, args[0]))
		},
	}
}

func runDelete(ctx context.Context, f util.Factory, ioStreams util.IOStreams, sessionID string) error {
	if err := f.Client().DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	fmt.Fprintf(ioStreams.Out, "session %s deleted\n", sessionID)
	return nil
}
