// Package util holds shared plumbing for planctl subcommands.
package util

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kestrad/planchette/internal/planctl/client"
)

// IOStreams bundles the three standard streams of a subcommand.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Factory provides the server connection shared by all subcommands.
type Factory interface {
	// Client returns a client for the configured server.
	Client() *client.Client
	// UserID returns the user identity to act as.
	UserID() string
}

type factory struct {
	server *string
	token  *string
	user   *string
}

// NewFactory registers the global connection flags on flags and returns a
// Factory reading them.
func NewFactory(flags *pflag.FlagSet) Factory {
	f := &factory{}
	f.server = flags.StringP("server", "s", "http://127.0.0.1:11780",
		"The address of the planchette server.")
	f.token = flags.String("token", os.Getenv("PLANCHETTE_GATEWAY_TOKEN"),
		"Bearer token for server authentication.")
	f.user = flags.StringP("user", "u", "default",
		"The user identity to act as.")
	return f
}

func (f *factory) Client() *client.Client {
	return client.New(*f.server, *f.token, nil)
}

func (f *factory) UserID() string { return *f.user }

// CheckErr prints err to stderr and exits non-zero if err is non-nil.
func CheckErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
