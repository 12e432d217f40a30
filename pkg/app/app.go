// Package app builds cobra-based command line applications with grouped
// flags, viper config file loading, and environment variable binding.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kestrad/planchette/pkg/utils/cliflag"
)

// RunFunc is the application's main body.
type RunFunc func(basename string) error

// CliOptions abstracts options that contribute command line flags.
type CliOptions interface {
	// Flags returns the grouped flag sets of the options.
	Flags() cliflag.NamedFlagSets
	// Validate checks the options after flags and config are applied.
	Validate() []error
	// Complete fills defaults derivable from other fields.
	Complete() error
}

// App is a structured command line application.
type App struct {
	name        string
	basename    string
	description string
	options     CliOptions
	runFunc     RunFunc
	noConfig    bool
	cmd         *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithOptions attaches flag-contributing options to the application.
func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the application's main body.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description shown in help output.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig disables the --config flag and config file loading.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithDefaultValidArgs rejects any positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {}
}

// NewApp creates an App from its name, binary basename, and options.
func NewApp(name, basename string, opts ...Option) *App {
	a := &App{name: name, basename: basename}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.name,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
		for _, name := range namedFlagSets.Order {
			cmd.Flags().AddFlagSet(namedFlagSets.FlagSets[name])
		}
	}

	if !a.noConfig {
		addConfigFlag(a.basename, cmd.Flags())
	}

	cmd.RunE = a.runCommand

	helpFunc := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		helpFunc(c, args)
		cliflag.PrintSections(c.OutOrStdout(), namedFlagSets, 120)
	})

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if !a.noConfig {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if a.options != nil {
			if err := viper.Unmarshal(a.options); err != nil {
				return err
			}
		}
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if errs := a.options.Validate(); len(errs) > 0 {
			msgs := make([]string, 0, len(errs))
			for _, err := range errs {
				msgs = append(msgs, err.Error())
			}
			return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
		}
	}

	if a.runFunc != nil {
		return a.runFunc(a.basename)
	}
	return nil
}

// Command exposes the underlying cobra command (for adding subcommands).
func (a *App) Command() *cobra.Command { return a.cmd }

// Run launches the application, exiting non-zero on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
