package planchette

import (
	"fmt"

	"github.com/kestrad/planchette/internal/planchette/config"
	"github.com/kestrad/planchette/internal/planchette/options"
	"github.com/kestrad/planchette/pkg/app"
	"github.com/kestrad/planchette/pkg/logger"
)

const commandDesc = `The planchette server turns natural language requests into ordered
tool-call plans and executes them step by step, wiring results from
earlier steps into later ones and narrating progress over SSE.

Find more planchette information at:
    https://github.com/kestrad/planchette`

// NewApp creates the planchette server application.
func NewApp(basename string) *app.App {
	opts := options.NewOptions()
	application := app.NewApp("Planchette Server",
		basename,
		app.WithOptions(opts),
		app.WithDescription(commandDesc),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)

	return application
}

func run(opts *options.Options) app.RunFunc {
	return func(basename string) error {
		logPath := fmt.Sprintf("logs/%s.log", basename)
		if err := logger.Init(logPath); err != nil {
			return err
		}

		cfg, err := config.CreateConfigFromOptions(opts)
		if err != nil {
			return err
		}

		return Run(cfg)
	}
}
