package planchette

import (
	"github.com/kestrad/planchette/internal/planchette/config"
)

// Run runs the planchette API server. It blocks until the process is
// signalled to stop.
func Run(cfg *config.Config) error {
	server, err := createAPIServer(cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run()
}
