// planctl is the command line client for the planchette server.
package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/kestrad/planchette/internal/planctl"
)

func main() {
	rand.New(rand.NewSource(time.Now().UnixNano()))

	command := planctl.NewDefaultPlanCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
