// planchetted is the plan execution API server.
package main

import (
	"math/rand"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/kestrad/planchette/internal/planchette"
)

func main() {
	rand.New(rand.NewSource(time.Now().UTC().UnixNano()))

	planchette.NewApp("planchetted").Run()
}
