// Package posixsignal provides a shutdown manager triggered by SIGINT or
// SIGTERM. A second signal terminates the process immediately.
package posixsignal

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrad/planchette/pkg/shutdown"
)

// Name is the manager name reported to shutdown callbacks.
const Name = "PosixSignalManager"

// PosixSignalManager implements shutdown.Manager for POSIX signals.
type PosixSignalManager struct {
	signals []os.Signal
}

// NewPosixSignalManager creates a manager for the given signals,
// defaulting to SIGINT and SIGTERM.
func NewPosixSignalManager(sig ...os.Signal) *PosixSignalManager {
	if len(sig) == 0 {
		sig = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &PosixSignalManager{signals: sig}
}

// Name implements shutdown.Manager.
func (m *PosixSignalManager) Name() string { return Name }

// Start implements shutdown.Manager.
func (m *PosixSignalManager) Start(gs shutdown.GSInterface) error {
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, m.signals...)

		<-c
		gs.StartShutdown(m)

		<-c
		os.Exit(128 + int(syscall.SIGTERM))
	}()
	return nil
}
