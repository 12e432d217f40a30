// Package shutdown coordinates graceful termination: managers watch for a
// trigger (e.g. a POSIX signal) and callbacks release resources in order.
package shutdown

import "sync"

// ShutdownCallback is invoked when a shutdown is triggered.
type ShutdownCallback interface {
	OnShutdown(manager string) error
}

// ShutdownFunc adapts a plain function to ShutdownCallback.
type ShutdownFunc func(manager string) error

// OnShutdown implements ShutdownCallback.
func (f ShutdownFunc) OnShutdown(manager string) error { return f(manager) }

// Manager watches for a shutdown trigger and reports it back.
type Manager interface {
	Name() string
	Start(gs GSInterface) error
}

// ErrorHandler receives errors raised by callbacks during shutdown.
type ErrorHandler interface {
	OnError(err error)
}

// GSInterface is what managers see of the coordinator.
type GSInterface interface {
	StartShutdown(m Manager)
	ReportError(err error)
	AddShutdownCallback(cb ShutdownCallback)
}

// GracefulShutdown is the shutdown coordinator.
type GracefulShutdown struct {
	callbacks    []ShutdownCallback
	managers     []Manager
	errorHandler ErrorHandler
}

// New creates an empty GracefulShutdown.
func New() *GracefulShutdown {
	return &GracefulShutdown{}
}

// Start starts all registered managers.
func (gs *GracefulShutdown) Start() error {
	for _, m := range gs.managers {
		if err := m.Start(gs); err != nil {
			return err
		}
	}
	return nil
}

// AddShutdownManager registers a manager.
func (gs *GracefulShutdown) AddShutdownManager(m Manager) {
	gs.managers = append(gs.managers, m)
}

// AddShutdownCallback registers a callback run on shutdown.
func (gs *GracefulShutdown) AddShutdownCallback(cb ShutdownCallback) {
	gs.callbacks = append(gs.callbacks, cb)
}

// SetErrorHandler installs the handler for callback errors.
func (gs *GracefulShutdown) SetErrorHandler(h ErrorHandler) {
	gs.errorHandler = h
}

// StartShutdown runs all callbacks concurrently and waits for them.
func (gs *GracefulShutdown) StartShutdown(m Manager) {
	var wg sync.WaitGroup
	for _, cb := range gs.callbacks {
		wg.Add(1)
		go func(cb ShutdownCallback) {
			defer wg.Done()
			gs.ReportError(cb.OnShutdown(m.Name()))
		}(cb)
	}
	wg.Wait()
}

// ReportError forwards err to the error handler, if any.
func (gs *GracefulShutdown) ReportError(err error) {
	if err != nil && gs.errorHandler != nil {
		gs.errorHandler.OnError(err)
	}
}
