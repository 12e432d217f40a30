// Package safego launches goroutines that survive their own panics.
package safego

import (
	"context"
	"runtime/debug"

	"github.com/kestrad/planchette/pkg/logger"
)

// Go runs fn in a new goroutine. A panic inside fn is logged with its
// stack instead of crashing the process.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[safego] goroutine panicked: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}
