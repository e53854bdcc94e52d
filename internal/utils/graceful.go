package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

// GracefulShutdown closes registered host resources in reverse order
type GracefulShutdown struct {
	mu      sync.Mutex
	closers []func() error
	timeout time.Duration
	logger  *Logger
}

// NewGracefulShutdown creates a new graceful shutdown manager
func NewGracefulShutdown(timeout time.Duration, logger *Logger) *GracefulShutdown {
	if logger == nil {
		logger = DefaultLogger("shutdown")
	}
	return &GracefulShutdown{
		timeout: timeout,
		logger:  logger,
	}
}

// Register registers a close function
func (g *GracefulShutdown) Register(fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closers = append(g.closers, fn)
}

// Shutdown runs the close functions LIFO, one at a time. Badger and the
// metrics registry are not safe to tear down concurrently with their users.
func (g *GracefulShutdown) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	closers := g.closers
	g.closers = nil
	g.mu.Unlock()

	g.logger.Debug("Starting graceful shutdown", Int("components", len(closers)))

	shutdownCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				g.logger.Error("Shutdown function failed", Int("index", i), Err(err))
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		g.logger.Debug("Graceful shutdown complete")
		return err
	case <-shutdownCtx.Done():
		g.logger.Warn("Graceful shutdown timed out")
		return NewError("shutdown timeout")
	}
}
