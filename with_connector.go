package cortile

import (
	"context"
	"fmt"
)

// WithConnector manages connector lifecycle with automatic cleanup.
//
// This helper creates a connector with the provided options, executes the
// callback function, and ensures proper cleanup via Close() when done.
//
// If the callback returns an error, it is returned to the caller.
// If Close() fails, a warning is logged but does not override the callback's error.
//
// Example usage:
//
//	err := cortile.WithConnector(ctx, func(c cortile.Connector) error {
//	    c.Listen(func(event *cortile.Envelope) {
//	        fmt.Println(event.SourceName)
//	    })
//	    return c.Wait(ctx, time.Second)
//	},
//	    cortile.WithLogger(log),
//	)
func WithConnector(ctx context.Context, fn func(Connector) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	c, err := New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to start connector: %w", err)
	}

	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			options.Logger.Warn("failed to close connector", "error", closeErr)
		}
	}()

	return fn(c)
}
