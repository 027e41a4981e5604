// Package shutdown counts termination signals for a polling wait loop.
//
// Signal delivery only increments a counter. Callers poll Exit and perform
// their own cleanup; a second signal exits the process unconditionally.
package shutdown

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// ForceThreshold is the signal count at which the process exits immediately.
const ForceThreshold = 2

// Counter counts received termination signals.
type Counter struct {
	log    *slog.Logger
	exit   func(code int)
	count  atomic.Int32
	ch     chan os.Signal
	stop   chan struct{}
	once   sync.Once
	forced atomic.Bool
}

// NewCounter creates a counter that calls exit once ForceThreshold signals
// have been observed. It does not listen for signals until Notify is called.
func NewCounter(log *slog.Logger, exit func(code int)) *Counter {
	if exit == nil {
		exit = os.Exit
	}

	return &Counter{
		log:  log.With("component", "shutdown"),
		exit: exit,
		stop: make(chan struct{}),
	}
}

// Notify subscribes to SIGINT and SIGTERM.
func (c *Counter) Notify() {
	c.ch = make(chan os.Signal, ForceThreshold)
	signal.Notify(c.ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-c.ch:
				c.Observe(sig)
			case <-c.stop:
				return
			}
		}
	}()
}

// Observe records one signal occurrence.
func (c *Counter) Observe(sig os.Signal) {
	n := c.count.Add(1)
	c.log.Info("Received termination signal", "signal", sig, "count", n)

	if n >= ForceThreshold && c.forced.CompareAndSwap(false, true) {
		c.log.Warn("Repeated termination signal, exiting")
		c.exit(0)
	}
}

// Count returns the number of signals received.
func (c *Counter) Count() int {
	return int(c.count.Load())
}

// Exit reports whether at least one termination signal was received.
func (c *Counter) Exit() bool {
	return c.count.Load() > 0
}

// Stop unsubscribes from signals. It is safe to call more than once.
func (c *Counter) Stop() {
	c.once.Do(func() {
		if c.ch != nil {
			signal.Stop(c.ch)
		}

		close(c.stop)
	})
}
