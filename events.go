package cortile

import (
	"context"
	"iter"
)

// Events registers a listener on c and yields every envelope it receives
// until ctx is done, the iterator is stopped, or the daemon disconnects.
//
// buffer bounds the number of envelopes queued while the consumer is busy.
// Once the buffer is full, further envelopes are dropped rather than
// blocking the event stream.
//
// Listeners cannot be removed, so every call to Events permanently adds one
// listener to c. After the iterator returns, that listener discards each
// envelope without queueing it.
func Events(ctx context.Context, c Connector, buffer int) iter.Seq[*Envelope] {
	return func(yield func(*Envelope) bool) {
		if buffer < 1 {
			buffer = 1
		}

		ch := make(chan *Envelope, buffer)
		done := make(chan struct{})
		defer close(done)

		c.Listen(func(env *Envelope) {
			select {
			case <-done:
			case ch <- env:
			default:
			}
		})

		for {
			select {
			case <-ctx.Done():
				return
			case env := <-ch:
				if !yield(env) {
					return
				}

				if env.Kind == KindProperty && env.SourceName == DisconnectName {
					return
				}
			}
		}
	}
}
