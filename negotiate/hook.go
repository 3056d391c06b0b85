// Hook chain for the handshake and negotiation phases, adapted from the
// teacher's middleware onion model (middleware/middleware.go,
// middleware/logging_middleware.go, middleware/timeout_middleware.go) but
// wrapping a single fallible Step instead of an RPC handler — there is no
// request/response pair here, just "did this phase succeed before its
// deadline".
package negotiate

import (
	"context"
	"log"
	"time"

	"github.com/theAester/dftp/dfterr"
)

// Step is a single phase operation (handshake, or negotiate-and-upgrade)
// that either completes or fails.
type Step func(ctx context.Context) error

// Hook wraps a Step to add a cross-cutting concern (logging, timeout)
// without the phase's own code knowing about it.
type Hook func(next Step) Step

// Chain composes hooks into one, in the same right-to-left onion order as
// middleware.Chain: Chain(A, B)(step) runs A.before, B.before, step,
// B.after, A.after.
func Chain(hooks ...Hook) Hook {
	return func(next Step) Step {
		for i := len(hooks) - 1; i >= 0; i-- {
			next = hooks[i](next)
		}
		return next
	}
}

// LoggingHook logs the named phase's duration and outcome to l.
func LoggingHook(l *log.Logger, name string) Hook {
	return func(next Step) Step {
		return func(ctx context.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				l.Printf("%s: failed after %s: %v", name, time.Since(start), err)
			} else {
				l.Printf("%s: ok (%s)", name, time.Since(start))
			}
			return err
		}
	}
}

// TimeoutHook bounds the wrapped Step to timeout, per spec.md §5's
// suggestion that implementations SHOULD expose an optional wall-clock
// timeout on the handshake and negotiation phases. A timeout of zero
// disables the hook (Step runs unbounded). The underlying goroutine is not
// cancelled if the deadline fires — matching TimeOutMiddleware's documented
// behavior — callers relying on this hook should also close the connection
// on a dfterr.Timeout error to unblock it.
func TimeoutHook(timeout time.Duration) Hook {
	if timeout <= 0 {
		return func(next Step) Step { return next }
	}
	return func(next Step) Step {
		return func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- next(ctx) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return dfterr.Newf(dfterr.Timeout, "negotiate.TimeoutHook", "phase exceeded %s", timeout)
			}
		}
	}
}
