package engine

import "context"

// withContextCancelHook runs onContextDone if ctx ends before the
// returned channel is closed. Close the channel once the guarded work
// is finished to release the watcher.
func withContextCancelHook(ctx context.Context, onContextDone func()) chan struct{} {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onContextDone()
		case <-done:
		}
	}()
	return done
}
