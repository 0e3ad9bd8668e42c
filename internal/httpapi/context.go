package httpapi

import (
	"context"
)

// serverBaseCtx is canceled at shutdown so handlers blocked on completion
// handles unwind. Background until the daemon installs its own.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level context handlers derive from.
// Nil restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled as soon as either parent is done.
// Callers must invoke the returned cancel when finished; it also releases
// the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	joined, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
		case <-b.Done():
		case <-joined.Done():
		}
		cancel()
	}()
	return joined, cancel
}
