// Package llms defines the contract between the turn engine and
// remote streaming text-generation clients.
package llms

import (
	"context"
	"time"
)

// StreamCallbacks receive a single generation's output. OnChunk may be
// invoked from the client's worker goroutine; after cancellation is
// requested a few more chunks may still be delivered and consumers
// must tolerate them. Exactly one of OnComplete or OnError fires for a
// generation that runs to a terminal state, but neither is guaranteed
// after a cancellation took effect.
type StreamCallbacks struct {
	OnChunk    func(chunk string)
	OnComplete func(fullText string)
	OnError    func(err error)
}

// StreamingClient is a cancellable streaming text-generation
// transport. Cancel must be safe to call from a different goroutine
// than the one driving the stream, and must be idempotent.
type StreamingClient interface {
	StartStreaming(ctx context.Context, prompt, systemPrompt string, callbacks StreamCallbacks) error
	Cancel()
	// WaitForCompletion blocks until the in-flight generation reached
	// a terminal state or the timeout elapsed; it reports whether the
	// generation actually finished.
	WaitForCompletion(timeout time.Duration) bool
}
