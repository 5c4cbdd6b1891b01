package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mindvale/worldcore/core/llms"
)

// scriptedStreamingClient replays a fixed chunk script. Cancellation
// is checked between chunks, so a Cancel issued from inside an OnChunk
// callback deterministically stops the script there.
type scriptedStreamingClient struct {
	chunks []string
	// err ends the stream with OnError instead of OnComplete.
	err error
	// hang suppresses the terminal callback entirely.
	hang bool
	// completeAnyway fires OnComplete even after cancellation, to
	// exercise the completion race.
	completeAnyway bool

	mu           sync.Mutex
	cancelled    bool
	emitted      int
	finished     chan struct{}
	finishedOnce sync.Once
}

func newScriptedStreamingClient(chunks ...string) *scriptedStreamingClient {
	return &scriptedStreamingClient{chunks: chunks, finished: make(chan struct{})}
}

func (c *scriptedStreamingClient) StartStreaming(ctx context.Context, prompt, systemPrompt string, callbacks llms.StreamCallbacks) error {
	go func() {
		// The coordinator may reuse one client for several turns, so
		// StartStreaming can run more than once; close only once.
		defer c.finishedOnce.Do(func() { close(c.finished) })

		for _, chunk := range c.chunks {
			if c.isCancelled() {
				break
			}
			c.mu.Lock()
			c.emitted++
			c.mu.Unlock()
			if callbacks.OnChunk != nil {
				callbacks.OnChunk(chunk)
			}
		}

		if c.hang {
			return
		}
		if c.err != nil {
			if callbacks.OnError != nil {
				callbacks.OnError(c.err)
			}
			return
		}
		if (!c.isCancelled() || c.completeAnyway) && callbacks.OnComplete != nil {
			callbacks.OnComplete(strings.Join(c.chunks, ""))
		}
	}()
	return nil
}

func (c *scriptedStreamingClient) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
}

func (c *scriptedStreamingClient) WaitForCompletion(timeout time.Duration) bool {
	select {
	case <-c.finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *scriptedStreamingClient) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *scriptedStreamingClient) emittedChunks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emitted
}
