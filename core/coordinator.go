package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mindvale/worldcore/core/llms"
)

// PromptSpec is one turn's generation request.
type PromptSpec struct {
	Actor        string
	Prompt       string
	SystemPrompt string
}

// TurnResolution is the single outcome of one started turn: either a
// committed command or a failure, never both, and never more than one
// per Start call.
type TurnResolution struct {
	Actor    string
	Command  Command
	Thinking string
	// FullText is the complete generation observed before resolution.
	FullText string
	// EarlyStopped is set when the command was recognized mid-stream
	// and the generation cancelled.
	EarlyStopped bool
	Err          error
}

// activeTurnState is the mutable per-turn scan state. Everything in it
// is guarded by mu; the streaming client's worker and the orchestrating
// goroutine both touch it.
type activeTurnState struct {
	mu sync.Mutex

	actor string

	buffer         strings.Builder
	scanBuffer     string
	thinkingClosed bool

	commandFound    bool
	committed       Command
	cancelRequested bool
	resolved        bool

	onResolved func(TurnResolution)
	done       chan struct{}
}

// StreamingTurnCoordinator runs one cancellable generation per turn,
// incrementally scans the output for a committed command line, and
// guarantees the resolution callback fires exactly once per Start no
// matter how chunk delivery, completion, errors, and cancellation
// interleave.
type StreamingTurnCoordinator struct {
	client llms.StreamingClient

	mu     sync.Mutex
	active *activeTurnState
}

type CoordinatorOption func(*StreamingTurnCoordinator)

func NewStreamingTurnCoordinator(client llms.StreamingClient, opts ...CoordinatorOption) *StreamingTurnCoordinator {
	coordinator := &StreamingTurnCoordinator{client: client}
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator
}

// Start kicks off one turn's generation. onResolved fires exactly once
// for this call, from whichever goroutine reaches resolution first.
func (c *StreamingTurnCoordinator) Start(ctx context.Context, prompt PromptSpec, onResolved func(TurnResolution)) error {
	if c == nil || c.client == nil {
		return ErrClientNotConfigured
	}

	state := &activeTurnState{
		actor:      prompt.Actor,
		onResolved: onResolved,
		done:       make(chan struct{}),
	}

	c.mu.Lock()
	if c.active != nil {
		select {
		case <-c.active.done:
			// Previous turn resolved; its state can be discarded.
		default:
			c.mu.Unlock()
			return ErrTurnInProgress
		}
	}
	c.active = state
	c.mu.Unlock()

	actor := prompt.Actor
	callbacks := llms.StreamCallbacks{
		OnChunk:    func(chunk string) { c.handleChunk(state, actor, chunk) },
		OnComplete: func(fullText string) { c.handleComplete(state, actor, fullText) },
		OnError:    func(err error) { c.resolve(state, TurnResolution{Actor: actor, Err: err}) },
	}

	if err := c.client.StartStreaming(ctx, prompt.Prompt, prompt.SystemPrompt, callbacks); err != nil {
		c.resolve(state, TurnResolution{Actor: actor, Err: err})
		return nil
	}

	// A caller context that ends mid-turn cancels the stream; the
	// client then reports the interruption through its callbacks.
	cancelHook := withContextCancelHook(ctx, c.client.Cancel)
	go func() {
		<-state.done
		close(cancelHook)
	}()
	return nil
}

// handleChunk runs on the streaming worker. Chunks that arrive after
// command detection or resolution are guarded no-ops: cancellation is
// cooperative and a few stragglers are expected.
func (c *StreamingTurnCoordinator) handleChunk(state *activeTurnState, actor, chunk string) {
	state.mu.Lock()

	if state.commandFound || state.resolved {
		state.mu.Unlock()
		return
	}

	state.buffer.WriteString(chunk)

	if !state.thinkingClosed {
		buffered := state.buffer.String()
		end := strings.Index(buffered, thinkingCloseTag)
		if end == -1 {
			state.mu.Unlock()
			return
		}
		state.thinkingClosed = true
		state.scanBuffer = buffered[end+len(thinkingCloseTag):]
	} else {
		state.scanBuffer += chunk
	}

	command, ok := scanForCommand(state.scanBuffer, false)
	if !ok {
		state.mu.Unlock()
		return
	}

	state.commandFound = true
	state.committed = command
	state.cancelRequested = true
	thinking, _ := stripThinking(state.buffer.String())
	fullText := state.buffer.String()
	state.mu.Unlock()

	// Stop the generation before handing the command on; more chunks
	// may still arrive and are absorbed by the commandFound guard.
	c.client.Cancel()

	c.resolve(state, TurnResolution{
		Actor:        actor,
		Command:      command,
		Thinking:     thinking,
		FullText:     fullText,
		EarlyStopped: true,
	})
}

// handleComplete runs when the stream finished naturally. If early
// stop already committed a command this is a no-op, covering the race
// where completion fires after cancellation was requested but before
// it took effect.
func (c *StreamingTurnCoordinator) handleComplete(state *activeTurnState, actor, fullText string) {
	state.mu.Lock()
	if state.commandFound || state.resolved {
		state.mu.Unlock()
		return
	}
	state.mu.Unlock()

	thinking, _ := stripThinking(fullText)
	c.resolve(state, TurnResolution{
		Actor:    actor,
		Command:  fallbackCommand(fullText),
		Thinking: thinking,
		FullText: fullText,
	})
}

// resolve delivers the resolution exactly once.
func (c *StreamingTurnCoordinator) resolve(state *activeTurnState, resolution TurnResolution) {
	state.mu.Lock()
	if state.resolved {
		state.mu.Unlock()
		return
	}
	state.resolved = true
	onResolved := state.onResolved
	state.mu.Unlock()

	if onResolved != nil {
		onResolved(resolution)
	}
	close(state.done)
}

// Cancel requests cancellation of the in-flight turn. It is idempotent
// and does not block; resolution still arrives through the usual
// paths, or through AwaitCompletion's timeout.
func (c *StreamingTurnCoordinator) Cancel() {
	if c == nil {
		return
	}

	c.mu.Lock()
	state := c.active
	c.mu.Unlock()

	if state == nil {
		return
	}

	state.mu.Lock()
	state.cancelRequested = true
	state.mu.Unlock()

	if c.client != nil {
		c.client.Cancel()
	}
}

// AwaitCompletion blocks until the current turn resolved or the
// timeout elapsed. On timeout the turn is force-cancelled and resolved
// as abandoned, so the caller can always advance the turn loop.
func (c *StreamingTurnCoordinator) AwaitCompletion(timeout time.Duration) bool {
	if c == nil {
		return true
	}

	c.mu.Lock()
	state := c.active
	c.mu.Unlock()

	if state == nil {
		return true
	}

	select {
	case <-state.done:
		return true
	case <-time.After(timeout):
	}

	if c.client != nil {
		c.client.Cancel()
	}
	c.resolve(state, TurnResolution{Actor: state.actor, Err: ErrTurnTimeout})
	return false
}
