package engine

import (
	"time"

	"github.com/mindvale/worldcore/core/llms"
)

type OrchestratorOption func(*Orchestrator)

// WithStreamingClient sets the client used to generate autonomous
// turns. Without one, RunTurn fails with ErrClientNotConfigured while
// the out-of-band Act path keeps working.
func WithStreamingClient(client llms.StreamingClient) OrchestratorOption {
	return func(o *Orchestrator) {
		o.client = client
	}
}

// WithCommandExecutor sets the world that committed commands run
// against. Without one, every command succeeds as a bare echo.
func WithCommandExecutor(executor CommandExecutor) OrchestratorOption {
	return func(o *Orchestrator) {
		o.executor = executor
	}
}

// WithPromptBuilder sets the builder that assembles each actor's turn
// prompt.
func WithPromptBuilder(builder PromptBuilder) OrchestratorOption {
	return func(o *Orchestrator) {
		o.prompts = builder
	}
}

func WithCostModel(costs CostModel) OrchestratorOption {
	return func(o *Orchestrator) {
		o.costs = costs
	}
}

// WithTurnTimeout bounds how long a single generation may run before
// the turn is abandoned.
func WithTurnTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.turnTimeout = timeout
		}
	}
}

// WithSchedulerOptions forwards options to the scheduler the
// orchestrator constructs.
func WithSchedulerOptions(opts ...TurnSchedulerOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.schedulerOpts = append(o.schedulerOpts, opts...)
	}
}

// WithRouterOptions forwards options to the event router the
// orchestrator constructs.
func WithRouterOptions(opts ...EventRouterOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.routerOpts = append(o.routerOpts, opts...)
	}
}
