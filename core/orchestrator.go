// Package engine runs turn-based multi-agent worlds: it schedules
// whose turn is next, streams each actor's generation until a command
// commits, executes the command, and routes the resulting events to
// everyone positioned to perceive them.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mindvale/worldcore/core/events"
	"github.com/mindvale/worldcore/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultTurnTimeout = 120 * time.Second

// Orchestrator wires the turn scheduler, the event router, and the
// streaming-turn coordinator into a turn loop. It owns the coupling
// the components themselves stay free of: turn outcomes feed cost
// application, event deliveries feed perception counts.
type Orchestrator struct {
	scheduler   *TurnScheduler
	router      *EventRouter
	coordinator *StreamingTurnCoordinator

	client   llms.StreamingClient
	executor CommandExecutor
	prompts  PromptBuilder

	costs       CostModel
	turnTimeout time.Duration

	schedulerOpts []TurnSchedulerOption
	routerOpts    []EventRouterOption

	turnInFlight atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		costs:       DefaultCostModel(),
		turnTimeout: defaultTurnTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.scheduler = NewTurnScheduler(o.schedulerOpts...)
	o.router = NewEventRouter(append(o.routerOpts, WithDeliveryHook(o.onEventDelivered))...)
	o.coordinator = NewStreamingTurnCoordinator(o.client)
	return o
}

func (o *Orchestrator) Scheduler() *TurnScheduler { return o.scheduler }

func (o *Orchestrator) Router() *EventRouter { return o.router }

func (o *Orchestrator) Coordinator() *StreamingTurnCoordinator { return o.coordinator }

// RegisterActor adds an actor to both the schedule and the event
// routing in one step.
func (o *Orchestrator) RegisterActor(observer Observer, primary bool) {
	if o == nil || observer == nil {
		return
	}

	o.scheduler.Register(observer.ID(), primary)
	o.router.Register(observer)
}

func (o *Orchestrator) UnregisterActor(actor string) {
	if o == nil {
		return
	}

	o.scheduler.Unregister(actor)
	o.router.Unregister(actor)
}

// onEventDelivered is the router delivery hook: a delivered event the
// recipient did not cause counts as a new perception.
func (o *Orchestrator) onEventDelivered(recipient string, event events.Event) {
	if recipient == event.Actor || !event.GainsPerception() {
		return
	}
	o.scheduler.IncrementPerceptions(recipient, 1)
}

// TurnReport summarizes one completed turn.
type TurnReport struct {
	Actor       string
	Resolution  TurnResolution
	Outcome     Outcome
	CostApplied int
}

// RunTurn executes one autonomous turn end to end: pick the next
// actor, stream a generation until a command commits, execute it, and
// advance the schedule. A turn that fails or times out still consumes
// a minimal cost so a single bad turn cannot stall the simulation.
func (o *Orchestrator) RunTurn(ctx context.Context) (TurnReport, error) {
	if o == nil {
		return TurnReport{}, ErrClientNotConfigured
	}

	actor, ok := o.scheduler.NextActor()
	if !ok {
		return TurnReport{}, ErrNoActors
	}

	if !o.turnInFlight.CompareAndSwap(false, true) {
		return TurnReport{}, ErrTurnInProgress
	}
	defer o.turnInFlight.Store(false)

	ctx, span := tracer.Start(ctx, "run turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("turn.actor", actor),
		attribute.String("turn.mode", string(o.scheduler.Mode())),
	)

	promptSpec, err := o.buildPrompt(ctx, actor)
	if err != nil {
		err = fmt.Errorf("failed to build prompt: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TurnReport{Actor: actor}, err
	}

	resolved := make(chan TurnResolution, 1)
	if err := o.coordinator.Start(ctx, promptSpec, func(resolution TurnResolution) {
		resolved <- resolution
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TurnReport{Actor: actor}, err
	}

	if !o.coordinator.AwaitCompletion(o.turnTimeout) {
		span.AddEvent("turn abandoned after timeout")
	}
	resolution := <-resolved

	if resolution.Err != nil {
		span.RecordError(resolution.Err)
		span.SetStatus(codes.Error, resolution.Err.Error())
		return o.failTurn(actor, resolution)
	}
	span.SetAttributes(
		attribute.String("turn.command", resolution.Command.Text),
		attribute.Bool("turn.early_stopped", resolution.EarlyStopped),
	)

	return o.settleTurn(ctx, actor, resolution), nil
}

// Act is the out-of-band action path for actors that do not generate
// their turns, typically the human. Acting out of order fails with
// ErrNotYourTurn unless the actor is privileged; the error is returned
// to the caller only, never broadcast.
func (o *Orchestrator) Act(ctx context.Context, actor, commandText string) (TurnReport, error) {
	if o == nil {
		return TurnReport{}, ErrNoActors
	}

	next, ok := o.scheduler.NextActor()
	if !ok {
		return TurnReport{}, ErrNoActors
	}
	if next != actor && o.scheduler.Privileged() != actor {
		return TurnReport{}, ErrNotYourTurn
	}

	ctx, span := tracer.Start(ctx, "act")
	defer span.End()
	span.SetAttributes(attribute.String("turn.actor", actor))

	command, ok := matchCommand(commandText)
	if !ok {
		// Unrecognized text still goes to the world; it decides what
		// to make of it.
		command = Command{Text: commandText}
	}

	return o.settleTurn(ctx, actor, TurnResolution{Actor: actor, Command: command}), nil
}

// Pass lets the actor currently up skip its turn.
func (o *Orchestrator) Pass(actor string) bool {
	if o == nil {
		return false
	}
	return o.scheduler.Pass(actor)
}

// SetTurnMode switches the scheduling mode by its wire name,
// "time_units" or "memories".
func (o *Orchestrator) SetTurnMode(mode string) bool {
	if o == nil {
		return false
	}
	return o.scheduler.SetMode(TurnMode(mode))
}

// SetPrivileged grants one actor unconditional priority without cost
// accrual; an empty actor clears it.
func (o *Orchestrator) SetPrivileged(actor string) {
	if o == nil {
		return
	}
	o.scheduler.SetPrivileged(actor)
}

func (o *Orchestrator) buildPrompt(ctx context.Context, actor string) (PromptSpec, error) {
	if o.prompts != nil {
		return o.prompts.BuildPrompt(ctx, actor)
	}

	return PromptSpec{
		Actor:  actor,
		Prompt: fmt.Sprintf("It is %s's turn. Respond with a single command line.", actor),
	}, nil
}

// settleTurn applies a resolved command to the world and the schedule
// and publishes the actor-facing confirmation.
func (o *Orchestrator) settleTurn(ctx context.Context, actor string, resolution TurnResolution) TurnReport {
	outcome := o.execute(ctx, actor, resolution.Command)

	rawCost := o.costs.BaseCost
	if outcome.Success {
		rawCost = o.costs.ForCommand(resolution.Command.Text)
	}
	applied, _ := o.scheduler.ApplyCost(actor, rawCost)

	location := o.router.LocationOf(actor)
	if outcome.Success {
		o.router.Publish(events.NewCommand(actor, location, outcome.Message))
	} else {
		o.router.Publish(events.NewError(actor, location, outcome.Message))
	}

	logger.InfoContext(ctx, "turn settled",
		"actor", actor,
		"command", resolution.Command.Text,
		"success", outcome.Success,
		"cost", applied,
	)

	return TurnReport{
		Actor:       actor,
		Resolution:  resolution,
		Outcome:     outcome,
		CostApplied: applied,
	}
}

// failTurn closes out a turn whose generation errored or timed out.
// The minimal cost keeps the schedule moving.
func (o *Orchestrator) failTurn(actor string, resolution TurnResolution) (TurnReport, error) {
	applied, _ := o.scheduler.ApplyCost(actor, o.costs.BaseCost)

	location := o.router.LocationOf(actor)
	o.router.Publish(events.NewError(actor, location,
		fmt.Sprintf("Your turn could not be completed: %s", resolution.Err)))

	return TurnReport{
		Actor:       actor,
		Resolution:  resolution,
		CostApplied: applied,
	}, resolution.Err
}

func (o *Orchestrator) execute(ctx context.Context, actor string, command Command) Outcome {
	if o.executor == nil {
		data := map[string]any{}
		if command.Reason != "" {
			data[DataOriginalReason] = command.Reason
		}
		return Outcome{Success: true, Message: command.Text, Data: data}
	}
	return o.executor.Execute(ctx, actor, command)
}
