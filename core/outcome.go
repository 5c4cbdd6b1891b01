package engine

import "context"

// Data keys understood on a command outcome.
const (
	// DataLocationUpdate flags that the actor's location changed.
	DataLocationUpdate = "location_update"
	// DataNewLocation carries the actor's location after the change.
	DataNewLocation = "new_location"
	// DataOriginalReason carries the actor's stated reason for the
	// action, for provenance.
	DataOriginalReason = "original_reason"
)

// Outcome is the result of executing one command against the world.
type Outcome struct {
	Success bool
	Message string
	Data    map[string]any
}

// LocationUpdate returns the actor's new location when the outcome
// signals a move.
func (o Outcome) LocationUpdate() (string, bool) {
	if updated, ok := o.Data[DataLocationUpdate].(bool); !ok || !updated {
		return "", false
	}
	location, ok := o.Data[DataNewLocation].(string)
	return location, ok && location != ""
}

// OriginalReason returns the provenance reason attached to the
// outcome, if any.
func (o Outcome) OriginalReason() string {
	reason, _ := o.Data[DataOriginalReason].(string)
	return reason
}

// CommandExecutor is the world collaborator: it mutates world state
// for a committed command and publishes the resulting events. The
// engine only consumes the outcome contract.
type CommandExecutor interface {
	Execute(ctx context.Context, actor string, command Command) Outcome
}

// PromptBuilder assembles the generation request for an actor's turn.
type PromptBuilder interface {
	BuildPrompt(ctx context.Context, actor string) (PromptSpec, error)
}

// PromptBuilderFunc adapts a function to the PromptBuilder interface.
type PromptBuilderFunc func(ctx context.Context, actor string) (PromptSpec, error)

func (f PromptBuilderFunc) BuildPrompt(ctx context.Context, actor string) (PromptSpec, error) {
	return f(ctx, actor)
}
