package world

import (
	"context"
	"fmt"
	"strings"
	"sync"

	engine "github.com/mindvale/worldcore/core"
	"github.com/mindvale/worldcore/core/events"
	"go.opentelemetry.io/otel/attribute"
)

// World holds the location graph and actor positions and turns
// committed commands into outcomes and observable events. It
// implements the orchestrator's command executor contract.
type World struct {
	mu        sync.RWMutex
	start     string
	locations map[string]*Location
	positions map[string]string

	router *engine.EventRouter
}

// New builds a world from a map. A nil map falls back to the built-in
// default. The router may be nil; commands then still resolve, they
// just go unobserved.
func New(m *Map, router *engine.EventRouter) *World {
	if m == nil {
		m = DefaultMap()
	}

	w := &World{
		start:     m.Start,
		locations: make(map[string]*Location, len(m.Locations)),
		positions: map[string]string{},
		router:    router,
	}
	for name, location := range m.Locations {
		loc := location
		if loc.Name == "" {
			loc.Name = name
		}
		w.locations[name] = &loc
	}
	return w
}

// Place puts an actor at a location, or at the start location when
// location is empty.
func (w *World) Place(actor, location string) error {
	if w == nil || actor == "" {
		return fmt.Errorf("cannot place an unnamed actor")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if location == "" {
		location = w.start
	}
	name, ok := w.lookupLocked(location)
	if !ok {
		return fmt.Errorf("unknown location %q", location)
	}
	w.positions[actor] = name
	return nil
}

func (w *World) Remove(actor string) {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.positions, actor)
}

func (w *World) LocationOf(actor string) string {
	if w == nil {
		return ""
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.positions[actor]
}

// Observer adapts an actor into a router observer whose location
// tracks the world's position table.
func (w *World) Observer(actor string, notify func(kind events.Kind, rendered string, event events.Event)) engine.Observer {
	return engine.FuncObserver{
		ActorID:    actor,
		LocationFn: func() string { return w.LocationOf(actor) },
		NotifyFn:   notify,
	}
}

// Execute resolves one committed command against the world. State
// changes happen under the world lock; the resulting events are
// published after it is released so observer location lookups do not
// re-enter the world.
func (w *World) Execute(ctx context.Context, actor string, command engine.Command) engine.Outcome {
	if w == nil {
		return engine.Outcome{Success: false, Message: "There is no world to act in."}
	}

	ctx, span := tracer.Start(ctx, "execute command")
	defer span.End()
	span.SetAttributes(
		attribute.String("world.actor", actor),
		attribute.String("world.command", command.Text),
	)

	w.mu.Lock()
	outcome, publish := w.resolveLocked(actorContext{actor: actor, command: command})
	w.mu.Unlock()

	if command.Reason != "" {
		if outcome.Data == nil {
			outcome.Data = map[string]any{}
		}
		outcome.Data[engine.DataOriginalReason] = command.Reason
	}

	if w.router != nil {
		for _, event := range publish {
			w.router.Publish(event)
		}
	}

	logger.DebugContext(ctx, "command resolved",
		"actor", actor,
		"command", command.Text,
		"success", outcome.Success,
	)
	return outcome
}

type actorContext struct {
	actor   string
	command engine.Command
}

func (w *World) resolveLocked(c actorContext) (engine.Outcome, []events.Event) {
	location := w.positions[c.actor]
	text := strings.TrimSpace(c.command.Text)
	lowered := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lowered, "go to "):
		return w.moveLocked(c.actor, location, strings.TrimSpace(text[len("go to "):]))

	case strings.HasPrefix(lowered, "say "):
		message := strings.TrimSpace(text[len("say "):])
		return engine.Outcome{
				Success: true,
				Message: fmt.Sprintf("%s says: %q", c.actor, message),
			}, []events.Event{
				events.NewSpeech(c.actor, location, message),
			}

	case strings.HasPrefix(lowered, "shout "):
		message := strings.TrimSpace(text[len("shout "):])
		return engine.Outcome{
				Success: true,
				Message: fmt.Sprintf("%s shouts from %s: %q", c.actor, location, message),
			}, []events.Event{
				events.NewShout(c.actor, location, message),
			}

	case strings.HasPrefix(lowered, "emote "):
		action := strings.TrimSpace(text[len("emote "):])
		return engine.Outcome{
				Success: true,
				Message: strings.TrimSpace(c.actor + " " + action),
			}, []events.Event{
				events.NewEmote(c.actor, location, action),
			}

	case lowered == "look" || lowered == "look around" || strings.HasPrefix(lowered, "examine"):
		return w.lookLocked(c.actor, location)

	case strings.HasPrefix(lowered, "note"):
		return engine.Outcome{Success: true, Message: "Noted."}, nil

	case strings.HasPrefix(lowered, "recall"):
		return engine.Outcome{Success: true, Message: "Nothing surfaces."}, nil

	case lowered == "dream" || strings.HasPrefix(lowered, "dream "):
		return engine.Outcome{
				Success: true,
				Message: "A dream takes hold.",
			}, []events.Event{
				events.NewEmote(c.actor, location, "drifts off, dreaming."),
			}

	case strings.HasPrefix(lowered, "dig "):
		return w.digLocked(c.actor, location, strings.TrimSpace(text[len("dig "):]))

	case strings.HasPrefix(lowered, "describe "):
		return w.describeLocked(location, strings.TrimSpace(text[len("describe "):]))
	}

	return engine.Outcome{
		Success: false,
		Message: fmt.Sprintf("Nothing happens. (%s is not something anyone here knows how to do.)", text),
	}, nil
}

func (w *World) moveLocked(actor, origin, destination string) (engine.Outcome, []events.Event) {
	if origin == "" {
		return engine.Outcome{Success: false, Message: "You are nowhere; there is nowhere to go from."}, nil
	}

	target, ok := w.lookupLocked(destination)
	if !ok {
		return engine.Outcome{
			Success: false,
			Message: fmt.Sprintf("There is no place called %q.", destination),
		}, nil
	}

	from := w.locations[origin]
	if from == nil || !connectsTo(from, target) {
		return engine.Outcome{
			Success: false,
			Message: fmt.Sprintf("You cannot get to %s from %s.", target, origin),
		}, nil
	}

	event := events.NewMovement(actor, origin, target, events.WithVia("goes"))
	w.positions[actor] = target

	message := fmt.Sprintf("%s goes to %s.", actor, target)
	if description := w.locations[target].Description; description != "" {
		message += "\n" + description
	}
	return engine.Outcome{
		Success: true,
		Message: message,
		Data: map[string]any{
			engine.DataLocationUpdate: true,
			engine.DataNewLocation:    target,
		},
	}, []events.Event{event}
}

func (w *World) lookLocked(actor, location string) (engine.Outcome, []events.Event) {
	loc := w.locations[location]
	if loc == nil {
		return engine.Outcome{Success: false, Message: "There is nothing here to see."}, nil
	}

	var here []string
	for other, position := range w.positions {
		if other != actor && position == location {
			here = append(here, other)
		}
	}

	message := fmt.Sprintf("%s looks around.\n%s", actor, loc.Description)
	if len(loc.Connections) > 0 {
		message += "\nExits: " + strings.Join(loc.Connections, ", ") + "."
	}
	if len(here) > 0 {
		message += "\nAlso here: " + strings.Join(here, ", ") + "."
	}
	return engine.Outcome{
			Success: true,
			Message: message,
		}, []events.Event{
			events.NewObservation(actor, location, "looks around."),
		}
}

func (w *World) digLocked(actor, origin, name string) (engine.Outcome, []events.Event) {
	if name == "" {
		return engine.Outcome{Success: false, Message: "Dig what? Name the new location."}, nil
	}
	if origin == "" {
		return engine.Outcome{Success: false, Message: "You are nowhere; there is nothing to dig from."}, nil
	}
	if _, exists := w.lookupLocked(name); exists {
		return engine.Outcome{Success: false, Message: fmt.Sprintf("%q already exists.", name)}, nil
	}

	w.locations[name] = &Location{Name: name, Connections: []string{origin}}
	from := w.locations[origin]
	from.Connections = append(from.Connections, name)

	return engine.Outcome{
			Success: true,
			Message: fmt.Sprintf("A new place, %s, now connects to %s.", name, origin),
		}, []events.Event{
			events.NewObservation(actor, origin, fmt.Sprintf("opens a way to %s.", name)),
		}
}

func (w *World) describeLocked(location, description string) (engine.Outcome, []events.Event) {
	loc := w.locations[location]
	if loc == nil {
		return engine.Outcome{Success: false, Message: "There is nothing here to describe."}, nil
	}
	if description == "" {
		return engine.Outcome{Success: false, Message: "Describe it as what?"}, nil
	}

	loc.Description = description
	return engine.Outcome{Success: true, Message: "The place settles into its new description."}, nil
}

// lookupLocked resolves a possibly differently-cased location name to
// its canonical map key.
func (w *World) lookupLocked(name string) (string, bool) {
	if _, ok := w.locations[name]; ok {
		return name, true
	}
	for key := range w.locations {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}

func connectsTo(from *Location, destination string) bool {
	for _, connection := range from.Connections {
		if strings.EqualFold(connection, destination) {
			return true
		}
	}
	return false
}
