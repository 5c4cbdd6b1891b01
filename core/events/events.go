package events

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSpeech      Kind = "world.speech"
	KindShout       Kind = "world.shout"
	KindEmote       Kind = "world.emote"
	KindObservation Kind = "world.observation"
	KindMovement    Kind = "world.movement"
	KindCommand     Kind = "turn.command"
	KindError       Kind = "turn.error"
)

// Event is an immutable world event. Routing hands observers a copy
// with Recipient set; the published value itself is never mutated.
type Event struct {
	ID   string
	Kind Kind

	Actor    string
	Location string
	Message  string

	// Origin and Destination are set for movement events only.
	Origin      string
	Destination string
	// Via is the movement verb ("moved", "flew", ...).
	Via string

	// Recipient identifies the observer a delivered copy is addressed
	// to. Empty on the published event.
	Recipient string

	Metadata map[string]string

	Timestamp time.Time
}

type Option func(*Event)

// WithMetadata attaches a metadata entry to the event. Repeating the
// option adds more entries.
func WithMetadata(key, value string) Option {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = map[string]string{}
		}
		e.Metadata[key] = value
	}
}

// WithVia overrides the movement verb used when rendering the event.
func WithVia(via string) Option {
	return func(e *Event) { e.Via = via }
}

func newEvent(kind Kind, actor, location, message string, opts ...Option) Event {
	event := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Actor:     actor,
		Location:  location,
		Message:   message,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

func NewSpeech(actor, location, message string, opts ...Option) Event {
	return newEvent(KindSpeech, actor, location, message, opts...)
}

func NewShout(actor, location, message string, opts ...Option) Event {
	return newEvent(KindShout, actor, location, message, opts...)
}

func NewEmote(actor, location, action string, opts ...Option) Event {
	return newEvent(KindEmote, actor, location, action, opts...)
}

func NewObservation(actor, location, message string, opts ...Option) Event {
	return newEvent(KindObservation, actor, location, message, opts...)
}

func NewMovement(actor, origin, destination string, opts ...Option) Event {
	event := newEvent(KindMovement, actor, origin, "", opts...)
	event.Origin = origin
	event.Destination = destination
	if event.Via == "" {
		event.Via = "moved"
	}
	return event
}

func NewCommand(actor, location, confirmation string, opts ...Option) Event {
	return newEvent(KindCommand, actor, location, confirmation, opts...)
}

func NewError(actor, location, message string, opts ...Option) Event {
	return newEvent(KindError, actor, location, message, opts...)
}

// IsBroadcastable reports whether bystanders may perceive the event at
// all. Command confirmations and errors stay with the acting actor.
func (e Event) IsBroadcastable() bool {
	return e.Kind != KindCommand && e.Kind != KindError
}

// GainsPerception reports whether a delivery of this event counts as a
// new perception for a recipient that is not the actor.
func (e Event) GainsPerception() bool {
	switch e.Kind {
	case KindSpeech, KindShout, KindEmote, KindObservation, KindMovement:
		return true
	}
	return false
}
