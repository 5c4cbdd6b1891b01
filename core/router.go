package engine

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/mindvale/worldcore/core/events"
)

const defaultDedupWindow = 3 * time.Second

// Observer is a registered perceiver of world events. Notify must not
// block or panic for normal inputs; it may be invoked from whichever
// goroutine currently holds the turn.
type Observer interface {
	ID() string
	Location() string
	Notify(kind events.Kind, rendered string, event events.Event)
}

// FuncObserver adapts plain functions to the Observer interface.
type FuncObserver struct {
	ActorID    string
	LocationFn func() string
	NotifyFn   func(kind events.Kind, rendered string, event events.Event)
}

func (o FuncObserver) ID() string { return o.ActorID }

func (o FuncObserver) Location() string {
	if o.LocationFn == nil {
		return ""
	}
	return o.LocationFn()
}

func (o FuncObserver) Notify(kind events.Kind, rendered string, event events.Event) {
	if o.NotifyFn != nil {
		o.NotifyFn(kind, rendered, event)
	}
}

// Recorder taps every event that clears global deduplication, before
// per-recipient fan-out. Journals and spectator feeds hang off this.
type Recorder interface {
	Record(event events.Event) error
}

// EventRouter decides which observers perceive a published event, in
// what perspective-adjusted wording, and suppresses duplicate
// delivery. It knows nothing about scheduling; perception accounting
// is wired in by the orchestrator through the delivery hook.
type EventRouter struct {
	mu sync.Mutex

	observers map[string]Observer
	// order preserves registration order for deterministic delivery.
	order []string

	dedupWindow time.Duration
	recent      map[string]time.Time
	recentSeen  map[string]map[string]time.Time

	recorders   []Recorder
	onDelivered func(recipient string, event events.Event)
}

type EventRouterOption func(*EventRouter)

// WithDedupWindow overrides the expiry window within which identical
// fingerprints are considered the same event.
func WithDedupWindow(window time.Duration) EventRouterOption {
	return func(r *EventRouter) {
		if window > 0 {
			r.dedupWindow = window
		}
	}
}

// WithRecorder adds a tap for every successfully published event.
// Repeating the option adds more recorders.
func WithRecorder(recorder Recorder) EventRouterOption {
	return func(r *EventRouter) {
		if recorder != nil {
			r.recorders = append(r.recorders, recorder)
		}
	}
}

// WithDeliveryHook observes each per-recipient delivery.
func WithDeliveryHook(hook func(recipient string, event events.Event)) EventRouterOption {
	return func(r *EventRouter) { r.onDelivered = hook }
}

func NewEventRouter(opts ...EventRouterOption) *EventRouter {
	router := &EventRouter{
		observers:   map[string]Observer{},
		dedupWindow: defaultDedupWindow,
		recent:      map[string]time.Time{},
		recentSeen:  map[string]map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(router)
	}
	return router
}

// Register adds an observer, replacing any prior registration for the
// same actor without changing its place in the delivery order.
func (r *EventRouter) Register(observer Observer) {
	if r == nil || observer == nil || observer.ID() == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observers[observer.ID()]; !ok {
		r.order = append(r.order, observer.ID())
	}
	r.observers[observer.ID()] = observer
}

// Unregister removes an actor's observer. Unknown actors are ignored.
func (r *EventRouter) Unregister(actor string) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observers[actor]; !ok {
		return
	}
	delete(r.observers, actor)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == actor })
	delete(r.recentSeen, actor)
}

// LocationOf reports the registered observer's current location, or
// "" for an unknown actor.
func (r *EventRouter) LocationOf(actor string) string {
	if r == nil {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	observer, ok := r.observers[actor]
	if !ok {
		return ""
	}
	return observer.Location()
}

// nestedPrefix strips "[kind] in location:" decorations that upstream
// collaborators sometimes wrap around re-published messages, so the
// fingerprint sees the plain message.
var nestedPrefix = regexp.MustCompile(`^\[[^\]]+\](\s+in\s+[^:]+)?:\s+`)

func fingerprint(event events.Event, at time.Time) string {
	message := nestedPrefix.ReplaceAllString(event.Message, "")
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%s:%s:%s:%s",
		event.Kind, event.Actor, message, event.Location, at.Format("15:04:05"))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Publish routes one event. It returns the number of observers the
// event was delivered to; zero is normal for duplicates and for events
// nobody is positioned to perceive.
func (r *EventRouter) Publish(event events.Event) int {
	if r == nil {
		return 0
	}

	r.mu.Lock()

	now := time.Now()
	fp := fingerprint(event, now)

	if seenAt, ok := r.recent[fp]; ok && now.Sub(seenAt) < r.dedupWindow {
		r.mu.Unlock()
		return 0
	}
	r.recent[fp] = now
	r.expireLocked(now)

	recipients := r.recipientsLocked(event)

	type delivery struct {
		observer Observer
		rendered string
		copy     events.Event
	}
	deliveries := make([]delivery, 0, len(recipients))
	for _, recipient := range recipients {
		observer := r.observers[recipient]
		if observer == nil {
			continue
		}

		if recipient == event.Actor && suppressSelfEcho(event.Kind) {
			continue
		}

		if r.seenLocked(recipient, fp, now) {
			continue
		}

		rendered := renderForRecipient(event, recipient, observer.Location())
		if rendered == "" {
			continue
		}

		r.markSeenLocked(recipient, fp, now)

		recipientCopy := events.Event{}
		if err := copier.Copy(&recipientCopy, &event); err != nil {
			recipientCopy = event
		}
		recipientCopy.Recipient = recipient

		deliveries = append(deliveries, delivery{observer: observer, rendered: rendered, copy: recipientCopy})
	}

	recorders := slices.Clone(r.recorders)
	onDelivered := r.onDelivered
	r.mu.Unlock()

	// Callbacks run outside the lock; they may publish again.
	for _, recorder := range recorders {
		if err := recorder.Record(event); err != nil {
			logger.Warn("event recorder failed", "error", err, "event_id", event.ID)
		}
	}

	for _, d := range deliveries {
		d.observer.Notify(event.Kind, d.rendered, d.copy)
		if onDelivered != nil {
			onDelivered(d.copy.Recipient, d.copy)
		}
	}
	return len(deliveries)
}

// suppressSelfEcho lists the kinds an actor does not need a
// first-person echo of.
func suppressSelfEcho(kind events.Kind) bool {
	switch kind {
	case events.KindSpeech, events.KindShout, events.KindEmote, events.KindObservation:
		return true
	}
	return false
}

func (r *EventRouter) recipientsLocked(event events.Event) []string {
	if !event.IsBroadcastable() {
		// Command confirmations and errors stay with the actor.
		if _, ok := r.observers[event.Actor]; ok {
			return []string{event.Actor}
		}
		return nil
	}

	recipients := []string{}
	for _, id := range r.order {
		location := r.observers[id].Location()
		switch event.Kind {
		case events.KindShout:
			recipients = append(recipients, id)
		case events.KindMovement:
			if location != "" && (location == event.Origin || location == event.Destination) {
				recipients = append(recipients, id)
			}
		default:
			if location != "" && location == event.Location {
				recipients = append(recipients, id)
			}
		}
	}
	return recipients
}

func (r *EventRouter) seenLocked(recipient, fp string, now time.Time) bool {
	seenAt, ok := r.recentSeen[recipient][fp]
	return ok && now.Sub(seenAt) < r.dedupWindow
}

func (r *EventRouter) markSeenLocked(recipient, fp string, now time.Time) {
	if r.recentSeen[recipient] == nil {
		r.recentSeen[recipient] = map[string]time.Time{}
	}
	r.recentSeen[recipient][fp] = now
}

func (r *EventRouter) expireLocked(now time.Time) {
	for fp, seenAt := range r.recent {
		if now.Sub(seenAt) >= r.dedupWindow {
			delete(r.recent, fp)
		}
	}
	for recipient, seen := range r.recentSeen {
		for fp, seenAt := range seen {
			if now.Sub(seenAt) >= r.dedupWindow {
				delete(seen, fp)
			}
		}
		if len(seen) == 0 {
			delete(r.recentSeen, recipient)
		}
	}
}
