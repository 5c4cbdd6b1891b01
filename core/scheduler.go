package engine

import (
	"slices"
	"strings"
	"sync"
)

type TurnMode string

const (
	// TurnModeTimeUnits orders actors by accumulated time-unit cost,
	// lowest first.
	TurnModeTimeUnits TurnMode = "time_units"
	// TurnModeMemories orders actors by how many new perceptions they
	// gained since their last turn, highest first.
	TurnModeMemories TurnMode = "memories"
)

type progressState struct {
	counter     int
	lastTurnSeq int
	primary     bool
}

// TurnScheduler decides whose turn is next. It keeps one progress
// counter per registered actor; the counter's meaning depends on the
// active TurnMode, and switching modes never rescales counters.
//
// All operations are total over registered actors: acting on an
// unknown actor is a no-op or false return, never an error, so the
// turn loop cannot be crashed by scheduling calls.
type TurnScheduler struct {
	mu sync.Mutex

	actors     map[string]*progressState
	mode       TurnMode
	privileged string
	turnSeq    int
}

type TurnSchedulerOption func(*TurnScheduler)

func WithTurnMode(mode TurnMode) TurnSchedulerOption {
	return func(s *TurnScheduler) {
		if mode == TurnModeTimeUnits || mode == TurnModeMemories {
			s.mode = mode
		}
	}
}

func NewTurnScheduler(opts ...TurnSchedulerOption) *TurnScheduler {
	scheduler := &TurnScheduler{
		actors: map[string]*progressState{},
		mode:   TurnModeTimeUnits,
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	return scheduler
}

// Register adds an actor to the schedule. Primary actors (by
// convention the human) start at counter 0 and are therefore first at
// t=0; everyone else starts at 1. Registering an already known actor
// is a no-op.
func (s *TurnScheduler) Register(actor string, primary bool) {
	if s == nil || actor == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actors[actor]; ok {
		return
	}

	counter := 1
	if primary {
		counter = 0
	}
	s.actors[actor] = &progressState{counter: counter, primary: primary}
}

// Unregister removes all scheduling state for an actor. Unknown actors
// are ignored.
func (s *TurnScheduler) Unregister(actor string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.actors, actor)
	if s.privileged == actor {
		s.privileged = ""
	}
}

// SetMode switches the scheduling mode. Counters are not migrated.
func (s *TurnScheduler) SetMode(mode TurnMode) bool {
	if s == nil || (mode != TurnModeTimeUnits && mode != TurnModeMemories) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = mode
	return true
}

func (s *TurnScheduler) Mode() TurnMode {
	if s == nil {
		return TurnModeTimeUnits
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetPrivileged flags at most one actor as privileged: it is always
// ordered first, never accrues cost, and may not pass. An empty actor
// clears the flag.
func (s *TurnScheduler) SetPrivileged(actor string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.privileged = actor
}

func (s *TurnScheduler) Privileged() string {
	if s == nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.privileged
}

// NextActor returns the actor whose turn it is. The second return is
// false when no actors are registered.
func (s *TurnScheduler) NextActor() (string, bool) {
	if s == nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.actors) == 0 {
		return "", false
	}

	if state, ok := s.actors[s.privileged]; ok && state != nil {
		return s.privileged, true
	}

	if s.mode == TurnModeMemories {
		return s.nextByPerceptionsLocked(), true
	}
	return s.nextByTimeUnitsLocked(), true
}

func (s *TurnScheduler) nextByTimeUnitsLocked() string {
	candidates := []string{}
	minCounter := 0
	for actor, state := range s.actors {
		switch {
		case len(candidates) == 0 || state.counter < minCounter:
			candidates = []string{actor}
			minCounter = state.counter
		case state.counter == minCounter:
			candidates = append(candidates, actor)
		}
	}
	return s.breakTieLocked(candidates)
}

func (s *TurnScheduler) nextByPerceptionsLocked() string {
	candidates := []string{}
	maxCounter := 0
	for actor, state := range s.actors {
		if state.counter <= 0 {
			continue
		}
		switch {
		case len(candidates) == 0 || state.counter > maxCounter:
			candidates = []string{actor}
			maxCounter = state.counter
		case state.counter == maxCounter:
			candidates = append(candidates, actor)
		}
	}

	if len(candidates) == 0 {
		// Nobody perceived anything new, so everyone is a candidate.
		for actor := range s.actors {
			candidates = append(candidates, actor)
		}
	}
	return s.breakTieLocked(candidates)
}

// breakTieLocked prefers the actor that has gone longest without a
// turn (lowest lastTurnSeq), with the name as a stable final tie-break.
func (s *TurnScheduler) breakTieLocked(candidates []string) string {
	winner := ""
	for _, actor := range candidates {
		if winner == "" {
			winner = actor
			continue
		}
		a, b := s.actors[actor], s.actors[winner]
		if a.lastTurnSeq < b.lastTurnSeq ||
			(a.lastTurnSeq == b.lastTurnSeq && actor < winner) {
			winner = actor
		}
	}
	return winner
}

// TurnOrder returns the full ranking consistent with NextActor's
// comparator. A privileged actor is pinned first; the rest are ordered
// normally.
func (s *TurnScheduler) TurnOrder() []string {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnOrderLocked()
}

func (s *TurnScheduler) turnOrderLocked() []string {
	order := make([]string, 0, len(s.actors))
	for actor := range s.actors {
		if actor == s.privileged {
			continue
		}
		order = append(order, actor)
	}

	slices.SortFunc(order, func(a, b string) int {
		sa, sb := s.actors[a], s.actors[b]
		counterA, counterB := sa.counter, sb.counter
		if s.mode == TurnModeMemories {
			// Highest perception count first.
			counterA, counterB = -counterA, -counterB
		}
		if counterA != counterB {
			return counterA - counterB
		}
		if sa.lastTurnSeq != sb.lastTurnSeq {
			return sa.lastTurnSeq - sb.lastTurnSeq
		}
		return strings.Compare(a, b)
	})

	if state, ok := s.actors[s.privileged]; ok && state != nil {
		order = append([]string{s.privileged}, order...)
	}
	return order
}

// ApplyCost charges an actor for the turn it just took and advances
// the turn sequence. The effective cost depends on the actor's place
// in the order:
//
//   - A privileged actor is never charged; only bookkeeping happens.
//   - The primary actor, first in order in time-unit mode, never pays
//     more than the minimum needed to fall behind the next actor.
//   - Any other actor first in order in time-unit mode pays at least
//     enough to relinquish the lead, so it cannot act twice in a row.
//   - An actor that is not first pays rawCost unmodified.
//
// The applied cost is returned; ok is false for unknown actors.
func (s *TurnScheduler) ApplyCost(actor string, rawCost int) (applied int, ok bool) {
	if s == nil {
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.actors[actor]
	if !ok {
		return 0, false
	}

	if rawCost < 0 {
		rawCost = 0
	}

	if actor != s.privileged {
		if s.mode == TurnModeTimeUnits {
			applied = s.effectiveCostLocked(actor, state, rawCost)
			state.counter += applied
		}
	}

	s.turnSeq++
	state.lastTurnSeq = s.turnSeq

	if s.mode == TurnModeMemories {
		// A turn consumes the perceptions accumulated for it.
		state.counter = 0
	} else {
		s.normalizeLocked()
	}
	return applied, true
}

func (s *TurnScheduler) effectiveCostLocked(actor string, state *progressState, rawCost int) int {
	order := s.turnOrderLocked()
	if len(order) < 2 || order[0] != actor {
		return rawCost
	}

	next := s.actors[order[1]]
	relinquish := next.counter - state.counter + 1
	if state.primary {
		// The human is never charged more than it takes to pass.
		capped := max(1, relinquish)
		return min(rawCost, capped)
	}
	// Autonomous actors always pay at least enough to hand over the
	// lead.
	return max(rawCost, relinquish)
}

// IncrementPerceptions credits an actor with n new perceptions. It is
// called for qualifying event deliveries where the actor was not the
// event's source.
func (s *TurnScheduler) IncrementPerceptions(actor string, n int) {
	if s == nil || n <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.actors[actor]; ok {
		state.counter += n
	}
}

// Pass lets the actor currently first in order skip its turn. A
// privileged actor may never pass, and passing needs at least one
// other registered actor to hand the turn to.
func (s *TurnScheduler) Pass(actor string) bool {
	if s == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.actors[actor]
	if !ok || actor == s.privileged || len(s.actors) < 2 {
		return false
	}

	order := s.turnOrderLocked()
	if len(order) == 0 || order[0] != actor {
		return false
	}

	if s.mode == TurnModeMemories {
		state.counter = 0
	} else {
		state.counter = s.actors[order[1]].counter + 1
	}

	s.turnSeq++
	state.lastTurnSeq = s.turnSeq

	if s.mode == TurnModeTimeUnits {
		s.normalizeLocked()
	}
	return true
}

// normalizeLocked keeps time-unit counters anchored at zero by
// subtracting the global minimum, so values never grow unbounded.
func (s *TurnScheduler) normalizeLocked() {
	if len(s.actors) == 0 {
		return
	}

	minCounter := -1
	for _, state := range s.actors {
		if minCounter == -1 || state.counter < minCounter {
			minCounter = state.counter
		}
	}
	if minCounter <= 0 {
		return
	}
	for _, state := range s.actors {
		state.counter -= minCounter
	}
}

// ActorProgress is a point-in-time view of one actor's scheduling
// state, for inspection and feeds.
type ActorProgress struct {
	Actor       string
	Counter     int
	LastTurnSeq int
	Primary     bool
	Privileged  bool
}

// Progress returns a snapshot of every registered actor in turn order.
func (s *TurnScheduler) Progress() []ActorProgress {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	progress := make([]ActorProgress, 0, len(s.actors))
	for _, actor := range s.turnOrderLocked() {
		state := s.actors[actor]
		progress = append(progress, ActorProgress{
			Actor:       actor,
			Counter:     state.counter,
			LastTurnSeq: state.lastTurnSeq,
			Primary:     state.primary,
			Privileged:  actor == s.privileged,
		})
	}
	return progress
}
