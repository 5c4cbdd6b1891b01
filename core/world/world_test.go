package world

import (
	"context"
	"strings"
	"testing"

	engine "github.com/mindvale/worldcore/core"
	"github.com/mindvale/worldcore/core/events"
)

func newTestWorld(t *testing.T) (*World, *engine.EventRouter) {
	t.Helper()
	router := engine.NewEventRouter()
	return New(DefaultMap(), router), router
}

func placeActor(t *testing.T, w *World, router *engine.EventRouter, actor, location string) *[]string {
	t.Helper()
	if err := w.Place(actor, location); err != nil {
		t.Fatalf("failed to place %s: %v", actor, err)
	}
	heard := &[]string{}
	router.Register(w.Observer(actor, func(kind events.Kind, rendered string, event events.Event) {
		*heard = append(*heard, rendered)
	}))
	return heard
}

func TestMoveBetweenConnectedLocations(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")
	bystander := placeActor(t, w, router, "bram", "the commons")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "go to the garden", Reason: "it seems quiet"})

	if !outcome.Success {
		t.Fatalf("expected the move to succeed, got %q", outcome.Message)
	}
	if got := w.LocationOf("ada"); got != "the garden" {
		t.Fatalf("expected ada in the garden, got %q", got)
	}
	if location, ok := outcome.LocationUpdate(); !ok || location != "the garden" {
		t.Fatalf("expected a location update to the garden, got %q (ok=%v)", location, ok)
	}
	if got := outcome.OriginalReason(); got != "it seems quiet" {
		t.Fatalf("expected the reason carried through, got %q", got)
	}
	if len(*bystander) != 1 || (*bystander)[0] != "ada goes to the garden." {
		t.Fatalf("expected bram to see the departure, got %v", *bystander)
	}
}

func TestMoveRejectsUnconnectedLocation(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "the garden")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "go to the library"})

	if outcome.Success {
		t.Fatalf("expected the move to fail, got %q", outcome.Message)
	}
	if got := w.LocationOf("ada"); got != "the garden" {
		t.Fatalf("expected ada to stay put, got %q", got)
	}
}

func TestMoveRejectsUnknownLocation(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "go to the moon"})

	if outcome.Success {
		t.Fatalf("expected the move to fail, got %q", outcome.Message)
	}
}

func TestSayIsHeardByColocatedActors(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")
	bystander := placeActor(t, w, router, "bram", "the commons")
	elsewhere := placeActor(t, w, router, "cole", "the garden")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "say hello everyone"})

	if !outcome.Success {
		t.Fatalf("expected say to succeed, got %q", outcome.Message)
	}
	if len(*bystander) != 1 || (*bystander)[0] != `ada says: "hello everyone"` {
		t.Fatalf("expected bram to hear ada, got %v", *bystander)
	}
	if len(*elsewhere) != 0 {
		t.Fatalf("expected cole out of earshot, got %v", *elsewhere)
	}
}

func TestShoutCrossesLocations(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")
	elsewhere := placeActor(t, w, router, "cole", "the garden")

	w.Execute(context.Background(), "ada", engine.Command{Text: "shout dinner is ready"})

	if len(*elsewhere) != 1 || (*elsewhere)[0] != `ada shouts from the commons: "dinner is ready"` {
		t.Fatalf("expected cole to hear the shout, got %v", *elsewhere)
	}
}

func TestLookDescribesTheLocation(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")
	placeActor(t, w, router, "bram", "the commons")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "look"})

	if !outcome.Success {
		t.Fatalf("expected look to succeed, got %q", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "fire pit") {
		t.Fatalf("expected the location description, got %q", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "Also here: bram.") {
		t.Fatalf("expected bram listed as present, got %q", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "Exits:") {
		t.Fatalf("expected the exits listed, got %q", outcome.Message)
	}
}

func TestDigCreatesAConnectedLocation(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "dig the cellar"})
	if !outcome.Success {
		t.Fatalf("expected dig to succeed, got %q", outcome.Message)
	}

	move := w.Execute(context.Background(), "ada", engine.Command{Text: "go to the cellar"})
	if !move.Success {
		t.Fatalf("expected the new location reachable, got %q", move.Message)
	}
}

func TestDigRejectsExistingLocation(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "dig The Garden"})
	if outcome.Success {
		t.Fatalf("expected dig to refuse an existing name, got %q", outcome.Message)
	}
}

func TestDescribeUpdatesTheLocation(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "describe A freshly swept square."})
	if !outcome.Success {
		t.Fatalf("expected describe to succeed, got %q", outcome.Message)
	}

	look := w.Execute(context.Background(), "ada", engine.Command{Text: "look"})
	if !strings.Contains(look.Message, "A freshly swept square.") {
		t.Fatalf("expected the new description, got %q", look.Message)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	w, router := newTestWorld(t)
	placeActor(t, w, router, "ada", "")

	outcome := w.Execute(context.Background(), "ada", engine.Command{Text: "fly to the moon"})
	if outcome.Success {
		t.Fatalf("expected an unknown command to fail, got %q", outcome.Message)
	}
}

func TestPlaceRejectsUnknownLocation(t *testing.T) {
	w, _ := newTestWorld(t)

	if err := w.Place("ada", "atlantis"); err == nil {
		t.Fatalf("expected placing in an unknown location to fail")
	}
}

func TestParseMapValidatesTheGraph(t *testing.T) {
	_, err := ParseMap([]byte(`
start: plaza
locations:
  plaza:
    description: An open plaza.
    connections: [nowhere]
`))
	if err == nil {
		t.Fatalf("expected a dangling connection to be rejected")
	}

	m, err := ParseMap([]byte(`
start: plaza
locations:
  plaza:
    description: An open plaza.
    connections: [alley]
  alley:
    description: A narrow alley.
    connections: [plaza]
`))
	if err != nil {
		t.Fatalf("expected a valid map to parse, got %v", err)
	}
	if m.Start != "plaza" || len(m.Locations) != 2 {
		t.Fatalf("expected the parsed map contents, got %+v", m)
	}
}

func TestParseMapRejectsMissingStart(t *testing.T) {
	_, err := ParseMap([]byte(`
locations:
  plaza:
    description: An open plaza.
`))
	if err == nil {
		t.Fatalf("expected a map without a start location to be rejected")
	}
}
