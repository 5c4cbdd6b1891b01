package events

import "testing"

func TestConstructorsFillTheBasics(t *testing.T) {
	event := NewSpeech("ada", "tavern", "hello", WithMetadata("tone", "warm"))

	if event.ID == "" {
		t.Fatalf("expected a generated event id")
	}
	if event.Kind != KindSpeech {
		t.Fatalf("expected the speech kind, got %q", event.Kind)
	}
	if event.Timestamp.IsZero() {
		t.Fatalf("expected a timestamp")
	}
	if event.Metadata["tone"] != "warm" {
		t.Fatalf("expected the metadata entry, got %v", event.Metadata)
	}
}

func TestNewMovementDefaultsTheVerb(t *testing.T) {
	event := NewMovement("ada", "tavern", "garden")

	if event.Origin != "tavern" || event.Destination != "garden" {
		t.Fatalf("expected origin and destination set, got %+v", event)
	}
	if event.Via != "moved" {
		t.Fatalf("expected the default verb, got %q", event.Via)
	}

	event = NewMovement("ada", "tavern", "garden", WithVia("strolls"))
	if event.Via != "strolls" {
		t.Fatalf("expected the verb override, got %q", event.Via)
	}
}

func TestBroadcastability(t *testing.T) {
	if NewCommand("ada", "tavern", "done").IsBroadcastable() {
		t.Fatalf("expected command confirmations to stay private")
	}
	if NewError("ada", "tavern", "nope").IsBroadcastable() {
		t.Fatalf("expected errors to stay private")
	}
	if !NewShout("ada", "tavern", "hey").IsBroadcastable() {
		t.Fatalf("expected shouts to be broadcastable")
	}
}

func TestGainsPerception(t *testing.T) {
	if !NewSpeech("ada", "tavern", "hello").GainsPerception() {
		t.Fatalf("expected speech to count as a perception")
	}
	if NewError("ada", "tavern", "nope").GainsPerception() {
		t.Fatalf("expected errors not to count as perceptions")
	}
}
