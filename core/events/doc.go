// Package events defines the typed world-event contract routed between
// actors.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - world.* — things that happened in the world and may be perceived
//     by bystanders.
//   - turn.* — per-actor turn bookkeeping that is never broadcast.
//
// Semantics used across the package:
//
//   - Actor: the identity that caused the event.
//   - Recipient: set only on per-recipient copies handed to observers.
//   - Origin/Destination: movement endpoints; empty for other kinds.
//
// world events
//
//   - Speech (world.speech): an actor said something at a location.
//   - Shout (world.shout): an actor shouted; heard everywhere.
//   - Emote (world.emote): an actor performed a visible action.
//   - Observation (world.observation): an actor examined or looked at
//     something visible to the room.
//   - Movement (world.movement): an actor moved between two locations;
//     perceived at both endpoints.
//
// turn events
//
//   - Command (turn.command): confirmation of the acting actor's own
//     command; delivered to the actor only.
//   - Error (turn.error): a failed action; delivered to the actor only.
package events
