package engine

import (
	"fmt"
	"strings"

	"github.com/mindvale/worldcore/core/events"
)

// renderForRecipient produces the perspective-adjusted wording of an
// event for one recipient. An empty string suppresses the delivery.
// Rendering never fails: absent fields fall back to neutral
// placeholders.
func renderForRecipient(event events.Event, recipient, recipientLocation string) string {
	actor := orPlaceholder(event.Actor, "someone")

	var rendered string
	switch event.Kind {
	case events.KindSpeech:
		rendered = fmt.Sprintf("%s says: %q", actor, event.Message)

	case events.KindShout:
		location := orPlaceholder(event.Location, "somewhere")
		rendered = fmt.Sprintf("%s shouts from %s: %q", actor, location, event.Message)

	case events.KindEmote, events.KindObservation:
		rendered = strings.TrimSpace(actor + " " + event.Message)

	case events.KindMovement:
		origin := orPlaceholder(event.Origin, "somewhere")
		destination := orPlaceholder(event.Destination, "somewhere")
		via := orPlaceholder(event.Via, "moved")
		if recipientLocation == event.Origin {
			rendered = fmt.Sprintf("%s %s to %s.", actor, via, destination)
		} else {
			rendered = fmt.Sprintf("%s %s from %s.", actor, via, origin)
		}

	case events.KindCommand:
		// Confirmations go to the acting actor only.
		if recipient != event.Actor {
			return ""
		}
		rendered = event.Message

	case events.KindError:
		if recipient != event.Actor {
			return ""
		}
		return event.Message

	default:
		rendered = event.Message
	}

	if recipient == event.Actor {
		rendered = firstPerson(event.Actor, rendered)
	}
	return rendered
}

// verbFixes conjugates the most common third-person verbs after the
// name prefix was replaced by "You". This is a cosmetic best-effort
// transform, not a grammar engine.
var verbFixes = [][2]string{
	{" says:", " say:"},
	{" says", " say"},
	{" goes ", " go "},
	{" looks ", " look "},
	{" examines ", " examine "},
	{" shouts ", " shout "},
}

func firstPerson(actor, text string) string {
	if actor == "" || !strings.HasPrefix(text, actor+" ") {
		return text
	}

	text = "You " + text[len(actor)+1:]
	for _, fix := range verbFixes {
		text = strings.Replace(text, fix[0], fix[1], 1)
	}
	return text
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
