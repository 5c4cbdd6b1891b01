package engine

import "testing"

func TestMatchCommand(t *testing.T) {
	cases := []struct {
		name   string
		line   string
		text   string
		reason string
		ok     bool
	}{
		{name: "plain say", line: "say hello there", text: "say hello there", ok: true},
		{name: "mixed case verb", line: "Say Hello", text: "say Hello", ok: true},
		{name: "movement", line: "go to the garden", text: "go to the garden", ok: true},
		{name: "reason split", line: "go to the garden | it seems quiet", text: "go to the garden", reason: "it seems quiet", ok: true},
		{name: "surrounding whitespace", line: "  shout fire!  ", text: "shout fire!", ok: true},
		{name: "bare verb", line: "dream", text: "dream", ok: true},
		{name: "verb prefix of a word", line: "sayonara friends", ok: false},
		{name: "unknown verb", line: "dance wildly", ok: false},
		{name: "bullet line", line: "- say hello", ok: false},
		{name: "heading line", line: "# say hello", ok: false},
		{name: "quoted line", line: `"say hello"`, ok: false},
		{name: "meta commentary", line: "say is the command I would use", ok: false},
		{name: "empty", line: "   ", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			command, ok := matchCommand(tc.line)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v for %q, got %v", tc.ok, tc.line, ok)
			}
			if !ok {
				return
			}
			if command.Text != tc.text {
				t.Fatalf("expected text %q, got %q", tc.text, command.Text)
			}
			if command.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, command.Reason)
			}
		})
	}
}

func TestScanForCommandIgnoresPartialFinalLine(t *testing.T) {
	buffer := "I should greet them.\nsay hel"

	if command, ok := scanForCommand(buffer, false); ok {
		t.Fatalf("expected no command from a partial line, got %q", command.Text)
	}

	command, ok := scanForCommand(buffer+"lo\n", false)
	if !ok {
		t.Fatalf("expected a command once the line completed")
	}
	if command.Text != "say hello" {
		t.Fatalf("expected %q, got %q", "say hello", command.Text)
	}
}

func TestScanForCommandIncludeFinal(t *testing.T) {
	command, ok := scanForCommand("say goodbye", true)
	if !ok || command.Text != "say goodbye" {
		t.Fatalf("expected the trailing line to count after completion, got %q (ok=%v)", command.Text, ok)
	}
}

func TestStripThinking(t *testing.T) {
	thinking, rest := stripThinking("<think>weighing options</think>\nsay hello")
	if thinking != "weighing options" {
		t.Fatalf("expected the thinking block, got %q", thinking)
	}
	if rest != "say hello" {
		t.Fatalf("expected the actionable remainder, got %q", rest)
	}
}

func TestStripThinkingWithoutOpenTag(t *testing.T) {
	thinking, rest := stripThinking("silent reasoning</think>go to the garden")
	if thinking != "silent reasoning" {
		t.Fatalf("expected the implicit thinking prefix, got %q", thinking)
	}
	if rest != "go to the garden" {
		t.Fatalf("expected the remainder, got %q", rest)
	}
}

func TestStripThinkingUnclosed(t *testing.T) {
	thinking, rest := stripThinking("<think>never finished")
	if thinking != "" {
		t.Fatalf("expected no thinking from an unclosed block, got %q", thinking)
	}
	if rest != "<think>never finished" {
		t.Fatalf("expected the raw text back, got %q", rest)
	}
}

func TestFallbackCommandPrefersCommandLines(t *testing.T) {
	command := fallbackCommand("</think>Some musing first.\nsay I suppose so")
	if command.Text != "say I suppose so" {
		t.Fatalf("expected the command line, got %q", command.Text)
	}
}

func TestFallbackCommandUsesFirstPlainLine(t *testing.T) {
	command := fallbackCommand("</think>- a bullet\n\nwander toward the gate")
	if command.Text != "wander toward the gate" {
		t.Fatalf("expected the first plain line, got %q", command.Text)
	}
}

func TestFallbackCommandLastResortIsWholeText(t *testing.T) {
	command := fallbackCommand("</think>* only\n- formatting")
	if command.Text != "* only\n- formatting" {
		t.Fatalf("expected the stripped text as last resort, got %q", command.Text)
	}
}
