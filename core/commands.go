package engine

import "strings"

// thinkingCloseTag terminates the non-actionable reasoning prefix of a
// generation. Command scanning only starts past it.
const thinkingCloseTag = "</think>"

const thinkingOpenTag = "<think>"

// commandVerbs are the recognized action prefixes, matched
// case-insensitively at the start of a trimmed line.
var commandVerbs = []string{"go to", "say", "shout", "note", "recall", "emote", "dream"}

// Command is a committed action line, with the optional trailing
// "| reason" provenance split off.
type Command struct {
	Text   string
	Reason string
}

func (c Command) IsZero() bool { return c.Text == "" }

// matchCommand reports whether a complete line is a command: it must
// start with a recognized verb, and must not look like formatting or
// meta commentary. The verb is normalized to lower case and a trailing
// pipe-separated reason is split off.
func matchCommand(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" || isFormattingLine(line) {
		return Command{}, false
	}

	command := Command{Text: line}
	if text, reason, ok := strings.Cut(line, "|"); ok {
		command.Text = strings.TrimSpace(text)
		command.Reason = strings.TrimSpace(reason)
	}

	lowered := strings.ToLower(command.Text)
	for _, verb := range commandVerbs {
		if lowered == verb || strings.HasPrefix(lowered, verb+" ") {
			rest := strings.TrimSpace(command.Text[len(verb):])
			command.Text = verb
			if rest != "" {
				command.Text = verb + " " + rest
			}
			return command, true
		}
	}
	return Command{}, false
}

// isFormattingLine filters out list markers, headings, quotes, and
// lines talking about commands instead of issuing one.
func isFormattingLine(line string) bool {
	switch line[0] {
	case '*', '#', '-', '>', '"':
		return true
	}
	return strings.Contains(strings.ToLower(line), "command")
}

// scanForCommand looks for the first command among the complete lines
// of buffer. A line is complete when terminated by a line break;
// includeFinal additionally treats the trailing partial line as
// complete, for use once streaming has ended.
func scanForCommand(buffer string, includeFinal bool) (Command, bool) {
	if buffer == "" {
		return Command{}, false
	}

	lines := strings.Split(buffer, "\n")
	if !includeFinal && !strings.HasSuffix(buffer, "\n") {
		lines = lines[:len(lines)-1]
	}

	for _, line := range lines {
		if command, ok := matchCommand(line); ok {
			return command, true
		}
	}
	return Command{}, false
}

// stripThinking splits a full generation into its thinking block (the
// text between the think tags, if the block is complete) and the
// actionable remainder.
func stripThinking(text string) (thinking, rest string) {
	start := strings.Index(text, thinkingOpenTag)
	end := strings.Index(text, thinkingCloseTag)
	if end == -1 {
		return "", strings.TrimSpace(text)
	}

	thinkingStart := 0
	if start != -1 && start < end {
		thinkingStart = start + len(thinkingOpenTag)
	}
	thinking = strings.TrimSpace(text[thinkingStart:end])
	rest = strings.TrimSpace(text[end+len(thinkingCloseTag):])
	return thinking, rest
}

// fallbackCommand derives a command from a completed generation that
// never produced a recognizable command line mid-stream: the first
// matching line wins, then the first non-empty non-formatting line,
// then the stripped text itself.
func fallbackCommand(fullText string) Command {
	_, rest := stripThinking(fullText)

	if command, ok := scanForCommand(rest, true); ok {
		return command
	}

	for line := range strings.Lines(rest) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line[0] {
		case '*', '#', '-', '>':
			continue
		}
		return Command{Text: line}
	}

	return Command{Text: rest}
}
