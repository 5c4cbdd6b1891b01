package engine

import "strings"

// CostModel turns a committed command line into a raw time-unit cost.
// Every action pays the base cost (the ante); wordy actions pay extra
// in proportion to their content. The divisors and flat costs are
// product tuning and come from configuration.
type CostModel struct {
	BaseCost         int
	ScaleWithContent bool

	SayDivisor   int
	ShoutDivisor int
	NoteDivisor  int

	DigCost      int
	DescribeCost int
	DreamCost    int
}

func DefaultCostModel() CostModel {
	return CostModel{
		BaseCost:         1,
		ScaleWithContent: true,
		SayDivisor:       3,
		ShoutDivisor:     2,
		NoteDivisor:      7,
		DigCost:          5,
		DescribeCost:     3,
		DreamCost:        14,
	}
}

// ForCommand computes the raw cost of a command line. The scheduler
// may still cap or floor it depending on turn order.
func (m CostModel) ForCommand(command string) int {
	cost := m.BaseCost

	if !m.ScaleWithContent {
		return cost
	}

	lowered := strings.ToLower(strings.TrimSpace(command))
	switch {
	case strings.HasPrefix(lowered, "say "):
		cost += ceilDiv(wordCount(command[4:]), m.SayDivisor)

	case strings.HasPrefix(lowered, "emote "):
		cost += ceilDiv(wordCount(command[6:]), m.NoteDivisor)

	case strings.HasPrefix(lowered, "shout "):
		cost += ceilDiv(wordCount(command[6:]), m.ShoutDivisor)

	case strings.HasPrefix(lowered, "note "):
		// Only the body after the title is content; the title is free.
		if _, body, ok := strings.Cut(command[5:], ":"); ok {
			cost += ceilDiv(wordCount(body), m.NoteDivisor)
		}

	case strings.HasPrefix(lowered, "dig "):
		cost += m.DigCost

	case strings.HasPrefix(lowered, "describe "):
		cost += m.DescribeCost + ceilDiv(wordCount(command[9:]), m.NoteDivisor*2)

	case strings.HasPrefix(lowered, "dream"):
		cost += m.DreamCost
	}
	// Plain movement ("go to") pays the ante only.

	return cost
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func ceilDiv(n, d int) int {
	if d <= 0 {
		return n
	}
	return (n + d - 1) / d
}
