package engine

import "testing"

func TestForCommandScalesWithContent(t *testing.T) {
	costs := DefaultCostModel()

	cases := []struct {
		name    string
		command string
		want    int
	}{
		{name: "movement pays the ante only", command: "go to the garden", want: 1},
		{name: "short say", command: "say hi", want: 2},
		{name: "longer say", command: "say one two three four five six seven", want: 4},
		{name: "shout scales faster", command: "shout one two three four", want: 3},
		{name: "note title is free", command: "note plans", want: 1},
		{name: "note body counts", command: "note plans: one two three four five six seven eight", want: 3},
		{name: "dig is flat", command: "dig the cellar", want: 6},
		{name: "dream is expensive", command: "dream", want: 15},
		{name: "unknown pays the ante", command: "wander about", want: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := costs.ForCommand(tc.command); got != tc.want {
				t.Fatalf("expected cost %d for %q, got %d", tc.want, tc.command, got)
			}
		})
	}
}

func TestForCommandWithoutContentScaling(t *testing.T) {
	costs := DefaultCostModel()
	costs.ScaleWithContent = false

	if got := costs.ForCommand("say one two three four five six"); got != costs.BaseCost {
		t.Fatalf("expected the flat base cost, got %d", got)
	}
}
