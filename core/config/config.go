// Package config loads the tunable turn rules from YAML so deployments
// can rebalance costs without a rebuild.
package config

import (
	"fmt"
	"os"
	"time"

	engine "github.com/mindvale/worldcore/core"
	"gopkg.in/yaml.v3"
)

// TurnRules is the on-disk shape of the turn configuration. Zero
// values mean "use the default"; Load fills them in.
type TurnRules struct {
	TurnMode string `yaml:"turn_mode"`
	// TurnTimeout is a Go duration string, e.g. "90s" or "2m".
	TurnTimeout string `yaml:"turn_timeout"`

	BaseCost         int  `yaml:"base_cost"`
	ScaleWithContent bool `yaml:"scale_with_content"`
	SayDivisor       int  `yaml:"say_divisor"`
	ShoutDivisor     int  `yaml:"shout_divisor"`
	NoteDivisor      int  `yaml:"note_divisor"`
	DigCost          int  `yaml:"dig_cost"`
	DescribeCost     int  `yaml:"describe_cost"`
	DreamCost        int  `yaml:"dream_cost"`
}

func DefaultTurnRules() TurnRules {
	costs := engine.DefaultCostModel()
	return TurnRules{
		TurnMode:         string(engine.TurnModeTimeUnits),
		TurnTimeout:      "2m",
		BaseCost:         costs.BaseCost,
		ScaleWithContent: costs.ScaleWithContent,
		SayDivisor:       costs.SayDivisor,
		ShoutDivisor:     costs.ShoutDivisor,
		NoteDivisor:      costs.NoteDivisor,
		DigCost:          costs.DigCost,
		DescribeCost:     costs.DescribeCost,
		DreamCost:        costs.DreamCost,
	}
}

// Load reads turn rules from a YAML file, filling unset fields from
// the defaults. A missing file is not an error; defaults apply.
func Load(path string) (TurnRules, error) {
	rules := DefaultTurnRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, nil
		}
		return rules, fmt.Errorf("failed to read turn rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse turn rules: %w", err)
	}
	if err := rules.validate(); err != nil {
		return DefaultTurnRules(), err
	}
	return rules, nil
}

func (r TurnRules) validate() error {
	switch engine.TurnMode(r.TurnMode) {
	case engine.TurnModeTimeUnits, engine.TurnModeMemories:
	default:
		return fmt.Errorf("unknown turn mode %q", r.TurnMode)
	}
	if r.BaseCost < 1 {
		return fmt.Errorf("base_cost must be at least 1, got %d", r.BaseCost)
	}
	if _, err := time.ParseDuration(r.TurnTimeout); err != nil {
		return fmt.Errorf("invalid turn_timeout: %w", err)
	}
	for name, divisor := range map[string]int{
		"say_divisor":   r.SayDivisor,
		"shout_divisor": r.ShoutDivisor,
		"note_divisor":  r.NoteDivisor,
	} {
		if divisor < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", name, divisor)
		}
	}
	return nil
}

// CostModel converts the rules into the scheduler-facing cost model.
func (r TurnRules) CostModel() engine.CostModel {
	return engine.CostModel{
		BaseCost:         r.BaseCost,
		ScaleWithContent: r.ScaleWithContent,
		SayDivisor:       r.SayDivisor,
		ShoutDivisor:     r.ShoutDivisor,
		NoteDivisor:      r.NoteDivisor,
		DigCost:          r.DigCost,
		DescribeCost:     r.DescribeCost,
		DreamCost:        r.DreamCost,
	}
}

// Mode returns the configured turn mode.
func (r TurnRules) Mode() engine.TurnMode {
	return engine.TurnMode(r.TurnMode)
}

// Timeout returns the parsed turn timeout. Rules that passed
// validation always parse; anything else falls back to the default.
func (r TurnRules) Timeout() time.Duration {
	timeout, err := time.ParseDuration(r.TurnTimeout)
	if err != nil || timeout <= 0 {
		return 2 * time.Minute
	}
	return timeout
}
