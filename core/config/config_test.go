package config

import (
	"os"
	"path/filepath"
	"testing"

	engine "github.com/mindvale/worldcore/core"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turn_rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	rules, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected a missing file to fall back to defaults, got %v", err)
	}
	if rules != DefaultTurnRules() {
		t.Fatalf("expected the defaults, got %+v", rules)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeRules(t, `
turn_mode: memories
base_cost: 2
say_divisor: 5
`)

	rules, err := Load(path)
	if err != nil {
		t.Fatalf("expected the rules to load, got %v", err)
	}
	if rules.Mode() != engine.TurnModeMemories {
		t.Fatalf("expected the memories mode, got %q", rules.TurnMode)
	}
	if rules.BaseCost != 2 || rules.SayDivisor != 5 {
		t.Fatalf("expected the overridden costs, got %+v", rules)
	}
	// Untouched fields keep their defaults.
	if rules.ShoutDivisor != DefaultTurnRules().ShoutDivisor {
		t.Fatalf("expected the default shout divisor, got %d", rules.ShoutDivisor)
	}
}

func TestLoadRejectsUnknownTurnMode(t *testing.T) {
	path := writeRules(t, "turn_mode: initiative\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an unknown turn mode to be rejected")
	}
}

func TestLoadRejectsZeroDivisors(t *testing.T) {
	path := writeRules(t, "say_divisor: 0\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a zero divisor to be rejected")
	}
}

func TestTimeoutParsesDurationStrings(t *testing.T) {
	path := writeRules(t, "turn_timeout: 45s\n")

	rules, err := Load(path)
	if err != nil {
		t.Fatalf("expected the rules to load, got %v", err)
	}
	if got := rules.Timeout(); got.Seconds() != 45 {
		t.Fatalf("expected a 45s timeout, got %v", got)
	}
}

func TestLoadRejectsMalformedTimeout(t *testing.T) {
	path := writeRules(t, "turn_timeout: soonish\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected a malformed timeout to be rejected")
	}
}

func TestCostModelRoundTrip(t *testing.T) {
	rules := DefaultTurnRules()
	if rules.CostModel() != engine.DefaultCostModel() {
		t.Fatalf("expected the default rules to match the default cost model")
	}
}
