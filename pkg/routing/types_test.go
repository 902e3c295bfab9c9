package routing

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/conductor/pkg/providers"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"critical", PriorityCritical, false},
		{"HIGH", PriorityHigh, false},
		{"", PriorityNormal, false},
		{"normal", PriorityNormal, false},
		{" low ", PriorityLow, false},
		{"urgent", PriorityNormal, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriority() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePriority() = %v, want %v", got, tt.want)
			}
			if !tt.wantErr && tt.in != "" {
				if back, _ := ParsePriority(got.String()); back != got {
					t.Errorf("String() round trip = %v, want %v", back, got)
				}
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("fixed", "ollama")
	if err != nil {
		t.Fatalf("ParseStrategy() error = %v", err)
	}
	if s != Fixed("ollama") {
		t.Errorf("ParseStrategy() = %v, want fixed(ollama)", s)
	}
	if s.String() != "fixed(ollama)" {
		t.Errorf("String() = %q", s.String())
	}

	s, err = ParseStrategy("Round_Robin", "ignored")
	if err != nil {
		t.Fatalf("ParseStrategy() error = %v", err)
	}
	if s.Kind != StrategyRoundRobin || s.Provider != "" {
		t.Errorf("ParseStrategy() = %+v", s)
	}

	_, err = ParseStrategy("sticky", "")
	if !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("ParseStrategy(sticky) error = %v, want ErrInvalidStrategy", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"default", DefaultConfig(), nil},
		{"nil", nil, ErrInvalidConfiguration},
		{"unknown strategy", &Config{Strategy: Strategy{Kind: "sticky"}, Health: DefaultHealthPolicy()}, ErrInvalidStrategy},
		{"fixed without provider", &Config{Strategy: Strategy{Kind: StrategyFixed}, Health: DefaultHealthPolicy()}, ErrInvalidConfiguration},
		{"negative cost threshold", &Config{Strategy: Strategy{Kind: StrategySmart}, MaxCostThreshold: &negative, Health: DefaultHealthPolicy()}, ErrInvalidConfiguration},
		{"negative latency threshold", &Config{Strategy: Strategy{Kind: StrategySmart}, MaxLatencyThreshold: -time.Second, Health: DefaultHealthPolicy()}, ErrInvalidConfiguration},
		{"bad health policy", &Config{Strategy: Strategy{Kind: StrategySmart}}, ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	threshold := 0.1
	cfg := &Config{
		Strategy:           Strategy{Kind: StrategySmart},
		MaxCostThreshold:   &threshold,
		PreferredProviders: []providers.ProviderID{"a"},
		BlockedProviders:   []providers.ProviderID{"b"},
		ModelPreferences:   map[string]providers.ProviderID{"llama3": "a"},
	}
	clone := cfg.Clone()

	*clone.MaxCostThreshold = 0.5
	clone.PreferredProviders[0] = "x"
	clone.BlockedProviders[0] = "y"
	clone.ModelPreferences["llama3"] = "z"

	if *cfg.MaxCostThreshold != 0.1 || cfg.PreferredProviders[0] != "a" ||
		cfg.BlockedProviders[0] != "b" || cfg.ModelPreferences["llama3"] != "a" {
		t.Errorf("Clone() shares state with the original: %+v", cfg)
	}
	if !cfg.IsBlocked("b") || cfg.IsBlocked("a") {
		t.Error("IsBlocked() mismatch")
	}
	if !cfg.IsPreferred("a") || cfg.IsPreferred("b") {
		t.Error("IsPreferred() mismatch")
	}
}
