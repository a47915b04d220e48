package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the empirically chosen knobs of the policy. None of them are
// game rules.
type Tuning struct {
	StuckLimit          int     `yaml:"stuck_limit"`
	EscapeRadius        int     `yaml:"escape_radius"`
	AggressiveRange     int     `yaml:"aggressive_range"`
	ChargeTurns         int     `yaml:"charge_turns"`
	ProbeChance         float64 `yaml:"probe_chance"`
	UrgentProbeChance   float64 `yaml:"urgent_probe_chance"`
	UrgentTurns         int     `yaml:"urgent_turns"`
	ExploreChance       float64 `yaml:"explore_chance"`
	HeartOpenNeighbors  int     `yaml:"heart_open_neighbors"`
	HeartOpenSecondRing int     `yaml:"heart_open_second_ring"`
	SkipChance          float64 `yaml:"skip_chance"`
	MaxSkips            int     `yaml:"max_skips"`
	BlacklistSize       int     `yaml:"blacklist_size"`
	TrailTurns          int     `yaml:"trail_turns"`
}

func DefaultTuning() Tuning {
	return Tuning{
		StuckLimit:          5,
		EscapeRadius:        3,
		AggressiveRange:     4,
		ChargeTurns:         20,
		ProbeChance:         0.05,
		UrgentProbeChance:   0.2,
		UrgentTurns:         30,
		ExploreChance:       0.25,
		HeartOpenNeighbors:  2,
		HeartOpenSecondRing: 2,
		SkipChance:          0.5,
		MaxSkips:            2,
		BlacklistSize:       16,
		TrailTurns:          8,
	}
}

// LoadTuning reads a YAML tuning file over the defaults. An empty path or a
// missing file yields the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to open tuning %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&t); err != nil {
		return Tuning{}, fmt.Errorf("failed to decode tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	for name, p := range map[string]float64{
		"probe_chance":        t.ProbeChance,
		"urgent_probe_chance": t.UrgentProbeChance,
		"explore_chance":      t.ExploreChance,
		"skip_chance":         t.SkipChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, p)
		}
	}
	for name, n := range map[string]int{
		"stuck_limit":            t.StuckLimit,
		"escape_radius":          t.EscapeRadius,
		"aggressive_range":       t.AggressiveRange,
		"charge_turns":           t.ChargeTurns,
		"urgent_turns":           t.UrgentTurns,
		"heart_open_neighbors":   t.HeartOpenNeighbors,
		"heart_open_second_ring": t.HeartOpenSecondRing,
		"max_skips":              t.MaxSkips,
		"blacklist_size":         t.BlacklistSize,
		"trail_turns":            t.TrailTurns,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, n)
		}
	}
	return nil
}
