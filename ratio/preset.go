package ratio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset represents a named ratio configuration.
type Preset struct {
	// Name is the ratio name, used for artifact naming and selection.
	Name string `yaml:"name"`
	// Symbol1 is the numerator symbol.
	Symbol1 string `yaml:"symbol1"`
	// Symbol2 is the denominator symbol.
	Symbol2 string `yaml:"symbol2"`
	// Label1 is the human readable name of the numerator instrument.
	Label1 string `yaml:"label1"`
	// Label2 is the human readable name of the denominator instrument.
	Label2 string `yaml:"label2"`
	// Description explains what the ratio gauges.
	Description string `yaml:"description"`
	// Color is the hex color used for the ratio's chart line.
	Color string `yaml:"color"`
}

// Validate asserts the preset has sane inputs.
func (p *Preset) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("preset name cannot be an empty string")
	case p.Symbol1 == "":
		return fmt.Errorf("preset %s: symbol1 cannot be an empty string", p.Name)
	case p.Symbol2 == "":
		return fmt.Errorf("preset %s: symbol2 cannot be an empty string", p.Name)
	}

	return nil
}

// DefaultPresets returns the built-in ratio configurations.
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name:        "gold_silver",
			Symbol1:     "XAUUSD",
			Symbol2:     "XAGUSD",
			Label1:      "Gold",
			Label2:      "Silver",
			Description: "Classic safe-haven metal ratio, historical mean near 80",
			Color:       "#FFD700",
		},
		{
			Name:        "gold_platinum",
			Symbol1:     "XAUUSD",
			Symbol2:     "XPTUSD",
			Label1:      "Gold",
			Label2:      "Platinum",
			Description: "Precious metal industrial demand gauge, platinum is driven by autocatalysts and jewelry",
			Color:       "#C0C0C0",
		},
		{
			Name:        "oil_gold",
			Symbol1:     "XTIUSD",
			Symbol2:     "XAUUSD",
			Label1:      "WTI Crude",
			Label2:      "Gold",
			Description: "Economic vitality gauge, strong oil signals growth while strong gold signals risk aversion",
			Color:       "#8B4513",
		},
		{
			Name:        "nasdaq_sp500",
			Symbol1:     "NAS100",
			Symbol2:     "US500",
			Label1:      "Nasdaq 100",
			Label2:      "S&P 500",
			Description: "Tech versus broad market, a high ratio signals tech leadership",
			Color:       "#4169E1",
		},
		{
			Name:        "dow_gold",
			Symbol1:     "US30",
			Symbol2:     "XAUUSD",
			Label1:      "Dow Jones",
			Label2:      "Gold",
			Description: "Equities versus safe haven, a high ratio signals strong risk appetite",
			Color:       "#DC143C",
		},
	}
}

// LoadPresets reads ratio configurations from the provided yaml file,
// falling back to the built-in presets when the path is empty.
func LoadPresets(path string) ([]Preset, error) {
	if path == "" {
		return DefaultPresets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets from file with path '%s': %w", path, err)
	}

	var presets []Preset
	err = yaml.Unmarshal(data, &presets)
	if err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}

	if len(presets) == 0 {
		return nil, fmt.Errorf("no presets defined in file with path '%s'", path)
	}

	for idx := range presets {
		err = presets[idx].Validate()
		if err != nil {
			return nil, err
		}
	}

	return presets, nil
}

// FindPreset selects a preset by 1-based index or by name. The selector is
// case-insensitive and whitespace-trimmed.
func FindPreset(presets []Preset, selector string) (*Preset, error) {
	key := strings.TrimSpace(selector)

	if idx, err := strconv.Atoi(key); err == nil {
		if idx < 1 || idx > len(presets) {
			return nil, fmt.Errorf("preset index %d out of range 1-%d", idx, len(presets))
		}

		return &presets[idx-1], nil
	}

	for idx := range presets {
		if strings.EqualFold(presets[idx].Name, key) {
			return &presets[idx], nil
		}
	}

	names := make([]string, 0, len(presets))
	for idx := range presets {
		names = append(names, presets[idx].Name)
	}

	return nil, fmt.Errorf("no preset named %q, available presets are %s",
		selector, strings.Join(names, ", "))
}
