package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

// TokenOverride pins the contract address used for a specific asset's
// price-by-address lookup, for tokens the provider does not resolve well.
type TokenOverride struct {
	Chain   entity.ChainID `yaml:"chain"`
	Symbol  string         `yaml:"symbol"`
	Address string         `yaml:"address"`
}

type overridesFile struct {
	Tokens []TokenOverride `yaml:"tokens"`
}

// OverrideKey builds the lookup key for a token override.
func OverrideKey(chain entity.ChainID, symbol string) string {
	return string(chain) + ":" + strings.ToUpper(symbol)
}

// LoadTokenOverrides reads the optional overrides YAML. An empty path yields
// an empty map.
func LoadTokenOverrides(path string) (map[string]string, error) {
	overrides := make(map[string]string)
	if path == "" {
		return overrides, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token overrides %s: %w", path, err)
	}
	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse token overrides %s: %w", path, err)
	}
	for _, t := range f.Tokens {
		overrides[OverrideKey(t.Chain, t.Symbol)] = strings.ToLower(t.Address)
	}
	return overrides, nil
}
