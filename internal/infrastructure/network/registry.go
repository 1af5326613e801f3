// Package network holds the static registry of supported chains and
// resolves a raw chain list into ordered network configurations.
package network

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

// Known network definitions. Ethereum is the primary chain; the rest follow
// in a fixed priority order.
var (
	Ethereum = entity.NetworkConfig{
		Chain:        entity.ChainEthereum,
		Label:        "Ethereum",
		NativeSymbol: "ETH",
		Priority:     0,
	}
	Optimism = entity.NetworkConfig{
		Chain:        entity.ChainOptimism,
		Label:        "Optimism",
		NativeSymbol: "ETH",
		Priority:     1,
	}
	Base = entity.NetworkConfig{
		Chain:        entity.ChainBase,
		Label:        "Base",
		NativeSymbol: "ETH",
		Priority:     2,
	}
	Arbitrum = entity.NetworkConfig{
		Chain:        entity.ChainArbitrum,
		Label:        "Arbitrum One",
		NativeSymbol: "ETH",
		Priority:     3,
	}
	Polygon = entity.NetworkConfig{
		Chain:        entity.ChainPolygon,
		Label:        "Polygon PoS",
		NativeSymbol: "POL",
		Priority:     4,
	}
	Gnosis = entity.NetworkConfig{
		Chain:        entity.ChainGnosis,
		Label:        "Gnosis Chain",
		NativeSymbol: "xDAI",
		Priority:     5,
	}
	Scroll = entity.NetworkConfig{
		Chain:        entity.ChainScroll,
		Label:        "Scroll",
		NativeSymbol: "ETH",
		Priority:     6,
	}
)

var knownNetworks = map[entity.ChainID]entity.NetworkConfig{
	Ethereum.Chain: Ethereum,
	Optimism.Chain: Optimism,
	Base.Chain:     Base,
	Arbitrum.Chain: Arbitrum,
	Polygon.Chain:  Polygon,
	Gnosis.Chain:   Gnosis,
	Scroll.Chain:   Scroll,
}

// aliases accepts the short names users put in TRACKER_NETWORKS.
var aliases = map[string]entity.ChainID{
	"ETHEREUM": entity.ChainEthereum,
	"MAINNET":  entity.ChainEthereum,
	"OPTIMISM": entity.ChainOptimism,
	"BASE":     entity.ChainBase,
	"ARBITRUM": entity.ChainArbitrum,
	"POLYGON":  entity.ChainPolygon,
	"MATIC":    entity.ChainPolygon,
	"GNOSIS":   entity.ChainGnosis,
	"SCROLL":   entity.ChainScroll,
}

// DefaultChains is the network set used when no list is configured.
var DefaultChains = []entity.ChainID{
	entity.ChainEthereum,
	entity.ChainOptimism,
	entity.ChainBase,
	entity.ChainArbitrum,
	entity.ChainPolygon,
}

// Resolve parses an optional comma-separated chain list into network
// configurations. Identifiers are normalized (trimmed, uppercased,
// hyphens and spaces become underscores). Unrecognized identifiers are
// dropped with a warning; partial configuration is acceptable and an empty
// result means "no data available", never an error. The result is sorted by
// the fixed priority table, ties broken by input order.
func Resolve(rawList string, logger *zap.Logger) []entity.NetworkConfig {
	identifiers := splitList(rawList)
	if len(identifiers) == 0 {
		identifiers = make([]string, 0, len(DefaultChains))
		for _, c := range DefaultChains {
			identifiers = append(identifiers, string(c))
		}
	}

	type ordered struct {
		cfg   entity.NetworkConfig
		input int
	}
	resolved := make([]ordered, 0, len(identifiers))
	seen := make(map[entity.ChainID]bool)

	for i, raw := range identifiers {
		chain, ok := normalize(raw)
		if !ok {
			logger.Warn("Dropping unrecognized network identifier", zap.String("identifier", raw))
			continue
		}
		if seen[chain] {
			continue
		}
		seen[chain] = true

		cfg, ok := knownNetworks[chain]
		if !ok {
			// Recognized enum value without a display mapping.
			cfg = entity.NetworkConfig{Chain: chain, Label: raw, NativeSymbol: "ETH", Priority: len(knownNetworks)}
		}
		resolved = append(resolved, ordered{cfg: cfg, input: i})
	}

	sort.SliceStable(resolved, func(a, b int) bool {
		if resolved[a].cfg.Priority != resolved[b].cfg.Priority {
			return resolved[a].cfg.Priority < resolved[b].cfg.Priority
		}
		return resolved[a].input < resolved[b].input
	})

	out := make([]entity.NetworkConfig, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, r.cfg)
	}
	return out
}

// Lookup returns the static configuration for a chain.
func Lookup(chain entity.ChainID) (entity.NetworkConfig, bool) {
	cfg, ok := knownNetworks[chain]
	return cfg, ok
}

func splitList(rawList string) []string {
	if strings.TrimSpace(rawList) == "" {
		return nil
	}
	parts := strings.Split(rawList, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalize(raw string) (entity.ChainID, bool) {
	id := strings.TrimSpace(raw)
	id = strings.ToUpper(id)
	id = strings.ReplaceAll(id, "-", "_")
	id = strings.ReplaceAll(id, " ", "_")

	if chain, ok := aliases[id]; ok {
		return chain, true
	}
	if _, ok := knownNetworks[entity.ChainID(id)]; ok {
		return entity.ChainID(id), true
	}
	return "", false
}
