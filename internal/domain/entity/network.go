package entity

// ChainID is the canonical identifier of a supported network, in the
// ALL_CAPS form used by the upstream data provider (e.g. "ETH_MAINNET").
type ChainID string

const (
	ChainEthereum ChainID = "ETH_MAINNET"
	ChainOptimism ChainID = "OPT_MAINNET"
	ChainBase     ChainID = "BASE_MAINNET"
	ChainArbitrum ChainID = "ARB_MAINNET"
	ChainPolygon  ChainID = "MATIC_MAINNET"
	ChainGnosis   ChainID = "GNOSIS_MAINNET"
	ChainScroll   ChainID = "SCROLL_MAINNET"
)

// NetworkConfig describes one chain the tracker queries.
// Immutable after startup resolution.
type NetworkConfig struct {
	Chain        ChainID `json:"chain" yaml:"chain"`
	Label        string  `json:"label" yaml:"label"`
	NativeSymbol string  `json:"nativeSymbol" yaml:"nativeSymbol"`
	// Priority controls ordering in resolved network lists; lower comes first.
	Priority int `json:"-" yaml:"priority"`
}
