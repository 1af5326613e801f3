package entity

// PortfolioSummary is derived from a holdings list and recomputed on every
// refresh. Only priced holdings contribute to USD totals; unpriced holdings
// count toward SymbolCount and ChainCount but not toward value.
type PortfolioSummary struct {
	TotalUSD      float64             `json:"totalUsd"`
	BySymbol      map[string]float64  `json:"bySymbol"`
	ByChain       map[ChainID]float64 `json:"byChain"`
	StablecoinUSD float64             `json:"stablecoinUsd"`
	DeFiUSD       float64             `json:"defiUsd"`
	MemeUSD       float64             `json:"memeUsd"`
	SymbolCount   int                 `json:"symbolCount"`
	ChainCount    int                 `json:"chainCount"`
	TopSymbol     string              `json:"topSymbol"`
	TopShare      float64             `json:"topShare"`
	StableShare   float64             `json:"stableShare"`
	DeFiShare     float64             `json:"defiShare"`
	MemeShare     float64             `json:"memeShare"`
}

// Share divides part by the portfolio total, returning 0 for an empty
// portfolio so ratios are never NaN.
func (s PortfolioSummary) Share(part float64) float64 {
	if s.TotalUSD == 0 {
		return 0
	}
	return part / s.TotalUSD
}
