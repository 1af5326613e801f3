package portfolio

import (
	"strings"

	"github.com/ShivanshDengla/Tracker/internal/domain/classify"
	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

// Summarize derives the aggregate view of a holdings list. Only priced
// holdings contribute to USD totals; unpriced holdings still count toward
// symbol and chain counts. All ratios come out of Share, so an empty or
// fully-unpriced portfolio yields zeros rather than NaN.
func Summarize(holdings []entity.Holding) entity.PortfolioSummary {
	summary := entity.PortfolioSummary{
		BySymbol: make(map[string]float64),
		ByChain:  make(map[entity.ChainID]float64),
	}

	symbols := make(map[string]struct{})
	chains := make(map[entity.ChainID]struct{})

	for _, h := range holdings {
		symbols[strings.ToUpper(h.Symbol)] = struct{}{}
		chains[h.Chain] = struct{}{}

		value, ok := h.Value()
		if !ok {
			continue
		}
		summary.TotalUSD += value
		summary.BySymbol[strings.ToUpper(h.Symbol)] += value
		summary.ByChain[h.Chain] += value

		switch classify.Token(h.Symbol, h.Name) {
		case classify.CategoryStablecoin:
			summary.StablecoinUSD += value
		case classify.CategoryDeFi:
			summary.DeFiUSD += value
		case classify.CategoryMeme:
			summary.MemeUSD += value
		}
	}

	summary.SymbolCount = len(symbols)
	summary.ChainCount = len(chains)

	var topValue float64
	for sym, value := range summary.BySymbol {
		if value > topValue || (value == topValue && sym < summary.TopSymbol) {
			topValue = value
			summary.TopSymbol = sym
		}
	}
	summary.TopShare = summary.Share(topValue)
	summary.StableShare = summary.Share(summary.StablecoinUSD)
	summary.DeFiShare = summary.Share(summary.DeFiUSD)
	summary.MemeShare = summary.Share(summary.MemeUSD)
	return summary
}
