// Package scoring turns a portfolio summary into a 0-100 health score via a
// fixed, ordered rule sequence. Score is pure and total: any well-formed
// summary maps to a score, with no hidden state.
package scoring

import (
	"fmt"

	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

// Score applies the rule sequence in order. The baseline tier is a ceiling,
// the remaining rules add or subtract fixed deltas, and the result clamps
// to [0, 100].
func Score(s entity.PortfolioSummary) entity.HealthScore {
	score := baseline(s.TotalUSD)

	// Single-symbol concentration.
	switch {
	case s.TopShare > 0.8:
		score -= 25
	case s.TopShare > 0.6:
		score -= 15
	case s.TopShare > 0.4:
		score -= 8
	case s.TopShare < 0.1:
		score += 5
	}

	// A single-asset wallet is already fully penalized by the concentration
	// rule; the low-stable and thin-breadth penalties below only apply once
	// the wallet holds more than one distinct symbol.
	multiAsset := s.SymbolCount > 1

	// Stablecoin share: too much is idle, too little is fragile.
	switch {
	case s.StableShare > 0.9:
		score -= 10
	case s.StableShare > 0.7:
		score -= 5
	case s.StableShare < 0.05:
		if multiAsset {
			score -= 12
		}
	case s.StableShare >= 0.1 && s.StableShare <= 0.3:
		score += 8
	}

	// Chain diversification.
	switch {
	case s.ChainCount >= 4:
		score += 10
	case s.ChainCount == 3:
		score += 6
	case s.ChainCount == 2:
		score += 2
	case s.ChainCount == 1:
		score -= 8
	}

	// DeFi exposure.
	switch {
	case s.DeFiShare > 0.3:
		score += 12
	case s.DeFiShare > 0.1:
		score += 8
	case s.DeFiShare > 0.05:
		score += 4
	}

	// Symbol breadth.
	switch {
	case s.SymbolCount >= 15:
		score += 8
	case s.SymbolCount >= 10:
		score += 5
	case s.SymbolCount >= 5:
		score += 2
	case s.SymbolCount <= 2:
		if multiAsset {
			score -= 5
		}
	}

	// Meme exposure.
	switch {
	case s.MemeShare > 0.2:
		score -= 8
	case s.MemeShare > 0.1:
		score -= 4
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return entity.HealthScore{Score: score, Grade: grade(score)}
}

func baseline(totalUSD float64) int {
	switch {
	case totalUSD < 1:
		return 45
	case totalUSD < 10:
		return 60
	case totalUSD < 100:
		return 70
	case totalUSD < 1000:
		return 80
	default:
		return 85
	}
}

func grade(score int) string {
	switch {
	case score >= 80:
		return "A"
	case score >= 65:
		return "B"
	case score >= 50:
		return "C"
	case score >= 35:
		return "D"
	default:
		return "F"
	}
}

// Simulate scores the current summary and a hypothetical rebalance that
// moves shiftPercent of the top asset's value into USDC. The input summary
// is not modified; the rebalanced variant is built on copied maps.
func Simulate(s entity.PortfolioSummary, shiftPercent float64) entity.ScoreComparison {
	if shiftPercent < 0 {
		shiftPercent = 0
	}
	if shiftPercent > 100 {
		shiftPercent = 100
	}

	current := Score(s)
	rebalanced := Score(rebalance(s, shiftPercent))
	return entity.ScoreComparison{
		Current:      current,
		Rebalanced:   rebalanced,
		ShiftPercent: shiftPercent,
	}
}

func rebalance(s entity.PortfolioSummary, shiftPercent float64) entity.PortfolioSummary {
	out := s
	out.BySymbol = make(map[string]float64, len(s.BySymbol)+1)
	for sym, v := range s.BySymbol {
		out.BySymbol[sym] = v
	}
	out.ByChain = make(map[entity.ChainID]float64, len(s.ByChain))
	for chain, v := range s.ByChain {
		out.ByChain[chain] = v
	}
	if s.TopSymbol == "" || shiftPercent == 0 {
		return out
	}

	moved := s.BySymbol[s.TopSymbol] * shiftPercent / 100
	out.BySymbol[s.TopSymbol] -= moved
	out.BySymbol["USDC"] += moved
	out.StablecoinUSD += moved
	out.StableShare = out.Share(out.StablecoinUSD)
	out.SymbolCount = len(out.BySymbol)

	out.TopSymbol = ""
	var topValue float64
	for sym, v := range out.BySymbol {
		if v > topValue || (v == topValue && sym < out.TopSymbol) {
			topValue = v
			out.TopSymbol = sym
		}
	}
	out.TopShare = out.Share(topValue)
	return out
}

// Suggest derives simple next actions from the summary. Purely heuristic
// and advisory; ordering mirrors the severity of the rule that fired.
func Suggest(s entity.PortfolioSummary) []entity.Suggestion {
	var suggestions []entity.Suggestion

	if s.TotalUSD < 10 {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "top-up",
			Reason: "portfolio value is very low; deposit funds to get started",
		})
		return suggestions
	}

	if s.TopShare > 0.6 && s.TopSymbol != "" {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "swap",
			Reason: fmt.Sprintf("%s makes up %.0f%% of the portfolio; swap part of it to reduce concentration", s.TopSymbol, s.TopShare*100),
		})
	}
	if s.StableShare < 0.05 {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "swap",
			Reason: "stablecoin share is below 5%; hold some stable value as a buffer",
		})
	}
	if s.StableShare > 0.7 {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "stake",
			Reason: fmt.Sprintf("%.0f%% of the portfolio sits in stablecoins; stake or deploy part of it", s.StableShare*100),
		})
	}
	if s.DeFiShare == 0 && s.TotalUSD >= 100 {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "stake",
			Reason: "no DeFi exposure; staking a small portion can put idle assets to work",
		})
	}
	if s.MemeShare > 0.1 {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "swap",
			Reason: fmt.Sprintf("meme tokens are %.0f%% of the portfolio; consider trimming the position", s.MemeShare*100),
		})
	}
	if s.ChainCount == 1 {
		suggestions = append(suggestions, entity.Suggestion{
			Action: "bridge",
			Reason: "all value sits on one chain; bridging spreads operational risk",
		})
	}
	return suggestions
}
