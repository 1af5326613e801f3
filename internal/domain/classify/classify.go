// Package classify groups tokens into portfolio categories using a
// prioritized list of pattern rules. Matching is deliberately fuzzy
// (case-insensitive substrings): a token whose symbol coincidentally
// contains a keyword will match. Downstream scoring depends on this
// behavior, so do not tighten it to exact matching.
package classify

import "strings"

// Category is the bucket a token falls into for scoring purposes.
type Category int

const (
	CategoryOther Category = iota
	CategoryStablecoin
	CategoryDeFi
	CategoryMeme
)

func (c Category) String() string {
	switch c {
	case CategoryStablecoin:
		return "stablecoin"
	case CategoryDeFi:
		return "defi"
	case CategoryMeme:
		return "meme"
	default:
		return "other"
	}
}

// stablecoins is the fixed set of symbols counted as stable value.
// Membership is exact (case-insensitive), unlike the keyword rules below.
var stablecoins = map[string]struct{}{
	"USDC":   {},
	"USDT":   {},
	"DAI":    {},
	"USDC.E": {},
	"LUSD":   {},
	"GUSD":   {},
	"FRAX":   {},
	"USDGLO": {},
}

// rule matches when any keyword is a substring of the token's symbol or name.
type rule struct {
	keywords []string
	category Category
}

// rules are evaluated in order; the first match wins. Stablecoins are
// checked before the keyword rules so that USDC does not classify as DeFi
// via a protocol keyword.
var rules = []rule{
	{keywords: []string{"AAVE", "CRV", "CURVE", "PRZ", "POOLTOGETHER", "UNI-V", "UNISWAP", "COMP", "LIDO", "LDO", "YEARN", "YFI", "BAL", "SUSHI"}, category: CategoryDeFi},
	{keywords: []string{"MEME", "DOGE", "SHIB", "PEPE", "FLOKI"}, category: CategoryMeme},
}

// IsStablecoin reports whether symbol is in the fixed stablecoin set.
func IsStablecoin(symbol string) bool {
	_, ok := stablecoins[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

// Token classifies a token by symbol and display name.
func Token(symbol, name string) Category {
	if IsStablecoin(symbol) {
		return CategoryStablecoin
	}
	haystack := strings.ToUpper(symbol + " " + name)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return r.category
			}
		}
	}
	return CategoryOther
}

// underlying maps a wrapped/derivative symbol pattern to the asset whose
// spot price approximates it. Ordered: more specific patterns come first so
// PRZUSDC resolves before the bare USDC pattern. The bare ETH symbol is
// intentionally absent; WETH-style patterns carry it.
type underlying struct {
	pattern string
	symbol  string
}

var underlyings = []underlying{
	{"PRZUSDC", "USDC"},
	{"PRZWETH", "ETH"},
	{"PRZPOOL", "POOL"},
	{"AUSDC", "USDC"},
	{"USDC", "USDC"},
	{"USDT", "USDT"},
	{"SDAI", "DAI"},
	{"DAI", "DAI"},
	{"WSTETH", "ETH"},
	{"STETH", "ETH"},
	{"WETH", "ETH"},
	{"RETH", "ETH"},
	{"WBTC", "BTC"},
	{"WMATIC", "MATIC"},
	{"WPOL", "MATIC"},
}

// UnderlyingSymbol resolves a derivative token symbol to the underlying
// asset used for fallback pricing. Heuristic, not authoritative: a symbol
// that merely contains a pattern will resolve to it.
func UnderlyingSymbol(symbol string) (string, bool) {
	upper := strings.ToUpper(symbol)
	for _, u := range underlyings {
		if strings.Contains(upper, u.pattern) {
			return u.symbol, true
		}
	}
	return "", false
}
