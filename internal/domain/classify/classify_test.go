package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStablecoin(t *testing.T) {
	assert.True(t, IsStablecoin("USDC"))
	assert.True(t, IsStablecoin("usdc"))
	assert.True(t, IsStablecoin(" DAI "))
	assert.True(t, IsStablecoin("USDC.e"))
	assert.False(t, IsStablecoin("ETH"))
	// Membership is exact, not substring.
	assert.False(t, IsStablecoin("PRZUSDC"))
	assert.False(t, IsStablecoin("AUSDC"))
}

func TestToken(t *testing.T) {
	cases := []struct {
		symbol string
		name   string
		want   Category
	}{
		{"USDC", "USD Coin", CategoryStablecoin},
		{"AAVE", "Aave", CategoryDeFi},
		{"przUSDC", "Prize USDC", CategoryDeFi},
		{"CRV", "Curve DAO", CategoryDeFi},
		{"DOGE", "Dogecoin", CategoryMeme},
		{"WOOF", "Shiba Cousin SHIB", CategoryMeme},
		{"ETH", "Ethereum", CategoryOther},
		{"WBTC", "Wrapped Bitcoin", CategoryOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Token(tc.symbol, tc.name), "%s / %s", tc.symbol, tc.name)
	}
}

func TestTokenStablecoinBeatsKeywords(t *testing.T) {
	// An exact stablecoin never falls through to the keyword rules, even
	// when its name contains a protocol keyword.
	assert.Equal(t, CategoryStablecoin, Token("USDC", "USD Coin on Aave"))
}

func TestUnderlyingSymbol(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"przUSDC", "USDC", true},
		{"przWETH", "ETH", true},
		{"aUSDC", "USDC", true},
		{"USDC", "USDC", true},
		{"wstETH", "ETH", true},
		{"stETH", "ETH", true},
		{"WETH", "ETH", true},
		{"rETH", "ETH", true},
		{"WBTC", "BTC", true},
		{"sDAI", "DAI", true},
		{"WMATIC", "MATIC", true},
		// Bare ETH has no pattern: only wrapped forms resolve.
		{"ETH", "", false},
		{"UNKNOWN", "", false},
	}
	for _, tc := range cases {
		got, ok := UnderlyingSymbol(tc.symbol)
		assert.Equal(t, tc.ok, ok, tc.symbol)
		assert.Equal(t, tc.want, got, tc.symbol)
	}
}

func TestUnderlyingSymbolMostSpecificWins(t *testing.T) {
	// PRZUSDC contains the USDC pattern too; the specific entry must win.
	got, ok := UnderlyingSymbol("PRZUSDC")
	assert.True(t, ok)
	assert.Equal(t, "USDC", got)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "stablecoin", CategoryStablecoin.String())
	assert.Equal(t, "defi", CategoryDeFi.String())
	assert.Equal(t, "meme", CategoryMeme.String())
	assert.Equal(t, "other", CategoryOther.String())
}
