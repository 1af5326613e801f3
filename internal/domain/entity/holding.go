package entity

import (
	"math/big"
	"time"
)

// NativeTokenAddress is the sentinel contract address used for a chain's
// native asset, which has no ERC-20 contract.
const NativeTokenAddress = "native"

// Holding is one balance entry for one asset on one chain. The chain is part
// of a holding's identity: the same contract on two chains is two holdings.
//
// PriceUSD and USDValue are pointers because "unpriced" and "worth zero" are
// distinct states. USDValue is set iff PriceUSD is set, and always equals
// Amount * *PriceUSD.
type Holding struct {
	Chain        ChainID  `json:"chain"`
	TokenAddress string   `json:"tokenAddress"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Decimals     uint8    `json:"decimals"`
	Amount       float64  `json:"amount"`
	PriceUSD     *float64 `json:"priceUsd,omitempty"`
	USDValue     *float64 `json:"usdValue,omitempty"`
	Logo         string   `json:"logo,omitempty"`
}

// SetPrice attaches a unit price and the derived USD value.
func (h *Holding) SetPrice(price float64) {
	value := h.Amount * price
	h.PriceUSD = &price
	h.USDValue = &value
}

// Value returns the USD value, or 0 and false when the holding is unpriced.
func (h *Holding) Value() (float64, bool) {
	if h.USDValue == nil {
		return 0, false
	}
	return *h.USDValue, true
}

// TokenBalance is a raw ERC-20 balance as returned by the data provider.
type TokenBalance struct {
	ContractAddress string
	RawBalance      *big.Int
}

// TokenMetadata holds the display details of a token contract.
type TokenMetadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Logo     string `json:"logo,omitempty"`
}

// PlaceholderMetadata is returned when a token's metadata lookup fails, so a
// single bad token never aborts a batch.
func PlaceholderMetadata() TokenMetadata {
	return TokenMetadata{Symbol: "UNKNOWN", Name: "Unknown Token", Decimals: 18}
}

// PriceByAddressRequest identifies one contract whose spot price is wanted.
type PriceByAddressRequest struct {
	Chain   ChainID
	Address string
}

// PortfolioSnapshot is the read model handed to the API layer after a
// refresh cycle. Holdings are fully replaced, never merged, on each refresh.
type PortfolioSnapshot struct {
	Address            string             `json:"address"`
	Holdings           []Holding          `json:"holdings"`
	Summary            PortfolioSummary   `json:"summary"`
	TotalValueUSD      float64            `json:"totalValueUsd"`
	StablecoinBySymbol map[string]float64 `json:"stablecoinBySymbol"`
	Warnings           []string           `json:"warnings,omitempty"`
	FetchedAt          time.Time          `json:"fetchedAt"`
}
