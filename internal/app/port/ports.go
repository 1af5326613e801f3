// Package port declares the interfaces between the application services and
// their collaborators. Implementations live under internal/infrastructure.
package port

import (
	"context"
	"math/big"

	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

// ChainDataClient is the raw, uncached surface of the hosted blockchain-data
// provider. Every method may fail; the cached gateway on top of it is what
// absorbs failures.
type ChainDataClient interface {
	// GetNativeBalance fetches the native-asset balance in the chain's
	// smallest unit (wei for ETH-like chains).
	GetNativeBalance(ctx context.Context, chain entity.ChainID, address string) (*big.Int, error)

	// GetTokenBalances fetches all ERC-20 balances held by address.
	GetTokenBalances(ctx context.Context, chain entity.ChainID, address string) ([]entity.TokenBalance, error)

	// GetTokenMetadata fetches symbol/name/decimals/logo for one contract.
	GetTokenMetadata(ctx context.Context, chain entity.ChainID, contract string) (entity.TokenMetadata, error)

	// GetSpotPricesBySymbol returns USD prices keyed by symbol. Symbols the
	// provider cannot price are absent from the map.
	GetSpotPricesBySymbol(ctx context.Context, symbols []string) (map[string]float64, error)

	// GetSpotPricesByAddress returns USD prices keyed by lowercase contract
	// address for the requested (chain, address) pairs.
	GetSpotPricesByAddress(ctx context.Context, reqs []entity.PriceByAddressRequest) (map[string]float64, error)
}

// PriceFeed is the currency-price endpoint used for the single global
// native-asset price shared across chains.
type PriceFeed interface {
	GetPrice(ctx context.Context, symbol, currency string) (float64, error)
}

// MarketDataGateway is the cached, failure-absorbing access layer the
// aggregator talks to. Methods never return errors: a failed lookup yields
// an empty or placeholder result and is retried on the next call because
// failures are not cached.
type MarketDataGateway interface {
	NativeBalance(ctx context.Context, chain entity.ChainID, address string) (*big.Int, bool)
	TokenBalances(ctx context.Context, chain entity.ChainID, address string) []entity.TokenBalance
	// TokenMetadata resolves metadata for the given contracts, batched in
	// small request groups. Every requested contract appears in the result;
	// failed lookups map to the placeholder.
	TokenMetadata(ctx context.Context, chain entity.ChainID, contracts []string) map[string]entity.TokenMetadata
	SpotPricesBySymbol(ctx context.Context, symbols []string) map[string]float64
	SpotPricesByAddress(ctx context.Context, reqs []entity.PriceByAddressRequest) map[string]float64
	// GlobalPrice returns the fiat price of a native asset from the
	// currency-price endpoint, cached with the price TTL.
	GlobalPrice(ctx context.Context, symbol string) (float64, bool)
}

// PortfolioService is the inbound read surface consumed by the API layer.
type PortfolioService interface {
	// Refresh runs a full fetch cycle for address and returns the resulting
	// snapshot. Partial upstream failures are absorbed into the snapshot's
	// warnings; only configuration errors (such as a missing API key) fail
	// the cycle.
	Refresh(ctx context.Context, address string) (*entity.PortfolioSnapshot, error)

	// Snapshot returns the result of the most recent refresh, or nil.
	Snapshot() *entity.PortfolioSnapshot
}
