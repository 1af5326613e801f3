// Package marketdata implements the cached gateway over the blockchain-data
// provider and the currency-price feed. Every operation degrades gracefully:
// a failed upstream call yields an empty or placeholder result plus a
// warning, never an error, and failures are never cached so the next request
// retries immediately.
package marketdata

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShivanshDengla/Tracker/internal/app/port"
	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
	"github.com/ShivanshDengla/Tracker/internal/metrics"
	"github.com/ShivanshDengla/Tracker/internal/pkg/utils"
)

const (
	cacheTierBalance  = "balance"
	cacheTierMetadata = "metadata"
	cacheTierPrice    = "price"
)

// Caches holds the three TTL-tiered caches. Injected rather than global so
// tests can supply a fresh or pre-seeded set per case.
type Caches struct {
	Balances *cache.Cache
	Metadata *cache.Cache
	Prices   *cache.Cache
}

// NewCaches builds the cache set with the given TTL tiers. Entries expire
// lazily; the cleanup interval only bounds memory.
func NewCaches(balanceTTL, metadataTTL, priceTTL time.Duration) Caches {
	return Caches{
		Balances: cache.New(balanceTTL, 10*time.Minute),
		Metadata: cache.New(metadataTTL, 10*time.Minute),
		Prices:   cache.New(priceTTL, 10*time.Minute),
	}
}

// Options tunes the gateway.
type Options struct {
	// Timeout bounds every upstream call issued by the gateway.
	Timeout time.Duration
	// MetadataBatchSize is the number of contracts resolved per request group.
	MetadataBatchSize int
}

// Gateway implements port.MarketDataGateway.
type Gateway struct {
	client   port.ChainDataClient
	feed     port.PriceFeed
	caches   Caches
	opts     Options
	logger   *zap.Logger
	recorder *metrics.Metrics
}

// NewGateway creates the cached gateway.
func NewGateway(client port.ChainDataClient, feed port.PriceFeed, caches Caches, opts Options, m *metrics.Metrics, logger *zap.Logger) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MetadataBatchSize <= 0 {
		opts.MetadataBatchSize = 10
	}
	return &Gateway{
		client:   client,
		feed:     feed,
		caches:   caches,
		opts:     opts,
		logger:   logger.Named("MarketDataGateway"),
		recorder: m,
	}
}

var _ port.MarketDataGateway = (*Gateway)(nil)

func cacheKey(chain entity.ChainID, id string) string {
	return fmt.Sprintf("%s_%s", chain, strings.ToLower(id))
}

// NativeBalance returns the cached native balance, fetching on a miss.
func (g *Gateway) NativeBalance(ctx context.Context, chain entity.ChainID, address string) (*big.Int, bool) {
	key := cacheKey(chain, address)
	if v, found := g.caches.Balances.Get("native_" + key); found {
		g.recorder.RecordCache(cacheTierBalance, "hit")
		return v.(*big.Int), true
	}
	g.recorder.RecordCache(cacheTierBalance, "miss")

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	balance, err := g.client.GetNativeBalance(callCtx, chain, address)
	if err != nil {
		g.logger.Warn("Native balance fetch failed",
			zap.String("chain", string(chain)),
			zap.String("address", address),
			zap.Error(err))
		return nil, false
	}
	g.caches.Balances.Set("native_"+key, balance, cache.DefaultExpiration)
	return balance, true
}

// TokenBalances returns the cached ERC-20 balances, fetching on a miss.
// A failure yields an empty list.
func (g *Gateway) TokenBalances(ctx context.Context, chain entity.ChainID, address string) []entity.TokenBalance {
	key := cacheKey(chain, address)
	if v, found := g.caches.Balances.Get("tokens_" + key); found {
		g.recorder.RecordCache(cacheTierBalance, "hit")
		return v.([]entity.TokenBalance)
	}
	g.recorder.RecordCache(cacheTierBalance, "miss")

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	balances, err := g.client.GetTokenBalances(callCtx, chain, address)
	if err != nil {
		g.logger.Warn("Token balances fetch failed",
			zap.String("chain", string(chain)),
			zap.String("address", address),
			zap.Error(err))
		return nil
	}
	g.caches.Balances.Set("tokens_"+key, balances, cache.DefaultExpiration)
	return balances
}

// TokenMetadata resolves metadata for the given contracts, batched in small
// request groups with the contracts of one group fetched concurrently.
// Best-effort semantics: a failed contract maps to the placeholder and is
// not cached, so it is retried on the next request.
func (g *Gateway) TokenMetadata(ctx context.Context, chain entity.ChainID, contracts []string) map[string]entity.TokenMetadata {
	result := make(map[string]entity.TokenMetadata, len(contracts))

	var uncached []string
	for _, contract := range contracts {
		addr := strings.ToLower(contract)
		if v, found := g.caches.Metadata.Get(cacheKey(chain, addr)); found {
			g.recorder.RecordCache(cacheTierMetadata, "hit")
			result[addr] = v.(entity.TokenMetadata)
			continue
		}
		g.recorder.RecordCache(cacheTierMetadata, "miss")
		uncached = append(uncached, addr)
	}

	for _, batch := range utils.BatchStrings(uncached, g.opts.MetadataBatchSize) {
		fetched := make([]entity.TokenMetadata, len(batch))
		eg, batchCtx := errgroup.WithContext(ctx)
		for i, contract := range batch {
			eg.Go(func() error {
				callCtx, cancel := context.WithTimeout(batchCtx, g.opts.Timeout)
				defer cancel()
				meta, err := g.client.GetTokenMetadata(callCtx, chain, contract)
				if err != nil {
					g.logger.Warn("Token metadata fetch failed, using placeholder",
						zap.String("chain", string(chain)),
						zap.String("contract", contract),
						zap.Error(err))
					fetched[i] = entity.PlaceholderMetadata()
					return nil
				}
				fetched[i] = meta
				g.caches.Metadata.Set(cacheKey(chain, contract), meta, cache.DefaultExpiration)
				return nil
			})
		}
		// Goroutines above never return errors; Wait only joins them.
		_ = eg.Wait()
		for i, contract := range batch {
			result[contract] = fetched[i]
		}
	}
	return result
}

// SpotPricesBySymbol returns USD prices for the requested symbols, serving
// cached entries and fetching only the misses in one upstream call.
func (g *Gateway) SpotPricesBySymbol(ctx context.Context, symbols []string) map[string]float64 {
	result := make(map[string]float64, len(symbols))

	var missing []string
	for _, s := range symbols {
		sym := strings.ToUpper(s)
		if v, found := g.caches.Prices.Get("sym_" + sym); found {
			g.recorder.RecordCache(cacheTierPrice, "hit")
			result[sym] = v.(float64)
			continue
		}
		g.recorder.RecordCache(cacheTierPrice, "miss")
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	fetched, err := g.client.GetSpotPricesBySymbol(callCtx, missing)
	if err != nil {
		g.logger.Warn("Spot price fetch by symbol failed",
			zap.Strings("symbols", missing),
			zap.Error(err))
		return result
	}
	for sym, price := range fetched {
		result[sym] = price
		g.caches.Prices.Set("sym_"+sym, price, cache.DefaultExpiration)
	}
	return result
}

// SpotPricesByAddress returns USD prices keyed by lowercase contract
// address for the requested (chain, address) pairs.
func (g *Gateway) SpotPricesByAddress(ctx context.Context, reqs []entity.PriceByAddressRequest) map[string]float64 {
	result := make(map[string]float64, len(reqs))

	var missing []entity.PriceByAddressRequest
	for _, r := range reqs {
		addr := strings.ToLower(r.Address)
		if v, found := g.caches.Prices.Get("addr_" + cacheKey(r.Chain, addr)); found {
			g.recorder.RecordCache(cacheTierPrice, "hit")
			result[addr] = v.(float64)
			continue
		}
		g.recorder.RecordCache(cacheTierPrice, "miss")
		missing = append(missing, entity.PriceByAddressRequest{Chain: r.Chain, Address: addr})
	}
	if len(missing) == 0 {
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	fetched, err := g.client.GetSpotPricesByAddress(callCtx, missing)
	if err != nil {
		g.logger.Warn("Spot price fetch by address failed",
			zap.Int("requestCount", len(missing)),
			zap.Error(err))
		return result
	}
	for _, r := range missing {
		price, ok := fetched[r.Address]
		if !ok {
			continue
		}
		result[r.Address] = price
		g.caches.Prices.Set("addr_"+cacheKey(r.Chain, r.Address), price, cache.DefaultExpiration)
	}
	return result
}

// GlobalPrice returns the fiat price of a native asset from the
// currency-price feed, cached with the price TTL.
func (g *Gateway) GlobalPrice(ctx context.Context, symbol string) (float64, bool) {
	sym := strings.ToUpper(symbol)
	if v, found := g.caches.Prices.Get("global_" + sym); found {
		g.recorder.RecordCache(cacheTierPrice, "hit")
		return v.(float64), true
	}
	g.recorder.RecordCache(cacheTierPrice, "miss")

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	price, err := g.feed.GetPrice(callCtx, sym, "usd")
	if err != nil {
		g.logger.Warn("Global price fetch failed",
			zap.String("symbol", sym),
			zap.Error(err))
		return 0, false
	}
	g.caches.Prices.Set("global_"+sym, price, cache.DefaultExpiration)
	return price, true
}
