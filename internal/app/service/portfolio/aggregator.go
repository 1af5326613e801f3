// Package portfolio aggregates per-chain balances into a single holdings
// list with USD values and exposes the read model consumed by the API layer.
package portfolio

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShivanshDengla/Tracker/internal/app/port"
	"github.com/ShivanshDengla/Tracker/internal/config"
	"github.com/ShivanshDengla/Tracker/internal/domain/classify"
	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
	"github.com/ShivanshDengla/Tracker/internal/metrics"
	"github.com/ShivanshDengla/Tracker/internal/pkg/utils"
)

// nativeDustThreshold is the minimum human-readable native amount worth
// recording. ERC-20 filtering intentionally happens on the raw integer
// balance instead, so negligible-but-nonzero token amounts survive.
const nativeDustThreshold = 1e-6

// ErrMissingAPIKey blocks a fetch cycle when the provider key is absent.
// This is the only error class that fails a refresh; everything below it
// degrades per-chain or per-token.
var ErrMissingAPIKey = fmt.Errorf("blockchain data provider API key is not configured")

// Options bounds the per-chain work.
type Options struct {
	// MaxTokensPerChain caps how many nonzero token balances are processed.
	MaxTokensPerChain int
	// TopPricedPerChain is how many holdings (by raw amount) get a direct
	// price lookup; the long tail relies on the derived-price fallback.
	TopPricedPerChain int
}

// Service implements port.PortfolioService.
type Service struct {
	gateway   port.MarketDataGateway
	networks  []entity.NetworkConfig
	overrides map[string]string
	opts      Options
	hasAPIKey bool
	logger    *zap.Logger
	recorder  *metrics.Metrics

	mu       sync.RWMutex
	snapshot *entity.PortfolioSnapshot
}

// NewService creates the aggregation service. overrides pins contract
// addresses for specific assets (keyed by config.OverrideKey).
func NewService(gateway port.MarketDataGateway, networks []entity.NetworkConfig, overrides map[string]string, opts Options, hasAPIKey bool, m *metrics.Metrics, logger *zap.Logger) *Service {
	if opts.MaxTokensPerChain <= 0 {
		opts.MaxTokensPerChain = 100
	}
	if opts.TopPricedPerChain <= 0 {
		opts.TopPricedPerChain = 20
	}
	if overrides == nil {
		overrides = map[string]string{}
	}
	return &Service{
		gateway:   gateway,
		networks:  networks,
		overrides: overrides,
		opts:      opts,
		hasAPIKey: hasAPIKey,
		logger:    logger.Named("PortfolioService"),
		recorder:  m,
	}
}

var _ port.PortfolioService = (*Service)(nil)

// Refresh runs a full fetch cycle for address and replaces the snapshot.
// Overlapping refreshes are not cancelled; the last writer wins.
func (s *Service) Refresh(ctx context.Context, address string) (*entity.PortfolioSnapshot, error) {
	if !s.hasAPIKey {
		s.recorder.RecordRefresh("config_error")
		return nil, ErrMissingAPIKey
	}

	holdings, warnings := s.Aggregate(ctx, address)
	summary := Summarize(holdings)

	stableBySymbol := make(map[string]float64)
	for _, h := range holdings {
		if value, ok := h.Value(); ok && classify.IsStablecoin(h.Symbol) {
			stableBySymbol[strings.ToUpper(h.Symbol)] += value
		}
	}

	snap := &entity.PortfolioSnapshot{
		Address:            address,
		Holdings:           holdings,
		Summary:            summary,
		TotalValueUSD:      summary.TotalUSD,
		StablecoinBySymbol: stableBySymbol,
		Warnings:           warnings,
		FetchedAt:          time.Now(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.recorder.RecordRefresh("ok")
	s.logger.Info("Refresh complete",
		zap.String("address", address),
		zap.Int("holdingCount", len(holdings)),
		zap.Float64("totalUsd", summary.TotalUSD),
		zap.Int("warningCount", len(warnings)))
	return snap, nil
}

// Snapshot returns the most recent refresh result, or nil.
func (s *Service) Snapshot() *entity.PortfolioSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Aggregate fetches and merges holdings across all configured chains.
// Chains are processed concurrently and independently: one chain's failure
// only produces a warning, never an error. No ordering of the returned list
// is guaranteed; sorting is a presentation concern.
func (s *Service) Aggregate(ctx context.Context, address string) ([]entity.Holding, []string) {
	// The global ETH price is fetched once and shared across chains.
	ethPrice, ethPriceOK := s.gateway.GlobalPrice(ctx, "ETH")
	if !ethPriceOK {
		s.logger.Warn("Global ETH price unavailable; native ETH holdings will be unpriced")
	}

	var (
		mu       sync.Mutex
		holdings []entity.Holding
		warnings []string
	)

	eg, chainCtx := errgroup.WithContext(ctx)
	for _, net := range s.networks {
		eg.Go(func() error {
			chainHoldings := s.fetchChain(chainCtx, net, address, ethPrice, ethPriceOK)
			mu.Lock()
			defer mu.Unlock()
			if chainHoldings == nil {
				warnings = append(warnings, fmt.Sprintf("no data for %s", net.Label))
				return nil
			}
			holdings = append(holdings, chainHoldings...)
			return nil
		})
	}
	_ = eg.Wait()

	return holdings, warnings
}

// fetchChain builds the holdings for one chain. Returns nil when the chain
// yielded nothing at all (treated as a warning upstream).
func (s *Service) fetchChain(ctx context.Context, net entity.NetworkConfig, address string, ethPrice float64, ethPriceOK bool) []entity.Holding {
	// Native and token balances for one chain are fetched concurrently.
	var (
		nativeRaw *big.Int
		balances  []entity.TokenBalance
	)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if raw, ok := s.gateway.NativeBalance(ctx, net.Chain, address); ok {
			nativeRaw = raw
		}
	}()
	go func() {
		defer wg.Done()
		balances = s.gateway.TokenBalances(ctx, net.Chain, address)
	}()
	wg.Wait()

	var holdings []entity.Holding

	if nativeRaw != nil {
		if h, ok := s.nativeHolding(ctx, net, nativeRaw, ethPrice, ethPriceOK); ok {
			holdings = append(holdings, h)
		}
	}

	holdings = append(holdings, s.tokenHoldings(ctx, net, balances)...)

	if len(holdings) == 0 && nativeRaw == nil && balances == nil {
		return nil
	}
	return holdings
}

func (s *Service) nativeHolding(ctx context.Context, net entity.NetworkConfig, raw *big.Int, ethPrice float64, ethPriceOK bool) (entity.Holding, bool) {
	amount := utils.ToHumanAmount(raw, 18)
	if amount < nativeDustThreshold {
		return entity.Holding{}, false
	}

	h := entity.Holding{
		Chain:        net.Chain,
		TokenAddress: entity.NativeTokenAddress,
		Symbol:       net.NativeSymbol,
		Name:         net.Label,
		Decimals:     18,
		Amount:       amount,
	}

	if strings.EqualFold(net.NativeSymbol, "ETH") {
		if ethPriceOK {
			h.SetPrice(ethPrice)
		}
		return h, true
	}

	// Non-ETH natives are priced by symbol.
	prices := s.gateway.SpotPricesBySymbol(ctx, []string{net.NativeSymbol})
	if price, ok := prices[strings.ToUpper(net.NativeSymbol)]; ok {
		h.SetPrice(price)
	}
	return h, true
}

func (s *Service) tokenHoldings(ctx context.Context, net entity.NetworkConfig, balances []entity.TokenBalance) []entity.Holding {
	// Filter on the raw integer balance, then bound the per-chain work.
	nonzero := make([]entity.TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b.RawBalance != nil && b.RawBalance.Sign() > 0 {
			nonzero = append(nonzero, b)
		}
	}
	if len(nonzero) > s.opts.MaxTokensPerChain {
		s.logger.Warn("Capping token balances for chain",
			zap.String("chain", string(net.Chain)),
			zap.Int("count", len(nonzero)),
			zap.Int("cap", s.opts.MaxTokensPerChain))
		nonzero = nonzero[:s.opts.MaxTokensPerChain]
	}
	if len(nonzero) == 0 {
		return nil
	}

	contracts := make([]string, 0, len(nonzero))
	for _, b := range nonzero {
		contracts = append(contracts, b.ContractAddress)
	}
	metas := s.gateway.TokenMetadata(ctx, net.Chain, contracts)

	holdings := make([]entity.Holding, 0, len(nonzero))
	for _, b := range nonzero {
		meta := metas[strings.ToLower(b.ContractAddress)]
		if meta.Symbol == "" {
			meta = entity.PlaceholderMetadata()
		}
		holdings = append(holdings, entity.Holding{
			Chain:        net.Chain,
			TokenAddress: b.ContractAddress,
			Symbol:       meta.Symbol,
			Name:         meta.Name,
			Decimals:     meta.Decimals,
			Amount:       utils.ToHumanAmount(b.RawBalance, meta.Decimals),
			Logo:         meta.Logo,
		})
	}

	s.priceHoldings(ctx, net, nonzero, holdings)
	return holdings
}

// priceHoldings attaches USD values: a direct address-price lookup for the
// top holdings by raw amount, then the derived-price fallback for the rest.
// The long tail past the cutoff is deliberately left to the fallback to
// bound external-call volume.
func (s *Service) priceHoldings(ctx context.Context, net entity.NetworkConfig, raw []entity.TokenBalance, holdings []entity.Holding) {
	indexes := make([]int, len(holdings))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return raw[indexes[a]].RawBalance.Cmp(raw[indexes[b]].RawBalance) > 0
	})
	top := indexes
	if len(top) > s.opts.TopPricedPerChain {
		top = top[:s.opts.TopPricedPerChain]
	}

	reqs := make([]entity.PriceByAddressRequest, 0, len(top))
	for _, i := range top {
		addr := holdings[i].TokenAddress
		if pinned, ok := s.overrides[config.OverrideKey(net.Chain, holdings[i].Symbol)]; ok {
			addr = pinned
		}
		reqs = append(reqs, entity.PriceByAddressRequest{Chain: net.Chain, Address: addr})
	}
	prices := s.gateway.SpotPricesByAddress(ctx, reqs)
	for n, i := range top {
		if price, ok := prices[strings.ToLower(reqs[n].Address)]; ok {
			holdings[i].SetPrice(price)
		}
	}

	s.applyDerivedPrices(ctx, holdings)
}

// applyDerivedPrices prices still-unpriced holdings from a pattern-matched
// underlying asset. The match is a substring heuristic: a symbol that merely
// contains a known pattern resolves to that underlying.
func (s *Service) applyDerivedPrices(ctx context.Context, holdings []entity.Holding) {
	needed := make(map[string]struct{})
	for i := range holdings {
		if holdings[i].PriceUSD != nil {
			continue
		}
		if underlying, ok := classify.UnderlyingSymbol(holdings[i].Symbol); ok {
			needed[underlying] = struct{}{}
		}
	}
	if len(needed) == 0 {
		return
	}

	symbols := make([]string, 0, len(needed))
	for sym := range needed {
		symbols = append(symbols, sym)
	}
	prices := s.gateway.SpotPricesBySymbol(ctx, symbols)

	for i := range holdings {
		if holdings[i].PriceUSD != nil {
			continue
		}
		underlying, ok := classify.UnderlyingSymbol(holdings[i].Symbol)
		if !ok {
			continue
		}
		if price, found := prices[underlying]; found {
			holdings[i].SetPrice(price)
		}
	}
}
