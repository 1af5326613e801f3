package portfolio

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ShivanshDengla/Tracker/internal/config"
	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
)

const wallet = "0x00000000000000000000000000000000000000aa"

var (
	ethereumNet = entity.NetworkConfig{Chain: entity.ChainEthereum, Label: "Ethereum", NativeSymbol: "ETH"}
	optimismNet = entity.NetworkConfig{Chain: entity.ChainOptimism, Label: "Optimism", NativeSymbol: "ETH"}
	baseNet     = entity.NetworkConfig{Chain: entity.ChainBase, Label: "Base", NativeSymbol: "ETH"}
	arbitrumNet = entity.NetworkConfig{Chain: entity.ChainArbitrum, Label: "Arbitrum", NativeSymbol: "ETH"}
	polygonNet  = entity.NetworkConfig{Chain: entity.ChainPolygon, Label: "Polygon", NativeSymbol: "POL"}
)

// mockGateway fakes the cached market-data layer. Failures are modeled the
// way the real gateway surfaces them: a false ok, a nil list, or a missing
// map entry, never an error.
type mockGateway struct {
	mu sync.Mutex

	native        map[entity.ChainID]*big.Int
	tokens        map[entity.ChainID][]entity.TokenBalance
	metadata      map[string]entity.TokenMetadata
	symbolPrices  map[string]float64
	addressPrices map[string]float64
	ethPrice      float64
	ethPriceOK    bool

	symbolQueries []string
	addressReqs   []entity.PriceByAddressRequest
}

func (m *mockGateway) NativeBalance(ctx context.Context, chain entity.ChainID, address string) (*big.Int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.native[chain]
	return raw, ok
}

func (m *mockGateway) TokenBalances(ctx context.Context, chain entity.ChainID, address string) []entity.TokenBalance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[chain]
}

func (m *mockGateway) TokenMetadata(ctx context.Context, chain entity.ChainID, contracts []string) map[string]entity.TokenMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]entity.TokenMetadata, len(contracts))
	for _, c := range contracts {
		addr := strings.ToLower(c)
		if meta, ok := m.metadata[addr]; ok {
			out[addr] = meta
		} else {
			out[addr] = entity.PlaceholderMetadata()
		}
	}
	return out
}

func (m *mockGateway) SpotPricesBySymbol(ctx context.Context, symbols []string) map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbolQueries = append(m.symbolQueries, symbols...)
	out := make(map[string]float64)
	for _, s := range symbols {
		if p, ok := m.symbolPrices[strings.ToUpper(s)]; ok {
			out[strings.ToUpper(s)] = p
		}
	}
	return out
}

func (m *mockGateway) SpotPricesByAddress(ctx context.Context, reqs []entity.PriceByAddressRequest) map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addressReqs = append(m.addressReqs, reqs...)
	out := make(map[string]float64)
	for _, r := range reqs {
		if p, ok := m.addressPrices[strings.ToLower(r.Address)]; ok {
			out[strings.ToLower(r.Address)] = p
		}
	}
	return out
}

func (m *mockGateway) GlobalPrice(ctx context.Context, symbol string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ethPrice, m.ethPriceOK
}

func ethWei(eth int64) *big.Int {
	wei, _ := new(big.Int).SetString("1000000000000000000", 10)
	return wei.Mul(wei, big.NewInt(eth))
}

func newTestService(g *mockGateway, networks []entity.NetworkConfig, overrides map[string]string, opts Options) *Service {
	return NewService(g, networks, overrides, opts, true, nil, zap.NewNop())
}

func TestRefreshSingleChainNativeOnly(t *testing.T) {
	g := &mockGateway{
		native:     map[entity.ChainID]*big.Int{entity.ChainEthereum: ethWei(10)},
		tokens:     map[entity.ChainID][]entity.TokenBalance{entity.ChainEthereum: {}},
		ethPrice:   2000,
		ethPriceOK: true,
	}
	s := newTestService(g, []entity.NetworkConfig{ethereumNet}, nil, Options{})

	snap, err := s.Refresh(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, snap.Holdings, 1)

	h := snap.Holdings[0]
	assert.Equal(t, "ETH", h.Symbol)
	assert.Equal(t, entity.NativeTokenAddress, h.TokenAddress)
	assert.Equal(t, 10.0, h.Amount)
	require.NotNil(t, h.USDValue)
	assert.Equal(t, 20000.0, *h.USDValue)

	assert.Equal(t, 20000.0, snap.Summary.TotalUSD)
	assert.Equal(t, 1.0, snap.Summary.TopShare)
	assert.Equal(t, "ETH", snap.Summary.TopSymbol)
	assert.Equal(t, 1, snap.Summary.ChainCount)
	assert.Empty(t, snap.Warnings)
}

func TestDerivedPriceFallback(t *testing.T) {
	contract := "0x00000000000000000000000000000000000000d1"
	g := &mockGateway{
		tokens: map[entity.ChainID][]entity.TokenBalance{
			entity.ChainOptimism: {{ContractAddress: contract, RawBalance: big.NewInt(50_000_000)}},
		},
		metadata: map[string]entity.TokenMetadata{
			contract: {Symbol: "przUSDC", Name: "Prize USDC", Decimals: 6},
		},
		symbolPrices: map[string]float64{"USDC": 1.0},
	}
	s := newTestService(g, []entity.NetworkConfig{optimismNet}, nil, Options{})

	holdings, _ := s.Aggregate(context.Background(), wallet)
	require.Len(t, holdings, 1)

	h := holdings[0]
	assert.Equal(t, "przUSDC", h.Symbol)
	assert.Equal(t, 50.0, h.Amount)
	require.NotNil(t, h.PriceUSD)
	assert.Equal(t, 1.0, *h.PriceUSD)
	require.NotNil(t, h.USDValue)
	assert.Equal(t, 50.0, *h.USDValue)

	// The direct address lookup came first and missed.
	require.NotEmpty(t, g.addressReqs)
	assert.Equal(t, contract, g.addressReqs[0].Address)
	assert.Contains(t, g.symbolQueries, "USDC")
}

func TestPartialChainFailureYieldsWarning(t *testing.T) {
	networks := []entity.NetworkConfig{ethereumNet, optimismNet, baseNet, arbitrumNet, polygonNet}
	g := &mockGateway{
		native: map[entity.ChainID]*big.Int{
			entity.ChainEthereum: ethWei(1),
			entity.ChainOptimism: ethWei(2),
			entity.ChainBase:     ethWei(3),
			entity.ChainArbitrum: ethWei(4),
			// Polygon absent: both its lookups fail.
		},
		ethPrice:   2000,
		ethPriceOK: true,
	}
	s := newTestService(g, networks, nil, Options{})

	holdings, warnings := s.Aggregate(context.Background(), wallet)
	assert.Len(t, holdings, 4)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Polygon")

	total := 0.0
	for _, h := range holdings {
		value, ok := h.Value()
		require.True(t, ok)
		total += value
	}
	assert.Equal(t, 20000.0, total)
}

func TestDustFiltering(t *testing.T) {
	kept := "0x00000000000000000000000000000000000000d2"
	g := &mockGateway{
		// 1e11 wei is 1e-7 ETH, below the native dust threshold.
		native: map[entity.ChainID]*big.Int{entity.ChainEthereum: big.NewInt(100_000_000_000)},
		tokens: map[entity.ChainID][]entity.TokenBalance{
			entity.ChainEthereum: {
				{ContractAddress: "0x00000000000000000000000000000000000000d3", RawBalance: big.NewInt(0)},
				{ContractAddress: "0x00000000000000000000000000000000000000d4", RawBalance: nil},
				{ContractAddress: kept, RawBalance: big.NewInt(1)},
			},
		},
		metadata: map[string]entity.TokenMetadata{
			kept: {Symbol: "TINY", Name: "Tiny Token", Decimals: 18},
		},
		ethPrice:   2000,
		ethPriceOK: true,
	}
	s := newTestService(g, []entity.NetworkConfig{ethereumNet}, nil, Options{})

	holdings, warnings := s.Aggregate(context.Background(), wallet)
	assert.Empty(t, warnings)
	require.Len(t, holdings, 1)
	assert.Equal(t, "TINY", holdings[0].Symbol)
	assert.Nil(t, holdings[0].PriceUSD)
}

func TestMaxTokensPerChainCap(t *testing.T) {
	g := &mockGateway{
		tokens: map[entity.ChainID][]entity.TokenBalance{
			entity.ChainEthereum: {
				{ContractAddress: "0x00000000000000000000000000000000000000e1", RawBalance: big.NewInt(1)},
				{ContractAddress: "0x00000000000000000000000000000000000000e2", RawBalance: big.NewInt(2)},
				{ContractAddress: "0x00000000000000000000000000000000000000e3", RawBalance: big.NewInt(3)},
			},
		},
	}
	s := newTestService(g, []entity.NetworkConfig{ethereumNet}, nil, Options{MaxTokensPerChain: 2})

	holdings, _ := s.Aggregate(context.Background(), wallet)
	assert.Len(t, holdings, 2)
}

func TestMetadataPlaceholderSurvives(t *testing.T) {
	g := &mockGateway{
		tokens: map[entity.ChainID][]entity.TokenBalance{
			entity.ChainBase: {{ContractAddress: "0x00000000000000000000000000000000000000e9", RawBalance: big.NewInt(5)}},
		},
	}
	s := newTestService(g, []entity.NetworkConfig{baseNet}, nil, Options{})

	holdings, _ := s.Aggregate(context.Background(), wallet)
	require.Len(t, holdings, 1)
	assert.Equal(t, "UNKNOWN", holdings[0].Symbol)
	assert.Equal(t, uint8(18), holdings[0].Decimals)
	assert.Nil(t, holdings[0].USDValue)
}

func TestTokenOverridePinsPriceAddress(t *testing.T) {
	held := "0x00000000000000000000000000000000000000f1"
	pinned := "0x00000000000000000000000000000000000000f2"
	g := &mockGateway{
		tokens: map[entity.ChainID][]entity.TokenBalance{
			entity.ChainEthereum: {{ContractAddress: held, RawBalance: big.NewInt(1_000_000_000_000_000_000)}},
		},
		metadata: map[string]entity.TokenMetadata{
			held: {Symbol: "POOL", Name: "PoolTogether", Decimals: 18},
		},
		addressPrices: map[string]float64{pinned: 0.75},
	}
	overrides := map[string]string{config.OverrideKey(entity.ChainEthereum, "POOL"): pinned}
	s := newTestService(g, []entity.NetworkConfig{ethereumNet}, overrides, Options{})

	holdings, _ := s.Aggregate(context.Background(), wallet)
	require.Len(t, holdings, 1)
	require.NotNil(t, holdings[0].PriceUSD)
	assert.Equal(t, 0.75, *holdings[0].PriceUSD)

	require.Len(t, g.addressReqs, 1)
	assert.Equal(t, pinned, g.addressReqs[0].Address)
}

func TestRefreshWithoutAPIKey(t *testing.T) {
	s := NewService(&mockGateway{}, []entity.NetworkConfig{ethereumNet}, nil, Options{}, false, nil, zap.NewNop())

	_, err := s.Refresh(context.Background(), wallet)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, s.Snapshot())
}

func TestSnapshotReplacedOnRefresh(t *testing.T) {
	g := &mockGateway{
		native:     map[entity.ChainID]*big.Int{entity.ChainEthereum: ethWei(1)},
		ethPrice:   2000,
		ethPriceOK: true,
	}
	s := newTestService(g, []entity.NetworkConfig{ethereumNet}, nil, Options{})
	ctx := context.Background()

	first, err := s.Refresh(ctx, wallet)
	require.NoError(t, err)

	g.mu.Lock()
	g.native[entity.ChainEthereum] = ethWei(3)
	g.mu.Unlock()

	second, err := s.Refresh(ctx, wallet)
	require.NoError(t, err)

	assert.Same(t, second, s.Snapshot())
	assert.NotEqual(t, first.TotalValueUSD, second.TotalValueUSD)
	assert.Equal(t, 6000.0, second.TotalValueUSD)
}

func TestSummarizeTotalsConsistent(t *testing.T) {
	priced := func(chain entity.ChainID, symbol string, amount, price float64) entity.Holding {
		h := entity.Holding{Chain: chain, Symbol: symbol, Amount: amount}
		h.SetPrice(price)
		return h
	}
	holdings := []entity.Holding{
		priced(entity.ChainEthereum, "ETH", 2, 2000),
		priced(entity.ChainEthereum, "USDC", 500, 1),
		priced(entity.ChainBase, "ETH", 1, 2000),
		priced(entity.ChainBase, "AAVE", 10, 80),
		priced(entity.ChainOptimism, "PEPE", 1_000_000, 0.0001),
		{Chain: entity.ChainOptimism, Symbol: "MYSTERY", Amount: 42},
	}

	s := Summarize(holdings)

	var bySymbol, byChain float64
	for _, v := range s.BySymbol {
		bySymbol += v
	}
	for _, v := range s.ByChain {
		byChain += v
	}
	assert.InDelta(t, s.TotalUSD, bySymbol, 1e-9)
	assert.InDelta(t, s.TotalUSD, byChain, 1e-9)
	assert.Equal(t, 7300.0, s.TotalUSD)

	// Unpriced holdings still count toward breadth.
	assert.Equal(t, 5, s.SymbolCount)
	assert.Equal(t, 3, s.ChainCount)

	assert.Equal(t, "ETH", s.TopSymbol)
	assert.InDelta(t, 6000.0/7300.0, s.TopShare, 1e-9)
	assert.InDelta(t, 500.0/7300.0, s.StableShare, 1e-9)
	assert.InDelta(t, 800.0/7300.0, s.DeFiShare, 1e-9)
	assert.InDelta(t, 100.0/7300.0, s.MemeShare, 1e-9)
}

func TestSummarizeEmptyPortfolio(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0.0, s.TotalUSD)
	assert.Equal(t, 0.0, s.TopShare)
	assert.Equal(t, 0.0, s.StableShare)
	assert.Equal(t, 0, s.SymbolCount)
	assert.Equal(t, 0, s.ChainCount)
}

func TestRefreshCollectsStablecoinBreakdown(t *testing.T) {
	usdc := "0x00000000000000000000000000000000000000a1"
	dai := "0x00000000000000000000000000000000000000a2"
	g := &mockGateway{
		tokens: map[entity.ChainID][]entity.TokenBalance{
			entity.ChainEthereum: {
				{ContractAddress: usdc, RawBalance: big.NewInt(250_000_000)},
				{ContractAddress: dai, RawBalance: ethWei(100)},
			},
		},
		metadata: map[string]entity.TokenMetadata{
			usdc: {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
			dai:  {Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18},
		},
		addressPrices: map[string]float64{usdc: 1.0, dai: 1.0},
	}
	s := newTestService(g, []entity.NetworkConfig{ethereumNet}, nil, Options{})

	snap, err := s.Refresh(context.Background(), wallet)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USDC": 250, "DAI": 100}, snap.StablecoinBySymbol)
}
