// Package alchemy implements the raw client for the hosted blockchain-data
// provider: JSON-RPC balance/metadata calls scoped per chain plus the token
// price REST endpoints.
package alchemy

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ShivanshDengla/Tracker/internal/domain/entity"
	"github.com/ShivanshDengla/Tracker/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// subdomains maps a chain to the provider's per-chain host segment, also
// used as the network name in the price-by-address API.
var subdomains = map[entity.ChainID]string{
	entity.ChainEthereum: "eth-mainnet",
	entity.ChainOptimism: "opt-mainnet",
	entity.ChainBase:     "base-mainnet",
	entity.ChainArbitrum: "arb-mainnet",
	entity.ChainPolygon:  "polygon-mainnet",
	entity.ChainGnosis:   "gnosis-mainnet",
	entity.ChainScroll:   "scroll-mainnet",
}

// Options configures a Client.
type Options struct {
	APIKey string
	// RPCBaseURL overrides the per-chain public hosts (tests point this at a
	// local server). Empty selects https://<subdomain>.g.alchemy.com.
	RPCBaseURL string
	// PriceBaseURL is the host of the token price API.
	PriceBaseURL string
	Timeout      time.Duration
	RateLimit    float64
	RateBurst    int
}

// Client talks to the provider over HTTP. It enforces a request timeout and
// a client-side rate limit; callers get plain errors and decide how to
// degrade.
type Client struct {
	http     *fasthttp.Client
	opts     Options
	limiter  *rate.Limiter
	logger   *zap.Logger
	recorder *metrics.Metrics
}

// NewClient creates a provider client.
func NewClient(opts Options, m *metrics.Metrics, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	return &Client{
		http:     &fasthttp.Client{},
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		logger:   logger.Named("AlchemyClient"),
		recorder: m,
	}
}

func (c *Client) rpcURL(chain entity.ChainID) (string, error) {
	sub, ok := subdomains[chain]
	if !ok {
		return "", fmt.Errorf("no provider endpoint for chain %s", chain)
	}
	if c.opts.RPCBaseURL != "" {
		return fmt.Sprintf("%s/%s/v2/%s", strings.TrimRight(c.opts.RPCBaseURL, "/"), sub, c.opts.APIKey), nil
	}
	return fmt.Sprintf("https://%s.g.alchemy.com/v2/%s", sub, c.opts.APIKey), nil
}

func (c *Client) priceURL(path string) string {
	return fmt.Sprintf("%s/prices/v1/%s/%s", strings.TrimRight(c.opts.PriceBaseURL, "/"), c.opts.APIKey, path)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcError           `json:"error"`
}

// GetNativeBalance fetches the native balance in wei via eth_getBalance.
func (c *Client) GetNativeBalance(ctx context.Context, chain entity.ChainID, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	var result string
	if err := c.callRPC(ctx, chain, "eth_getBalance", []interface{}{address, "latest"}, &result); err != nil {
		return nil, err
	}
	balance, err := hexutil.DecodeBig(result)
	if err != nil {
		return nil, fmt.Errorf("malformed native balance %q: %w", result, err)
	}
	return balance, nil
}

type tokenBalancesResult struct {
	Address       string `json:"address"`
	TokenBalances []struct {
		ContractAddress string  `json:"contractAddress"`
		TokenBalance    string  `json:"tokenBalance"`
		Error           *string `json:"error"`
	} `json:"tokenBalances"`
}

// GetTokenBalances fetches all ERC-20 balances for address. Entries whose
// balance hex fails to parse are dropped with a warning rather than failing
// the whole call.
func (c *Client) GetTokenBalances(ctx context.Context, chain entity.ChainID, address string) ([]entity.TokenBalance, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	var result tokenBalancesResult
	if err := c.callRPC(ctx, chain, "alchemy_getTokenBalances", []interface{}{address, "erc20"}, &result); err != nil {
		return nil, err
	}

	balances := make([]entity.TokenBalance, 0, len(result.TokenBalances))
	for _, tb := range result.TokenBalances {
		if tb.Error != nil {
			c.logger.Warn("Token balance entry carried an error",
				zap.String("chain", string(chain)),
				zap.String("contract", tb.ContractAddress),
				zap.String("error", *tb.Error))
			continue
		}
		raw, err := parseHexBalance(tb.TokenBalance)
		if err != nil {
			c.logger.Warn("Dropping token balance with malformed value",
				zap.String("chain", string(chain)),
				zap.String("contract", tb.ContractAddress),
				zap.Error(err))
			continue
		}
		balances = append(balances, entity.TokenBalance{
			ContractAddress: strings.ToLower(tb.ContractAddress),
			RawBalance:      raw,
		})
	}
	return balances, nil
}

type tokenMetadataResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals *uint8 `json:"decimals"`
	Logo     string `json:"logo"`
}

// GetTokenMetadata fetches symbol/name/decimals/logo for one contract.
func (c *Client) GetTokenMetadata(ctx context.Context, chain entity.ChainID, contract string) (entity.TokenMetadata, error) {
	var result tokenMetadataResult
	if err := c.callRPC(ctx, chain, "alchemy_getTokenMetadata", []interface{}{contract}, &result); err != nil {
		return entity.TokenMetadata{}, err
	}
	meta := entity.TokenMetadata{
		Symbol:   result.Symbol,
		Name:     result.Name,
		Decimals: 18,
		Logo:     result.Logo,
	}
	if result.Decimals != nil {
		meta.Decimals = *result.Decimals
	}
	if meta.Symbol == "" {
		return entity.TokenMetadata{}, fmt.Errorf("provider returned no symbol for %s on %s", contract, chain)
	}
	return meta, nil
}

type priceEntry struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type priceBySymbolResponse struct {
	Data []struct {
		Symbol string       `json:"symbol"`
		Prices []priceEntry `json:"prices"`
		Error  *string      `json:"error"`
	} `json:"data"`
}

// GetSpotPricesBySymbol returns USD prices keyed by upper-case symbol.
// Symbols the provider cannot price are absent.
func (c *Client) GetSpotPricesBySymbol(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}
	q := url.Values{}
	for _, s := range symbols {
		q.Add("symbols", s)
	}
	body, err := c.doHTTP(ctx, fasthttp.MethodGet, c.priceURL("tokens/by-symbol")+"?"+q.Encode(), nil, "price_by_symbol")
	if err != nil {
		return nil, err
	}

	var parsed priceBySymbolResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed price-by-symbol response: %w", err)
	}

	prices := make(map[string]float64, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Error != nil {
			continue
		}
		if v, ok := usdPrice(d.Prices); ok {
			prices[strings.ToUpper(d.Symbol)] = v
		}
	}
	return prices, nil
}

type priceByAddressRequest struct {
	Addresses []struct {
		Network string `json:"network"`
		Address string `json:"address"`
	} `json:"addresses"`
}

type priceByAddressResponse struct {
	Data []struct {
		Network string       `json:"network"`
		Address string       `json:"address"`
		Prices  []priceEntry `json:"prices"`
		Error   *string      `json:"error"`
	} `json:"data"`
}

// GetSpotPricesByAddress returns USD prices keyed by lowercase contract
// address. Contracts the provider cannot price are absent.
func (c *Client) GetSpotPricesByAddress(ctx context.Context, reqs []entity.PriceByAddressRequest) (map[string]float64, error) {
	if len(reqs) == 0 {
		return map[string]float64{}, nil
	}
	var payload priceByAddressRequest
	for _, r := range reqs {
		sub, ok := subdomains[r.Chain]
		if !ok {
			c.logger.Warn("Skipping price request for unknown chain", zap.String("chain", string(r.Chain)))
			continue
		}
		payload.Addresses = append(payload.Addresses, struct {
			Network string `json:"network"`
			Address string `json:"address"`
		}{Network: sub, Address: r.Address})
	}
	if len(payload.Addresses) == 0 {
		return map[string]float64{}, nil
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	body, err := c.doHTTP(ctx, fasthttp.MethodPost, c.priceURL("tokens/by-address"), reqBody, "price_by_address")
	if err != nil {
		return nil, err
	}

	var parsed priceByAddressResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed price-by-address response: %w", err)
	}

	prices := make(map[string]float64, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Error != nil {
			continue
		}
		if v, ok := usdPrice(d.Prices); ok {
			prices[strings.ToLower(d.Address)] = v
		}
	}
	return prices, nil
}

func (c *Client) callRPC(ctx context.Context, chain entity.ChainID, method string, params []interface{}, out interface{}) error {
	endpoint, err := c.rpcURL(chain)
	if err != nil {
		return err
	}
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	body, err := c.doHTTP(ctx, fasthttp.MethodPost, endpoint, reqBody, method)
	if err != nil {
		return err
	}

	var resp rpcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("malformed RPC response for %s: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("RPC %s failed on %s: %s (code %d)", method, chain, resp.Error.Message, resp.Error.Code)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("malformed RPC result for %s: %w", method, err)
	}
	return nil
}

func (c *Client) doHTTP(ctx context.Context, method, requestURL string, body []byte, op string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.opts.Timeout)
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		c.recorder.RecordUpstream("alchemy", op, "error", elapsed)
		return nil, fmt.Errorf("request to provider failed (%s): %w", op, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.recorder.RecordUpstream("alchemy", op, "error", elapsed)
		return nil, fmt.Errorf("provider returned status %d for %s", resp.StatusCode(), op)
	}
	c.recorder.RecordUpstream("alchemy", op, "success", elapsed)

	// fasthttp reuses response buffers; copy before release.
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func usdPrice(prices []priceEntry) (float64, bool) {
	for _, p := range prices {
		if strings.EqualFold(p.Currency, "usd") {
			var v float64
			if err := json.UnmarshalFromString(p.Value, &v); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// parseHexBalance decodes a 0x-prefixed balance. The provider sometimes
// left-pads values to 32 bytes, which hexutil.DecodeBig rejects, so strip
// leading zeros first.
func parseHexBalance(hex string) (*big.Int, error) {
	if hex == "" || hex == "0x" {
		return big.NewInt(0), nil
	}
	if !strings.HasPrefix(hex, "0x") {
		return nil, fmt.Errorf("missing 0x prefix in %q", hex)
	}
	digits := strings.TrimLeft(hex[2:], "0")
	if digits == "" {
		return big.NewInt(0), nil
	}
	return hexutil.DecodeBig("0x" + digits)
}
