// Package pricefeed implements the currency-price endpoint client used for
// the single global native-asset price.
package pricefeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ShivanshDengla/Tracker/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// assetIDs maps ticker symbols to the feed's asset identifiers.
var assetIDs = map[string]string{
	"ETH":   "ethereum",
	"BTC":   "bitcoin",
	"MATIC": "matic-network",
	"POL":   "matic-network",
	"XDAI":  "xdai",
	"POOL":  "pooltogether",
}

// Client fetches a single asset's price in a fiat currency.
type Client struct {
	http     *fasthttp.Client
	baseURL  string
	timeout  time.Duration
	logger   *zap.Logger
	recorder *metrics.Metrics
}

// NewClient creates a price feed client.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:     &fasthttp.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  timeout,
		logger:   logger.Named("PriceFeed"),
		recorder: m,
	}
}

// GetPrice returns symbol's price in the given fiat currency.
func (c *Client) GetPrice(ctx context.Context, symbol, currency string) (float64, error) {
	assetID, ok := assetIDs[strings.ToUpper(symbol)]
	if !ok {
		return 0, fmt.Errorf("no feed asset id for symbol %q", symbol)
	}
	cur := strings.ToLower(currency)
	requestURL := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=%s", c.baseURL, assetID, cur)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.timeout)
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		c.recorder.RecordUpstream("pricefeed", "simple_price", "error", elapsed)
		return 0, fmt.Errorf("price feed request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		c.recorder.RecordUpstream("pricefeed", "simple_price", "error", elapsed)
		return 0, fmt.Errorf("price feed returned status %d", resp.StatusCode())
	}
	c.recorder.RecordUpstream("pricefeed", "simple_price", "success", elapsed)

	var parsed map[string]map[string]float64
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return 0, fmt.Errorf("malformed price feed response: %w", err)
	}
	price, ok := parsed[assetID][cur]
	if !ok {
		return 0, fmt.Errorf("price feed response missing %s/%s", assetID, cur)
	}
	return price, nil
}
