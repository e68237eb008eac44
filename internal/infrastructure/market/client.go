// Package market fetches recent price samples from a CoinGecko-compatible
// market-data API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/compound-health-monitor/internal/domain"
)

// Client pulls a short price history for one coin each monitoring cycle.
type Client struct {
	baseURL    string
	coinID     string
	vsCurrency string
	lookback   string // days, API-native granularity
	http       *http.Client
}

func NewClient(baseURL, coinID, vsCurrency, lookback string) *Client {
	return &Client{
		baseURL:    baseURL,
		coinID:     coinID,
		vsCurrency: vsCurrency,
		lookback:   lookback,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

// chartResponse mirrors the market_chart payload: prices is a list of
// [timestamp-ms, price] pairs.
type chartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// RecentPrices returns the price series for the configured lookback window,
// oldest sample first.
func (c *Client) RecentPrices(ctx context.Context) ([]float64, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%s",
		c.baseURL, url.PathEscape(c.coinID), url.QueryEscape(c.vsCurrency), url.QueryEscape(c.lookback))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch market chart: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market api status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode market chart: %w", err)
	}

	prices := make([]float64, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		prices = append(prices, p[1])
	}
	return prices, nil
}
