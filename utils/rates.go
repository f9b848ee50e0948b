package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// PriceClientInterface abstracts the external exchange-rate feed so handlers
// can be tested against a mock.
type PriceClientInterface interface {
	BTCPriceUSD(ctx context.Context) (decimal.Decimal, error)
}

// CoinGeckoClient fetches spot prices from the CoinGecko simple-price API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCoinGeckoClient(baseURL string) PriceClientInterface {
	return &CoinGeckoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CoinGeckoClient) BTCPriceUSD(ctx context.Context) (decimal.Decimal, error) {
	url := c.baseURL + "/simple/price?ids=bitcoin&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch BTC price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode price response: %w", err)
	}

	price, ok := payload["bitcoin"]["usd"]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price feed response missing bitcoin/usd price")
	}

	return price, nil
}
