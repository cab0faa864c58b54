package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Symbol -> CoinGecko coin id for the kiosk's supported assets.
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDT": "tether",
	"SOL":  "solana",
}

// CoinGeckoFetcher pulls MYR spot prices from the CoinGecko simple-price API.
type CoinGeckoFetcher struct {
	baseURL string
	client  *http.Client
}

func NewCoinGeckoFetcher(baseURL string, timeout time.Duration) *CoinGeckoFetcher {
	return &CoinGeckoFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (f *CoinGeckoFetcher) Fetch(ctx context.Context) (map[string]float64, error) {
	ids := make([]string, 0, len(coinIDs))
	for _, id := range coinIDs {
		ids = append(ids, id)
	}

	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "myr")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building price request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price upstream returned status %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding price response: %w", err)
	}

	prices := make(map[string]float64, len(coinIDs))
	for symbol, id := range coinIDs {
		if quote, ok := body[id]; ok {
			if myr, ok := quote["myr"]; ok {
				prices[symbol] = myr
			}
		}
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("price upstream returned no usable quotes")
	}

	return prices, nil
}
