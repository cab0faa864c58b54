package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

func newTestProvider(f Fetcher, markup float64, ttl time.Duration) *Provider {
	return NewProvider(f, StaticMarkup(markup), ttl, zap.NewNop())
}

func TestGetPrices_AppliesMarkup(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]float64{"BTC": 100000, "USDT": 4.0}}
	p := newTestProvider(fetcher, 5.0, 30*time.Second)

	prices := p.GetPrices(context.Background())

	assert.InDelta(t, 105000.0, prices["BTC"], 0.001)
	assert.InDelta(t, 4.2, prices["USDT"], 0.001)
}

func TestGetPrices_CacheHitReturnsIdenticalMap(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]float64{"BTC": 100000, "ETH": 9000}}
	p := newTestProvider(fetcher, 3.0, 30*time.Second)

	first := p.GetPrices(context.Background())
	second := p.GetPrices(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetPrices_ExpiredCacheTriggersExactlyOneFetch(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]float64{"BTC": 100000}}
	p := newTestProvider(fetcher, 0, 30*time.Second)

	current := time.Now()
	p.now = func() time.Time { return current }

	p.GetPrices(context.Background())
	require.Equal(t, 1, fetcher.calls)

	// Still inside the window: no new fetch.
	current = current.Add(29 * time.Second)
	p.GetPrices(context.Background())
	assert.Equal(t, 1, fetcher.calls)

	// Past the window: exactly one more fetch.
	current = current.Add(2 * time.Second)
	p.GetPrices(context.Background())
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetPrices_FallbackTableWhenNoCache(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	p := newTestProvider(fetcher, 3.0, 30*time.Second)

	prices := p.GetPrices(context.Background())

	assert.NotEmpty(t, prices)
	assert.Equal(t, fallbackPrices["BTC"], prices["BTC"])
}

func TestGetPrices_StaleCachePreferredOverFallback(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]float64{"BTC": 200000}}
	p := newTestProvider(fetcher, 0, 30*time.Second)

	current := time.Now()
	p.now = func() time.Time { return current }

	fresh := p.GetPrices(context.Background())
	require.InDelta(t, 200000.0, fresh["BTC"], 0.001)

	// Expire the cache and break the upstream.
	current = current.Add(time.Minute)
	fetcher.err = errors.New("upstream down")

	stale := p.GetPrices(context.Background())
	assert.Equal(t, fresh, stale)
}

func TestGetPrices_NeverEmpty(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("down")}
	p := newTestProvider(fetcher, 3.0, time.Nanosecond)

	for i := 0; i < 5; i++ {
		prices := p.GetPrices(context.Background())
		assert.NotEmpty(t, prices)
	}
}

func TestGetPrices_CallerCannotPoisonCache(t *testing.T) {
	fetcher := &fakeFetcher{prices: map[string]float64{"BTC": 100000}}
	p := newTestProvider(fetcher, 0, 30*time.Second)

	first := p.GetPrices(context.Background())
	first["BTC"] = -1

	second := p.GetPrices(context.Background())
	assert.InDelta(t, 100000.0, second["BTC"], 0.001)
}

func TestCoinGeckoFetcher_Fetch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("ids"), "bitcoin")
		assert.Equal(t, "myr", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"myr":480000},"tether":{"myr":4.7}}`))
	}))
	defer upstream.Close()

	fetcher := NewCoinGeckoFetcher(upstream.URL, 2*time.Second)
	prices, err := fetcher.Fetch(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 480000.0, prices["BTC"], 0.001)
	assert.InDelta(t, 4.7, prices["USDT"], 0.001)
	_, hasETH := prices["ETH"]
	assert.False(t, hasETH)
}

func TestCoinGeckoFetcher_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	fetcher := NewCoinGeckoFetcher(upstream.URL, 2*time.Second)
	_, err := fetcher.Fetch(context.Background())

	assert.Error(t, err)
}
