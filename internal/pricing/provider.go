package pricing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves raw upstream spot prices keyed by asset symbol.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]float64, error)
}

// MarkupSource yields the current markup percentage. Implementations must
// not fail; settings-backed sources fall back to their config default.
type MarkupSource interface {
	MarkupPercent(ctx context.Context) float64
}

// Prices used when the upstream is unreachable and no cache exists yet.
var fallbackPrices = map[string]float64{
	"BTC":  480000.00,
	"ETH":  17500.00,
	"USDT": 4.72,
	"SOL":  950.00,
}

// Provider serves markup-adjusted prices with a fixed cache window. It never
// returns an error: stale cache and a static table back the upstream.
type Provider struct {
	fetcher Fetcher
	markup  MarkupSource
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	cached   map[string]float64
	cachedAt time.Time
}

func NewProvider(fetcher Fetcher, markup MarkupSource, ttl time.Duration, logger *zap.Logger) *Provider {
	return &Provider{
		fetcher: fetcher,
		markup:  markup,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// GetPrices returns the current markup-adjusted price map. Markup is baked
// in at fetch time; a cache hit returns the stored values unchanged.
func (p *Provider) GetPrices(ctx context.Context) map[string]float64 {
	p.mu.RLock()
	if p.cached != nil && p.now().Sub(p.cachedAt) < p.ttl {
		cached := p.cached
		p.mu.RUnlock()
		return copyPrices(cached)
	}
	p.mu.RUnlock()

	// Collapse concurrent refreshes into a single upstream fetch.
	result, _, _ := p.group.Do("prices", func() (interface{}, error) {
		return p.refresh(ctx), nil
	})

	return copyPrices(result.(map[string]float64))
}

func (p *Provider) refresh(ctx context.Context) map[string]float64 {
	// Another caller may have refreshed while we waited on the group.
	p.mu.RLock()
	if p.cached != nil && p.now().Sub(p.cachedAt) < p.ttl {
		cached := p.cached
		p.mu.RUnlock()
		return cached
	}
	p.mu.RUnlock()

	raw, err := p.fetcher.Fetch(ctx)
	if err != nil || len(raw) == 0 {
		p.logger.Warn("price fetch failed, serving fallback", zap.Error(err))

		p.mu.RLock()
		defer p.mu.RUnlock()
		if p.cached != nil {
			return p.cached
		}
		return fallbackPrices
	}

	markup := p.markup.MarkupPercent(ctx)
	adjusted := make(map[string]float64, len(raw))
	for symbol, price := range raw {
		adjusted[symbol] = price * (1 + markup/100)
	}

	p.mu.Lock()
	p.cached = adjusted
	p.cachedAt = p.now()
	p.mu.Unlock()

	p.logger.Debug("price cache refreshed",
		zap.Int("assets", len(adjusted)),
		zap.Float64("markupPercent", markup))

	return adjusted
}

func copyPrices(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// StaticMarkup is a MarkupSource with a fixed percentage, used when no
// settings store is wired in.
type StaticMarkup float64

func (m StaticMarkup) MarkupPercent(context.Context) float64 {
	return float64(m)
}
