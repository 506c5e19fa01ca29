package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	price float64
	err   error
	calls int
}

func (s *stubSource) ReferenceTokenPriceUSD(context.Context) (float64, error) {
	s.calls++
	return s.price, s.err
}

// clockedStore honors insertion-time TTLs against an adjustable clock, like
// the in-memory cache does against the real one.
type clockedStore struct {
	entries map[string]clockedEntry
	clock   *time.Time
}

type clockedEntry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

func newClockedStore(clock *time.Time) *clockedStore {
	return &clockedStore{entries: make(map[string]clockedEntry), clock: clock}
}

func (s *clockedStore) Get(_ context.Context, key string) ([]byte, bool) {
	entry, ok := s.entries[key]
	if !ok || s.clock.Sub(entry.insertedAt) > entry.ttl {
		return nil, false
	}
	return entry.value, true
}

func (s *clockedStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.entries[key] = clockedEntry{value: value, insertedAt: *s.clock, ttl: ttl}
}

func TestGetQuoteFallbackWhenSourceFails(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	source := &stubSource{err: ErrUnavailable}
	svc := New(source, newClockedStore(&clock), 3*time.Minute)

	req, err := ParseRequest("testnet", "1", "2", false)
	require.NoError(t, err)

	quote := svc.GetQuote(ctx, req)
	assert.Equal(t, SourceFallback, quote.Source)
	assert.Equal(t, "testnet", quote.Network)

	ws := findOption(t, quote.Pricing.Image, "wS")
	assert.Equal(t, 0.305, ws.PricePerToken)
	assert.Equal(t, 1/0.305, ws.Amount)

	// Every token keeps a positive price even with the source down
	for _, tier := range []Tier{quote.Pricing.Image, quote.Pricing.Video} {
		for _, opt := range tier.Options {
			assert.Greater(t, opt.PricePerToken, 0.0)
			assert.Equal(t, tier.USD/opt.PricePerToken, opt.Amount)
		}
	}
}

func TestGetQuoteLiveSource(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	source := &stubSource{price: 0.42}
	svc := New(source, newClockedStore(&clock), 3*time.Minute)

	req, _ := ParseRequest("", "", "", false)
	quote := svc.GetQuote(ctx, req)

	assert.Equal(t, SourceLive, quote.Source)

	ws := findOption(t, quote.Pricing.Image, "wS")
	assert.Equal(t, 0.42, ws.PricePerToken)

	s := findOption(t, quote.Pricing.Video, "S")
	assert.Equal(t, 0.42, s.PricePerToken)
	assert.Equal(t, 2/0.42, s.Amount)

	usdc := findOption(t, quote.Pricing.Image, "USDC.e")
	assert.Equal(t, 1.0, usdc.PricePerToken)
	assert.Equal(t, 1.0, usdc.Amount)
}

func TestGetQuoteCachedWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	source := &stubSource{price: 0.42}
	svc := New(source, newClockedStore(&clock), 3*time.Minute)

	req, _ := ParseRequest("mainnet", "1", "2", false)

	first := svc.GetQuote(ctx, req)
	clock = clock.Add(time.Minute)
	second := svc.GetQuote(ctx, req)

	assert.Equal(t, 1, source.calls, "market source should be consulted once within the TTL")
	assert.Equal(t, first, second)
}

func TestGetQuoteRecomputedAfterTTL(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	source := &stubSource{price: 0.42}
	svc := New(source, newClockedStore(&clock), 3*time.Minute)

	req, _ := ParseRequest("mainnet", "1", "2", false)

	svc.GetQuote(ctx, req)
	clock = clock.Add(3*time.Minute + time.Second)
	svc.GetQuote(ctx, req)

	assert.Equal(t, 2, source.calls, "stale entry should trigger a fresh market lookup")
}

func TestGetQuoteFallbackIsAlsoCached(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	source := &stubSource{err: ErrUnavailable}
	svc := New(source, newClockedStore(&clock), 3*time.Minute)

	req, _ := ParseRequest("mainnet", "1", "2", false)

	first := svc.GetQuote(ctx, req)
	second := svc.GetQuote(ctx, req)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, SourceFallback, second.Source)
	assert.Equal(t, first, second)
}

func TestGetQuoteDistinctKeysComputedSeparately(t *testing.T) {
	ctx := context.Background()
	clock := time.Unix(1700000000, 0)
	source := &stubSource{price: 0.42}
	svc := New(source, newClockedStore(&clock), 3*time.Minute)

	mainnet, _ := ParseRequest("mainnet", "1", "2", false)
	testnet, _ := ParseRequest("testnet", "1", "2", false)

	svc.GetQuote(ctx, mainnet)
	svc.GetQuote(ctx, testnet)

	assert.Equal(t, 2, source.calls)
}

func findOption(t *testing.T, tier Tier, symbol string) TokenOption {
	t.Helper()
	for _, opt := range tier.Options {
		if opt.Token == symbol {
			return opt
		}
	}
	t.Fatalf("token %s not found in tier", symbol)
	return TokenOption{}
}
