package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/flowgen-ai/gateway/internal/gateway/cache"
)

// FallbackReferencePriceUSD is used whenever the market source cannot produce
// a live price. It keeps every quote positive and usable.
const FallbackReferencePriceUSD = 0.305

// paymentTokens are the tokens a quote covers. S and wS track the reference
// price; USDC.e is pegged to the dollar.
var paymentTokens = []struct {
	symbol string
	stable bool
}{
	{symbol: "S"},
	{symbol: "wS"},
	{symbol: "USDC.e", stable: true},
}

// Service converts USD-denominated service prices into token amounts. It
// never fails: a dead market source degrades to the fallback constant, a dead
// cache degrades to recomputation.
type Service struct {
	source MarketPriceSource
	store  cache.Store
	ttl    time.Duration
	group  singleflight.Group

	now func() time.Time
}

// New creates a quote service with the given market source, cache and TTL.
func New(source MarketPriceSource, store cache.Store, ttl time.Duration) *Service {
	return &Service{
		source: source,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetQuote returns a quote for req, from cache when fresh. Concurrent misses
// for the same key are coalesced into a single market lookup.
func (s *Service) GetQuote(ctx context.Context, req Request) *Quote {
	key := req.CacheKey()

	if cached, ok := s.store.Get(ctx, key); ok {
		var quote Quote
		if err := json.Unmarshal(cached, &quote); err == nil {
			return &quote
		}
		log.Printf("pricing: discarding unreadable cache entry %s", key)
	}

	result, _, _ := s.group.Do(key, func() (interface{}, error) {
		quote := s.computeQuote(ctx, req)

		if data, err := json.Marshal(quote); err == nil {
			s.store.Set(ctx, key, data, s.ttl)
		}
		return quote, nil
	})

	return result.(*Quote)
}

func (s *Service) computeQuote(ctx context.Context, req Request) *Quote {
	source := SourceLive
	refPrice, err := s.source.ReferenceTokenPriceUSD(ctx)
	if err != nil || refPrice <= 0 {
		if err != nil {
			log.Printf("pricing: market source failed, using fallback: %v", err)
		}
		source = SourceFallback
		refPrice = FallbackReferencePriceUSD
	}

	return &Quote{
		Network: req.Network,
		Pricing: Pricing{
			Image: buildTier(req.ImageUSD, refPrice),
			Video: buildTier(req.VideoUSD, refPrice),
		},
		Source:    source,
		Timestamp: s.now().UnixMilli(),
	}
}

func buildTier(targetUSD, refPrice float64) Tier {
	tier := Tier{USD: targetUSD}

	for _, token := range paymentTokens {
		price := refPrice
		if token.stable {
			price = 1.0
		}

		amount := targetUSD / price
		formatted := formatAmount(amount)

		tier.Options = append(tier.Options, TokenOption{
			Token:           token.symbol,
			Amount:          amount,
			AmountFormatted: formatted,
			PricePerToken:   price,
			Summary:         fmt.Sprintf("%s %s for $%s", formatted, token.symbol, formatAmount(targetUSD)),
		})
	}

	return tier
}
