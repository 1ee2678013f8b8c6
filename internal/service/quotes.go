package service

import (
	"context"
	"time"

	"portfolio-tracker/internal/cache"
	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type QuoteResolver interface {
	Resolve(ctx context.Context, ref domain.AssetRef) (domain.Quote, error)
}

// QuoteService reads quotes through the cache, falling back to the resolver
// on a miss and repopulating the entry.
type QuoteService struct {
	tracer   trace.Tracer
	resolver QuoteResolver
	cache    *cache.Cache
	ttl      time.Duration
	log      zerolog.Logger
}

func NewQuoteService(tracer trace.Tracer, resolver QuoteResolver, c *cache.Cache, ttl time.Duration, log zerolog.Logger) *QuoteService {
	if c == nil {
		c = cache.New(nil, log)
	}
	if ttl <= 0 {
		ttl = cache.QuoteTTL
	}
	return &QuoteService{
		tracer:   tracer,
		resolver: resolver,
		cache:    c,
		ttl:      ttl,
		log:      log.With().Str("component", "quotes").Logger(),
	}
}

// CurrentQuote returns the quote for ref and whether it came from the cache.
func (s *QuoteService) CurrentQuote(ctx context.Context, ref domain.AssetRef) (domain.Quote, bool, error) {
	ctx, span := s.tracer.Start(ctx, "quotes.current-quote")
	defer span.End()

	ref = ref.Normalize()
	if !ref.Type.IsValid() {
		return domain.Quote{}, false, domain.ErrUnsupportedAssetType
	}
	span.SetAttributes(attribute.String("asset", ref.Key()))

	key := cache.PriceKey(ref)
	var cached domain.Quote
	if s.cache.GetJSON(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, true, nil
	}

	q, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return domain.Quote{}, false, err
	}
	s.cache.SetJSON(ctx, key, q, s.ttl)
	return q, false, nil
}

// CurrentQuotes is CurrentQuote over a batch. Lookups run concurrently and
// the results keep input order.
func (s *QuoteService) CurrentQuotes(ctx context.Context, refs []domain.AssetRef) []QuoteResult {
	ctx, span := s.tracer.Start(ctx, "quotes.current-quotes")
	defer span.End()
	span.SetAttributes(attribute.Int("assets", len(refs)))

	results := make([]QuoteResult, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			q, cached, err := s.CurrentQuote(ctx, ref)
			results[i] = QuoteResult{Asset: ref.Normalize(), Quote: q, Cached: cached, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
