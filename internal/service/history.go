package service

import (
	"context"
	"fmt"
	"time"

	"portfolio-tracker/internal/cache"
	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultHistoryDays = 30

type SeriesResolver interface {
	Series(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error)
}

type HistoryService struct {
	tracer   trace.Tracer
	resolver SeriesResolver
	cache    *cache.Cache
	ttl      time.Duration
	log      zerolog.Logger
}

func NewHistoryService(tracer trace.Tracer, resolver SeriesResolver, c *cache.Cache, ttl time.Duration, log zerolog.Logger) *HistoryService {
	if c == nil {
		c = cache.New(nil, log)
	}
	if ttl <= 0 {
		ttl = cache.HistoricalTTL
	}
	return &HistoryService{
		tracer:   tracer,
		resolver: resolver,
		cache:    c,
		ttl:      ttl,
		log:      log.With().Str("component", "history").Logger(),
	}
}

// Fetch returns the series for ref over days, served from cache when present.
func (s *HistoryService) Fetch(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error) {
	ctx, span := s.tracer.Start(ctx, "history.fetch")
	defer span.End()

	ref, days, err := normalizeSeriesRequest(ref, days)
	if err != nil {
		return domain.HistoricalSeries{}, err
	}
	span.SetAttributes(attribute.String("asset", ref.Key()), attribute.Int("days", days))

	var cached domain.HistoricalSeries
	if s.cache.GetJSON(ctx, cache.HistoricalKey(ref, days), &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	return s.fetchAndStore(ctx, ref, days)
}

// Refresh always goes upstream and overwrites the cached series.
func (s *HistoryService) Refresh(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error) {
	ctx, span := s.tracer.Start(ctx, "history.refresh")
	defer span.End()

	ref, days, err := normalizeSeriesRequest(ref, days)
	if err != nil {
		return domain.HistoricalSeries{}, err
	}
	span.SetAttributes(attribute.String("asset", ref.Key()), attribute.Int("days", days))
	return s.fetchAndStore(ctx, ref, days)
}

func (s *HistoryService) fetchAndStore(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error) {
	series, err := s.resolver.Series(ctx, ref, days)
	if err != nil {
		return domain.HistoricalSeries{}, fmt.Errorf("historical series %s: %w", ref, err)
	}
	series.Asset = ref
	s.cache.SetJSON(ctx, cache.HistoricalKey(ref, days), series, s.ttl)
	s.log.Debug().Str("asset", ref.Key()).Int("days", days).Int("points", len(series.Points)).Msg("historical series cached")
	return series, nil
}

func normalizeSeriesRequest(ref domain.AssetRef, days int) (domain.AssetRef, int, error) {
	ref = ref.Normalize()
	if !ref.Type.IsValid() {
		return ref, 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedAssetType, ref.Type)
	}
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return ref, days, nil
}
