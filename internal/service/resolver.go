package service

import (
	"context"
	"fmt"

	"portfolio-tracker/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// CryptoProvider is the market-data source for crypto assets.
type CryptoProvider interface {
	FetchQuote(ctx context.Context, symbol string) (domain.Quote, error)
	FetchMarketChart(ctx context.Context, symbol string, days int) (domain.HistoricalSeries, error)
}

// StockProvider is the quotes source for equities.
type StockProvider interface {
	FetchQuote(ctx context.Context, symbol string) (domain.Quote, error)
	FetchChart(ctx context.Context, symbol string, days int) (domain.HistoricalSeries, error)
}

// QuoteResult is one element of a batch resolution. Exactly one of Quote
// and Err is meaningful.
type QuoteResult struct {
	Asset  domain.AssetRef
	Quote  domain.Quote
	Cached bool
	Err    error
}

// Resolver dispatches price lookups to the provider for an asset's type.
type Resolver struct {
	tracer trace.Tracer
	crypto CryptoProvider
	stock  StockProvider
}

func NewResolver(tracer trace.Tracer, crypto CryptoProvider, stock StockProvider) *Resolver {
	return &Resolver{tracer: tracer, crypto: crypto, stock: stock}
}

// Resolve fetches a live quote. It is a single upstream call with no retry.
func (r *Resolver) Resolve(ctx context.Context, ref domain.AssetRef) (domain.Quote, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("asset", ref.Key()))

	switch ref.Type {
	case domain.AssetTypeCrypto:
		if r.crypto == nil {
			return domain.Quote{}, fmt.Errorf("%w: no crypto provider", domain.ErrProviderUnavailable)
		}
		return r.crypto.FetchQuote(ctx, ref.Symbol)
	case domain.AssetTypeStock:
		if r.stock == nil {
			return domain.Quote{}, fmt.Errorf("%w: no stock provider", domain.ErrProviderUnavailable)
		}
		return r.stock.FetchQuote(ctx, ref.Symbol)
	default:
		return domain.Quote{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedAssetType, ref.Type)
	}
}

// ResolveMany resolves refs concurrently. Results keep input order and every
// element succeeds or fails on its own.
func (r *Resolver) ResolveMany(ctx context.Context, refs []domain.AssetRef) []QuoteResult {
	ctx, span := r.tracer.Start(ctx, "resolver.resolve-many")
	defer span.End()
	span.SetAttributes(attribute.Int("assets", len(refs)))

	results := make([]QuoteResult, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			q, err := r.Resolve(ctx, ref)
			results[i] = QuoteResult{Asset: ref, Quote: q, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Series fetches a historical price series. Stock windows are rounded up to
// the provider's discrete ranges.
func (r *Resolver) Series(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.series")
	defer span.End()
	span.SetAttributes(attribute.String("asset", ref.Key()), attribute.Int("days", days))

	switch ref.Type {
	case domain.AssetTypeCrypto:
		if r.crypto == nil {
			return domain.HistoricalSeries{}, fmt.Errorf("%w: no crypto provider", domain.ErrProviderUnavailable)
		}
		return r.crypto.FetchMarketChart(ctx, ref.Symbol, days)
	case domain.AssetTypeStock:
		if r.stock == nil {
			return domain.HistoricalSeries{}, fmt.Errorf("%w: no stock provider", domain.ErrProviderUnavailable)
		}
		return r.stock.FetchChart(ctx, ref.Symbol, days)
	default:
		return domain.HistoricalSeries{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedAssetType, ref.Type)
	}
}
