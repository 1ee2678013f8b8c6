package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultValuationConcurrency = 4

type QuoteSource interface {
	CurrentQuotes(ctx context.Context, refs []domain.AssetRef) []QuoteResult
}

type ValuationStore interface {
	SaveValuation(ctx context.Context, v *domain.ValuationSnapshot) error
}

// PortfolioFailure records a portfolio whose valuation did not produce a snapshot.
type PortfolioFailure struct {
	PortfolioID uuid.UUID
	Err         error
}

// ValuationBatch is the outcome of ValuateAll. Snapshots keep the input
// order of the portfolios that succeeded.
type ValuationBatch struct {
	Snapshots []*domain.ValuationSnapshot
	Failures  []PortfolioFailure
}

// Err joins every per-portfolio failure, or returns nil.
func (b ValuationBatch) Err() error {
	errs := make([]error, 0, len(b.Failures))
	for _, f := range b.Failures {
		errs = append(errs, fmt.Errorf("portfolio %s: %w", f.PortfolioID, f.Err))
	}
	return errors.Join(errs...)
}

// ValuationEngine prices portfolios and persists the resulting snapshots.
type ValuationEngine struct {
	tracer      trace.Tracer
	quotes      QuoteSource
	store       ValuationStore
	concurrency int
	log         zerolog.Logger
	now         func() time.Time
}

func NewValuationEngine(tracer trace.Tracer, quotes QuoteSource, store ValuationStore, concurrency int, log zerolog.Logger) *ValuationEngine {
	if concurrency <= 0 {
		concurrency = defaultValuationConcurrency
	}
	return &ValuationEngine{
		tracer:      tracer,
		quotes:      quotes,
		store:       store,
		concurrency: concurrency,
		log:         log.With().Str("component", "valuation").Logger(),
		now:         time.Now,
	}
}

// Valuate prices every holding of p and saves one snapshot. Holdings whose
// quote cannot be resolved are logged and left out of the totals. Only a
// store failure fails the call.
func (e *ValuationEngine) Valuate(ctx context.Context, p *domain.Portfolio, trigger domain.TriggerType) (*domain.ValuationSnapshot, error) {
	ctx, span := e.tracer.Start(ctx, "valuation.valuate")
	defer span.End()

	if p == nil {
		return nil, domain.ErrPortfolioNotFound
	}
	span.SetAttributes(
		attribute.String("portfolio.id", p.ID.String()),
		attribute.Int("holdings", len(p.Holdings)),
		attribute.String("trigger", string(trigger)),
	)

	refs := make([]domain.AssetRef, len(p.Holdings))
	for i, h := range p.Holdings {
		refs[i] = h.Asset
	}
	quotes := e.quotes.CurrentQuotes(ctx, refs)

	valued := make([]domain.HoldingValuation, 0, len(p.Holdings))
	skipped := 0
	for i, h := range p.Holdings {
		res := quotes[i]
		if res.Err != nil {
			skipped++
			e.log.Warn().
				Err(res.Err).
				Str("portfolio_id", p.ID.String()).
				Str("asset", h.Asset.Key()).
				Msg("skipping holding without price")
			continue
		}
		valued = append(valued, domain.ValueHolding(h, res.Quote.Price))
	}

	snapshot := domain.NewValuationSnapshot(p.ID, valued, trigger, e.now())
	if err := e.store.SaveValuation(ctx, snapshot); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("save valuation for portfolio %s: %w", p.ID, err)
	}

	e.log.Info().
		Str("portfolio_id", p.ID.String()).
		Str("total_value", snapshot.TotalValue.StringFixed(2)).
		Str("gain_loss_pct", snapshot.TotalGainLossPct.StringFixed(2)).
		Int("priced", len(valued)).
		Int("skipped", skipped).
		Msg("portfolio valuated")
	return snapshot, nil
}

// ValuateAll runs Valuate over portfolios with bounded concurrency. A failing
// portfolio is reported in the batch and never stops the others.
func (e *ValuationEngine) ValuateAll(ctx context.Context, portfolios []*domain.Portfolio, trigger domain.TriggerType) ValuationBatch {
	ctx, span := e.tracer.Start(ctx, "valuation.valuate-all")
	defer span.End()
	span.SetAttributes(attribute.Int("portfolios", len(portfolios)))

	snapshots := make([]*domain.ValuationSnapshot, len(portfolios))
	errs := make([]error, len(portfolios))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, p := range portfolios {
		g.Go(func() error {
			snapshots[i], errs[i] = e.Valuate(ctx, p, trigger)
			return nil
		})
	}
	_ = g.Wait()

	var batch ValuationBatch
	for i, p := range portfolios {
		if errs[i] != nil {
			var id uuid.UUID
			if p != nil {
				id = p.ID
			}
			e.log.Error().Err(errs[i]).Str("portfolio_id", id.String()).Msg("portfolio valuation failed")
			batch.Failures = append(batch.Failures, PortfolioFailure{PortfolioID: id, Err: errs[i]})
			continue
		}
		batch.Snapshots = append(batch.Snapshots, snapshots[i])
	}
	span.SetAttributes(attribute.Int("failed", len(batch.Failures)))
	return batch
}
