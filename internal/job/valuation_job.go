package job

import (
	"context"
	"errors"
	"fmt"

	"portfolio-tracker/internal/domain"
	"portfolio-tracker/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PortfolioLoader interface {
	FindPortfolio(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error)
	ListPortfolios(ctx context.Context) ([]*domain.Portfolio, error)
}

type BatchValuator interface {
	ValuateAll(ctx context.Context, portfolios []*domain.Portfolio, trigger domain.TriggerType) service.ValuationBatch
}

// ValuationJob values one portfolio (when the payload names it) or all of them.
type ValuationJob struct {
	tracer     trace.Tracer
	portfolios PortfolioLoader
	engine     BatchValuator
	log        zerolog.Logger
}

func NewValuationJob(tracer trace.Tracer, portfolios PortfolioLoader, engine BatchValuator, log zerolog.Logger) *ValuationJob {
	return &ValuationJob{
		tracer:     tracer,
		portfolios: portfolios,
		engine:     engine,
		log:        log.With().Str("component", "valuation-job").Logger(),
	}
}

func (j *ValuationJob) Run(ctx context.Context, job domain.Job) (domain.JobResult, error) {
	ctx, span := j.tracer.Start(ctx, "valuation-job.run")
	defer span.End()

	portfolios, err := loadPortfolios(ctx, j.portfolios, job.Payload.PortfolioID)
	if err != nil {
		return domain.JobResult{}, err
	}
	if len(portfolios) == 0 {
		j.log.Info().Msg("no portfolios found to value")
		return domain.JobResult{Message: "No portfolios found"}, nil
	}

	batch := j.engine.ValuateAll(ctx, portfolios, job.Payload.TriggerType)
	span.SetAttributes(attribute.Int("valuations", len(batch.Snapshots)), attribute.Int("failed", len(batch.Failures)))

	// A single manual valuation has nothing to isolate the failure from.
	if job.Payload.PortfolioID != nil && len(batch.Snapshots) == 0 && len(batch.Failures) > 0 {
		return domain.JobResult{}, batch.Err()
	}

	return domain.JobResult{
		Message: fmt.Sprintf("Valuated %d portfolio(s)", len(batch.Snapshots)),
		Counts: map[string]int{
			"valuations": len(batch.Snapshots),
			"failed":     len(batch.Failures),
		},
	}, nil
}

// loadPortfolios returns the named portfolio or all of them. A named portfolio
// deleted after its job was queued yields an empty set.
func loadPortfolios(ctx context.Context, loader PortfolioLoader, id *uuid.UUID) ([]*domain.Portfolio, error) {
	if id != nil {
		p, err := loader.FindPortfolio(ctx, *id)
		if errors.Is(err, domain.ErrPortfolioNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load portfolio %s: %w", *id, err)
		}
		return []*domain.Portfolio{p}, nil
	}
	portfolios, err := loader.ListPortfolios(ctx)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	return portfolios, nil
}
