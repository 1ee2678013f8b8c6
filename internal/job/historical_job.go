package job

import (
	"context"
	"fmt"

	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const historicalRefreshDays = 30

type HistoryRefresher interface {
	Refresh(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error)
}

// HistoricalRefreshJob re-caches the 30 day series of every asset held in
// any portfolio. Per-asset failures are counted, not returned.
type HistoricalRefreshJob struct {
	tracer     trace.Tracer
	portfolios PortfolioLoader
	history    HistoryRefresher
	log        zerolog.Logger
}

func NewHistoricalRefreshJob(tracer trace.Tracer, portfolios PortfolioLoader, history HistoryRefresher, log zerolog.Logger) *HistoricalRefreshJob {
	return &HistoricalRefreshJob{
		tracer:     tracer,
		portfolios: portfolios,
		history:    history,
		log:        log.With().Str("component", "historical-job").Logger(),
	}
}

func (j *HistoricalRefreshJob) Run(ctx context.Context, _ domain.Job) (domain.JobResult, error) {
	ctx, span := j.tracer.Start(ctx, "historical-job.run")
	defer span.End()

	portfolios, err := j.portfolios.ListPortfolios(ctx)
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("list portfolios: %w", err)
	}

	assets := domain.DistinctAssets(portfolios)
	cached, failed := 0, 0
	for _, ref := range assets {
		if _, err := j.history.Refresh(ctx, ref, historicalRefreshDays); err != nil {
			failed++
			j.log.Warn().Err(err).Str("asset", ref.Key()).Msg("historical refresh failed")
			continue
		}
		cached++
	}
	span.SetAttributes(attribute.Int("cached", cached), attribute.Int("errors", failed))

	return domain.JobResult{
		Message: "Historical data cache updated",
		Counts: map[string]int{
			"cached": cached,
			"errors": failed,
			"total":  len(assets),
		},
	}, nil
}
