package job

import (
	"context"
	"fmt"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type LatestValuationReader interface {
	LatestValuation(ctx context.Context, portfolioID uuid.UUID) (*domain.ValuationSnapshot, error)
}

type Evaluator interface {
	Evaluate(p *domain.Portfolio, snapshot *domain.ValuationSnapshot) *domain.Notification
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.log.Info().
		Str("portfolio_id", note.PortfolioID.String()).
		Str("user_id", note.UserID).
		Str("type", string(note.Kind)).
		Str("gain_loss_pct", note.TotalGainLossPct.StringFixed(2)).
		Msg(note.Message)
	return nil
}

// NotificationSweepJob checks each portfolio's latest snapshot against the
// alert thresholds. Portfolios that were never valued are skipped.
type NotificationSweepJob struct {
	tracer     trace.Tracer
	portfolios PortfolioLoader
	valuations LatestValuationReader
	evaluator  Evaluator
	notifier   Notifier
	log        zerolog.Logger
}

func NewNotificationSweepJob(
	tracer trace.Tracer,
	portfolios PortfolioLoader,
	valuations LatestValuationReader,
	evaluator Evaluator,
	notifier Notifier,
	log zerolog.Logger,
) *NotificationSweepJob {
	return &NotificationSweepJob{
		tracer:     tracer,
		portfolios: portfolios,
		valuations: valuations,
		evaluator:  evaluator,
		notifier:   notifier,
		log:        log.With().Str("component", "notification-job").Logger(),
	}
}

func (j *NotificationSweepJob) Run(ctx context.Context, job domain.Job) (domain.JobResult, error) {
	ctx, span := j.tracer.Start(ctx, "notification-job.run")
	defer span.End()

	portfolios, err := loadPortfolios(ctx, j.portfolios, job.Payload.PortfolioID)
	if err != nil {
		return domain.JobResult{}, err
	}
	if len(portfolios) == 0 {
		return domain.JobResult{Message: "No portfolios found"}, nil
	}

	sent := 0
	for _, p := range portfolios {
		latest, err := j.valuations.LatestValuation(ctx, p.ID)
		if err != nil {
			return domain.JobResult{}, fmt.Errorf("latest valuation for %s: %w", p.ID, err)
		}
		if latest == nil {
			continue
		}
		note := j.evaluator.Evaluate(p, latest)
		if note == nil {
			continue
		}
		if err := j.notifier.Notify(ctx, *note); err != nil {
			j.log.Warn().Err(err).Str("portfolio_id", p.ID.String()).Msg("notification delivery failed")
			continue
		}
		sent++
	}
	span.SetAttributes(attribute.Int("notifications", sent))

	return domain.JobResult{
		Message: fmt.Sprintf("Processed %d notification(s)", sent),
		Counts:  map[string]int{"notifications": sent},
	}, nil
}
