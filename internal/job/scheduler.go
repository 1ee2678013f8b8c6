package job

import (
	"fmt"
	"strconv"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Submitter is where the scheduler sends the jobs it triggers.
type Submitter interface {
	Submit(kind domain.JobKind, payload domain.JobPayload) (uuid.UUID, error)
}

// Schedule holds standard five-field cron expressions, evaluated in UTC.
type Schedule struct {
	Hourly       string
	Daily        string
	Historical   string
	Notification string
}

// DefaultSchedule runs the daily valuation at dailyHour UTC and the
// notification sweep half an hour later.
func DefaultSchedule(dailyHour int) Schedule {
	h := strconv.Itoa(dailyHour)
	return Schedule{
		Hourly:       "0 * * * *",
		Daily:        "0 " + h + " * * *",
		Historical:   "0 */6 * * *",
		Notification: "30 " + h + " * * *",
	}
}

// Scheduler turns wall-clock ticks and manual requests into submitted jobs.
type Scheduler struct {
	cron      *cron.Cron
	submitter Submitter
	log       zerolog.Logger
}

func NewScheduler(submitter Submitter, schedule Schedule, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		submitter: submitter,
		log:       log.With().Str("component", "scheduler").Logger(),
	}

	entries := []struct {
		name    string
		spec    string
		kind    domain.JobKind
		trigger domain.TriggerType
	}{
		{"hourly-valuation", schedule.Hourly, domain.JobValuation, domain.TriggerHourly},
		{"daily-valuation", schedule.Daily, domain.JobValuation, domain.TriggerDaily},
		{"historical-refresh", schedule.Historical, domain.JobHistoricalRefresh, domain.TriggerPeriodic},
		{"notification-sweep", schedule.Notification, domain.JobNotificationSweep, domain.TriggerDaily},
	}
	for _, e := range entries {
		if e.spec == "" {
			s.log.Warn().Str("job", e.name).Msg("no schedule configured, trigger disabled")
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, s.fire(e.name, e.kind, e.trigger)); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", e.name, e.spec, err)
		}
		s.log.Info().Str("job", e.name).Str("schedule", e.spec).Msg("trigger registered")
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop halts the cron loop and waits for in-flight triggers to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// TriggerManual enqueues a valuation of one portfolio.
func (s *Scheduler) TriggerManual(portfolioID uuid.UUID) (uuid.UUID, error) {
	id := portfolioID
	return s.submitter.Submit(domain.JobValuation, domain.JobPayload{
		PortfolioID: &id,
		TriggerType: domain.TriggerManual,
	})
}

func (s *Scheduler) fire(name string, kind domain.JobKind, trigger domain.TriggerType) func() {
	return func() {
		id, err := s.submitter.Submit(kind, domain.JobPayload{TriggerType: trigger})
		if err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("failed to enqueue scheduled job")
			return
		}
		s.log.Info().Str("job", name).Str("job_id", id.String()).Msg("scheduled job enqueued")
	}
}
