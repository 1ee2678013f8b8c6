package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type JobKind string

const (
	JobValuation         JobKind = "valuation"
	JobHistoricalRefresh JobKind = "historical-refresh"
	JobNotificationSweep JobKind = "notification-sweep"
)

type TriggerType string

const (
	TriggerHourly   TriggerType = "scheduled-hourly"
	TriggerDaily    TriggerType = "scheduled-daily"
	TriggerPeriodic TriggerType = "scheduled-periodic"
	TriggerManual   TriggerType = "manual"
)

type JobStatus string

const (
	JobSubmitted JobStatus = "submitted"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobPayload scopes a job. A nil PortfolioID means every portfolio.
type JobPayload struct {
	PortfolioID *uuid.UUID  `json:"portfolioId,omitempty"`
	TriggerType TriggerType `json:"triggerType"`
}

type Job struct {
	ID          uuid.UUID  `json:"id"`
	Kind        JobKind    `json:"kind"`
	Payload     JobPayload `json:"payload"`
	SubmittedAt time.Time  `json:"submittedAt"`
}

// JobResult is the summary a finished job reports back.
type JobResult struct {
	Message string         `json:"message"`
	Counts  map[string]int `json:"counts,omitempty"`
}

// JobRecord tracks a job through its lifecycle.
type JobRecord struct {
	Job        Job        `json:"job"`
	Status     JobStatus  `json:"status"`
	Result     *JobResult `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type NotificationKind string

const (
	NotificationLossAlert NotificationKind = "loss_alert"
	NotificationGainAlert NotificationKind = "gain_alert"
)

// Notification is the decision and message payload for a threshold crossing.
type Notification struct {
	PortfolioID      uuid.UUID        `json:"portfolioId"`
	PortfolioName    string           `json:"portfolioName"`
	UserID           string           `json:"userId"`
	Kind             NotificationKind `json:"type"`
	Message          string           `json:"message"`
	TotalValue       decimal.Decimal  `json:"totalValue"`
	TotalGainLoss    decimal.Decimal  `json:"totalGainLoss"`
	TotalGainLossPct decimal.Decimal  `json:"totalGainLossPercent"`
	CreatedAt        time.Time        `json:"timestamp"`
}
