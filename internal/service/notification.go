package service

import (
	"fmt"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	DefaultLossThreshold = decimal.NewFromInt(-5)
	DefaultGainThreshold = decimal.NewFromInt(10)
)

// NotificationEvaluator decides whether a snapshot crosses an alert threshold.
// Both comparisons are strict.
type NotificationEvaluator struct {
	LossThreshold decimal.Decimal
	GainThreshold decimal.Decimal
	now           func() time.Time
}

func NewNotificationEvaluator(lossPct, gainPct float64) *NotificationEvaluator {
	return &NotificationEvaluator{
		LossThreshold: decimal.NewFromFloat(lossPct),
		GainThreshold: decimal.NewFromFloat(gainPct),
		now:           time.Now,
	}
}

// Evaluate returns nil when there is no snapshot or neither threshold is crossed.
func (e *NotificationEvaluator) Evaluate(p *domain.Portfolio, snapshot *domain.ValuationSnapshot) *domain.Notification {
	if p == nil || snapshot == nil {
		return nil
	}

	pct := snapshot.TotalGainLossPct
	var kind domain.NotificationKind
	var message string
	switch {
	case pct.LessThan(e.LossThreshold):
		kind = domain.NotificationLossAlert
		message = fmt.Sprintf("Portfolio %q has dropped %s%%", p.Name, pct.Abs().StringFixed(2))
	case pct.GreaterThan(e.GainThreshold):
		kind = domain.NotificationGainAlert
		message = fmt.Sprintf("Portfolio %q has gained %s%%", p.Name, pct.StringFixed(2))
	default:
		return nil
	}

	now := time.Now
	if e.now != nil {
		now = e.now
	}
	return &domain.Notification{
		PortfolioID:      p.ID,
		PortfolioName:    p.Name,
		UserID:           p.UserID,
		Kind:             kind,
		Message:          message,
		TotalValue:       snapshot.TotalValue,
		TotalGainLoss:    snapshot.TotalGainLoss,
		TotalGainLossPct: pct,
		CreatedAt:        now().UTC(),
	}
}
