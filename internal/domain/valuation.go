package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// HoldingValuation is the priced breakdown of one holding inside a snapshot.
type HoldingValuation struct {
	Asset        AssetRef        `json:"asset"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	CostBasis    decimal.Decimal `json:"costBasis"`
	GainLoss     decimal.Decimal `json:"gainLoss"`
	GainLossPct  decimal.Decimal `json:"gainLossPercent"`
}

// ValuationSnapshot is an immutable, timestamped valuation of a portfolio.
type ValuationSnapshot struct {
	ID               uuid.UUID          `json:"id"`
	PortfolioID      uuid.UUID          `json:"portfolioId"`
	TotalValue       decimal.Decimal    `json:"totalValue"`
	TotalCost        decimal.Decimal    `json:"totalCost"`
	TotalGainLoss    decimal.Decimal    `json:"totalGainLoss"`
	TotalGainLossPct decimal.Decimal    `json:"totalGainLossPercent"`
	Holdings         []HoldingValuation `json:"holdings"`
	TriggerType      TriggerType        `json:"triggerType,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

// GainLossPercent returns gain/cost*100, or zero when cost is not positive.
func GainLossPercent(gain, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return gain.Div(cost).Mul(hundred)
}

// ValueHolding prices a single holding at price.
func ValueHolding(h Holding, price decimal.Decimal) HoldingValuation {
	value := h.Quantity.Mul(price)
	cost := h.Quantity.Mul(h.PurchasePrice)
	gain := value.Sub(cost)
	return HoldingValuation{
		Asset:        h.Asset.Normalize(),
		Quantity:     h.Quantity,
		CurrentPrice: price,
		CurrentValue: value,
		CostBasis:    cost,
		GainLoss:     gain,
		GainLossPct:  GainLossPercent(gain, cost),
	}
}

// NewValuationSnapshot aggregates priced holdings into a snapshot.
func NewValuationSnapshot(portfolioID uuid.UUID, holdings []HoldingValuation, trigger TriggerType, now time.Time) *ValuationSnapshot {
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, h := range holdings {
		totalValue = totalValue.Add(h.CurrentValue)
		totalCost = totalCost.Add(h.CostBasis)
	}
	if holdings == nil {
		holdings = []HoldingValuation{}
	}
	gain := totalValue.Sub(totalCost)
	return &ValuationSnapshot{
		ID:               uuid.New(),
		PortfolioID:      portfolioID,
		TotalValue:       totalValue,
		TotalCost:        totalCost,
		TotalGainLoss:    gain,
		TotalGainLossPct: GainLossPercent(gain, totalCost),
		Holdings:         holdings,
		TriggerType:      trigger,
		Timestamp:        now.UTC(),
	}
}
