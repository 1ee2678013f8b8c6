package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultValuationHistoryLimit = 30
	maxValuationHistoryLimit     = 500
)

const valuationColumns = `id, portfolio_id, total_value::text, total_cost::text, total_gain_loss::text,
total_gain_loss_percent::text, holdings, trigger_type, created_at`

type ValuationRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewValuationRepository(pool PgxPool, tracer trace.Tracer) *ValuationRepository {
	return &ValuationRepository{pool: pool, tracer: tracer}
}

// SaveValuation inserts an immutable snapshot.
func (r *ValuationRepository) SaveValuation(ctx context.Context, v *domain.ValuationSnapshot) error {
	ctx, span := r.tracer.Start(ctx, "valuation-repo.save")
	defer span.End()

	if v == nil {
		return errors.New("save valuation: nil snapshot")
	}
	span.SetAttributes(attribute.String("portfolio.id", v.PortfolioID.String()))

	holdings, err := json.Marshal(v.Holdings)
	if err != nil {
		return fmt.Errorf("encode valuation holdings: %w", err)
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO valuations (id, portfolio_id, total_value, total_cost, total_gain_loss,
		     total_gain_loss_percent, holdings, trigger_type, created_at)
		 VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::jsonb, $8, $9)`,
		v.ID, v.PortfolioID,
		v.TotalValue.String(), v.TotalCost.String(), v.TotalGainLoss.String(), v.TotalGainLossPct.String(),
		holdings, string(v.TriggerType), v.Timestamp,
	)
	return storeError("save valuation", err)
}

// LatestValuation returns the newest snapshot, or nil without error when the
// portfolio has none.
func (r *ValuationRepository) LatestValuation(ctx context.Context, portfolioID uuid.UUID) (*domain.ValuationSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "valuation-repo.latest")
	defer span.End()
	span.SetAttributes(attribute.String("portfolio.id", portfolioID.String()))

	row := r.pool.QueryRow(ctx,
		`SELECT `+valuationColumns+` FROM valuations
		 WHERE portfolio_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, portfolioID)
	v, err := scanValuation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListValuations returns up to limit snapshots, newest first.
func (r *ValuationRepository) ListValuations(ctx context.Context, portfolioID uuid.UUID, limit int) ([]*domain.ValuationSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "valuation-repo.list")
	defer span.End()

	limit = clampLimit(limit)
	span.SetAttributes(attribute.String("portfolio.id", portfolioID.String()), attribute.Int("limit", limit))

	rows, err := r.pool.Query(ctx,
		`SELECT `+valuationColumns+` FROM valuations
		 WHERE portfolio_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, portfolioID, limit)
	if err != nil {
		return nil, storeError("list valuations", err)
	}
	defer rows.Close()

	out := make([]*domain.ValuationSnapshot, 0, limit)
	for rows.Next() {
		v, err := scanValuation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list valuations", err)
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultValuationHistoryLimit
	}
	if limit > maxValuationHistoryLimit {
		return maxValuationHistoryLimit
	}
	return limit
}

func scanValuation(row scanner) (*domain.ValuationSnapshot, error) {
	var (
		v                          domain.ValuationSnapshot
		value, cost, gain, gainPct string
		holdings                   []byte
		trigger                    string
	)
	err := row.Scan(&v.ID, &v.PortfolioID, &value, &cost, &gain, &gainPct, &holdings, &trigger, &v.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storeError("scan valuation", err)
	}
	if err := decimalColumns(
		[]string{value, cost, gain, gainPct},
		&v.TotalValue, &v.TotalCost, &v.TotalGainLoss, &v.TotalGainLossPct,
	); err != nil {
		return nil, fmt.Errorf("valuation %s: %w", v.ID, err)
	}
	v.Holdings = []domain.HoldingValuation{}
	if len(holdings) > 0 {
		if err := json.Unmarshal(holdings, &v.Holdings); err != nil {
			return nil, fmt.Errorf("decode valuation %s holdings: %w", v.ID, err)
		}
	}
	v.TriggerType = domain.TriggerType(trigger)
	v.Timestamp = v.Timestamp.UTC()
	return &v, nil
}
