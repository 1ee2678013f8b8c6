package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const holdingColumns = `id, portfolio_id, asset_type, symbol, quantity::text, purchase_price::text, purchase_date`

type PortfolioRepository struct {
	pool   PgxPool
	tracer trace.Tracer
	now    func() time.Time
}

func NewPortfolioRepository(pool PgxPool, tracer trace.Tracer) *PortfolioRepository {
	return &PortfolioRepository{pool: pool, tracer: tracer, now: time.Now}
}

func (r *PortfolioRepository) FindPortfolio(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	ctx, span := r.tracer.Start(ctx, "portfolio-repo.find")
	defer span.End()
	span.SetAttributes(attribute.String("portfolio.id", id.String()))

	p := &domain.Portfolio{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, user_id, created_at, updated_at FROM portfolios WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrPortfolioNotFound, id)
	}
	if err != nil {
		return nil, storeError("find portfolio", err)
	}

	holdings, err := r.holdings(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE portfolio_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	p.Holdings = holdings[id]
	if p.Holdings == nil {
		p.Holdings = []domain.Holding{}
	}
	return p, nil
}

// ListPortfolios returns every portfolio with its holdings, oldest first.
func (r *PortfolioRepository) ListPortfolios(ctx context.Context) ([]*domain.Portfolio, error) {
	ctx, span := r.tracer.Start(ctx, "portfolio-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, user_id, created_at, updated_at FROM portfolios ORDER BY created_at, id`)
	if err != nil {
		return nil, storeError("list portfolios", err)
	}
	var portfolios []*domain.Portfolio
	for rows.Next() {
		p := &domain.Portfolio{Holdings: []domain.Holding{}}
		if err := rows.Scan(&p.ID, &p.Name, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, storeError("scan portfolio", err)
		}
		portfolios = append(portfolios, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeError("list portfolios", err)
	}
	if len(portfolios) == 0 {
		return portfolios, nil
	}

	holdings, err := r.holdings(ctx,
		`SELECT `+holdingColumns+` FROM holdings ORDER BY portfolio_id, position`)
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		if hs, ok := holdings[p.ID]; ok {
			p.Holdings = hs
		}
	}
	span.SetAttributes(attribute.Int("portfolios", len(portfolios)))
	return portfolios, nil
}

// SavePortfolio upserts p and replaces its holdings in one transaction.
// UpdatedAt is advanced before writing.
func (r *PortfolioRepository) SavePortfolio(ctx context.Context, p *domain.Portfolio) error {
	ctx, span := r.tracer.Start(ctx, "portfolio-repo.save")
	defer span.End()

	if p == nil {
		return domain.ErrInvalidPortfolio
	}
	if err := p.Validate(); err != nil {
		return err
	}
	span.SetAttributes(attribute.String("portfolio.id", p.ID.String()), attribute.Int("holdings", len(p.Holdings)))

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	p.Touch(r.now())

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("begin save portfolio", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO portfolios (id, name, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     user_id = EXCLUDED.user_id,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.UserID, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return storeError("upsert portfolio", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE portfolio_id = $1`, p.ID); err != nil {
		return storeError("clear holdings", err)
	}

	if len(p.Holdings) > 0 {
		batch := &pgx.Batch{}
		for i, h := range p.Holdings {
			batch.Queue(
				`INSERT INTO holdings (id, portfolio_id, position, asset_type, symbol, quantity, purchase_price, purchase_date)
				 VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)`,
				h.ID, p.ID, i, string(h.Asset.Type), h.Asset.Symbol,
				h.Quantity.String(), h.PurchasePrice.String(), h.PurchaseDate,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range p.Holdings {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return storeError("insert holding", err)
			}
		}
		if err := br.Close(); err != nil {
			return storeError("insert holdings", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storeError("commit save portfolio", err)
	}
	return nil
}

func (r *PortfolioRepository) holdings(ctx context.Context, sql string, args ...any) (map[uuid.UUID][]domain.Holding, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeError("query holdings", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Holding)
	for rows.Next() {
		portfolioID, h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out[portfolioID] = append(out[portfolioID], h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("query holdings", err)
	}
	return out, nil
}

func scanHolding(row scanner) (uuid.UUID, domain.Holding, error) {
	var (
		h           domain.Holding
		portfolioID uuid.UUID
		assetType   string
		qty, price  string
	)
	if err := row.Scan(&h.ID, &portfolioID, &assetType, &h.Asset.Symbol, &qty, &price, &h.PurchaseDate); err != nil {
		return uuid.Nil, domain.Holding{}, storeError("scan holding", err)
	}
	h.Asset.Type = domain.AssetType(assetType)
	if err := decimalColumns([]string{qty, price}, &h.Quantity, &h.PurchasePrice); err != nil {
		return uuid.Nil, domain.Holding{}, fmt.Errorf("holding %s: %w", h.ID, err)
	}
	h.PurchaseDate = h.PurchaseDate.UTC()
	return portfolioID, h, nil
}
