package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is a quantity of one asset owned within a portfolio.
type Holding struct {
	ID            uuid.UUID       `json:"id"`
	Asset         AssetRef        `json:"asset"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  time.Time       `json:"purchaseDate"`
}

// Validate enforces the quantity and purchase price invariants.
func (h Holding) Validate() error {
	if !h.Asset.Type.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidHolding, ErrUnsupportedAssetType, h.Asset.Type)
	}
	if strings.TrimSpace(h.Asset.Symbol) == "" {
		return fmt.Errorf("%w: %w: symbol is required", ErrInvalidHolding, ErrInvalidAsset)
	}
	if h.Quantity.IsNegative() {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidHolding)
	}
	if h.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: purchase price must be >= 0", ErrInvalidHolding)
	}
	return nil
}

// Portfolio is an ordered collection of holdings owned by one user.
type Portfolio struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	Holdings  []Holding `json:"holdings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPortfolio returns an empty portfolio with fresh id and timestamps.
func NewPortfolio(name, userID string, now time.Time) *Portfolio {
	now = now.UTC()
	return &Portfolio{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		UserID:    strings.TrimSpace(userID),
		Holdings:  []Holding{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Portfolio) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPortfolio)
	}
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidPortfolio)
	}
	for _, h := range p.Holdings {
		if err := h.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Touch advances UpdatedAt. It never moves backwards, even if the clock does.
func (p *Portfolio) Touch(now time.Time) {
	now = now.UTC()
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = now
}

// AddHolding validates h, assigns an id if missing and appends it.
func (p *Portfolio) AddHolding(h Holding, now time.Time) (Holding, error) {
	h.Asset = h.Asset.Normalize()
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.PurchaseDate.IsZero() {
		h.PurchaseDate = now.UTC()
	}
	if err := h.Validate(); err != nil {
		return Holding{}, err
	}
	p.Holdings = append(p.Holdings, h)
	p.Touch(now)
	return h, nil
}

// UpdateHolding replaces the holding with the same id, keeping its position.
func (p *Portfolio) UpdateHolding(h Holding, now time.Time) error {
	h.Asset = h.Asset.Normalize()
	if err := h.Validate(); err != nil {
		return err
	}
	for i := range p.Holdings {
		if p.Holdings[i].ID == h.ID {
			if h.PurchaseDate.IsZero() {
				h.PurchaseDate = p.Holdings[i].PurchaseDate
			}
			p.Holdings[i] = h
			p.Touch(now)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHoldingNotFound, h.ID)
}

func (p *Portfolio) RemoveHolding(id uuid.UUID, now time.Time) error {
	for i := range p.Holdings {
		if p.Holdings[i].ID == id {
			p.Holdings = append(p.Holdings[:i], p.Holdings[i+1:]...)
			p.Touch(now)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHoldingNotFound, id)
}

// Assets lists the distinct assets held, in first-seen order.
func (p *Portfolio) Assets() []AssetRef {
	return DistinctAssets([]*Portfolio{p})
}

// DistinctAssets de-duplicates (type, symbol) pairs across portfolios.
func DistinctAssets(portfolios []*Portfolio) []AssetRef {
	seen := make(map[string]struct{})
	var out []AssetRef
	for _, p := range portfolios {
		if p == nil {
			continue
		}
		for _, h := range p.Holdings {
			ref := h.Asset.Normalize()
			if _, ok := seen[ref.Key()]; ok {
				continue
			}
			seen[ref.Key()] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}
