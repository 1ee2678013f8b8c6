package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseAssetType(t *testing.T) {
	for in, want := range map[string]AssetType{"crypto": AssetTypeCrypto, "STOCK": AssetTypeStock, " Crypto ": AssetTypeCrypto} {
		got, err := ParseAssetType(in)
		if err != nil || got != want {
			t.Fatalf("ParseAssetType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseAssetType("bond"); !errors.Is(err, ErrUnsupportedAssetType) {
		t.Fatalf("expected ErrUnsupportedAssetType, got %v", err)
	}
}

func TestNewAssetRef(t *testing.T) {
	ref, err := NewAssetRef(" Stock ", " aapl ")
	if err != nil || ref.Type != AssetTypeStock || ref.Symbol != "AAPL" {
		t.Fatalf("NewAssetRef = %+v, %v", ref, err)
	}
	if _, err := NewAssetRef("crypto", "  "); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("expected ErrInvalidAsset, got %v", err)
	}
	if _, err := NewAssetRef("bond", "X"); !errors.Is(err, ErrUnsupportedAssetType) {
		t.Fatalf("expected ErrUnsupportedAssetType, got %v", err)
	}
}

func TestAssetRefKeyIsCaseInsensitive(t *testing.T) {
	a := AssetRef{Type: "crypto", Symbol: "bitcoin"}
	b := AssetRef{Type: "CRYPTO", Symbol: "BitCoin"}
	if a.Key() != b.Key() || a.Key() != "crypto:BITCOIN" {
		t.Fatalf("keys differ: %s vs %s", a.Key(), b.Key())
	}
}

func TestValueHolding(t *testing.T) {
	h := Holding{Asset: AssetRef{Type: AssetTypeStock, Symbol: "AAPL"}, Quantity: d("2"), PurchasePrice: d("100")}
	v := ValueHolding(h, d("150"))
	if !v.CurrentValue.Equal(d("300")) || !v.CostBasis.Equal(d("200")) || !v.GainLoss.Equal(d("100")) {
		t.Fatalf("unexpected valuation: %+v", v)
	}
	if !v.GainLossPct.Equal(d("50")) {
		t.Fatalf("expected 50%%, got %s", v.GainLossPct)
	}
}

func TestValueHoldingZeroCostBasis(t *testing.T) {
	h := Holding{Asset: AssetRef{Type: AssetTypeCrypto, Symbol: "ETH"}, Quantity: d("3")}
	v := ValueHolding(h, d("10"))
	if !v.CostBasis.IsZero() || !v.GainLossPct.IsZero() {
		t.Fatalf("zero cost basis should give zero percent, got %+v", v)
	}
	if !v.GainLoss.Equal(d("30")) {
		t.Fatalf("expected gain 30, got %s", v.GainLoss)
	}
}

func TestNewValuationSnapshotTotals(t *testing.T) {
	holdings := []HoldingValuation{
		{CurrentValue: d("300"), CostBasis: d("200")},
		{CurrentValue: d("50"), CostBasis: d("100")},
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := NewValuationSnapshot(uuid.New(), holdings, TriggerManual, now)

	if !snap.TotalValue.Equal(d("350")) || !snap.TotalCost.Equal(d("300")) || !snap.TotalGainLoss.Equal(d("50")) {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if !snap.TotalGainLossPct.Round(4).Equal(d("16.6667")) {
		t.Fatalf("expected 16.6667%%, got %s", snap.TotalGainLossPct)
	}
	if !snap.TotalGainLoss.Equal(snap.TotalValue.Sub(snap.TotalCost)) {
		t.Fatal("gain must equal value minus cost")
	}
	if !snap.Timestamp.Equal(now) || snap.ID == uuid.Nil {
		t.Fatalf("unexpected metadata: %+v", snap)
	}
}

func TestNewValuationSnapshotEmpty(t *testing.T) {
	snap := NewValuationSnapshot(uuid.New(), nil, TriggerHourly, time.Now())
	if !snap.TotalValue.IsZero() || !snap.TotalGainLossPct.IsZero() {
		t.Fatalf("empty snapshot should be zero: %+v", snap)
	}
	if snap.Holdings == nil {
		t.Fatal("holdings should be an empty slice, not nil")
	}
}

func TestPortfolioTouchIsMonotonic(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := NewPortfolio("main", "u1", start)

	p.Touch(start.Add(-time.Hour))
	if !p.UpdatedAt.After(start) {
		t.Fatalf("updatedAt moved backwards: %v", p.UpdatedAt)
	}

	later := start.Add(time.Hour)
	p.Touch(later)
	if !p.UpdatedAt.Equal(later) {
		t.Fatalf("expected %v, got %v", later, p.UpdatedAt)
	}
}

func TestPortfolioHoldingLifecycle(t *testing.T) {
	now := time.Now()
	p := NewPortfolio("main", "u1", now)

	h, err := p.AddHolding(Holding{Asset: AssetRef{Type: "crypto", Symbol: "bitcoin"}, Quantity: d("1")}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID == uuid.Nil || h.Asset.Symbol != "BITCOIN" || h.PurchaseDate.IsZero() {
		t.Fatalf("holding not normalized: %+v", h)
	}

	if _, err := p.AddHolding(Holding{Asset: AssetRef{Type: "crypto", Symbol: "eth"}, Quantity: d("-1")}, now); !errors.Is(err, ErrInvalidHolding) {
		t.Fatalf("expected ErrInvalidHolding, got %v", err)
	}

	h.Quantity = d("5")
	if err := p.UpdateHolding(h, now); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if !p.Holdings[0].Quantity.Equal(d("5")) {
		t.Fatalf("update not applied: %+v", p.Holdings[0])
	}

	if err := p.RemoveHolding(uuid.New(), now); !errors.Is(err, ErrHoldingNotFound) {
		t.Fatalf("expected ErrHoldingNotFound, got %v", err)
	}
	if err := p.RemoveHolding(h.ID, now); err != nil || len(p.Holdings) != 0 {
		t.Fatalf("remove failed: %v %+v", err, p.Holdings)
	}
}

func TestDistinctAssets(t *testing.T) {
	p1 := &Portfolio{Holdings: []Holding{
		{Asset: AssetRef{Type: "crypto", Symbol: "bitcoin"}},
		{Asset: AssetRef{Type: "stock", Symbol: "AAPL"}},
	}}
	p2 := &Portfolio{Holdings: []Holding{
		{Asset: AssetRef{Type: "crypto", Symbol: "BITCOIN"}},
		{Asset: AssetRef{Type: "stock", Symbol: "msft"}},
	}}

	got := DistinctAssets([]*Portfolio{p1, nil, p2})
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct assets, got %+v", got)
	}
	if got[0].Key() != "crypto:BITCOIN" || got[2].Key() != "stock:MSFT" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &UpstreamError{Provider: "coingecko", StatusCode: 502, Err: cause}
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, cause) {
		t.Fatalf("UpstreamError should unwrap to ErrUpstream and cause")
	}
}
