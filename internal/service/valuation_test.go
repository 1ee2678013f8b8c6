package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func holding(t domain.AssetType, symbol, qty, purchase string) domain.Holding {
	return domain.Holding{
		Asset:         domain.AssetRef{Type: t, Symbol: symbol},
		Quantity:      d(qty),
		PurchasePrice: d(purchase),
		PurchaseDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestEngine(crypto, stock *mockProvider, store ValuationStore, concurrency int) *ValuationEngine {
	quotes := newTestQuoteService(crypto, stock, newMemBackend(), 0)
	e := NewValuationEngine(testTracer, quotes, store, concurrency, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return e
}

func TestValuateComputesTotals(t *testing.T) {
	t.Parallel()

	crypto := newMockProvider()
	crypto.prices["A"] = d("150")
	stock := newMockProvider()
	stock.prices["B"] = d("25")
	store := &mockValuationStore{}
	engine := newTestEngine(crypto, stock, store, 0)

	p := domain.NewPortfolio("Main", "user-1", time.Now())
	p.Holdings = []domain.Holding{
		holding(domain.AssetTypeCrypto, "A", "2", "100"),
		holding(domain.AssetTypeStock, "B", "2", "50"),
	}

	snap, err := engine.Valuate(context.Background(), p, domain.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := snap.Holdings[0]
	if !a.CurrentValue.Equal(d("300")) || !a.CostBasis.Equal(d("200")) || !a.GainLoss.Equal(d("100")) || !a.GainLossPct.Equal(d("50")) {
		t.Fatalf("unexpected holding valuation: %+v", a)
	}
	if !snap.TotalValue.Equal(d("350")) || !snap.TotalCost.Equal(d("300")) || !snap.TotalGainLoss.Equal(d("50")) {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if got := snap.TotalGainLossPct.StringFixed(4); got != "16.6667" {
		t.Fatalf("unexpected total pct %s", got)
	}
	if !snap.TotalGainLoss.Equal(snap.TotalValue.Sub(snap.TotalCost)) {
		t.Fatal("totalGainLoss must equal totalValue - totalCost")
	}
	if snap.TriggerType != domain.TriggerManual || snap.PortfolioID != p.ID {
		t.Fatalf("unexpected snapshot metadata: %+v", snap)
	}
	if len(store.saved) != 1 || store.saved[0] != snap {
		t.Fatalf("snapshot not persisted: %+v", store.saved)
	}
}

func TestValuateSkipsUnpricedHoldings(t *testing.T) {
	t.Parallel()

	crypto := newMockProvider()
	crypto.prices["GOOD"] = d("10")
	crypto.quoteErr["BAD"] = &domain.UpstreamError{Provider: "coingecko", Err: errors.New("timeout")}
	store := &mockValuationStore{}
	engine := newTestEngine(crypto, newMockProvider(), store, 0)

	p := domain.NewPortfolio("Mixed", "user-1", time.Now())
	p.Holdings = []domain.Holding{
		holding(domain.AssetTypeCrypto, "BAD", "1", "1000"),
		holding(domain.AssetTypeCrypto, "GOOD", "3", "5"),
	}

	snap, err := engine.Valuate(context.Background(), p, domain.TriggerHourly)
	if err != nil {
		t.Fatalf("partial failure must still produce a snapshot: %v", err)
	}
	if len(snap.Holdings) != 1 || snap.Holdings[0].Asset.Symbol != "GOOD" {
		t.Fatalf("expected only the priced holding, got %+v", snap.Holdings)
	}
	if !snap.TotalValue.Equal(d("30")) || !snap.TotalCost.Equal(d("15")) || !snap.TotalGainLossPct.Equal(d("100")) {
		t.Fatalf("totals must cover priced holdings only: %+v", snap)
	}
}

func TestValuateZeroCostBasis(t *testing.T) {
	t.Parallel()

	crypto := newMockProvider()
	crypto.prices["AIRDROP"] = d("4")
	engine := newTestEngine(crypto, newMockProvider(), &mockValuationStore{}, 0)

	p := domain.NewPortfolio("Free", "user-1", time.Now())
	p.Holdings = []domain.Holding{holding(domain.AssetTypeCrypto, "AIRDROP", "10", "0")}

	snap, err := engine.Valuate(context.Background(), p, domain.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Holdings[0].GainLossPct.IsZero() || !snap.TotalGainLossPct.IsZero() {
		t.Fatalf("zero cost basis must give 0%%: %+v", snap)
	}
	if !snap.TotalValue.Equal(d("40")) {
		t.Fatalf("unexpected value %s", snap.TotalValue)
	}
}

func TestValuateStoreFailure(t *testing.T) {
	t.Parallel()

	store := &mockValuationStore{err: domain.ErrStoreUnavailable}
	engine := newTestEngine(newMockProvider(), newMockProvider(), store, 0)

	p := domain.NewPortfolio("Empty", "user-1", time.Now())
	if _, err := engine.Valuate(context.Background(), p, domain.TriggerDaily); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestValuateAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	crypto := newMockProvider()
	crypto.prices["BTC"] = d("100")
	p1 := domain.NewPortfolio("One", "u", time.Now())
	p1.Holdings = []domain.Holding{holding(domain.AssetTypeCrypto, "BTC", "1", "50")}
	p2 := domain.NewPortfolio("Two", "u", time.Now())
	p2.Holdings = []domain.Holding{holding(domain.AssetTypeCrypto, "BTC", "2", "50")}
	p3 := domain.NewPortfolio("Three", "u", time.Now())

	store := &mockValuationStore{failFor: map[string]error{p2.ID.String(): domain.ErrStoreUnavailable}}
	engine := newTestEngine(crypto, newMockProvider(), store, 2)

	batch := engine.ValuateAll(context.Background(), []*domain.Portfolio{p1, p2, p3}, domain.TriggerHourly)
	if len(batch.Snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(batch.Snapshots))
	}
	if batch.Snapshots[0].PortfolioID != p1.ID || batch.Snapshots[1].PortfolioID != p3.ID {
		t.Fatal("snapshots should keep portfolio order")
	}
	if len(batch.Failures) != 1 || batch.Failures[0].PortfolioID != p2.ID {
		t.Fatalf("unexpected failures: %+v", batch.Failures)
	}
	if !errors.Is(batch.Err(), domain.ErrStoreUnavailable) {
		t.Fatalf("batch error should wrap the failure: %v", batch.Err())
	}
}

type countingQuotes struct {
	inflight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
}

func (c *countingQuotes) CurrentQuotes(ctx context.Context, refs []domain.AssetRef) []QuoteResult {
	n := c.inflight.Add(1)
	c.mu.Lock()
	if n > c.peak.Load() {
		c.peak.Store(n)
	}
	c.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	c.inflight.Add(-1)
	return make([]QuoteResult, len(refs))
}

func TestValuateAllBoundsConcurrency(t *testing.T) {
	t.Parallel()

	quotes := &countingQuotes{}
	engine := NewValuationEngine(testTracer, quotes, &mockValuationStore{}, 2, zerolog.Nop())

	portfolios := make([]*domain.Portfolio, 6)
	for i := range portfolios {
		portfolios[i] = domain.NewPortfolio("p", "u", time.Now())
	}
	batch := engine.ValuateAll(context.Background(), portfolios, domain.TriggerHourly)
	if len(batch.Snapshots) != 6 {
		t.Fatalf("expected 6 snapshots, got %d", len(batch.Snapshots))
	}
	if peak := quotes.peak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent valuations, saw %d", peak)
	}
}
