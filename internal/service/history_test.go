package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func TestHistoryServiceFetchIsReadThrough(t *testing.T) {
	t.Parallel()

	crypto := newMockProvider()
	crypto.series["BITCOIN"] = domain.HistoricalSeries{
		WindowDays: 7,
		Points: []domain.PricePoint{
			{Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Price: d("100")},
			{Timestamp: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Price: d("110")},
		},
	}
	backend := newMemBackend()
	r := NewResolver(testTracer, mockCrypto{crypto}, mockStock{newMockProvider()})
	svc := NewHistoryService(testTracer, r, newTestCache(backend), 0, zerolog.Nop())

	ref := domain.AssetRef{Type: domain.AssetTypeCrypto, Symbol: "bitcoin"}
	first, err := svc.Fetch(context.Background(), ref, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !backend.has("historical:crypto:BITCOIN:7d") {
		t.Fatal("series not cached")
	}
	second, err := svc.Fetch(context.Background(), ref, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, charts := crypto.calls(); charts != 1 {
		t.Fatalf("expected one upstream call, got %d", charts)
	}
	if len(second.Points) != 2 || !second.Points[1].Price.Equal(first.Points[1].Price) {
		t.Fatalf("cached series differs: %+v", second)
	}
	if second.Asset.Symbol != "BITCOIN" {
		t.Fatalf("unexpected asset on series: %+v", second.Asset)
	}
}

func TestHistoryServiceRefreshOverwrites(t *testing.T) {
	t.Parallel()

	stock := newMockProvider()
	backend := newMemBackend()
	r := NewResolver(testTracer, mockCrypto{newMockProvider()}, mockStock{stock})
	svc := NewHistoryService(testTracer, r, newTestCache(backend), time.Hour, zerolog.Nop())

	ref := domain.AssetRef{Type: domain.AssetTypeStock, Symbol: "AAPL"}
	for i := 0; i < 2; i++ {
		if _, err := svc.Refresh(context.Background(), ref, 30); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, charts := stock.calls(); charts != 2 {
		t.Fatalf("refresh should always go upstream, got %d calls", charts)
	}
	if len(backend.setKeys) != 2 || backend.setKeys[1] != "historical:stock:AAPL:30d" {
		t.Fatalf("unexpected cache writes: %v", backend.setKeys)
	}
}

func TestHistoryServiceDefaultsDays(t *testing.T) {
	t.Parallel()

	crypto := newMockProvider()
	r := NewResolver(testTracer, mockCrypto{crypto}, mockStock{newMockProvider()})
	svc := NewHistoryService(testTracer, r, nil, 0, zerolog.Nop())

	if _, err := svc.Fetch(context.Background(), domain.AssetRef{Type: domain.AssetTypeCrypto, Symbol: "ETH"}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	crypto.mu.Lock()
	defer crypto.mu.Unlock()
	if crypto.lastDays != DefaultHistoryDays {
		t.Fatalf("expected %d days, got %d", DefaultHistoryDays, crypto.lastDays)
	}
}

func TestHistoryServicePropagatesProviderErrors(t *testing.T) {
	t.Parallel()

	stock := newMockProvider()
	stock.chartErr["AAPL"] = domain.ErrProviderUnavailable
	backend := newMemBackend()
	r := NewResolver(testTracer, mockCrypto{newMockProvider()}, mockStock{stock})
	svc := NewHistoryService(testTracer, r, newTestCache(backend), 0, zerolog.Nop())

	_, err := svc.Fetch(context.Background(), domain.AssetRef{Type: domain.AssetTypeStock, Symbol: "AAPL"}, 30)
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if len(backend.setKeys) != 0 {
		t.Fatalf("failed fetch must not be cached: %v", backend.setKeys)
	}
}
