package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"portfolio-tracker/internal/cache"
	"portfolio-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type mockProvider struct {
	mu       sync.Mutex
	prices   map[string]decimal.Decimal
	quoteErr map[string]error
	series   map[string]domain.HistoricalSeries
	chartErr map[string]error
	delay    map[string]time.Duration

	quoteCalls int
	chartCalls int
	lastDays   int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		prices:   make(map[string]decimal.Decimal),
		quoteErr: make(map[string]error),
		series:   make(map[string]domain.HistoricalSeries),
		chartErr: make(map[string]error),
		delay:    make(map[string]time.Duration),
	}
}

func (m *mockProvider) quote(ctx context.Context, t domain.AssetType, symbol string) (domain.Quote, error) {
	symbol = strings.ToUpper(symbol)
	m.mu.Lock()
	m.quoteCalls++
	delay := m.delay[symbol]
	err := m.quoteErr[symbol]
	price, ok := m.prices[symbol]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return domain.Quote{}, err
	}
	if !ok {
		return domain.Quote{}, domain.ErrAssetNotFound
	}
	return domain.Quote{
		Asset:      domain.AssetRef{Type: t, Symbol: symbol},
		Price:      price,
		ObservedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockProvider) chart(symbol string, days int) (domain.HistoricalSeries, error) {
	symbol = strings.ToUpper(symbol)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chartCalls++
	m.lastDays = days
	if err := m.chartErr[symbol]; err != nil {
		return domain.HistoricalSeries{}, err
	}
	s, ok := m.series[symbol]
	if !ok {
		return domain.HistoricalSeries{WindowDays: days, Points: []domain.PricePoint{}}, nil
	}
	return s, nil
}

func (m *mockProvider) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quoteCalls, m.chartCalls
}

type mockCrypto struct{ *mockProvider }

func (m mockCrypto) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	return m.quote(ctx, domain.AssetTypeCrypto, symbol)
}

func (m mockCrypto) FetchMarketChart(ctx context.Context, symbol string, days int) (domain.HistoricalSeries, error) {
	return m.chart(symbol, days)
}

type mockStock struct{ *mockProvider }

func (m mockStock) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	return m.quote(ctx, domain.AssetTypeStock, symbol)
}

func (m mockStock) FetchChart(ctx context.Context, symbol string, days int) (domain.HistoricalSeries, error) {
	return m.chart(symbol, days)
}

// memBackend is an in-memory cache.Backend with expiry. Setting down makes
// every operation fail like an unreachable store.
type memBackend struct {
	mu      sync.Mutex
	data    map[string]memEntry
	down    bool
	setKeys []string
}

type memEntry struct {
	value    string
	expireAt time.Time
}

var errBackendDown = errors.New("backend unreachable")

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]memEntry)}
}

func (m *memBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return "", false, errBackendDown
	}
	e, ok := m.data[key]
	if !ok || time.Now().After(e.expireAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *memBackend) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errBackendDown
	}
	m.data[key] = memEntry{value: value, expireAt: time.Now().Add(ttl)}
	m.setKeys = append(m.setKeys, key)
	return nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errBackendDown
	}
	delete(m.data, key)
	return nil
}

func (m *memBackend) FlushAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errBackendDown
	}
	m.data = make(map[string]memEntry)
	return nil
}

func (m *memBackend) Close() error { return nil }

func (m *memBackend) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func newTestCache(b cache.Backend) *cache.Cache {
	return cache.New(b, zerolog.Nop())
}

type mockValuationStore struct {
	mu    sync.Mutex
	saved []*domain.ValuationSnapshot
	err   error
	// failFor fails saves for one portfolio only.
	failFor map[string]error
}

func (m *mockValuationStore) SaveValuation(_ context.Context, v *domain.ValuationSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := m.failFor[v.PortfolioID.String()]; err != nil {
		return err
	}
	m.saved = append(m.saved, v)
	return nil
}
