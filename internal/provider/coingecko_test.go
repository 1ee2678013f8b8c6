package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func newTestCoinGecko(fn roundTripFunc) *CoinGeckoProvider {
	p := NewCoinGeckoProvider(testTracer, "http://example", time.Second)
	p.client = &http.Client{Transport: fn}
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	return p
}

func TestCoinGeckoID(t *testing.T) {
	if CoinGeckoID("BTC") != "bitcoin" {
		t.Fatal("expected ticker alias to resolve")
	}
	if CoinGeckoID("Bitcoin") != "bitcoin" || CoinGeckoID("shiba-inu") != "shiba-inu" {
		t.Fatal("ids should pass through lower-cased")
	}
}

func TestCoinGeckoFetchQuote(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/simple/price") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		q := req.URL.Query()
		if q.Get("ids") != "bitcoin" || q.Get("include_market_cap") != "true" || q.Get("include_24hr_change") != "true" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, `{"bitcoin":{"usd":97000.5,"usd_market_cap":1.9e12,"usd_24h_change":-2.5}}`), nil
	})

	q, err := p.FetchQuote(context.Background(), "Bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Asset.Symbol != "BITCOIN" || q.Asset.Type != domain.AssetTypeCrypto {
		t.Fatalf("unexpected asset: %+v", q.Asset)
	}
	if !q.Price.Equal(decimal.RequireFromString("97000.5")) {
		t.Fatalf("unexpected price %s", q.Price)
	}
	if q.Change24hPct == nil || !q.Change24hPct.Equal(decimal.RequireFromString("-2.5")) {
		t.Fatalf("unexpected change %v", q.Change24hPct)
	}
	if q.MarketCap == nil || !q.MarketCap.Equal(decimal.RequireFromString("1900000000000")) {
		t.Fatalf("unexpected market cap %v", q.MarketCap)
	}
}

func TestCoinGeckoFetchQuoteNullFields(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"tinycoin":{"usd":0.01,"usd_market_cap":null,"usd_24h_change":null}}`), nil
	})

	q, err := p.FetchQuote(context.Background(), "tinycoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MarketCap != nil || q.Change24hPct != nil {
		t.Fatalf("null fields should stay nil: %+v", q)
	}
}

func TestCoinGeckoFetchQuoteNotFound(t *testing.T) {
	t.Parallel()

	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	_, err := p.FetchQuote(context.Background(), "nope")
	if !errors.Is(err, domain.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestCoinGeckoFetchQuoteUpstreamErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]roundTripFunc{
		"status": func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, `{"status":{"error_code":429}}`), nil
		},
		"transport": func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		},
		"parse": func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `not-json`), nil
		},
	}
	for name, fn := range cases {
		p := newTestCoinGecko(fn)
		if _, err := p.FetchQuote(context.Background(), "bitcoin"); !errors.Is(err, domain.ErrUpstream) {
			t.Fatalf("%s: expected ErrUpstream, got %v", name, err)
		}
	}
}

func TestCoinGeckoFetchMarketChart(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotInterval string
	p := newTestCoinGecko(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/coins/bitcoin/market_chart") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		gotInterval = req.URL.Query().Get("interval")
		body := `{"prices":[[` + itoa(base.Add(24*time.Hour).UnixMilli()) + `,12],[` + itoa(base.UnixMilli()) + `,10],[1]]}`
		return jsonResponse(http.StatusOK, body), nil
	})

	series, err := p.FetchMarketChart(context.Background(), "BTC", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotInterval != "daily" {
		t.Fatalf("expected daily interval, got %s", gotInterval)
	}
	if len(series.Points) != 2 || series.WindowDays != 30 {
		t.Fatalf("unexpected series: %+v", series)
	}
	if !series.Points[0].Timestamp.Equal(base) || !series.Points[0].Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("points should be ascending: %+v", series.Points)
	}
}

func TestMarketChartInterval(t *testing.T) {
	if marketChartInterval(1) != "hourly" || marketChartInterval(0) != "hourly" {
		t.Fatal("expected hourly for days <= 1")
	}
	if marketChartInterval(2) != "daily" {
		t.Fatal("expected daily for days > 1")
	}
}

func itoa(n int64) string {
	return decimal.NewFromInt(n).String()
}
