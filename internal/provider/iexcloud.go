package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	iexName    = "iexcloud"
	iexBaseURL = "https://cloud.iexapis.com/stable"
)

var hundred = decimal.NewFromInt(100)

// IEXCloudProvider fetches equity quotes and charts. Every call needs an API token.
type IEXCloudProvider struct {
	client  *http.Client
	baseURL string
	token   string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

func NewIEXCloudProvider(tracer trace.Tracer, baseURL, token string, timeout time.Duration) *IEXCloudProvider {
	if baseURL == "" {
		baseURL = iexBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &IEXCloudProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
}

// Configured reports whether an API token is present.
func (p *IEXCloudProvider) Configured() bool {
	return p.token != ""
}

type iexQuote struct {
	Symbol        string              `json:"symbol"`
	LatestPrice   decimal.NullDecimal `json:"latestPrice"`
	PreviousClose decimal.NullDecimal `json:"previousClose"`
	MarketCap     decimal.NullDecimal `json:"marketCap"`
}

// FetchQuote returns the latest price for symbol. The 24h change is derived
// from the previous close.
func (p *IEXCloudProvider) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "iexcloud.fetch-quote")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if !p.Configured() {
		return domain.Quote{}, fmt.Errorf("%w: IEX Cloud API key not configured", domain.ErrProviderUnavailable)
	}

	body, err := getJSON(ctx, p.client, p.limiter, iexName,
		fmt.Sprintf("%s/stock/%s/quote?%s", p.baseURL, url.PathEscape(symbol), p.auth()))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("fetch stock price %s: %w", symbol, err)
	}
	if isEmptyJSON(body) {
		return domain.Quote{}, fmt.Errorf("%w: stock symbol %s", domain.ErrAssetNotFound, symbol)
	}

	var raw iexQuote
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Quote{}, fmt.Errorf("fetch stock price %s: %w", symbol, parseError(iexName, err))
	}
	if !raw.LatestPrice.Valid {
		return domain.Quote{}, fmt.Errorf("%w: stock symbol %s has no price", domain.ErrAssetNotFound, symbol)
	}

	return domain.Quote{
		Asset:        domain.AssetRef{Type: domain.AssetTypeStock, Symbol: strings.ToUpper(symbol)},
		Price:        raw.LatestPrice.Decimal,
		Change24hPct: changePercent(raw.LatestPrice.Decimal, raw.PreviousClose),
		MarketCap:    nullable(raw.MarketCap),
		ObservedAt:   time.Now().UTC(),
	}, nil
}

type iexChartPoint struct {
	Date        string              `json:"date"`
	Minute      string              `json:"minute"`
	Close       decimal.NullDecimal `json:"close"`
	MarketClose decimal.NullDecimal `json:"marketClose"`
}

// FetchChart returns the closing price series for the discrete range that
// covers days. The range may hold more days than asked for.
func (p *IEXCloudProvider) FetchChart(ctx context.Context, symbol string, days int) (domain.HistoricalSeries, error) {
	ctx, span := p.tracer.Start(ctx, "iexcloud.fetch-chart")
	defer span.End()

	chartRange := ChartRange(days)
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("range", chartRange))

	if !p.Configured() {
		return domain.HistoricalSeries{}, fmt.Errorf("%w: IEX Cloud API key not configured", domain.ErrProviderUnavailable)
	}

	body, err := getJSON(ctx, p.client, p.limiter, iexName,
		fmt.Sprintf("%s/stock/%s/chart/%s?%s", p.baseURL, url.PathEscape(symbol), chartRange, p.auth()))
	if err != nil {
		return domain.HistoricalSeries{}, fmt.Errorf("fetch stock history %s: %w", symbol, err)
	}

	var raw []iexChartPoint
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.HistoricalSeries{}, fmt.Errorf("fetch stock history %s: %w", symbol, parseError(iexName, err))
	}

	points := make([]domain.PricePoint, 0, len(raw))
	for _, pt := range raw {
		price := pt.Close
		if !price.Valid {
			price = pt.MarketClose
		}
		ts, err := chartTimestamp(pt.Date, pt.Minute)
		if !price.Valid || err != nil {
			continue
		}
		points = append(points, domain.PricePoint{Timestamp: ts, Price: price.Decimal})
	}
	domain.SortPoints(points)

	return domain.HistoricalSeries{
		Asset:      domain.AssetRef{Type: domain.AssetTypeStock, Symbol: strings.ToUpper(symbol)},
		WindowDays: days,
		Points:     points,
	}, nil
}

// ChartRange maps a day count onto the coarse ranges IEX exposes.
func ChartRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1m"
	default:
		return "3m"
	}
}

func (p *IEXCloudProvider) auth() string {
	q := url.Values{}
	q.Set("token", p.token)
	return q.Encode()
}

func changePercent(latest decimal.Decimal, previousClose decimal.NullDecimal) *decimal.Decimal {
	if !previousClose.Valid || previousClose.Decimal.IsZero() {
		return nil
	}
	v := latest.Sub(previousClose.Decimal).Div(previousClose.Decimal).Mul(hundred)
	return &v
}

func chartTimestamp(date, minute string) (time.Time, error) {
	if minute != "" {
		return time.ParseInLocation("2006-01-02 15:04", date+" "+minute, time.UTC)
	}
	return time.ParseInLocation("2006-01-02", date, time.UTC)
}

func isEmptyJSON(body []byte) bool {
	s := strings.TrimSpace(string(body))
	return s == "" || s == "null" || s == "{}"
}
