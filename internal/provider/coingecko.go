package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	coingeckoName    = "coingecko"
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
)

// coinGeckoAliases lets holdings use common tickers instead of CoinGecko ids.
var coinGeckoAliases = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"sol":   "solana",
	"xrp":   "ripple",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"dot":   "polkadot",
	"avax":  "avalanche-2",
	"link":  "chainlink",
	"matic": "matic-network",
}

// CoinGeckoID maps a holding symbol to the id CoinGecko is queried with.
func CoinGeckoID(symbol string) string {
	id := strings.ToLower(strings.TrimSpace(symbol))
	if alias, ok := coinGeckoAliases[id]; ok {
		return alias
	}
	return id
}

// CoinGeckoProvider fetches spot prices and market charts from the CoinGecko API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewCoinGeckoProvider creates a provider rate limited to the free tier:
// a burst of 8 requests, then one every 7.5 seconds.
func NewCoinGeckoProvider(tracer trace.Tracer, baseURL string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = coingeckoBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(7500*time.Millisecond), 8),
	}
}

// FetchQuote returns spot price, 24h change and market cap for one coin.
func (p *CoinGeckoProvider) FetchQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-quote")
	defer span.End()

	id := CoinGeckoID(symbol)
	span.SetAttributes(attribute.String("coingecko.id", id))

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")

	body, err := getJSON(ctx, p.client, p.limiter, coingeckoName, p.baseURL+"/simple/price?"+q.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("fetch crypto price %s: %w", symbol, err)
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_market_cap": 1.9e12, "usd_24h_change": 2.34}}
	var raw map[string]map[string]decimal.NullDecimal
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.Quote{}, fmt.Errorf("fetch crypto price %s: %w", symbol, parseError(coingeckoName, err))
	}

	data, ok := raw[id]
	if !ok || !data["usd"].Valid {
		return domain.Quote{}, fmt.Errorf("%w: crypto symbol %s", domain.ErrAssetNotFound, symbol)
	}

	return domain.Quote{
		Asset:        domain.AssetRef{Type: domain.AssetTypeCrypto, Symbol: strings.ToUpper(symbol)},
		Price:        data["usd"].Decimal,
		Change24hPct: nullable(data["usd_24h_change"]),
		MarketCap:    nullable(data["usd_market_cap"]),
		ObservedAt:   time.Now().UTC(),
	}, nil
}

// FetchMarketChart returns the USD price series for the last days days.
// CoinGecko is asked for hourly points when days <= 1, daily otherwise.
func (p *CoinGeckoProvider) FetchMarketChart(ctx context.Context, symbol string, days int) (domain.HistoricalSeries, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-market-chart")
	defer span.End()

	id := CoinGeckoID(symbol)
	span.SetAttributes(attribute.String("coingecko.id", id), attribute.Int("days", days))

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", marketChartInterval(days))

	body, err := getJSON(ctx, p.client, p.limiter, coingeckoName,
		fmt.Sprintf("%s/coins/%s/market_chart?%s", p.baseURL, url.PathEscape(id), q.Encode()))
	if err != nil {
		return domain.HistoricalSeries{}, fmt.Errorf("fetch crypto history %s: %w", symbol, err)
	}

	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.HistoricalSeries{}, fmt.Errorf("fetch crypto history %s: %w", symbol, parseError(coingeckoName, err))
	}

	points := make([]domain.PricePoint, 0, len(raw.Prices))
	for _, pt := range raw.Prices {
		if len(pt) < 2 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(pt[0])).UTC(),
			Price:     decimal.NewFromFloat(pt[1]),
		})
	}
	domain.SortPoints(points)

	return domain.HistoricalSeries{
		Asset:      domain.AssetRef{Type: domain.AssetTypeCrypto, Symbol: strings.ToUpper(symbol)},
		WindowDays: days,
		Points:     points,
	}, nil
}

func marketChartInterval(days int) string {
	if days <= 1 {
		return "hourly"
	}
	return "daily"
}

func nullable(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}
