package handler

import (
	"net/http"
	"strconv"

	"portfolio-tracker/internal/domain"
	"portfolio-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxBatchAssets = 100

type priceResponse struct {
	domain.Quote
	Cached bool `json:"cached"`
}

type assetRequest struct {
	AssetType string `json:"assetType"`
	Symbol    string `json:"symbol"`
}

type batchPriceRequest struct {
	Assets []assetRequest `json:"assets"`
}

type batchPriceResult struct {
	AssetType string        `json:"assetType"`
	Symbol    string        `json:"symbol"`
	Quote     *domain.Quote `json:"quote,omitempty"`
	Cached    bool          `json:"cached"`
	Error     string        `json:"error,omitempty"`
}

// GetPrice godoc
// @Summary      Get current price for an asset
// @Description  Returns the latest quote, served from cache when fresh
// @Tags         prices
// @Produce      json
// @Param        assetType  path  string  true  "crypto or stock"
// @Param        symbol     path  string  true  "Asset symbol (e.g., bitcoin, AAPL)"
// @Success      200  {object}  priceResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/price/{assetType}/{symbol} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	ref, err := domain.NewAssetRef(c.Param("assetType"), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	span.SetAttributes(attribute.String("asset", ref.Key()))

	quote, cached, err := h.quotes.CurrentQuote(ctx, ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, priceResponse{Quote: quote, Cached: cached})
}

// GetBatchPrices godoc
// @Summary      Get current prices for several assets
// @Description  Resolves each asset independently; one failure does not fail the batch
// @Tags         prices
// @Accept       json
// @Produce      json
// @Param        request  body  batchPriceRequest  true  "Assets to price"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/price/batch [post]
func (h *Handler) GetBatchPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-batch-prices")
	defer span.End()

	var req batchPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Assets) == 0 {
		badRequest(c, "assets must be a non-empty array")
		return
	}
	if len(req.Assets) > maxBatchAssets {
		badRequest(c, "at most "+strconv.Itoa(maxBatchAssets)+" assets per request")
		return
	}
	span.SetAttributes(attribute.Int("assets", len(req.Assets)))

	results := make([]batchPriceResult, len(req.Assets))
	refs := make([]domain.AssetRef, 0, len(req.Assets))
	slots := make([]int, 0, len(req.Assets))
	for i, a := range req.Assets {
		results[i] = batchPriceResult{AssetType: a.AssetType, Symbol: a.Symbol}
		ref, err := domain.NewAssetRef(a.AssetType, a.Symbol)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		refs = append(refs, ref)
		slots = append(slots, i)
	}

	for n, res := range h.quotes.CurrentQuotes(ctx, refs) {
		results[slots[n]] = batchResult(res)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func batchResult(res service.QuoteResult) batchPriceResult {
	out := batchPriceResult{
		AssetType: string(res.Asset.Type),
		Symbol:    res.Asset.Symbol,
		Cached:    res.Cached,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		return out
	}
	q := res.Quote
	out.Quote = &q
	return out
}

// GetHistorical godoc
// @Summary      Get historical prices for an asset
// @Description  Returns a price series ordered by timestamp
// @Tags         prices
// @Produce      json
// @Param        assetType  path   string  true   "crypto or stock"
// @Param        symbol     path   string  true   "Asset symbol"
// @Param        days       query  int     false  "Window in days"  default(30)
// @Success      200  {object}  domain.HistoricalSeries
// @Failure      400  {object}  map[string]string
// @Router       /api/price/{assetType}/{symbol}/historical [get]
func (h *Handler) GetHistorical(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-historical")
	defer span.End()

	ref, err := domain.NewAssetRef(c.Param("assetType"), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}

	days := service.DefaultHistoryDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "days must be a positive integer")
			return
		}
		days = n
	}
	span.SetAttributes(attribute.String("asset", ref.Key()), attribute.Int("days", days))

	series, err := h.history.Fetch(ctx, ref, days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
