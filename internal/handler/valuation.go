package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const defaultHistoryLimit = 30

// GetLatestValuation godoc
// @Summary      Latest valuation of a portfolio
// @Tags         valuations
// @Produce      json
// @Param        id  path  string  true  "Portfolio ID"
// @Success      200  {object}  domain.ValuationSnapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/valuation/portfolio/{id} [get]
func (h *Handler) GetLatestValuation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-valuation")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("portfolio.id", id.String()))

	v, err := h.valuations.LatestValuation(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No valuation found for this portfolio"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetValuationHistory godoc
// @Summary      Valuation history of a portfolio
// @Description  Newest first
// @Tags         valuations
// @Produce      json
// @Param        id     path   string  true   "Portfolio ID"
// @Param        limit  query  int     false  "Number of snapshots"  default(30)
// @Success      200  {array}  domain.ValuationSnapshot
// @Router       /api/valuation/portfolio/{id}/history [get]
func (h *Handler) GetValuationHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-valuation-history")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	span.SetAttributes(attribute.String("portfolio.id", id.String()), attribute.Int("limit", limit))

	snapshots, err := h.valuations.ListValuations(ctx, id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshots)
}

// CalculateValuation godoc
// @Summary      Queue a manual valuation
// @Tags         valuations
// @Produce      json
// @Param        id  path  string  true  "Portfolio ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/valuation/portfolio/{id}/calculate [post]
func (h *Handler) CalculateValuation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.calculate-valuation")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("portfolio.id", id.String()))

	if _, err := h.portfolios.FindPortfolio(ctx, id); err != nil {
		h.fail(c, err)
		return
	}

	jobID, err := h.trigger.TriggerManual(id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Valuation job queued", "jobId": jobID.String()})
}
