package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type holdingRequest struct {
	AssetType     string          `json:"assetType"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  *time.Time      `json:"purchaseDate"`
}

func (r holdingRequest) holding() (domain.Holding, error) {
	t, err := domain.ParseAssetType(r.AssetType)
	if err != nil {
		return domain.Holding{}, fmt.Errorf("%w: %w", domain.ErrInvalidHolding, err)
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return domain.Holding{}, fmt.Errorf("%w: symbol is required", domain.ErrInvalidHolding)
	}
	h := domain.Holding{
		Asset:         domain.AssetRef{Type: t, Symbol: r.Symbol},
		Quantity:      r.Quantity,
		PurchasePrice: r.PurchasePrice,
	}
	if r.PurchaseDate != nil {
		h.PurchaseDate = r.PurchaseDate.UTC()
	}
	return h, nil
}

type createPortfolioRequest struct {
	Name     string           `json:"name"`
	UserID   string           `json:"userId"`
	Holdings []holdingRequest `json:"holdings"`
}

// ListPortfolios godoc
// @Summary      List portfolios
// @Tags         portfolios
// @Produce      json
// @Param        userId  query  string  false  "Only portfolios owned by this user"
// @Success      200  {array}  domain.Portfolio
// @Router       /api/portfolio [get]
func (h *Handler) ListPortfolios(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-portfolios")
	defer span.End()

	portfolios, err := h.portfolios.ListPortfolios(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]*domain.Portfolio, 0, len(portfolios))
	userID := strings.TrimSpace(c.Query("userId"))
	for _, p := range portfolios {
		if userID == "" || p.UserID == userID {
			out = append(out, p)
		}
	}
	c.JSON(http.StatusOK, out)
}

// GetPortfolio godoc
// @Summary      Get a portfolio
// @Tags         portfolios
// @Produce      json
// @Param        id  path  string  true  "Portfolio ID"
// @Success      200  {object}  domain.Portfolio
// @Failure      404  {object}  map[string]string
// @Router       /api/portfolio/{id} [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-portfolio")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("portfolio.id", id.String()))

	p, err := h.portfolios.FindPortfolio(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreatePortfolio godoc
// @Summary      Create a portfolio
// @Tags         portfolios
// @Accept       json
// @Produce      json
// @Param        request  body  createPortfolioRequest  true  "Portfolio"
// @Success      201  {object}  domain.Portfolio
// @Failure      400  {object}  map[string]string
// @Router       /api/portfolio [post]
func (h *Handler) CreatePortfolio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-portfolio")
	defer span.End()

	var req createPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	now := h.now()
	p := domain.NewPortfolio(req.Name, req.UserID, now)
	if err := p.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	for _, hr := range req.Holdings {
		holding, err := hr.holding()
		if err != nil {
			h.fail(c, err)
			return
		}
		if _, err := p.AddHolding(holding, now); err != nil {
			h.fail(c, err)
			return
		}
	}

	if err := h.portfolios.SavePortfolio(ctx, p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// AddHolding godoc
// @Summary      Add a holding to a portfolio
// @Tags         portfolios
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Portfolio ID"
// @Param        request  body  holdingRequest  true  "Holding"
// @Success      201  {object}  domain.Portfolio
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/portfolio/{id}/holdings [post]
func (h *Handler) AddHolding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-holding")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	holding, err := req.holding()
	if err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.portfolios.FindPortfolio(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := p.AddHolding(holding, h.now()); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.portfolios.SavePortfolio(ctx, p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateHolding godoc
// @Summary      Replace a holding
// @Tags         portfolios
// @Accept       json
// @Produce      json
// @Param        id         path  string          true  "Portfolio ID"
// @Param        holdingId  path  string          true  "Holding ID"
// @Param        request    body  holdingRequest  true  "Holding"
// @Success      200  {object}  domain.Portfolio
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/portfolio/{id}/holdings/{holdingId} [put]
func (h *Handler) UpdateHolding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.update-holding")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	holdingID, ok := uuidParam(c, "holdingId")
	if !ok {
		return
	}
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	holding, err := req.holding()
	if err != nil {
		h.fail(c, err)
		return
	}
	holding.ID = holdingID

	p, err := h.portfolios.FindPortfolio(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := p.UpdateHolding(holding, h.now()); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.portfolios.SavePortfolio(ctx, p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemoveHolding godoc
// @Summary      Remove a holding
// @Tags         portfolios
// @Produce      json
// @Param        id         path  string  true  "Portfolio ID"
// @Param        holdingId  path  string  true  "Holding ID"
// @Success      200  {object}  domain.Portfolio
// @Failure      404  {object}  map[string]string
// @Router       /api/portfolio/{id}/holdings/{holdingId} [delete]
func (h *Handler) RemoveHolding(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.remove-holding")
	defer span.End()

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	holdingID, ok := uuidParam(c, "holdingId")
	if !ok {
		return
	}

	p, err := h.portfolios.FindPortfolio(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := p.RemoveHolding(holdingID, h.now()); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.portfolios.SavePortfolio(ctx, p); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
