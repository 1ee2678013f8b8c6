package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"portfolio-tracker/internal/domain"
	"portfolio-tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type QuoteReader interface {
	CurrentQuote(ctx context.Context, ref domain.AssetRef) (domain.Quote, bool, error)
	CurrentQuotes(ctx context.Context, refs []domain.AssetRef) []service.QuoteResult
}

type SeriesReader interface {
	Fetch(ctx context.Context, ref domain.AssetRef, days int) (domain.HistoricalSeries, error)
}

type PortfolioStore interface {
	FindPortfolio(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error)
	ListPortfolios(ctx context.Context) ([]*domain.Portfolio, error)
	SavePortfolio(ctx context.Context, p *domain.Portfolio) error
}

type ValuationReader interface {
	LatestValuation(ctx context.Context, portfolioID uuid.UUID) (*domain.ValuationSnapshot, error)
	ListValuations(ctx context.Context, portfolioID uuid.UUID, limit int) ([]*domain.ValuationSnapshot, error)
}

// ManualTrigger enqueues an on-demand valuation.
type ManualTrigger interface {
	TriggerManual(portfolioID uuid.UUID) (uuid.UUID, error)
}

type JobStatusReader interface {
	Status(id uuid.UUID) (domain.JobRecord, bool)
}

// Deps groups what the HTTP layer reads from and writes to.
type Deps struct {
	Quotes     QuoteReader
	History    SeriesReader
	Portfolios PortfolioStore
	Valuations ValuationReader
	Trigger    ManualTrigger
	Jobs       JobStatusReader
}

type Handler struct {
	tracer     trace.Tracer
	log        zerolog.Logger
	quotes     QuoteReader
	history    SeriesReader
	portfolios PortfolioStore
	valuations ValuationReader
	trigger    ManualTrigger
	jobs       JobStatusReader
	now        func() time.Time
}

func New(tracer trace.Tracer, deps Deps, log zerolog.Logger) *Handler {
	return &Handler{
		tracer:     tracer,
		log:        log.With().Str("component", "http").Logger(),
		quotes:     deps.Quotes,
		history:    deps.History,
		portfolios: deps.Portfolios,
		valuations: deps.Valuations,
		trigger:    deps.Trigger,
		jobs:       deps.Jobs,
		now:        time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")

	api.GET("/price/:assetType/:symbol", h.GetPrice)
	api.GET("/price/:assetType/:symbol/historical", h.GetHistorical)
	api.POST("/price/batch", h.GetBatchPrices)

	api.GET("/portfolio", h.ListPortfolios)
	api.POST("/portfolio", h.CreatePortfolio)
	api.GET("/portfolio/:id", h.GetPortfolio)
	api.POST("/portfolio/:id/holdings", h.AddHolding)
	api.PUT("/portfolio/:id/holdings/:holdingId", h.UpdateHolding)
	api.DELETE("/portfolio/:id/holdings/:holdingId", h.RemoveHolding)

	api.GET("/valuation/portfolio/:id", h.GetLatestValuation)
	api.GET("/valuation/portfolio/:id/history", h.GetValuationHistory)
	api.POST("/valuation/portfolio/:id/calculate", h.CalculateValuation)

	api.GET("/jobs/:id", h.GetJob)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedAssetType),
		errors.Is(err, domain.ErrInvalidAsset),
		errors.Is(err, domain.ErrInvalidHolding),
		errors.Is(err, domain.ErrInvalidPortfolio):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPortfolioNotFound),
		errors.Is(err, domain.ErrHoldingNotFound),
		errors.Is(err, domain.ErrAssetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// uuidParam parses a path parameter, writing a 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}
