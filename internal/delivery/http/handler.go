package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lookboard/backend/internal/domain"
	"github.com/lookboard/backend/internal/usecase"
)

// Version is reported by the health check
const Version = "1.0.0"

const manualEntrySuggestion = "add the item manually"

// Enricher runs the full add-item-from-link pipeline
type Enricher interface {
	Enrich(ctx context.Context, url, region string, similarLimit int) (*usecase.EnrichmentResult, error)
}

// Services groups the usecases the handlers call
type Services struct {
	Extractor    usecase.ProductExtractor
	Finder       usecase.RetailerSearcher
	Suggester    usecase.SimilarSuggester
	Enricher     Enricher
	AIConfigured bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger zerolog.Logger) *Handler {
	return &Handler{
		services: services,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

type scrapeRequest struct {
	URL string `json:"url"`
}

type searchRetailersRequest struct {
	Item   domain.ProductQuery `json:"item"`
	Region string              `json:"region"`
}

type similarRequest struct {
	Item  domain.ProductQuery `json:"item"`
	Limit int                 `json:"limit"`
}

type enrichRequest struct {
	URL          string `json:"url"`
	Region       string `json:"region"`
	SimilarLimit int    `json:"similarLimit"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "lookboard-enrichment",
		"version":      Version,
		"aiConfigured": h.services.AIConfigured,
	})
}

// ListRegions returns the supported shopping regions
func (h *Handler) ListRegions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"regions": usecase.Regions()})
}

// ScrapeURL extracts a normalized product from a product page URL
func (h *Handler) ScrapeURL(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		h.scrapeError(c, domain.ErrInvalidRequest, "url is required")
		return
	}

	product, err := h.services.Extractor.Extract(c.Request.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		h.scrapeError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, product)
}

// SearchRetailers lists where an item can be bought in a region
func (h *Handler) SearchRetailers(c *gin.Context) {
	var req searchRetailersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Item.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item.name is required"})
		return
	}

	result := h.services.Finder.FindRetailers(c.Request.Context(), req.Item, req.Region, 0)
	c.JSON(http.StatusOK, result)
}

// SuggestSimilar returns AI-proposed look-alike products as a bare array
func (h *Handler) SuggestSimilar(c *gin.Context) {
	var req similarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Item.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item.name is required"})
		return
	}

	suggestions := h.services.Suggester.SuggestSimilar(c.Request.Context(), req.Item, req.Limit)
	c.JSON(http.StatusOK, suggestions)
}

// Enrich scrapes a URL and decorates the product with retailers and similar items
func (h *Handler) Enrich(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		h.scrapeError(c, domain.ErrInvalidRequest, "url is required")
		return
	}

	result, err := h.services.Enricher.Enrich(c.Request.Context(), strings.TrimSpace(req.URL), req.Region, req.SimilarLimit)
	if err != nil {
		h.scrapeError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, result)
}

// scrapeError maps extraction failures to a status and a manual-entry hint
func (h *Handler) scrapeError(c *gin.Context, err error, message string) {
	status := statusForError(err)
	if message == "" {
		message = err.Error()
	}

	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Int("status", status).Str("path", c.FullPath()).Msg("scrape failed")

	c.JSON(status, gin.H{
		"error":      message,
		"suggestion": manualEntrySuggestion,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPageNotFound):
		return http.StatusNotFound
	case domain.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
