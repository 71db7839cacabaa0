package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/validation"
)

// SourceHandler handles spreadsheet source configuration endpoints
type SourceHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewSourceHandler creates a new SourceHandler
func NewSourceHandler(services *service.Services, log zerolog.Logger) *SourceHandler {
	return &SourceHandler{
		services:  services,
		validator: validation.NewValidator(),
		log:       log.With().Str("handler", "source").Logger(),
	}
}

// ListSources handles GET /v1/sources
func (h *SourceHandler) ListSources(c *gin.Context) {
	sources, err := h.services.Sources.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list sources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sources"})
		return
	}

	views := make([]models.SourceConfigView, 0, len(sources))
	for _, s := range sources {
		views = append(views, s.View())
	}
	c.JSON(http.StatusOK, gin.H{"sources": views, "count": len(views)})
}

// SaveSource handles PUT /v1/sources
// Omitted credential or API key keeps the stored one.
func (h *SourceHandler) SaveSource(c *gin.Context) {
	var req models.SourceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := h.validator.ValidateSourceConfig(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": errs})
		return
	}

	src, err := h.services.Sources.Save(c.Request.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Str("spreadsheet_id", req.SpreadsheetID).Msg("Failed to save source")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save source configuration"})
		return
	}

	h.log.Info().
		Str("spreadsheet_id", src.SpreadsheetID).
		Bool("auto_refresh", src.AutoRefresh).
		Float64("interval_minutes", src.RefreshIntervalMinutes).
		Msg("Source saved")

	c.JSON(http.StatusOK, src.View())
}

// GetSource handles GET /v1/sources/:spreadsheet_id
func (h *SourceHandler) GetSource(c *gin.Context) {
	id := c.Param("spreadsheet_id")

	src, err := h.services.Sources.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrSourceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("spreadsheet_id", id).Msg("Failed to get source")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get source"})
		return
	}

	c.JSON(http.StatusOK, src.View())
}

// ClearAll handles DELETE /v1/data
func (h *SourceHandler) ClearAll(c *gin.Context) {
	if err := h.services.Sources.ClearAll(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("Bulk clear failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear data"})
		return
	}

	h.log.Warn().Msg("All data cleared")
	c.JSON(http.StatusOK, gin.H{"message": "all data cleared"})
}
