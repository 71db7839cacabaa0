package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
)

var exportFormats = map[string]bool{"ndjson": true, "json": true, "csv": true, "xlsx": true}

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?resource=...&format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()

	resource := c.Query("resource")
	if resource == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource parameter is required (recruiters, candidates, clients, performance)"})
		return
	}
	kind, ok := models.KindFromResource(resource)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource must be one of: recruiters, candidates, clients, performance"})
		return
	}

	format := c.Query("format")
	if format == "" {
		format = "ndjson" // Default to NDJSON for streaming
	}
	if !exportFormats[format] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json, csv, xlsx"})
		return
	}

	h.log.Info().
		Str("resource", kind.Resource()).
		Str("format", format).
		Msg("Starting streaming export")

	c.Header("Content-Type", h.services.Export.ContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", kind.Resource(), format))
	c.Status(http.StatusOK)

	if err := h.services.Export.Stream(ctx, c.Writer, kind, format); err != nil {
		h.log.Error().Err(err).Str("resource", kind.Resource()).Msg("Export failed")
		// Can't return error JSON after streaming has started
		return
	}
}
