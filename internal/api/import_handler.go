package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/sheets"
	"github.com/recruitops-api/internal/validation"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services  *service.Services
	cfg       *config.Config
	validator *validation.Validator
	log       zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services:  services,
		cfg:       cfg,
		validator: validation.NewValidator(),
		log:       log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /v1/imports
// Runs the stored configuration of one spreadsheet and answers with the result.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := h.validator.ValidateImportRequest(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": errs})
		return
	}

	ctx, cancel := contextWithTimeout(c, h.cfg.Scheduler.RunTimeout)
	defer cancel()

	result, err := h.services.Import.Import(ctx, req.SpreadsheetID, models.TriggerManual)
	if err != nil {
		status, msg := importErrorStatus(err)
		h.log.Error().Err(err).Str("spreadsheet_id", req.SpreadsheetID).Int("status", status).Msg("Import failed")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.log.Info().
		Str("run_id", result.RunID).
		Str("spreadsheet_id", req.SpreadsheetID).
		Int("records", result.TotalRecords()).
		Bool("stale", result.Stale).
		Msg("Import served")

	c.JSON(http.StatusOK, result)
}

// importErrorStatus maps an import failure onto an HTTP status and message
func importErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSourceNotFound):
		return http.StatusNotFound, "source not found, save it with PUT /v1/sources first"
	case errors.Is(err, sheets.ErrNotConfigured):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAllTabsFailed):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, service.ErrRunDiscarded):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "import failed"
	}
}

// ListRuns handles GET /v1/imports?spreadsheet_id=&limit=
func (h *ImportHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	runs, err := h.services.Import.ListRuns(c.Request.Context(), c.Query("spreadsheet_id"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list import runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /v1/imports/:run_id
func (h *ImportHandler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := h.services.Import.GetRun(c.Request.Context(), runID)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get import run"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "import run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}
