package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/service"
)

// RecordHandler re-serves stored records
type RecordHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(services *service.Services, log zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		services: services,
		log:      log.With().Str("handler", "record").Logger(),
	}
}

// List handles GET /v1/{resource}?limit=&offset=
func (h *RecordHandler) List(resource string) gin.HandlerFunc {
	kind, _ := models.KindFromResource(resource)

	return func(c *gin.Context) {
		limit, ok := intQuery(c, "limit")
		if !ok {
			return
		}
		offset, ok := intQuery(c, "offset")
		if !ok {
			return
		}

		records, err := h.services.Records.List(c.Request.Context(), kind, limit, offset)
		if err != nil {
			h.log.Error().Err(err).Str("resource", resource).Msg("Failed to list records")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list " + resource})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"resource": resource,
			"data":     records,
			"limit":    limit,
			"offset":   offset,
		})
	}
}

// Stats handles GET /v1/stats
func (h *RecordHandler) Stats(c *gin.Context) {
	stats, err := h.services.Records.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to collect stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// intQuery reads a non-negative integer query parameter, answering 400 when malformed
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a non-negative integer"})
		return 0, false
	}
	return n, true
}
