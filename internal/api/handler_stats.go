package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-backend/internal/stats"
)

// Statistics handles GET /api/statistics with an optional machineId.
func (h *Handler) Statistics(c *gin.Context) {
	machineID, ok := queryID(c, "machineId")
	if !ok {
		return
	}
	tickets, err := h.ticketsForStats(c.Request.Context(), machineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats.Compute(tickets, h.businessHours()))
}
