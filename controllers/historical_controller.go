package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"signalscan_backend/services"
)

// HistoricalController serves long-run per-symbol performance stats
type HistoricalController struct{}

// NewHistoricalController creates a new historical controller
func NewHistoricalController() *HistoricalController {
	return &HistoricalController{}
}

// GetTopPicks returns the strongest symbols by long-run strength score
// GET /api/v1/historical/top
func (ctrl *HistoricalController) GetTopPicks(c *gin.Context) {
	if services.GlobalHistoricalStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Historical store not available"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	picks, err := services.GlobalHistoricalStore.TopPicks(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"picks": picks, "count": len(picks)})
}

// GetSymbol returns the stats row for one symbol
// GET /api/v1/historical/symbol/:symbol
func (ctrl *HistoricalController) GetSymbol(c *gin.Context) {
	if services.GlobalHistoricalStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Historical store not available"})
		return
	}

	record, err := services.GlobalHistoricalStore.Lookup(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No history for symbol"})
		return
	}
	c.JSON(http.StatusOK, record)
}
