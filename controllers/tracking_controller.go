package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"signalscan_backend/models"
	"signalscan_backend/services/tracking"
)

// TrackingController manages the trade ledger over HTTP
type TrackingController struct {
	ledger   *tracking.Ledger
	reporter *tracking.Reporter
}

// NewTrackingController creates a new tracking controller
func NewTrackingController(ledger *tracking.Ledger) *TrackingController {
	return &TrackingController{
		ledger:   ledger,
		reporter: tracking.NewReporter(ledger),
	}
}

// GetTrades lists every ledger row
// GET /api/v1/tracking/trades
func (ctrl *TrackingController) GetTrades(c *gin.Context) {
	trades, err := ctrl.ledger.ListTrades()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := c.Query("status")
	if status != "" {
		filtered := make([]models.Trade, 0, len(trades))
		for _, t := range trades {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		trades = filtered
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

// TrackSignal opens a ledger entry from a published signal
// POST /api/v1/tracking/signals
func (ctrl *TrackingController) TrackSignal(c *gin.Context) {
	var sig models.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signal payload"})
		return
	}

	tradeID, err := ctrl.ledger.TrackSignal(&sig)
	if err != nil {
		if errors.Is(err, tracking.ErrMissingField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trade_id": tradeID})
}

// ManualPickRequest is the payload for a hand-entered trade
type ManualPickRequest struct {
	Symbol      string  `json:"symbol" binding:"required"`
	EntryPrice  float64 `json:"entry_price" binding:"required"`
	StopLoss    float64 `json:"stop_loss_price" binding:"required"`
	TargetPrice float64 `json:"target_price" binding:"required"`
	Notes       string  `json:"notes"`
}

// AddManualPick opens a ledger entry entered by hand
// POST /api/v1/tracking/manual
func (ctrl *TrackingController) AddManualPick(c *gin.Context) {
	var req ManualPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol, entry_price, stop_loss_price and target_price are required"})
		return
	}

	tradeID, err := ctrl.ledger.AddManualPick(req.Symbol, req.EntryPrice, req.StopLoss, req.TargetPrice, req.Notes)
	if err != nil {
		if errors.Is(err, tracking.ErrMissingField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trade_id": tradeID})
}

// UpdateTrades marks every active trade to market
// POST /api/v1/tracking/update
func (ctrl *TrackingController) UpdateTrades(c *gin.Context) {
	if err := ctrl.ledger.UpdateActiveTrades(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// CloseTradeRequest is the payload for closing a trade
type CloseTradeRequest struct {
	ExitPrice  float64 `json:"exit_price" binding:"required"`
	ExitReason string  `json:"exit_reason"`
}

// CloseTrade moves one trade to its terminal state
// POST /api/v1/tracking/trades/:id/close
func (ctrl *TrackingController) CloseTrade(c *gin.Context) {
	tradeID := c.Param("id")

	var req CloseTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exit_price is required"})
		return
	}

	if err := ctrl.ledger.CloseTrade(tradeID, req.ExitPrice, req.ExitReason); err != nil {
		if errors.Is(err, tracking.ErrTradeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "closed", "trade_id": tradeID})
}

// GetMonthlyReport builds the performance rollup for one month
// GET /api/v1/tracking/report/:year/:month
func (ctrl *TrackingController) GetMonthlyReport(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}

	report := ctrl.reporter.MonthlyReport(year, time.Month(month))
	c.JSON(http.StatusOK, report)
}
