package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"signalscan_backend/config"
	"signalscan_backend/scheduler"
	"signalscan_backend/services"
	"signalscan_backend/services/archive"
	"signalscan_backend/services/signals"
)

// SignalController serves published signals and scan operations
type SignalController struct {
	store     *signals.Store
	scheduler *scheduler.Scheduler
}

// NewSignalController creates a new signal controller
func NewSignalController(store *signals.Store, sched *scheduler.Scheduler) *SignalController {
	return &SignalController{store: store, scheduler: sched}
}

// GetLatest returns the most recent signal artifact
// GET /api/v1/signals/latest
func (ctrl *SignalController) GetLatest(c *gin.Context) {
	result, err := ctrl.store.LoadLatest()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No signals published yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetByDate returns the artifact for one scan day
// GET /api/v1/signals/date/:date
func (ctrl *SignalController) GetByDate(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	result, err := ctrl.store.Load(date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No signals for " + date})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TriggerScan runs the full daily scan outside its schedule
// POST /api/v1/signals/scan
func (ctrl *SignalController) TriggerScan(c *gin.Context) {
	go ctrl.scheduler.RunDailyScanNow()
	c.JSON(http.StatusAccepted, gin.H{"status": "scan started"})
}

// Revalidate re-checks the latest artifact for staleness and rewrites it
// POST /api/v1/signals/revalidate
func (ctrl *SignalController) Revalidate(c *gin.Context) {
	result, err := ctrl.store.LoadLatest()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No signals published yet"})
		return
	}

	validator := signals.NewValidator(services.GlobalPriceService)
	validator.RevalidateResult(result, time.Now())

	if _, err := ctrl.store.Save(result); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not rewrite artifact"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTextReport renders the latest signals as a plain-text report
// GET /api/v1/signals/report
func (ctrl *SignalController) GetTextReport(c *gin.Context) {
	result, err := ctrl.store.LoadLatest()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No signals published yet"})
		return
	}

	picks, err := services.GlobalHistoricalStore.TopPicks(5)
	if err != nil {
		picks = nil
	}
	c.String(http.StatusOK, signals.RenderText(result, picks, ctrl.store.RecentChanges(5)))
}

// GetArchiveHistory returns archived signals from the relational store
// GET /api/v1/signals/archive
func (ctrl *SignalController) GetArchiveHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := archive.GlobalArchive.History(c.Query("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": records, "count": len(records)})
}

// GetStrategyParams returns the active scan tuning
// GET /api/v1/signals/params
func (ctrl *SignalController) GetStrategyParams(c *gin.Context) {
	c.JSON(http.StatusOK, config.LoadStrategyParams())
}

// UpdateStrategyParams replaces the persisted scan tuning
// PUT /api/v1/signals/params
func (ctrl *SignalController) UpdateStrategyParams(c *gin.Context) {
	var params config.StrategyParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid strategy params"})
		return
	}
	if params.MinDataDays <= 0 || params.VolumeSpikeThreshold <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_data_days and volume_spike_threshold must be positive"})
		return
	}

	if err := config.SaveStrategyParams(params); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save strategy params"})
		return
	}
	c.JSON(http.StatusOK, params)
}
