package routes

import (
	"github.com/gin-gonic/gin"

	"signalscan_backend/config"
	"signalscan_backend/controllers"
	"signalscan_backend/middleware"
	"signalscan_backend/models"
	"signalscan_backend/scheduler"
	"signalscan_backend/services/signals"
	"signalscan_backend/services/tracking"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, cfg *config.Config, credential *models.AdminCredential, sched *scheduler.Scheduler) {
	store := signals.NewStore("")

	// Initialize controllers
	authController := controllers.NewAuthController(credential, cfg.JWTSecret)
	signalController := controllers.NewSignalController(store, sched)
	trackingController := controllers.NewTrackingController(tracking.GlobalLedger)
	historicalController := controllers.NewHistoricalController()

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Auth routes
		api.POST("/auth/login", middleware.LoginRateLimitMiddleware(), authController.Login)

		// Signal routes
		sigRoutes := api.Group("/signals")
		{
			sigRoutes.GET("/latest", signalController.GetLatest)
			sigRoutes.GET("/date/:date", signalController.GetByDate)
			sigRoutes.GET("/report", signalController.GetTextReport)
			sigRoutes.GET("/archive", signalController.GetArchiveHistory)
			sigRoutes.GET("/params", signalController.GetStrategyParams)

			sigRoutes.POST("/scan", auth, signalController.TriggerScan)
			sigRoutes.POST("/revalidate", auth, signalController.Revalidate)
			sigRoutes.PUT("/params", auth, signalController.UpdateStrategyParams)
		}

		// Trade ledger routes
		trackRoutes := api.Group("/tracking")
		{
			trackRoutes.GET("/trades", trackingController.GetTrades)
			trackRoutes.GET("/report/:year/:month", trackingController.GetMonthlyReport)

			trackRoutes.POST("/signals", auth, trackingController.TrackSignal)
			trackRoutes.POST("/manual", auth, trackingController.AddManualPick)
			trackRoutes.POST("/update", auth, trackingController.UpdateTrades)
			trackRoutes.POST("/trades/:id/close", auth, trackingController.CloseTrade)
		}

		// Historical performance routes
		histRoutes := api.Group("/historical")
		{
			histRoutes.GET("/top", historicalController.GetTopPicks)
			histRoutes.GET("/symbol/:symbol", historicalController.GetSymbol)
		}
	}
}
