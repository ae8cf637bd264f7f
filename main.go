package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"signalscan_backend/config"
	"signalscan_backend/models"
	"signalscan_backend/routes"
	"signalscan_backend/scheduler"
	"signalscan_backend/services"
	"signalscan_backend/services/archive"
	"signalscan_backend/services/tracking"
)

// servicesInitialized tracks whether the domain services have come up.
// Guarded by a mutex so the /ready endpoint can check it from any goroutine.
var servicesInitialized bool
var initMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  SignalScan Backend API - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Health endpoints come up first so orchestrators see the service
	// while domain services initialize in the background
	setupHealthEndpoints(router)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize domain services and routes in background
	var jobScheduler *scheduler.Scheduler
	go func() {
		initializeGlobalServices(cfg)

		credential, err := models.NewAdminCredential(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.Printf("Warning: Admin credential not configured, login disabled: %v", err)
		}

		// The relational signal archive is optional: without a database
		// the scanner keeps running in file-only mode
		if db, err := config.InitDB(); err != nil {
			log.Printf("Signal archive database not available: %v", err)
			log.Println("Continuing in file-only mode")
		} else if err := archive.InitArchive(db); err != nil {
			log.Printf("Warning: Could not initialize signal archive: %v", err)
		}

		jobScheduler = scheduler.NewScheduler()
		routes.SetupRoutes(router, cfg, credential, jobScheduler)
		go jobScheduler.Start()

		initMutex.Lock()
		servicesInitialized = true
		initMutex.Unlock()

		log.Println("Application fully initialized")
	}()

	// Graceful shutdown
	gracefulShutdown(server, jobScheduler)
}

// initializeGlobalServices initializes global service instances
func initializeGlobalServices(cfg *config.Config) {
	if err := services.InitPriceService(cfg.PriceAPIBaseURL); err != nil {
		log.Printf("Warning: Failed to initialize price service: %v", err)
	}

	if err := services.InitHistoricalStore(cfg.HistoricalDB); err != nil {
		log.Printf("Historical store not available: %v", err)
	}

	if err := tracking.InitLedger(cfg.TrackingDir, services.GlobalPriceService); err != nil {
		log.Printf("Warning: Failed to initialize trade ledger: %v", err)
	}

	log.Println("Global services initialized")
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "SignalScan Backend API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if domain services are up
	router.GET("/ready", func(c *gin.Context) {
		initMutex.RLock()
		ready := servicesInitialized
		initMutex.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Services still initializing",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	// Startup probe
	router.GET("/startup", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "started",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || path == "/startup" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler *scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first
	if jobScheduler != nil {
		jobScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close database handles
	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}
	if services.GlobalHistoricalStore != nil {
		services.GlobalHistoricalStore.Close()
	}

	log.Println("Server shutdown completed")
}
