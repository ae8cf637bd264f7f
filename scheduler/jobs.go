package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"signalscan_backend/config"
	"signalscan_backend/services"
	"signalscan_backend/services/archive"
	"signalscan_backend/services/signals"
	"signalscan_backend/services/tracking"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron  *gocron.Scheduler
	store *signals.Store
}

// NewScheduler creates a new scheduler instance
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:  gocron.NewScheduler(time.UTC),
		store: signals.NewStore(""),
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Run the full market scan daily at 16:30 (after market close)
	s.cron.Every(1).Day().At("16:30").Do(func() {
		if isWeekday() {
			s.runDailyScan()
		}
	})

	// Mark active trades to market daily at 17:00
	s.cron.Every(1).Day().At("17:00").Do(func() {
		if isWeekday() {
			s.updateActiveTrades()
		}
	})

	// Revalidate the latest published signals before the next open
	s.cron.Every(1).Day().At("08:30").Do(func() {
		if isWeekday() {
			s.revalidateLatestSignals()
		}
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// RunDailyScanNow triggers the scan outside its schedule (API use)
func (s *Scheduler) RunDailyScanNow() {
	s.runDailyScan()
}

// runDailyScan evaluates every segment and publishes the day's signals
func (s *Scheduler) runDailyScan() {
	log.Println("Running daily market scan...")

	segments, err := services.LoadSegments("")
	if err != nil {
		log.Printf("Scan aborted, no segments: %v", err)
		return
	}

	params := config.LoadStrategyParams()
	engine := signals.NewEngine(services.GlobalPriceService, services.GlobalHistoricalStore, params)

	result, err := engine.Scan(segments, time.Now())
	if err != nil {
		log.Printf("Scan failed: %v", err)
		return
	}

	path, err := s.store.Save(result)
	if err != nil {
		log.Printf("ERROR: could not save signal artifact: %v", err)
		return
	}
	log.Printf("Signal artifact written to %s", path)

	if err := archive.GlobalArchive.ArchiveResult(result); err != nil {
		log.Printf("Warning: signal archive write failed: %v", err)
	}

	// Open a ledger entry for the day's best signal so it is tracked
	// from publication onwards
	if result.Overall != nil && result.Overall.SignalFound && tracking.GlobalLedger != nil {
		tradeID, err := tracking.GlobalLedger.TrackSignal(result.Overall)
		if err != nil {
			log.Printf("Warning: could not track overall signal: %v", err)
		} else {
			log.Printf("Tracking overall signal %s as trade %s", result.Overall.Symbol, tradeID)
		}
	}
}

// updateActiveTrades marks every open ledger row to market
func (s *Scheduler) updateActiveTrades() {
	log.Println("Updating active trades...")
	if tracking.GlobalLedger == nil {
		log.Println("Ledger not initialized, skipping update")
		return
	}
	if err := tracking.GlobalLedger.UpdateActiveTrades(); err != nil {
		log.Printf("Trade update failed: %v", err)
		return
	}
	log.Println("Active trades updated")
}

// revalidateLatestSignals re-checks the newest artifact for staleness
func (s *Scheduler) revalidateLatestSignals() {
	log.Println("Revalidating latest signals...")

	result, err := s.store.LoadLatest()
	if err != nil {
		log.Printf("No artifact to revalidate: %v", err)
		return
	}

	validator := signals.NewValidator(services.GlobalPriceService)
	validator.RevalidateResult(result, time.Now())

	if _, err := s.store.Save(result); err != nil {
		log.Printf("ERROR: could not rewrite revalidated artifact: %v", err)
		return
	}
	log.Println("Latest signals revalidated")
}

// isWeekday reports whether today is a trading day
func isWeekday() bool {
	day := time.Now().Weekday()
	return day != time.Saturday && day != time.Sunday
}
