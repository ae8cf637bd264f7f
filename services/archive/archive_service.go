package archive

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"signalscan_backend/models"
)

// Service stores emitted signals in the relational archive. The archive
// is optional: when no database is configured the service is nil and
// every call is a no-op, keeping the scanner in file-only mode.
type Service struct {
	db *gorm.DB
}

// Global archive service, nil when the database is not connected
var GlobalArchive *Service

// InitArchive wires the archive to a connected database
func InitArchive(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("no database connection")
	}
	if err := models.MigrateSignalModels(db); err != nil {
		return fmt.Errorf("failed to migrate signal archive: %w", err)
	}
	GlobalArchive = &Service{db: db}
	log.Println("Signal archive initialized")
	return nil
}

// ArchiveResult stores every signal of a scan result
func (s *Service) ArchiveResult(result *models.ScanResult) error {
	if s == nil || s.db == nil || result == nil {
		return nil
	}

	var records []models.SignalRecord
	if result.Overall != nil {
		records = append(records, recordFromSignal("overall", result.Overall))
	}
	for segment, sig := range result.Segments {
		if sig == nil {
			continue
		}
		records = append(records, recordFromSignal(segment, sig))
	}
	if len(records) == 0 {
		return nil
	}

	if err := s.db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to archive signals: %w", err)
	}
	return nil
}

// History returns archived signals for a symbol, newest first
func (s *Service) History(symbol string, limit int) ([]models.SignalRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("signal archive not available")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var records []models.SignalRecord
	query := s.db.Order("signal_date DESC, id DESC").Limit(limit)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func recordFromSignal(segment string, sig *models.Signal) models.SignalRecord {
	return models.SignalRecord{
		Segment:         segment,
		Symbol:          sig.Symbol,
		SignalDate:      sig.Date,
		SignalFound:     sig.SignalFound,
		SetupType:       sig.SetupType,
		Tier:            sig.Tier,
		Score:           sig.Score,
		EntryPrice:      sig.EntryPrice,
		StopLossPrice:   sig.StopLossPrice,
		TargetPrice:     sig.TargetPrice,
		RiskRewardRatio: sig.RiskRewardRatio,
		ATR:             sig.ATR,
		LatestClose:     sig.LatestClose,
		Message:         sig.Message,
	}
}
