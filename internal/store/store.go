package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"printfleet-backend/internal/fleet"
	"printfleet-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	UpsertPrinters(ctx context.Context, printers []PrinterInfo) error
	SaveConfig(ctx context.Context, printerID string, cfg fleet.Config) error
	LoadConfigs(ctx context.Context) (map[string]fleet.Config, error)
	// UpdateReadiness reconciles the hot/cold readiness tables against the
	// latest per-printer results and returns the IDs of printers whose
	// mapping just became ready.
	UpdateReadiness(ctx context.Context, now time.Time, results []fleet.PrinterResult) ([]string, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertPrinters writes printer metadata, updating rows that changed.
func (s *gormStore) UpsertPrinters(ctx context.Context, printers []PrinterInfo) error {
	if len(printers) == 0 {
		return nil
	}

	existing, err := s.fetchAllPrinters(ctx)
	if err != nil {
		log.Printf("Warning: could not pre-fetch printers: %v", err)
		existing = make(map[string]model.Printer)
	}

	var toUpsert []model.Printer
	for _, p := range printers {
		row := model.Printer{ID: p.ID, Name: p.Name, Model: p.Model, Host: p.Host}
		if old, ok := existing[p.ID]; ok {
			if old.Name == row.Name && old.Model == row.Model && old.Host == row.Host {
				continue
			}
		}
		toUpsert = append(toUpsert, row)
	}

	if len(toUpsert) == 0 {
		return nil
	}
	log.Printf("Batch upserting %d printers...", len(toUpsert))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "model", "host", "updated_at"}),
	}).Create(&toUpsert).Error
}

// SaveConfig persists one printer's override configuration.
func (s *gormStore) SaveConfig(ctx context.Context, printerID string, cfg fleet.Config) error {
	encoded, err := json.Marshal(cfg.ManualMappings)
	if err != nil {
		return fmt.Errorf("failed to encode mappings for printer %s: %w", printerID, err)
	}

	row := model.PrinterConfig{
		PrinterID:      printerID,
		UseDefault:     cfg.UseDefault,
		AutoConfigured: cfg.AutoConfigured,
		Mappings:       string(encoded),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "printer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"use_default", "auto_configured", "mappings", "updated_at"}),
	}).Create(&row).Error
}

// LoadConfigs reads every persisted printer configuration. Rows with
// undecodable mappings are skipped rather than failing the load.
func (s *gormStore) LoadConfigs(ctx context.Context) (map[string]fleet.Config, error) {
	var rows []model.PrinterConfig
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	configs := make(map[string]fleet.Config, len(rows))
	for _, row := range rows {
		mappings := make(map[int]int)
		if row.Mappings != "" {
			if err := json.Unmarshal([]byte(row.Mappings), &mappings); err != nil {
				log.Printf("Warning: skipping config for printer %s: bad mappings: %v", row.PrinterID, err)
				continue
			}
		}
		configs[row.PrinterID] = fleet.Config{
			UseDefault:     row.UseDefault,
			AutoConfigured: row.AutoConfigured,
			ManualMappings: mappings,
		}
	}
	return configs, nil
}

// UpdateReadiness processes readiness changes and updates the database
// transactionally. A printer appears in the hot table while its mapping is
// blocked; leaving the hot table means it just became ready.
func (s *gormStore) UpdateReadiness(ctx context.Context, now time.Time, results []fleet.PrinterResult) ([]string, error) {
	currentOpen, err := s.fetchAllOpenReadiness(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open readiness records: %w", err)
	}

	var becameReady []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, result := range results {
			blocked := result.MatchStatus != fleet.StatusFull
			oldRecord, exists := currentOpen[result.PrinterID]

			if exists {
				if string(result.MatchStatus) != oldRecord.Status {
					if err := archiveRecord(tx, oldRecord, now); err != nil {
						return err
					}

					if blocked {
						updated := prepareReadiness(result, now)
						if err := tx.Save(&updated).Error; err != nil {
							return fmt.Errorf("failed to update readiness record for printer %s: %w", result.PrinterID, err)
						}
					} else {
						if err := tx.Delete(&model.ReadinessOpen{}, "printer_id = ?", oldRecord.PrinterID).Error; err != nil {
							return fmt.Errorf("failed to delete readiness record for printer %s: %w", oldRecord.PrinterID, err)
						}
						becameReady = append(becameReady, result.PrinterID)
					}
				}
				delete(currentOpen, result.PrinterID)
			} else if blocked {
				newRecord := prepareReadiness(result, now)
				if err := tx.Create(&newRecord).Error; err != nil {
					return fmt.Errorf("failed to create readiness record for printer %s: %w", result.PrinterID, err)
				}
			}
		}

		// Printers that dropped out of the selection entirely.
		for _, remaining := range currentOpen {
			if err := archiveRecord(tx, remaining, now); err != nil {
				return err
			}
			if err := tx.Delete(&model.ReadinessOpen{}, "printer_id = ?", remaining.PrinterID).Error; err != nil {
				return fmt.Errorf("failed to delete readiness record for printer %s: %w", remaining.PrinterID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return becameReady, nil
}

// archiveRecord writes the completed blocked period to the cold table.
func archiveRecord(tx *gorm.DB, recordToArchive model.ReadinessOpen, observationTime time.Time) error {
	historyRecord := model.ReadinessHistory{
		PrinterID:   recordToArchive.PrinterID,
		ObservedAt:  observationTime,
		Status:      recordToArchive.Status,
		PeriodStart: recordToArchive.ObservedAt,
		PeriodEnd:   observationTime,
	}
	if err := tx.Create(&historyRecord).Error; err != nil {
		return fmt.Errorf("failed to archive readiness record for printer %s: %w", recordToArchive.PrinterID, err)
	}
	return nil
}

func prepareReadiness(result fleet.PrinterResult, now time.Time) model.ReadinessOpen {
	return model.ReadinessOpen{
		PrinterID:       result.PrinterID,
		ObservedAt:      now,
		Status:          string(result.MatchStatus),
		ExactMatches:    result.ExactMatches,
		TypeOnlyMatches: result.TypeOnlyMatches,
		MissingTypes:    result.MissingTypes,
		TotalSlots:      result.TotalSlots,
	}
}

func (s *gormStore) fetchAllOpenReadiness(ctx context.Context) (map[string]model.ReadinessOpen, error) {
	var openRecords []model.ReadinessOpen
	if err := s.db.WithContext(ctx).Find(&openRecords).Error; err != nil {
		return nil, err
	}
	recordMap := make(map[string]model.ReadinessOpen, len(openRecords))
	for _, r := range openRecords {
		recordMap[r.PrinterID] = r
	}
	return recordMap, nil
}

func (s *gormStore) fetchAllPrinters(ctx context.Context) (map[string]model.Printer, error) {
	var printers []model.Printer
	if err := s.db.WithContext(ctx).Find(&printers).Error; err != nil {
		return nil, err
	}
	printerMap := make(map[string]model.Printer, len(printers))
	for _, p := range printers {
		printerMap[p.ID] = p
	}
	return printerMap, nil
}
