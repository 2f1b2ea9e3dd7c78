package model

import "time"

// PrinterConfig persists a printer's per-job override configuration so
// manual mappings survive a restart. Mappings is a JSON-encoded
// slot_id -> globalTrayId object.
type PrinterConfig struct {
	PrinterID      string    `gorm:"primaryKey;size:64"`
	UseDefault     bool      `gorm:"not null"`
	AutoConfigured bool      `gorm:"not null"`
	Mappings       string    `gorm:"type:text;not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
