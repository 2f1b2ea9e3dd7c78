package model

import "time"

// ReadinessOpen represents a printer whose filament mapping is currently
// blocked, partial or missing (hot table).
type ReadinessOpen struct {
	PrinterID       string    `gorm:"primaryKey;size:64"`
	ObservedAt      time.Time `gorm:"not null"`
	Status          string    `gorm:"size:16;not null"`
	ExactMatches    int       `gorm:"not null"`
	TypeOnlyMatches int       `gorm:"not null"`
	MissingTypes    int       `gorm:"not null"`
	TotalSlots      int       `gorm:"not null"`
}

// ReadinessHistory represents the historical log of blocked periods (cold table).
type ReadinessHistory struct {
	ID          int64     `gorm:"autoIncrement"`
	PrinterID   string    `gorm:"not null;index;primaryKey;size:64"`
	ObservedAt  time.Time `gorm:"not null;index;primaryKey"` // when the blocked period's end was observed
	Status      string    `gorm:"size:16;not null"`
	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`
}
