package model

import "time"

// Printer represents one configured printer in the fleet.
type Printer struct {
	ID        string    `gorm:"primaryKey;size:64"` // serial number
	Name      string    `gorm:"size:128;not null"`
	Model     string    `gorm:"size:64"`
	Host      string    `gorm:"size:256"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
