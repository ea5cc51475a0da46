package model

import (
	"time"

	"github.com/google/uuid"
)

// Sequence is a named, row-locked counter used for human readable numbers
// (order numbers, invoice numbers). CurrentValue is the last issued value.
type Sequence struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"` // e.g. invoice_number_2026
	Prefix       string    `gorm:"type:varchar(50);not null;default:''" json:"prefix"`
	CurrentValue int64     `gorm:"type:bigint;not null;default:0" json:"current_value"`
	Padding      int       `gorm:"type:int;not null;default:8" json:"padding"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
