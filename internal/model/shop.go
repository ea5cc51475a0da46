package model

import (
	"time"

	"github.com/google/uuid"
)

// Shop owns tax zones. Single-shop installs resolve the oldest row as default.
type Shop struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Currency  string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
