package models

import (
	"time"

	"github.com/google/uuid"
)

// FeeType names a billable fee category (tuition, transport, exam, ...).
type FeeType struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;unique"`
	Description *string   `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
