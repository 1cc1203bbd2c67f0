package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStructure defines the billed amount for a fee type in a given period.
// Direct payments against a structure create paid fee collection rows.
type FeeStructure struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FeeTypeID      uuid.UUID       `gorm:"column:fee_type_id;type:uuid;not null;index"`
	AcademicYearID uuid.UUID       `gorm:"column:academic_year_id;type:uuid;not null;index"`
	Month          int             `gorm:"column:month;not null"`
	Year           int             `gorm:"column:year;not null"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
