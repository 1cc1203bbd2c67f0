package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// Account holds a running balance that only ledger postings may mutate.
type Account struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string              `gorm:"column:name;not null"`
	Type           enums.AccountType   `gorm:"column:type;type:account_type_enum;not null"`
	CurrentBalance decimal.Decimal     `gorm:"column:current_balance;type:numeric(14,2);not null;default:0"`
	Status         enums.AccountStatus `gorm:"column:status;type:account_status_enum;not null;default:'active'"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
