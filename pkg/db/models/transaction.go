package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// Transaction is an immutable ledger entry. Corrections happen by posting a
// compensating entry tagged reversal_of, never by editing the original.
type Transaction struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type                 enums.TransactionType `gorm:"column:type;type:transaction_type_enum;not null"`
	AccountID            uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	CounterpartAccountID *uuid.UUID            `gorm:"column:counterpart_account_id;type:uuid"`
	CategoryID           *uuid.UUID            `gorm:"column:category_id;type:uuid"`
	Amount               decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	Date                 time.Time             `gorm:"column:date;type:date;not null"`
	PaymentMethod        enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method_enum;not null"`
	ReferenceNumber      *string               `gorm:"column:reference_number"`
	Description          string                `gorm:"column:description;not null"`
	CreatedBy            uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	ReversalOf           *uuid.UUID            `gorm:"column:reversal_of;type:uuid"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
}
