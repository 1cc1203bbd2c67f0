package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// FeeCollection is one student's due (or paid) fee line. Rows that share a
// receipt_number were settled together by a single posted transaction; the
// transaction id is stored on every row so deleting the group can reverse
// the ledger exactly.
type FeeCollection struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StudentID      uuid.UUID                 `gorm:"column:student_id;type:uuid;not null;index"`
	FeeTypeID      uuid.UUID                 `gorm:"column:fee_type_id;type:uuid;not null;index"`
	AcademicYearID uuid.UUID                 `gorm:"column:academic_year_id;type:uuid;not null"`
	AccountID      *uuid.UUID                `gorm:"column:account_id;type:uuid"`
	Month          int                       `gorm:"column:month;not null"`
	Year           int                       `gorm:"column:year;not null"`
	Amount         decimal.Decimal           `gorm:"column:amount;type:numeric(14,2);not null"`
	LateFee        decimal.Decimal           `gorm:"column:late_fee;type:numeric(14,2);not null;default:0"`
	Discount       decimal.Decimal           `gorm:"column:discount;type:numeric(14,2);not null;default:0"`
	TotalAmount    decimal.Decimal           `gorm:"column:total_amount;type:numeric(14,2);not null"`
	PaidAmount     decimal.Decimal           `gorm:"column:paid_amount;type:numeric(14,2);not null;default:0"`
	Status         enums.FeeCollectionStatus `gorm:"column:status;type:fee_collection_status_enum;not null;default:'pending'"`
	DueDate        *time.Time                `gorm:"column:due_date;type:date"`
	ReceiptNumber  *string                   `gorm:"column:receipt_number;index"`
	TransactionID  *uuid.UUID                `gorm:"column:transaction_id;type:uuid"`
	PaymentDate    *time.Time                `gorm:"column:payment_date;type:date"`
	PaymentMethod  *enums.PaymentMethod      `gorm:"column:payment_method;type:payment_method_enum"`
	CollectedBy    *uuid.UUID                `gorm:"column:collected_by;type:uuid"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
