package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// ProvidentFundTransaction is an append-only PF sub-ledger entry per staff member.
type ProvidentFundTransaction struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StaffID              uuid.UUID               `gorm:"column:staff_id;type:uuid;not null;index"`
	Type                 enums.PFTransactionType `gorm:"column:type;type:pf_transaction_type_enum;not null"`
	EmployeeContribution decimal.Decimal         `gorm:"column:employee_contribution;type:numeric(14,2);not null"`
	EmployerContribution decimal.Decimal         `gorm:"column:employer_contribution;type:numeric(14,2);not null"`
	TotalContribution    decimal.Decimal         `gorm:"column:total_contribution;type:numeric(14,2);not null"`
	TransactionDate      time.Time               `gorm:"column:transaction_date;type:date;not null"`
	SalaryPaymentID      *uuid.UUID              `gorm:"column:salary_payment_id;type:uuid"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
}
