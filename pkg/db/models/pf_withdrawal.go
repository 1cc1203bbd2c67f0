package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PFWithdrawal drains a staff member's provident fund balance. Cumulative
// withdrawals per staff never exceed cumulative contributions.
type PFWithdrawal struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StaffID              uuid.UUID       `gorm:"column:staff_id;type:uuid;not null;index"`
	EmployeeContribution decimal.Decimal `gorm:"column:employee_contribution;type:numeric(14,2);not null"`
	EmployerContribution decimal.Decimal `gorm:"column:employer_contribution;type:numeric(14,2);not null"`
	TotalAmount          decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null"`
	WithdrawalDate       time.Time       `gorm:"column:withdrawal_date;type:date;not null"`
	Reason               string          `gorm:"column:reason;not null"`
	ApprovedBy           uuid.UUID       `gorm:"column:approved_by;type:uuid;not null"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
}
