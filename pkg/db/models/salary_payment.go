package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// SalaryPayment records one payroll run for a staff member. At most one row
// exists per (staff_id, month, year).
type SalaryPayment struct {
	ID                     uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StaffID                uuid.UUID                 `gorm:"column:staff_id;type:uuid;not null;uniqueIndex:ux_salary_payments_staff_period"`
	Month                  int                       `gorm:"column:month;not null;uniqueIndex:ux_salary_payments_staff_period"`
	Year                   int                       `gorm:"column:year;not null;uniqueIndex:ux_salary_payments_staff_period"`
	BaseSalary             decimal.Decimal           `gorm:"column:base_salary;type:numeric(14,2);not null"`
	ProvidentFundDeduction decimal.Decimal           `gorm:"column:provident_fund_deduction;type:numeric(14,2);not null"`
	EmployerPFContribution decimal.Decimal           `gorm:"column:employer_pf_contribution;type:numeric(14,2);not null"`
	NetSalary              decimal.Decimal           `gorm:"column:net_salary;type:numeric(14,2);not null"`
	TotalAmount            decimal.Decimal           `gorm:"column:total_amount;type:numeric(14,2);not null"`
	PaymentDate            time.Time                 `gorm:"column:payment_date;type:date;not null"`
	AccountID              uuid.UUID                 `gorm:"column:account_id;type:uuid;not null"`
	PaymentMethod          enums.PaymentMethod       `gorm:"column:payment_method;type:payment_method_enum;not null"`
	Status                 enums.SalaryPaymentStatus `gorm:"column:status;type:salary_payment_status_enum;not null;default:'paid'"`
	CreatedBy              uuid.UUID                 `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt              time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
