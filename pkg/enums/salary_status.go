package enums

// SalaryPaymentStatus tracks the state of a payroll disbursement.
type SalaryPaymentStatus string

const (
	SalaryPaymentStatusPaid     SalaryPaymentStatus = "paid"
	SalaryPaymentStatusReversed SalaryPaymentStatus = "reversed"
)

// IsValid reports whether the value matches the canonical salary status enum.
func (s SalaryPaymentStatus) IsValid() bool {
	return s == SalaryPaymentStatusPaid || s == SalaryPaymentStatusReversed
}
