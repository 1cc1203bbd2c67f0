package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightpath/schoolbooks-backend/pkg/enums"
)

// FeesCollectedEvent is emitted once per receipt when a payment settles a
// batch of fee lines.
type FeesCollectedEvent struct {
	ReceiptNumber    string              `json:"receipt_number"`
	StudentID        uuid.UUID           `json:"student_id"`
	AccountID        uuid.UUID           `json:"account_id"`
	FeeCollectionIDs []uuid.UUID         `json:"fee_collection_ids"`
	TotalPaid        decimal.Decimal     `json:"total_paid"`
	Discount         decimal.Decimal     `json:"discount"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	PaymentDate      time.Time           `json:"payment_date"`
}

// FeeCollectionReversedEvent reports that a receipt's fee lines were removed
// and its ledger postings reversed.
type FeeCollectionReversedEvent struct {
	ReceiptNumber    string      `json:"receipt_number"`
	StudentID        uuid.UUID   `json:"student_id"`
	FeeCollectionIDs []uuid.UUID `json:"fee_collection_ids"`
	ReversalIDs      []uuid.UUID `json:"reversal_transaction_ids"`
}

// PayrollPostedEvent is emitted when a staff member's monthly salary is paid.
type PayrollPostedEvent struct {
	SalaryPaymentID uuid.UUID       `json:"salary_payment_id"`
	StaffID         uuid.UUID       `json:"staff_id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	NetPayable      decimal.Decimal `json:"net_payable"`
	PFContribution  decimal.Decimal `json:"pf_contribution"`
}

// ProvidentFundWithdrawnEvent reports a staff member draining their fund.
type ProvidentFundWithdrawnEvent struct {
	WithdrawalID uuid.UUID       `json:"withdrawal_id"`
	StaffID      uuid.UUID       `json:"staff_id"`
	Amount       decimal.Decimal `json:"amount"`
	WithdrawnAt  time.Time       `json:"withdrawn_at"`
}
