package enums

import "fmt"

// OutboxEventType names the domain events the finance core emits.
type OutboxEventType string

const (
	EventFeesCollected         OutboxEventType = "fees.collected"
	EventFeeCollectionReversed OutboxEventType = "fee_collection.reversed"
	EventPayrollPosted         OutboxEventType = "payroll.posted"
	EventProvidentFundWithdrew OutboxEventType = "provident_fund.withdrawn"
)

var validOutboxEventTypes = []OutboxEventType{
	EventFeesCollected,
	EventFeeCollectionReversed,
	EventPayrollPosted,
	EventProvidentFundWithdrew,
}

// IsValid reports whether the value matches a known outbox event type.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts the raw string to OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateReceipt       OutboxAggregateType = "receipt"
	AggregateSalaryPayment OutboxAggregateType = "salary_payment"
	AggregatePFWithdrawal  OutboxAggregateType = "pf_withdrawal"
)

// IsValid reports whether the value matches a known aggregate type.
func (o OutboxAggregateType) IsValid() bool {
	switch o {
	case AggregateReceipt, AggregateSalaryPayment, AggregatePFWithdrawal:
		return true
	}
	return false
}
