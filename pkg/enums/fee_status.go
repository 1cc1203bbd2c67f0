package enums

import "fmt"

// FeeCollectionStatus tracks the lifecycle of a fee collection row.
type FeeCollectionStatus string

const (
	FeeCollectionStatusPending FeeCollectionStatus = "pending"
	FeeCollectionStatusOverdue FeeCollectionStatus = "overdue"
	FeeCollectionStatusPaid    FeeCollectionStatus = "paid"
)

var validFeeCollectionStatuses = []FeeCollectionStatus{
	FeeCollectionStatusPending,
	FeeCollectionStatusOverdue,
	FeeCollectionStatusPaid,
}

// IsValid reports whether the value matches the canonical fee status enum.
func (f FeeCollectionStatus) IsValid() bool {
	for _, candidate := range validFeeCollectionStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeeCollectionStatus converts the raw string to FeeCollectionStatus.
func ParseFeeCollectionStatus(value string) (FeeCollectionStatus, error) {
	for _, candidate := range validFeeCollectionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee collection status %q", value)
}

// IsSettled reports whether the row has already been paid.
func (f FeeCollectionStatus) IsSettled() bool {
	return f == FeeCollectionStatusPaid
}
