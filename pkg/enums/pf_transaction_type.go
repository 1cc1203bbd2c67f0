package enums

import "fmt"

// PFTransactionType classifies provident fund ledger entries.
type PFTransactionType string

const (
	PFTransactionTypeOpening      PFTransactionType = "opening"
	PFTransactionTypeContribution PFTransactionType = "contribution"
)

var validPFTransactionTypes = []PFTransactionType{
	PFTransactionTypeOpening,
	PFTransactionTypeContribution,
}

// IsValid reports whether the value matches the canonical PF transaction type enum.
func (p PFTransactionType) IsValid() bool {
	for _, candidate := range validPFTransactionTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePFTransactionType converts the raw string to PFTransactionType.
func ParsePFTransactionType(value string) (PFTransactionType, error) {
	for _, candidate := range validPFTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid provident fund transaction type %q", value)
}
