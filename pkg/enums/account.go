package enums

import "fmt"

// AccountType classifies ledger accounts.
type AccountType string

const (
	AccountTypeCash       AccountType = "cash"
	AccountTypeBank       AccountType = "bank"
	AccountTypeMobileBank AccountType = "mobile_bank"
	AccountTypeClearing   AccountType = "clearing"
)

var validAccountTypes = []AccountType{
	AccountTypeCash,
	AccountTypeBank,
	AccountTypeMobileBank,
	AccountTypeClearing,
}

// IsValid reports whether the value matches the canonical account type enum.
func (a AccountType) IsValid() bool {
	for _, candidate := range validAccountTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccountType converts the raw string to AccountType.
func ParseAccountType(value string) (AccountType, error) {
	for _, candidate := range validAccountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account type %q", value)
}

// AccountStatus tracks whether an account accepts postings.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

// IsValid reports whether the value matches the canonical account status enum.
func (a AccountStatus) IsValid() bool {
	return a == AccountStatusActive || a == AccountStatusInactive
}
