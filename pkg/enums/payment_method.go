package enums

import "fmt"

// PaymentMethod describes how money changed hands for a posting.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCheque        PaymentMethod = "cheque"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodMobileBanking PaymentMethod = "mobile_banking"
	// PaymentMethodInternalTransfer marks postings that net internally with no
	// external cash movement, such as provident fund clearing legs.
	PaymentMethodInternalTransfer PaymentMethod = "internal_transfer"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCheque,
	PaymentMethodBankTransfer,
	PaymentMethodMobileBanking,
	PaymentMethodInternalTransfer,
}

// IsValid reports whether the value matches the canonical payment method enum.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts the raw string to PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
