package enums

import "fmt"

// TransactionType classifies a wallet ledger entry.
type TransactionType string

const (
	// TransactionTypeDeposit credits a wallet from an external source
	// (simulated capture or a paid-out earnings batch).
	TransactionTypeDeposit TransactionType = "deposit"
	// TransactionTypeWithdrawal debits a wallet when a cash-out request
	// reserves funds.
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	// TransactionTypePayment debits a client wallet to hold funds against a
	// booking.
	TransactionTypePayment TransactionType = "payment"
	// TransactionTypeEarning credits a provider wallet when a booking hold is
	// released.
	TransactionTypeEarning TransactionType = "earning"
	// TransactionTypeRefund credits a wallet to compensate a rejected
	// withdrawal request.
	TransactionTypeRefund TransactionType = "refund"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeDeposit,
	TransactionTypeWithdrawal,
	TransactionTypePayment,
	TransactionTypeEarning,
	TransactionTypeRefund,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
