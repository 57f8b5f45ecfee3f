package wallet

import "github.com/shopspring/decimal"

// admit decides whether a signed amount may be applied to a balance and
// returns the resulting balance. A wallet balance must never go negative, so
// any debit larger than the current balance is inadmissible.
func admit(balance, amount decimal.Decimal) (decimal.Decimal, bool) {
	next := balance.Add(amount)
	if next.IsNegative() {
		return decimal.Decimal{}, false
	}
	return next, true
}
