package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Account represents a wallet account entity in the domain layer.
// Balance is a scale-2 amount that is never negative; it is only mutated by
// the transfer engine while the account row is locked.
type Account struct {
	ID      int64
	Balance decimal.Decimal
}

// Validate ensures the account adheres to domain rules
func (a *Account) Validate() error {
	if a.ID <= 0 {
		return errors.New("account ID must be positive")
	}

	if a.Balance.IsNegative() {
		return errors.New("account balance cannot be negative")
	}

	// Balances are stored with exactly two fractional digits
	if !a.Balance.Equal(a.Balance.Truncate(2)) {
		return errors.New("account balance must have at most two fractional digits")
	}

	return nil
}

// BalanceString returns the balance as a canonical scale-2 string
func (a *Account) BalanceString() string {
	return a.Balance.StringFixed(2)
}
