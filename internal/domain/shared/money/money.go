package money

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Money is an amount in integer minor units (cents) with its ISO 4217
// currency. Integer math keeps fee and refund splits exact.
type Money struct {
	Amount   int64
	Currency string
}

// New validates the currency code and normalizes it to upper case.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must is New for fixtures and tests; it panics on a bad currency.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency == "" || other.Currency == "" {
		return Money{}, ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// PercentBasisPoints takes the bps fraction of the amount (100 bps = 1%),
// truncating toward zero. Fee and refund percentages are stored in basis
// points so no float ever touches a price.
func (m Money) PercentBasisPoints(bps int64) Money {
	if bps <= 0 {
		return Money{Amount: 0, Currency: m.Currency}
	}
	return Money{Amount: m.Amount * bps / 10000, Currency: m.Currency}
}
