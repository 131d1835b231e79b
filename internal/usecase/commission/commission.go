package commission

import "errors"

// Commission rate: 15 per 1000, i.e. 1.5%
const (
	RateNumerator   int64 = 15
	RateDenominator int64 = 1000
)

// Calculate returns the commission in cents for an amount in cents.
// Logic:
//  1. Split the amount into quotient and remainder by 1000
//  2. The quotient part contributes exactly quotient*15 cents
//  3. The remainder part is rounded half-up: (remainder*15 + 500) / 1000
//
// No floating point is involved, and the result equals round_half_up(amount * 0.015)
// for every non-negative amount, including math.MaxInt64.
func Calculate(amountCents int64) (int64, error) {
	if amountCents < 0 {
		return 0, errors.New("amount must not be negative")
	}

	quotient := amountCents / RateDenominator
	remainder := amountCents % RateDenominator

	rounded := (remainder*RateNumerator + RateDenominator/2) / RateDenominator
	return quotient*RateNumerator + rounded, nil
}
