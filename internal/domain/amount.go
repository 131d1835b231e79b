package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ZeroAmount is the normalized representation of zero
const ZeroAmount = "0.00"

// amountPattern accepts unsigned decimals with at most two fractional digits
var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// maxWholeUnits is the largest integer part whose cent value still fits in int64.
// Derived from math.MaxInt64 / 100.
var maxWholeUnits = strconv.FormatInt(math.MaxInt64/100, 10)

// NormalizeAmount converts a raw decimal string into its canonical scale-2 form.
// "10" becomes "10.00" and "10.5" becomes "10.50". Signs, exponents, more than
// two fractional digits and anything else that does not match the pattern fail
// with ErrInvalidAmountFormat.
func NormalizeAmount(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if !amountPattern.MatchString(value) {
		return "", ErrInvalidAmountFormat
	}

	whole, frac, found := strings.Cut(value, ".")
	if !found {
		return whole + ".00", nil
	}

	frac = (frac + "00")[:2]
	return whole + "." + frac, nil
}

// IsZeroAmount reports whether a normalized amount is zero, leading zeros included
func IsZeroAmount(normalized string) bool {
	return strings.Trim(normalized, "0.") == ""
}

// IsRepresentable is the cheap pre-check run before ToCents. It compares the
// integer part against math.MaxInt64/100, digit length first and then
// lexicographically, so clearly oversized inputs are rejected before any
// multiplication happens.
func IsRepresentable(normalized string) bool {
	whole, _, _ := strings.Cut(normalized, ".")
	whole = trimLeadingZeros(whole)

	if len(whole) != len(maxWholeUnits) {
		return len(whole) < len(maxWholeUnits)
	}
	return whole <= maxWholeUnits
}

// ToCents converts a normalized scale-2 amount into an exact count of cents.
// Returns ErrAmountTooLarge when the result does not fit in int64.
func ToCents(normalized string) (int64, error) {
	if !amountPattern.MatchString(normalized) {
		return 0, ErrInvalidAmountFormat
	}

	whole, frac, _ := strings.Cut(normalized, ".")
	frac = (frac + "00")[:2]

	wholeValue, err := strconv.ParseInt(trimLeadingZeros(whole), 10, 64)
	if err != nil {
		// The pattern guarantees digits only, so the only failure left is range
		return 0, ErrAmountTooLarge
	}

	fracValue, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmountFormat
	}

	if wholeValue > (math.MaxInt64-fracValue)/100 {
		return 0, ErrAmountTooLarge
	}

	return wholeValue*100 + fracValue, nil
}

// CentsToString formats a cent count as a scale-2 string.
// Negative values are rendered with a leading minus sign; callers of the
// transfer engine never receive one.
func CentsToString(cents int64) string {
	sign := ""
	magnitude := uint64(cents)
	if cents < 0 {
		sign = "-"
		magnitude = uint64(-(cents + 1)) + 1
	}

	return sign + strconv.FormatUint(magnitude/100, 10) + "." + twoDigits(magnitude%100)
}

// CompareAmounts compares two normalized amounts without converting them.
// Integer parts are compared by digit length first, then lexicographically,
// then the fractional parts. Returns -1, 0 or 1.
func CompareAmounts(a, b string) int {
	aWhole, aFrac, _ := strings.Cut(a, ".")
	bWhole, bFrac, _ := strings.Cut(b, ".")
	aWhole = trimLeadingZeros(aWhole)
	bWhole = trimLeadingZeros(bWhole)

	if len(aWhole) != len(bWhole) {
		if len(aWhole) < len(bWhole) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(aWhole, bWhole); c != 0 {
		return c
	}

	return strings.Compare((aFrac + "00")[:2], (bFrac + "00")[:2])
}

func trimLeadingZeros(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func twoDigits(v uint64) string {
	if v < 10 {
		return "0" + strconv.FormatUint(v, 10)
	}
	return strconv.FormatUint(v, 10)
}
