package claim

import "github.com/shopspring/decimal"

// ParseAmount parses a user-supplied amount string. Malformed input
// yields zero; the declared amount is informational and never drives
// the adjudication arithmetic.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
