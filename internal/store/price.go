package store

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// parsePrice converts a stored numeric string back to a decimal.
func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}
