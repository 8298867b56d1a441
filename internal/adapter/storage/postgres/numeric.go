package postgres

import (
	"fmt"

	"gig-escrow/internal/core/domain"

	"github.com/holiman/uint256"
)

// Amounts live in NUMERIC(78,0) columns. They are written as decimal text
// cast with ::numeric and read back with ::text.

func numericArg(v *uint256.Int) string {
	return domain.AmountString(v)
}

func parseNumeric(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return v, nil
}
