// internal/pricing/policy.go
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"videostore/internal/catalog"
)

var ErrNoTerms = errors.New("no rental terms configured for category")

// Policy computes rental prices and bonus-point economics from an immutable
// terms table supplied at construction time. It holds no other state, so
// identical inputs always produce identical results.
type Policy struct {
	terms map[catalog.Category]Terms
}

// New creates a Policy from the given terms table. Every category may appear
// at most once.
func New(allTerms []Terms) (*Policy, error) {
	terms := make(map[catalog.Category]Terms, len(allTerms))
	for _, t := range allTerms {
		if _, dup := terms[t.Category]; dup {
			return nil, fmt.Errorf("duplicate terms for category %q", t.Category)
		}
		terms[t.Category] = t
	}
	return &Policy{terms: terms}, nil
}

// RentalOptions calculates the price for the rental and the options for
// paying it, given the customer's current bonus points.
func (p *Policy) RentalOptions(category catalog.Category, rentalDays, pointsAvailable int) (Options, error) {
	terms, ok := p.terms[category]
	if !ok {
		return Options{}, fmt.Errorf("category %q: %w", category, ErrNoTerms)
	}

	priceInPoints := rentalDays * terms.PointsPerDay

	return Options{
		Category:         category,
		RentalDays:       rentalDays,
		PointsAvailable:  pointsAvailable,
		CanPayWithPoints: terms.PointsRedeemable && pointsAvailable >= priceInPoints,
		Price:            terms.FlatPeriodFee.Add(trailingDaysPrice(rentalDays, terms)),
		PriceInPoints:    priceInPoints,
	}, nil
}

// trailingDaysPrice is the cost of the days beyond the flat period. Any
// rental that fits inside the flat period owes only the flat fee.
func trailingDaysPrice(rentalDays int, terms Terms) decimal.Decimal {
	if rentalDays > terms.FlatPeriodDays {
		return decimal.NewFromInt(int64(rentalDays - terms.FlatPeriodDays)).Mul(terms.TrailingFee)
	}
	return decimal.Zero
}

// Bonus returns the points a customer earns for a rental. The day count is
// part of the contract but currently unused: every observed configuration
// awards a fixed amount per rental regardless of its length.
func (p *Policy) Bonus(category catalog.Category, _ int) (int, error) {
	terms, ok := p.terms[category]
	if !ok {
		return 0, fmt.Errorf("category %q: %w", category, ErrNoTerms)
	}
	return terms.PointsEarned, nil
}
