// internal/pricing/terms.go
package pricing

import (
	"github.com/shopspring/decimal"

	"videostore/internal/catalog"
)

// Terms is the rental and bonus-point configuration for one title category.
//
// The first FlatPeriodDays of a rental cost the fixed FlatPeriodFee; every
// day beyond that costs TrailingFee. When PointsRedeemable is set, the whole
// rental period (and only the whole period) may be paid with bonus points at
// PointsPerDay points per rental day. PointsEarned is awarded per rental,
// independent of its length.
type Terms struct {
	Category         catalog.Category
	FlatPeriodDays   int
	FlatPeriodFee    decimal.Decimal
	TrailingFee      decimal.Decimal
	PointsRedeemable bool
	PointsPerDay     int
	PointsEarned     int
}

// Options is the computed outcome of a pricing request. It is a transient
// result, never persisted; the caller decides whether to redeem points.
type Options struct {
	Category         catalog.Category
	RentalDays       int
	PointsAvailable  int
	CanPayWithPoints bool
	Price            decimal.Decimal
	PriceInPoints    int
}
