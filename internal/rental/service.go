// internal/rental/service.go
package rental

import (
	"context"
	"errors"

	"videostore/internal/catalog"
	"videostore/internal/pricing"
)

var (
	ErrNoActiveRental    = errors.New("no active rental for customer and copy")
	ErrCopyAlreadyRented = errors.New("copy already has an active rental")
)

// Ledger defines the interface for the rental ledger. Save rejects rentals
// for unknown customers and for copies that already have an active rental;
// Return flips the unique active rental matching both ids and reports the
// updated record. Returning a copy that is not out is a contract violation
// and fails, it never silently succeeds.
type Ledger interface {
	Save(ctx context.Context, r Rental) error
	Return(ctx context.Context, customerID, copyID int) (Rental, error)
	ActiveByCustomer(ctx context.Context, customerID int) ([]Rental, error)
	AllActive(ctx context.Context) ([]Rental, error)
}

// PricePolicy is the store's pluggable pricing engine.
type PricePolicy interface {
	RentalOptions(category catalog.Category, rentalDays, pointsAvailable int) (pricing.Options, error)
	Bonus(category catalog.Category, rentalDays int) (int, error)
}
