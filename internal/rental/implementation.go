// internal/rental/implementation.go
package rental

import (
	"context"
	"fmt"
	"sync"

	"videostore/internal/customer"
)

// ledger implements the Ledger interface with in-process storage. It keeps
// every rental ever made; queries filter on the active flag.
type ledger struct {
	mu        sync.RWMutex
	customers customer.Service
	rentals   []Rental
}

// NewLedger creates a new in-memory rental ledger. The customer service is
// used to validate that saved rentals reference an existing customer.
func NewLedger(customers customer.Service) Ledger {
	return &ledger{customers: customers}
}

func (l *ledger) Save(ctx context.Context, r Rental) error {
	if _, err := l.customers.Get(ctx, r.CustomerID); err != nil {
		return fmt.Errorf("save rental: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.rentals {
		if existing.Active && existing.CopyID == r.CopyID {
			return fmt.Errorf("save rental for copy %d: %w", r.CopyID, ErrCopyAlreadyRented)
		}
	}

	l.rentals = append(l.rentals, r)
	return nil
}

func (l *ledger) Return(_ context.Context, customerID, copyID int) (Rental, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.rentals {
		if l.rentals[i].Active && l.rentals[i].CustomerID == customerID && l.rentals[i].CopyID == copyID {
			l.rentals[i].Active = false
			return l.rentals[i], nil
		}
	}
	return Rental{}, fmt.Errorf("return copy %d for customer %d: %w", copyID, customerID, ErrNoActiveRental)
}

func (l *ledger) ActiveByCustomer(_ context.Context, customerID int) ([]Rental, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Rental
	for _, r := range l.rentals {
		if r.Active && r.CustomerID == customerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *ledger) AllActive(_ context.Context) ([]Rental, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Rental
	for _, r := range l.rentals {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}
