// internal/customer/implementation.go
package customer

import (
	"context"
	"fmt"
	"sync"
)

// service implements the Service interface with in-process storage.
type service struct {
	mu        sync.RWMutex
	customers []Customer
}

// NewService creates a new in-memory customer ledger.
func NewService() Service {
	return &service{}
}

func (s *service) Create(_ context.Context, initialPoints int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	max := 0
	for _, c := range s.customers {
		if c.ID > max {
			max = c.ID
		}
	}

	c := Customer{ID: max + 1, BonusPoints: initialPoints}
	s.customers = append(s.customers, c)
	return c.ID, nil
}

func (s *service) Get(_ context.Context, id int) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return Customer{}, fmt.Errorf("get customer %d: %w", id, ErrCustomerNotFound)
}

// Update overwrites the bonus-point balance of the matching customer.
func (s *service) Update(_ context.Context, c Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.customers {
		if s.customers[i].ID == c.ID {
			s.customers[i].BonusPoints = c.BonusPoints
			return nil
		}
	}
	return fmt.Errorf("update customer %d: %w", c.ID, ErrCustomerNotFound)
}
