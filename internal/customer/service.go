// internal/customer/service.go
package customer

import (
	"context"
	"errors"
)

var ErrCustomerNotFound = errors.New("customer not found")

// Service defines the interface for the customer ledger.
type Service interface {
	Create(ctx context.Context, initialPoints int) (int, error)
	Get(ctx context.Context, id int) (Customer, error)
	Update(ctx context.Context, c Customer) error
}
