// internal/customer/postgres.go
package customer

import (
	"context"
	"database/sql"
	"fmt"
)

// pgService is the durable counterpart of the in-memory ledger:
//
//	CREATE TABLE customers (id INT PRIMARY KEY, bonus_points INT NOT NULL);
type pgService struct {
	db *sql.DB
}

// NewPostgresService creates a customer ledger backed by PostgreSQL.
func NewPostgresService(db *sql.DB) Service {
	return &pgService{db: db}
}

func (s *pgService) Create(ctx context.Context, initialPoints int) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (id, bonus_points)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM customers), $1)
		RETURNING id
	`, initialPoints).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}

func (s *pgService) Get(ctx context.Context, id int) (Customer, error) {
	c := Customer{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bonus_points FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.BonusPoints)
	if err == sql.ErrNoRows {
		return Customer{}, fmt.Errorf("get customer %d: %w", id, ErrCustomerNotFound)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("get customer %d: %w", id, err)
	}
	return c, nil
}

func (s *pgService) Update(ctx context.Context, c Customer) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET bonus_points = $1 WHERE id = $2
	`, c.BonusPoints, c.ID)
	if err != nil {
		return fmt.Errorf("update customer %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update customer %d: %w", c.ID, ErrCustomerNotFound)
	}
	return nil
}
