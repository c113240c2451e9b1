// internal/rental/postgres.go
package rental

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"videostore/internal/customer"
)

// pgLedger is the durable counterpart of the in-memory ledger:
//
//	CREATE TABLE rentals (
//	    id UUID PRIMARY KEY,
//	    customer_id INT NOT NULL REFERENCES customers (id),
//	    copy_id INT NOT NULL,
//	    category TEXT NOT NULL,
//	    rental_days INT NOT NULL,
//	    price NUMERIC NOT NULL,
//	    points_spent INT NOT NULL,
//	    active BOOLEAN NOT NULL
//	);
//	CREATE UNIQUE INDEX rentals_one_active_per_copy
//	    ON rentals (copy_id) WHERE active;
//
// The partial unique index makes the one-active-rental-per-copy invariant
// hold even against writers that bypass the store façade.
type pgLedger struct {
	db        *sql.DB
	customers customer.Service
}

// NewPostgresLedger creates a rental ledger backed by PostgreSQL.
func NewPostgresLedger(db *sql.DB, customers customer.Service) Ledger {
	return &pgLedger{db: db, customers: customers}
}

func (l *pgLedger) Save(ctx context.Context, r Rental) error {
	if _, err := l.customers.Get(ctx, r.CustomerID); err != nil {
		return fmt.Errorf("save rental: %w", err)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO rentals (id, customer_id, copy_id, category, rental_days, price, points_spent, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.CustomerID, r.CopyID, string(r.Category), r.RentalDays, r.Price, r.PointsSpent, r.Active)
	if err != nil {
		// 23505 = unique_violation, raised by the partial index on active copies.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("save rental for copy %d: %w", r.CopyID, ErrCopyAlreadyRented)
		}
		return fmt.Errorf("insert rental: %w", err)
	}
	return nil
}

func (l *pgLedger) Return(ctx context.Context, customerID, copyID int) (Rental, error) {
	r := Rental{}
	err := l.db.QueryRowContext(ctx, `
		UPDATE rentals SET active = FALSE
		WHERE customer_id = $1 AND copy_id = $2 AND active
		RETURNING id, customer_id, copy_id, category, rental_days, price, points_spent, active
	`, customerID, copyID).Scan(
		&r.ID, &r.CustomerID, &r.CopyID, &r.Category, &r.RentalDays, &r.Price, &r.PointsSpent, &r.Active,
	)
	if err == sql.ErrNoRows {
		return Rental{}, fmt.Errorf("return copy %d for customer %d: %w", copyID, customerID, ErrNoActiveRental)
	}
	if err != nil {
		return Rental{}, fmt.Errorf("return copy %d: %w", copyID, err)
	}
	return r, nil
}

func (l *pgLedger) ActiveByCustomer(ctx context.Context, customerID int) ([]Rental, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, customer_id, copy_id, category, rental_days, price, points_spent, active
		FROM rentals
		WHERE customer_id = $1 AND active
		ORDER BY copy_id
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list active rentals of customer %d: %w", customerID, err)
	}
	defer rows.Close()
	return scanRentals(rows)
}

func (l *pgLedger) AllActive(ctx context.Context) ([]Rental, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, customer_id, copy_id, category, rental_days, price, points_spent, active
		FROM rentals
		WHERE active
		ORDER BY copy_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list active rentals: %w", err)
	}
	defer rows.Close()
	return scanRentals(rows)
}

func scanRentals(rows *sql.Rows) ([]Rental, error) {
	var out []Rental
	for rows.Next() {
		r := Rental{}
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.CopyID, &r.Category, &r.RentalDays, &r.Price, &r.PointsSpent, &r.Active); err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
