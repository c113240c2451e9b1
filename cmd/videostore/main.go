// cmd/videostore/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"videostore/internal/catalog"
	"videostore/internal/console"
	"videostore/internal/customer"
	"videostore/internal/journal"
	"videostore/internal/pricing"
	"videostore/internal/rental"
)

// defaultTerms is the store's pricing configuration. In a real deployment it
// would come from a configuration file or a database; it is kept here for
// simplicity and passed into the policy as an immutable table.
func defaultTerms() []pricing.Terms {
	return []pricing.Terms{
		{
			Category:         catalog.CategoryNew,
			FlatPeriodDays:   0,
			FlatPeriodFee:    decimal.Zero,
			TrailingFee:      decimal.NewFromInt(40),
			PointsRedeemable: true,
			PointsPerDay:     25,
			PointsEarned:     2,
		},
		{
			Category:       catalog.CategoryRegular,
			FlatPeriodDays: 3,
			FlatPeriodFee:  decimal.NewFromInt(30),
			TrailingFee:    decimal.NewFromInt(30),
			PointsEarned:   1,
		},
		{
			Category:       catalog.CategoryOld,
			FlatPeriodDays: 5,
			FlatPeriodFee:  decimal.NewFromInt(30),
			TrailingFee:    decimal.NewFromInt(30),
			PointsEarned:   1,
		},
	}
}

func main() {
	seed := flag.Bool("seed", false, "pre-fill the store with demo inventory")
	flag.Parse()

	policy, err := pricing.New(defaultTerms())
	if err != nil {
		log.Fatalf("Failed to configure price policy: %v", err)
	}

	var (
		cat       catalog.Service
		customers customer.Service
		ledger    rental.Ledger
	)

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		cat = catalog.NewPostgresService(db)
		customers = customer.NewPostgresService(db)
		ledger = rental.NewPostgresLedger(db, customers)
	} else {
		cat = catalog.NewService()
		customers = customer.NewService()
		ledger = rental.NewLedger(customers)
	}

	store := rental.NewStore(cat, customers, ledger, policy, journal.New())

	if *seed {
		if err := seedInventory(context.Background(), store, customers); err != nil {
			log.Fatalf("Failed to seed inventory: %v", err)
		}
	}

	if err := console.New(store, os.Stdin, os.Stdout).Run(context.Background()); err != nil {
		log.Fatalf("Console session failed: %v", err)
	}
}

// seedInventory pre-fills the store with the demo data set: one customer
// with a point balance, three films already out, four on the shelf.
func seedInventory(ctx context.Context, store *rental.Store, customers customer.Service) error {
	customerID, err := store.CreateCustomer(ctx)
	if err != nil {
		return err
	}

	rented := []struct {
		title catalog.Title
		days  int
	}{
		{catalog.Title{Name: "Out of Africa", Year: 1985, Category: catalog.CategoryOld}, 7},
		{catalog.Title{Name: "Spider-Man", Year: 2002, Category: catalog.CategoryRegular}, 5},
		{catalog.Title{Name: "Spider-Man 3", Year: 2007, Category: catalog.CategoryRegular}, 2},
	}
	for _, r := range rented {
		if _, err := store.AddCopy(ctx, r.title); err != nil {
			return err
		}
		if _, err := store.Rent(ctx, rental.Request{Title: r.title, Days: r.days, CustomerID: customerID}); err != nil {
			return err
		}
	}

	// The demo customer starts the session with a round balance, regardless
	// of the points the seed rentals earned.
	if err := customers.Update(ctx, customer.Customer{ID: customerID, BonusPoints: 100}); err != nil {
		return err
	}

	available := []catalog.Title{
		{Name: "Parallels", Year: 2015, Category: catalog.CategoryNew},
		{Name: "Casablanka", Year: 1943, Category: catalog.CategoryOld},
		{Name: "District 9", Year: 2009, Category: catalog.CategoryRegular},
		{Name: "Skin Trade", Year: 2014, Category: catalog.CategoryNew},
	}
	for _, t := range available {
		if _, err := store.AddCopy(ctx, t); err != nil {
			return err
		}
	}

	return nil
}
