// cmd/simulator/main.go
//
// The simulator drives a store with concurrent renters and verifies at the
// end that the shelf and the rental ledger agree. It is a load and
// consistency harness, not part of the store itself.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"videostore/internal/catalog"
	"videostore/internal/customer"
	"videostore/internal/journal"
	"videostore/internal/pricing"
	"videostore/internal/rental"
)

type counters struct {
	rented    atomic.Int64
	returned  atomic.Int64
	noCopy    atomic.Int64
	conflicts atomic.Int64
}

func main() {
	var (
		titles    = flag.Int("titles", 20, "number of titles in the catalog")
		copies    = flag.Int("copies", 3, "copies per title")
		renters   = flag.Int("customers", 50, "number of customers")
		workers   = flag.Int("workers", 8, "concurrent workers")
		rateLimit = flag.Float64("rate", 200, "rental attempts per second across all workers")
		duration  = flag.Duration("duration", 10*time.Second, "how long to run")
	)
	flag.Parse()

	cat := catalog.NewService()
	customers := customer.NewService()
	policy, err := pricing.New(simulatorTerms())
	if err != nil {
		log.Fatalf("Failed to configure price policy: %v", err)
	}
	store := rental.NewStore(cat, customers, rental.NewLedger(customers), policy, journal.New())

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	customerIDs, err := seed(ctx, store, customers, *titles, *copies, *renters)
	if err != nil {
		log.Fatalf("Failed to seed simulation: %v", err)
	}

	log.Printf("Simulating: %d titles x %d copies, %d customers, %d workers, %.0f ops/s for %s",
		*titles, *copies, *renters, *workers, *rateLimit, *duration)

	limiter := rate.NewLimiter(rate.Limit(*rateLimit), *workers)
	stats := &counters{}

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			worker(ctx, store, limiter, customerIDs, *titles, stats, rand.New(rand.NewSource(seed)))
		}(int64(i))
	}
	wg.Wait()

	log.Printf("Done: rented=%d returned=%d no_copy=%d conflicts=%d",
		stats.rented.Load(), stats.returned.Load(), stats.noCopy.Load(), stats.conflicts.Load())

	if err := verify(context.Background(), store, cat, *titles); err != nil {
		log.Fatalf("Consistency check failed: %v", err)
	}
	log.Println("Consistency check passed: shelf status agrees with the rental ledger")
}

func simulatorTerms() []pricing.Terms {
	return []pricing.Terms{
		{Category: catalog.CategoryNew, TrailingFee: decimal.NewFromInt(40), PointsRedeemable: true, PointsPerDay: 25, PointsEarned: 2},
		{Category: catalog.CategoryRegular, FlatPeriodDays: 3, FlatPeriodFee: decimal.NewFromInt(30), TrailingFee: decimal.NewFromInt(30), PointsEarned: 1},
		{Category: catalog.CategoryOld, FlatPeriodDays: 5, FlatPeriodFee: decimal.NewFromInt(30), TrailingFee: decimal.NewFromInt(30), PointsEarned: 1},
	}
}

func seed(ctx context.Context, store *rental.Store, customers customer.Service, titles, copies, renters int) ([]int, error) {
	categories := []catalog.Category{catalog.CategoryNew, catalog.CategoryRegular, catalog.CategoryOld}
	for i := 0; i < titles; i++ {
		title := catalog.Title{
			Name:     fmt.Sprintf("Film %03d", i+1),
			Year:     1980 + i%45,
			Category: categories[i%len(categories)],
		}
		for j := 0; j < copies; j++ {
			if _, err := store.AddCopy(ctx, title); err != nil {
				return nil, err
			}
		}
	}

	ids := make([]int, 0, renters)
	for i := 0; i < renters; i++ {
		id, err := store.CreateCustomer(ctx)
		if err != nil {
			return nil, err
		}
		// Give every customer a balance worth redeeming now and then.
		if err := customers.Update(ctx, customer.Customer{ID: id, BonusPoints: 200}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// worker loops rent-then-return until the context expires. Races for the
// same copy are expected; losing one is counted, not fatal.
func worker(ctx context.Context, store *rental.Store, limiter *rate.Limiter, customerIDs []int, titles int, stats *counters, rng *rand.Rand) {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		customerID := customerIDs[rng.Intn(len(customerIDs))]
		titleID := 1 + rng.Intn(titles)
		title, err := store.GetTitle(ctx, titleID)
		if err != nil {
			continue
		}

		r, err := store.Rent(ctx, rental.Request{
			Title:         title,
			Days:          1 + rng.Intn(7),
			CustomerID:    customerID,
			PayWithPoints: rng.Intn(4) == 0,
		})
		switch {
		case errors.Is(err, catalog.ErrNoCopyOnShelf):
			stats.noCopy.Add(1)
			continue
		case errors.Is(err, rental.ErrCopyAlreadyRented):
			stats.conflicts.Add(1)
			continue
		case err != nil:
			continue
		}
		stats.rented.Add(1)

		if err := store.ReturnCopy(ctx, customerID, r.CopyID); err == nil {
			stats.returned.Add(1)
		}
	}
}

// verify cross-checks the two sources of availability: a copy is off the
// shelf exactly when the ledger holds an active rental for it, and no copy
// is rented twice.
func verify(ctx context.Context, store *rental.Store, cat catalog.Service, titles int) error {
	active, err := store.AllActiveRentals(ctx)
	if err != nil {
		return err
	}

	rentedCopies := make(map[int]bool, len(active))
	for _, r := range active {
		if rentedCopies[r.CopyID] {
			return fmt.Errorf("copy %d has more than one active rental", r.CopyID)
		}
		rentedCopies[r.CopyID] = true
	}

	for titleID := 1; titleID <= titles; titleID++ {
		copies, err := cat.CopiesByTitle(ctx, titleID)
		if err != nil {
			return err
		}
		for _, c := range copies {
			if c.OnShelf == rentedCopies[c.ID] {
				return fmt.Errorf("copy %d: on_shelf=%t but active rental=%t", c.ID, c.OnShelf, rentedCopies[c.ID])
			}
		}
	}
	return nil
}
