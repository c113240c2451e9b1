// internal/rental/store_test.go
package rental

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videostore/internal/catalog"
	"videostore/internal/customer"
	"videostore/internal/journal"
	"videostore/internal/pricing"
)

type storeFixture struct {
	store     *Store
	catalog   catalog.Service
	customers customer.Service
	journal   *journal.Journal
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	policy, err := pricing.New([]pricing.Terms{
		{
			Category:         catalog.CategoryNew,
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
	})
	require.NoError(t, err)

	cat := catalog.NewService()
	customers := customer.NewService()
	jrnl := journal.New()

	return &storeFixture{
		store:     NewStore(cat, customers, NewLedger(customers), policy, jrnl),
		catalog:   cat,
		customers: customers,
		journal:   jrnl,
	}
}

func (f *storeFixture) customerWithPoints(t *testing.T, points int) int {
	t.Helper()

	id, err := f.store.CreateCustomer(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.customers.Update(context.Background(), customer.Customer{ID: id, BonusPoints: points}))
	return id
}

func TestAddCopyRegistersTitleOnFirstSight(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Parallels", Year: 2015, Category: catalog.CategoryNew}
	first, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	second, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	titles, err := f.store.AllTitles(ctx)
	require.NoError(t, err)
	require.Len(t, titles, 1)

	copies, err := f.catalog.CopiesByTitle(ctx, titles[0].ID)
	require.NoError(t, err)
	assert.Len(t, copies, 2)
}

func TestRentForCash(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "District 9", Year: 2009, Category: catalog.CategoryRegular}
	copyID, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	customerID := f.customerWithPoints(t, 0)

	r, err := f.store.Rent(ctx, Request{Title: title, Days: 3, CustomerID: customerID})
	require.NoError(t, err)

	assert.Equal(t, customerID, r.CustomerID)
	assert.Equal(t, copyID, r.CopyID)
	assert.Equal(t, catalog.CategoryRegular, r.Category)
	assert.True(t, r.Price.Equal(decimal.NewFromInt(30)), "price: %s", r.Price)
	assert.Zero(t, r.PointsSpent)
	assert.True(t, r.Active)

	// One point earned for a regular rental.
	c, err := f.store.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.BonusPoints)

	cpy, err := f.store.GetCopy(ctx, copyID)
	require.NoError(t, err)
	assert.False(t, cpy.OnShelf)
}

func TestRentPayingWithPoints(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Parallels", Year: 2015, Category: catalog.CategoryNew}
	_, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	customerID := f.customerWithPoints(t, 100)

	r, err := f.store.Rent(ctx, Request{Title: title, Days: 2, CustomerID: customerID, PayWithPoints: true})
	require.NoError(t, err)

	assert.True(t, r.Price.Equal(decimal.Zero), "price: %s", r.Price)
	assert.Equal(t, 50, r.PointsSpent)

	// 100 points, plus 2 earned, minus 50 spent.
	c, err := f.store.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 52, c.BonusPoints)
}

func TestRentIgnoresPointsWishWhenNotRedeemable(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Casablanka", Year: 1943, Category: catalog.CategoryOld}
	_, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	customerID := f.customerWithPoints(t, 1000)

	r, err := f.store.Rent(ctx, Request{Title: title, Days: 2, CustomerID: customerID, PayWithPoints: true})
	require.NoError(t, err)

	// Old releases are cash only, no points are spent.
	assert.True(t, r.Price.Equal(decimal.NewFromInt(30)), "price: %s", r.Price)
	assert.Zero(t, r.PointsSpent)

	c, err := f.store.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 1001, c.BonusPoints)
}

func TestRentFailsWithoutAvailableCopy(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Skin Trade", Year: 2014, Category: catalog.CategoryNew}
	_, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)

	first := f.customerWithPoints(t, 0)
	second := f.customerWithPoints(t, 0)

	_, err = f.store.Rent(ctx, Request{Title: title, Days: 1, CustomerID: first})
	require.NoError(t, err)

	_, err = f.store.Rent(ctx, Request{Title: title, Days: 1, CustomerID: second})
	require.ErrorIs(t, err, catalog.ErrNoCopyOnShelf)

	// The failed attempt changed nothing for the second customer.
	c, err := f.store.GetCustomer(ctx, second)
	require.NoError(t, err)
	assert.Zero(t, c.BonusPoints)
	active, err := f.store.ActiveRentals(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRentFailsForUnknownCustomer(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Skin Trade", Year: 2014, Category: catalog.CategoryNew}
	copyID, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)

	_, err = f.store.Rent(ctx, Request{Title: title, Days: 1, CustomerID: 99})
	require.ErrorIs(t, err, customer.ErrCustomerNotFound)

	// The copy never left the shelf.
	cpy, err := f.store.GetCopy(ctx, copyID)
	require.NoError(t, err)
	assert.True(t, cpy.OnShelf)
}

func TestReturnCopyPutsItBackOnShelf(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "District 9", Year: 2009, Category: catalog.CategoryRegular}
	copyID, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	customerID := f.customerWithPoints(t, 0)

	_, err = f.store.Rent(ctx, Request{Title: title, Days: 2, CustomerID: customerID})
	require.NoError(t, err)

	require.NoError(t, f.store.ReturnCopy(ctx, customerID, copyID))

	cpy, err := f.store.GetCopy(ctx, copyID)
	require.NoError(t, err)
	assert.True(t, cpy.OnShelf)

	active, err := f.store.ActiveRentals(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Returning twice fails.
	require.ErrorIs(t, f.store.ReturnCopy(ctx, customerID, copyID), ErrNoActiveRental)
}

func TestReclassificationKeepsRentalSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Parallels", Year: 2015, Category: catalog.CategoryNew}
	_, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	customerID := f.customerWithPoints(t, 0)

	r, err := f.store.Rent(ctx, Request{Title: title, Days: 1, CustomerID: customerID})
	require.NoError(t, err)

	titles, err := f.store.FindTitle(ctx, title.Name, title.Year)
	require.NoError(t, err)
	require.Len(t, titles, 1)
	require.NoError(t, f.store.ChangeTitleCategory(ctx, titles[0].ID, catalog.CategoryOld))

	// The committed rental keeps the category and price it was made under.
	active, err := f.store.ActiveRentals(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, catalog.CategoryNew, active[0].Category)
	assert.True(t, active[0].Price.Equal(r.Price))

	changed, err := f.store.GetTitle(ctx, titles[0].ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryOld, changed.Category)
}

func TestConcurrentRentersGetOneCopy(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Skin Trade", Year: 2014, Category: catalog.CategoryNew}
	_, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)

	const renters = 10
	customerIDs := make([]int, renters)
	for i := range customerIDs {
		customerIDs[i] = f.customerWithPoints(t, 0)
	}

	var wg sync.WaitGroup
	errs := make([]error, renters)
	for i := 0; i < renters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.store.Rent(ctx, Request{Title: title, Days: 1, CustomerID: customerIDs[i]})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, catalog.ErrNoCopyOnShelf)
		}
	}
	assert.Equal(t, 1, succeeded)

	all, err := f.store.AllActiveRentals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRentAndReturnAreJournaled(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "District 9", Year: 2009, Category: catalog.CategoryRegular}
	copyID, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)
	customerID := f.customerWithPoints(t, 0)

	r, err := f.store.Rent(ctx, Request{Title: title, Days: 2, CustomerID: customerID})
	require.NoError(t, err)
	require.NoError(t, f.store.ReturnCopy(ctx, customerID, copyID))

	events, err := f.journal.Events(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, RentalOpenedEventType, events[0].EventType)
	assert.Equal(t, RentalClosedEventType, events[1].EventType)
}

func TestRentalOptionsFor(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	customerID := f.customerWithPoints(t, 80)

	opts, err := f.store.RentalOptionsFor(ctx, customerID, catalog.CategoryNew, 3)
	require.NoError(t, err)
	assert.True(t, opts.Price.Equal(decimal.NewFromInt(120)), "price: %s", opts.Price)
	assert.Equal(t, 75, opts.PriceInPoints)
	assert.Equal(t, 80, opts.PointsAvailable)
	assert.True(t, opts.CanPayWithPoints)

	_, err = f.store.RentalOptionsFor(ctx, 99, catalog.CategoryNew, 3)
	require.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

func TestRemoveTitleThroughStore(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t)

	title := catalog.Title{Name: "Casablanka", Year: 1943, Category: catalog.CategoryOld}
	copyID, err := f.store.AddCopy(ctx, title)
	require.NoError(t, err)

	titles, err := f.store.FindTitle(ctx, title.Name, title.Year)
	require.NoError(t, err)
	require.Len(t, titles, 1)

	require.NoError(t, f.store.RemoveTitle(ctx, titles[0].ID))

	_, err = f.store.GetCopy(ctx, copyID)
	assert.ErrorIs(t, err, catalog.ErrCopyNotFound)
	remaining, err := f.store.AllTitles(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
