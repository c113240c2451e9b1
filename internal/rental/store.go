// internal/rental/store.go
package rental

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"videostore/internal/catalog"
	"videostore/internal/customer"
	"videostore/internal/journal"
	"videostore/internal/pricing"
)

// Request carries everything the rent workflow needs from the caller. Title
// identifies the film by name and year; its category is used only when the
// film is not yet in the catalog. PayWithPoints is the caller's wish to
// redeem bonus points, honored only when the policy allows it.
type Request struct {
	Title         catalog.Title
	Days          int
	CustomerID    int
	PayWithPoints bool
}

// Store is the business façade of the rental store. It orchestrates the
// catalog, the customer ledger, the rental ledger, the price policy and the
// journal.
//
// Rent and ReturnCopy are multi-step transactions: availability check,
// pricing, persisting the rental and updating the balance must be observed
// as one step. A store-wide mutex serializes them, which keeps the
// no-double-rental invariant under concurrent callers.
type Store struct {
	mu        sync.Mutex
	catalog   catalog.Service
	customers customer.Service
	ledger    Ledger
	policy    PricePolicy
	journal   *journal.Journal
	tracer    trace.Tracer
}

// NewStore creates a store façade over the given collaborators.
func NewStore(cat catalog.Service, customers customer.Service, ledger Ledger, policy PricePolicy, jrnl *journal.Journal) *Store {
	return &Store{
		catalog:   cat,
		customers: customers,
		ledger:    ledger,
		policy:    policy,
		journal:   jrnl,
		tracer:    otel.Tracer("videostore/store"),
	}
}

// AddCopy adds a copy of the given film, registering the title first if the
// store has never seen this name and year.
func (s *Store) AddCopy(ctx context.Context, title catalog.Title) (int, error) {
	stored, err := s.findOrCreateTitle(ctx, title)
	if err != nil {
		return 0, err
	}
	return s.catalog.AddCopy(ctx, stored.ID)
}

func (s *Store) findOrCreateTitle(ctx context.Context, title catalog.Title) (catalog.Title, error) {
	found, err := s.catalog.FindTitle(ctx, title.Name, title.Year)
	if err != nil {
		return catalog.Title{}, err
	}
	if len(found) > 0 {
		return found[0], nil
	}

	id, err := s.catalog.AddTitle(ctx, title)
	if err != nil {
		return catalog.Title{}, err
	}
	return s.catalog.GetTitle(ctx, id)
}

// RemoveTitle removes a title and all of its copies.
func (s *Store) RemoveTitle(ctx context.Context, id int) error {
	return s.catalog.RemoveTitle(ctx, id)
}

// ChangeTitleCategory reclassifies a title. Existing rentals keep the
// category and price they were committed with.
func (s *Store) ChangeTitleCategory(ctx context.Context, id int, category catalog.Category) error {
	return s.catalog.SetTitleCategory(ctx, id, category)
}

// FindTitle locates a title by exact name and year.
func (s *Store) FindTitle(ctx context.Context, name string, year int) ([]catalog.Title, error) {
	return s.catalog.FindTitle(ctx, name, year)
}

func (s *Store) GetTitle(ctx context.Context, id int) (catalog.Title, error) {
	return s.catalog.GetTitle(ctx, id)
}

func (s *Store) AllTitles(ctx context.Context) ([]catalog.Title, error) {
	return s.catalog.AllTitles(ctx)
}

// TitlesOnShelf lists the titles available for rental: those with at least
// one copy on the shelf.
func (s *Store) TitlesOnShelf(ctx context.Context) ([]catalog.Title, error) {
	return s.catalog.TitlesOnShelf(ctx)
}

func (s *Store) GetCopy(ctx context.Context, id int) (catalog.Copy, error) {
	return s.catalog.GetCopy(ctx, id)
}

// CopyOnShelf finds an available copy of the title.
func (s *Store) CopyOnShelf(ctx context.Context, titleID int) (catalog.Copy, error) {
	return s.catalog.CopyOnShelf(ctx, titleID)
}

// CreateCustomer registers a new customer with an empty balance.
func (s *Store) CreateCustomer(ctx context.Context) (int, error) {
	return s.customers.Create(ctx, 0)
}

func (s *Store) GetCustomer(ctx context.Context, id int) (customer.Customer, error) {
	return s.customers.Get(ctx, id)
}

func (s *Store) ActiveRentals(ctx context.Context, customerID int) ([]Rental, error) {
	return s.ledger.ActiveByCustomer(ctx, customerID)
}

func (s *Store) AllActiveRentals(ctx context.Context) ([]Rental, error) {
	return s.ledger.AllActive(ctx)
}

// RentalOptionsFor prices a prospective rental against the customer's
// current bonus points.
func (s *Store) RentalOptionsFor(ctx context.Context, customerID int, category catalog.Category, days int) (pricing.Options, error) {
	c, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return pricing.Options{}, err
	}
	return s.policy.RentalOptions(category, days, c.BonusPoints)
}

// Rent commits a rental: it resolves the title, takes an available copy off
// the shelf, prices the rental, records it and settles the customer's
// bonus points. If any step fails before the rental is persisted, no state
// change remains observable.
func (s *Store) Rent(ctx context.Context, req Request) (Rental, error) {
	ctx, span := s.tracer.Start(ctx, "store.rent",
		trace.WithAttributes(
			attribute.Int("customer.id", req.CustomerID),
			attribute.String("title.name", req.Title.Name),
			attribute.Int("rental.days", req.Days),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	title, err := s.findOrCreateTitle(ctx, req.Title)
	if err != nil {
		return Rental{}, err
	}

	cpy, err := s.catalog.CopyOnShelf(ctx, title.ID)
	if err != nil {
		return Rental{}, err
	}

	cust, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return Rental{}, err
	}

	opts, err := s.policy.RentalOptions(title.Category, req.Days, cust.BonusPoints)
	if err != nil {
		return Rental{}, err
	}

	payWithPoints := req.PayWithPoints && opts.CanPayWithPoints
	r := Rental{
		ID:         uuid.New(),
		CustomerID: cust.ID,
		CopyID:     cpy.ID,
		Category:   title.Category,
		RentalDays: req.Days,
		Price:      opts.Price,
		Active:     true,
	}
	if payWithPoints {
		r.Price = decimal.Zero
		r.PointsSpent = opts.PriceInPoints
	}

	if err := s.catalog.SetCopyShelfStatus(ctx, cpy.ID, false); err != nil {
		return Rental{}, err
	}

	if err := s.ledger.Save(ctx, r); err != nil {
		// Put the copy back so a failed save leaves no trace.
		if restoreErr := s.catalog.SetCopyShelfStatus(ctx, cpy.ID, true); restoreErr != nil {
			return Rental{}, fmt.Errorf("restore shelf status after failed save: %v: %w", restoreErr, err)
		}
		return Rental{}, err
	}

	bonus, err := s.policy.Bonus(title.Category, req.Days)
	if err != nil {
		return Rental{}, err
	}
	cust.BonusPoints = cust.BonusPoints + bonus - r.PointsSpent
	if err := s.customers.Update(ctx, cust); err != nil {
		return Rental{}, fmt.Errorf("settle bonus points: %w", err)
	}

	if err := s.journalRentalOpened(ctx, r); err != nil {
		return Rental{}, err
	}

	span.SetAttributes(
		attribute.String("rental.id", r.ID.String()),
		attribute.Int("copy.id", cpy.ID),
		attribute.Bool("rental.paid_with_points", payWithPoints),
	)
	return r, nil
}

// ReturnCopy ends the active rental of the copy by this customer and puts
// the copy back on the shelf. Returning a copy twice fails.
func (s *Store) ReturnCopy(ctx context.Context, customerID, copyID int) error {
	ctx, span := s.tracer.Start(ctx, "store.return_copy",
		trace.WithAttributes(
			attribute.Int("customer.id", customerID),
			attribute.Int("copy.id", copyID),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.ledger.Return(ctx, customerID, copyID)
	if err != nil {
		return err
	}

	if err := s.catalog.SetCopyShelfStatus(ctx, copyID, true); err != nil {
		return fmt.Errorf("put copy %d back on shelf: %w", copyID, err)
	}

	return s.journalRentalClosed(ctx, r)
}

func (s *Store) journalRentalOpened(ctx context.Context, r Rental) error {
	data, err := json.Marshal(RentalOpenedEvent{
		RentalID:    r.ID,
		CustomerID:  r.CustomerID,
		CopyID:      r.CopyID,
		Category:    r.Category,
		RentalDays:  r.RentalDays,
		Price:       r.Price,
		PointsSpent: r.PointsSpent,
	})
	if err != nil {
		return fmt.Errorf("marshal rental opened event: %w", err)
	}

	event := journal.Event{EventType: RentalOpenedEventType, Data: data}
	if err := s.journal.Append(ctx, r.ID, aggregateType, 0, event); err != nil {
		return fmt.Errorf("journal rental opened: %w", err)
	}
	return nil
}

func (s *Store) journalRentalClosed(ctx context.Context, r Rental) error {
	data, err := json.Marshal(RentalClosedEvent{
		RentalID:   r.ID,
		CustomerID: r.CustomerID,
		CopyID:     r.CopyID,
	})
	if err != nil {
		return fmt.Errorf("marshal rental closed event: %w", err)
	}

	event := journal.Event{EventType: RentalClosedEventType, Data: data}
	if err := s.journal.Append(ctx, r.ID, aggregateType, 1, event); err != nil {
		return fmt.Errorf("journal rental closed: %w", err)
	}
	return nil
}
