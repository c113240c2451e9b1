// internal/console/renter.go
package console

import (
	"context"
	"errors"
	"fmt"

	"videostore/internal/catalog"
	"videostore/internal/customer"
	"videostore/internal/rental"
)

// rentFilm walks the rental conversation: identify the customer and the
// film, price the rental, confirm the terms, optionally redeem points, and
// commit. Domain failures become the original prompts' messages; the user is
// back at the menu afterwards either way.
func (c *Console) rentFilm(ctx context.Context) error {
	c.heading("RENT A FILM")

	cust, ok, err := c.rentalCustomer(ctx)
	if err != nil || !ok {
		return err
	}

	title, ok, err := c.rentalFilm(ctx)
	if err != nil || !ok {
		return err
	}

	days, ok := c.promptInt("Number of days for rent: ", minRentalDays, maxRentalDays)
	if !ok {
		return nil
	}

	// Show the copy that will go out; the store re-resolves availability
	// when the rental commits.
	if _, err := c.store.CopyOnShelf(ctx, title.ID); err != nil {
		if errors.Is(err, catalog.ErrNoCopyOnShelf) {
			c.showError("There is no available copy for this film.")
			return nil
		}
		return err
	}

	opts, err := c.store.RentalOptionsFor(ctx, cust.ID, title.Category, days)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\nYou have selected:\n%s, %d (%s) %d days ---> %s Eur\n",
		title.Name, title.Year, title.Category, days, opts.Price.String())
	if !c.confirm("Agree to rent? (y/n) ") {
		return nil
	}

	payWithPoints := false
	if opts.CanPayWithPoints {
		fmt.Fprintf(c.out, "\nYou have %d bonus points accumulated.\nYou can pay %d points for this rental.\n",
			opts.PointsAvailable, opts.PriceInPoints)
		payWithPoints = c.confirm("Pay by points? (y/n) ")
	}

	r, err := c.store.Rent(ctx, rental.Request{
		Title:         title,
		Days:          days,
		CustomerID:    cust.ID,
		PayWithPoints: payWithPoints,
	})
	switch {
	case errors.Is(err, customer.ErrCustomerNotFound):
		c.showError("This customer is not found in the store.")
		return nil
	case errors.Is(err, catalog.ErrNoCopyOnShelf):
		c.showError("There is no available copy for this film.")
		return nil
	case err != nil:
		return err
	}

	if payWithPoints {
		settled, err := c.store.GetCustomer(ctx, cust.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "\nRented:\n%s, %d (%s) %d days (Paid with %d bonus points)\nRemaining bonus points: %d\n",
			title.Name, title.Year, title.Category, days, r.PointsSpent, settled.BonusPoints)
		return nil
	}

	fmt.Fprintf(c.out, "\nRented:\n%s, %d (%s) %d days %s Eur\n",
		title.Name, title.Year, title.Category, days, r.Price.String())
	return nil
}

func (c *Console) rentalCustomer(ctx context.Context) (customer.Customer, bool, error) {
	// Customers carry no personal data, so the conversation starts from an id.
	id, ok := c.promptInt("Customer ID: ", 1, maxID)
	if !ok {
		return customer.Customer{}, false, nil
	}

	cust, err := c.store.GetCustomer(ctx, id)
	if errors.Is(err, customer.ErrCustomerNotFound) {
		c.showError("This customer is not found in the store.")
		return customer.Customer{}, false, nil
	}
	if err != nil {
		return customer.Customer{}, false, err
	}
	return cust, true, nil
}

func (c *Console) rentalFilm(ctx context.Context) (catalog.Title, bool, error) {
	id, ok := c.promptInt("Film ID: ", 1, maxID)
	if !ok {
		return catalog.Title{}, false, nil
	}

	title, err := c.store.GetTitle(ctx, id)
	if errors.Is(err, catalog.ErrTitleNotFound) {
		c.showError("This film is not found in the store.")
		return catalog.Title{}, false, nil
	}
	if err != nil {
		return catalog.Title{}, false, err
	}
	return title, true, nil
}
