// internal/console/console.go
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"videostore/internal/catalog"
	"videostore/internal/rental"
)

// Menu commands.
const (
	cmdAddFilm          = "1"
	cmdAddCopy          = "2"
	cmdRemoveFilm       = "3"
	cmdChangeCategory   = "4"
	cmdAllFilms         = "5"
	cmdAllActiveRentals = "6"
	cmdCreateCustomer   = "7"
	cmdCustomerRentals  = "8"
	cmdFilmsAvailable   = "9"
	cmdRentFilm         = "10"
	cmdReturnCopy       = "11"
	cmdQuit             = "q"
)

const (
	minYear       = 1888
	maxID         = 1000
	minRentalDays = 1
	maxRentalDays = 14
)

var allCommands = []string{
	cmdAddFilm, cmdAddCopy, cmdRemoveFilm, cmdChangeCategory, cmdAllFilms,
	cmdAllActiveRentals, cmdCreateCustomer, cmdCustomerRentals,
	cmdFilmsAvailable, cmdRentFilm, cmdReturnCopy, cmdQuit,
}

// Console is the interactive menu layer over the store façade. It owns all
// prompt and table formatting; the store supplies the behavior. Input and
// output are injected, so the whole conversation is scriptable in tests.
type Console struct {
	store *rental.Store
	in    *bufio.Scanner
	out   io.Writer
}

// New creates a console bound to the given store and streams.
func New(store *rental.Store, in io.Reader, out io.Writer) *Console {
	return &Console{store: store, in: bufio.NewScanner(in), out: out}
}

// Run drives the menu loop until the user quits or input runs out.
func (c *Console) Run(ctx context.Context) error {
	for {
		cmd, ok := c.menuCommand()
		if !ok || cmd == cmdQuit {
			return nil
		}
		if err := c.execute(ctx, cmd); err != nil {
			return err
		}
	}
}

func (c *Console) execute(ctx context.Context, cmd string) error {
	switch cmd {
	case cmdAddFilm:
		return c.addFilm(ctx)
	case cmdAddCopy:
		return c.addCopy(ctx)
	case cmdRemoveFilm:
		return c.removeFilm(ctx)
	case cmdChangeCategory:
		return c.changeCategory(ctx)
	case cmdAllFilms:
		return c.listFilms(ctx, "ALL FILMS IN STORE")
	case cmdAllActiveRentals:
		return c.listAllActiveRentals(ctx)
	case cmdCreateCustomer:
		return c.createCustomer(ctx)
	case cmdCustomerRentals:
		return c.listCustomerRentals(ctx)
	case cmdFilmsAvailable:
		return c.listAvailableFilms(ctx)
	case cmdRentFilm:
		return c.rentFilm(ctx)
	case cmdReturnCopy:
		return c.returnCopy(ctx)
	}
	return nil
}

func (c *Console) menuCommand() (string, bool) {
	for {
		c.showMenu()
		input, ok := c.prompt("Choose a command: ")
		if !ok {
			return "", false
		}
		input = strings.ToLower(strings.TrimSpace(input))
		for _, cmd := range allCommands {
			if input == cmd {
				return input, true
			}
		}
	}
}

func (c *Console) showMenu() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Following commands are available:")
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Inventory")
	fmt.Fprintln(c.out, "    "+cmdAddFilm+" Add film")
	fmt.Fprintln(c.out, "    "+cmdAddCopy+" Add copy")
	fmt.Fprintln(c.out, "    "+cmdRemoveFilm+" Remove film")
	fmt.Fprintln(c.out, "    "+cmdChangeCategory+" Change category of film")
	fmt.Fprintln(c.out, "    "+cmdAllFilms+" All films")
	fmt.Fprintln(c.out, "    "+cmdAllActiveRentals+" All active rentals")
	fmt.Fprintln(c.out, "Service")
	fmt.Fprintln(c.out, "    "+cmdCreateCustomer+" Create customer")
	fmt.Fprintln(c.out, "    "+cmdCustomerRentals+" All customer rentals")
	fmt.Fprintln(c.out, "    "+cmdFilmsAvailable+" All available films")
	fmt.Fprintln(c.out, "   "+cmdRentFilm+" Rent film")
	fmt.Fprintln(c.out, "   "+cmdReturnCopy+" Return copy")
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "    "+cmdQuit+" Quit")
	fmt.Fprintln(c.out)
}

func (c *Console) addFilm(ctx context.Context) error {
	c.heading("ADDING FILM")
	name, ok := c.prompt("Film name: ")
	if !ok {
		return nil
	}
	year, ok := c.promptInt("Film year: ", minYear, time.Now().Year())
	if !ok {
		return nil
	}
	category, ok := c.promptCategory()
	if !ok {
		return nil
	}
	count, ok := c.promptInt("Number of copies for this film: ", 1, 99)
	if !ok {
		return nil
	}

	title := catalog.Title{Name: name, Year: year, Category: category}
	for i := 0; i < count; i++ {
		if _, err := c.store.AddCopy(ctx, title); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.out, "\nAdded %q (%d) with %d copies\n", name, year, count)
	return nil
}

func (c *Console) addCopy(ctx context.Context) error {
	c.heading("ADDING COPY")
	title, ok, err := c.findFilm(ctx)
	if err != nil || !ok {
		return err
	}

	if _, err := c.store.AddCopy(ctx, title); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "\nThe copy is added")
	return nil
}

func (c *Console) removeFilm(ctx context.Context) error {
	c.heading("REMOVING FILM")
	title, ok, err := c.findFilm(ctx)
	if err != nil || !ok {
		return err
	}

	if err := c.store.RemoveTitle(ctx, title.ID); err != nil {
		if errors.Is(err, catalog.ErrTitleNotFound) {
			c.showError("This film is not found in the store.")
			return nil
		}
		return err
	}
	fmt.Fprintln(c.out, "\nThe film is removed")
	return nil
}

func (c *Console) changeCategory(ctx context.Context) error {
	c.heading("CHANGE FILM CATEGORY")
	title, ok, err := c.findFilm(ctx)
	if err != nil || !ok {
		return err
	}

	category, ok := c.promptCategory()
	if !ok {
		return nil
	}
	if err := c.store.ChangeTitleCategory(ctx, title.ID, category); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "\nThe film category is changed")
	return nil
}

// findFilm asks for name and year and resolves the title, reporting a
// not-found message itself. The second result is false when the film is
// absent or input ran out.
func (c *Console) findFilm(ctx context.Context) (catalog.Title, bool, error) {
	name, ok := c.prompt("Film name: ")
	if !ok {
		return catalog.Title{}, false, nil
	}
	year, ok := c.promptInt("Film year: ", minYear, time.Now().Year())
	if !ok {
		return catalog.Title{}, false, nil
	}

	found, err := c.store.FindTitle(ctx, name, year)
	if err != nil {
		return catalog.Title{}, false, err
	}
	if len(found) == 0 {
		c.showError("This film is not found in the store.")
		return catalog.Title{}, false, nil
	}
	return found[0], true, nil
}

func (c *Console) listFilms(ctx context.Context, heading string) error {
	titles, err := c.store.AllTitles(ctx)
	if err != nil {
		return err
	}
	c.showFilmTable(titles, heading)
	return nil
}

func (c *Console) listAvailableFilms(ctx context.Context) error {
	titles, err := c.store.TitlesOnShelf(ctx)
	if err != nil {
		return err
	}
	c.showFilmTable(titles, "ALL FILMS AVAILABLE FOR RENT")
	return nil
}

func (c *Console) showFilmTable(titles []catalog.Title, heading string) {
	c.heading(heading)
	w := tabwriter.NewWriter(c.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tName\tYear\tCategory")
	for _, t := range titles {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", t.ID, t.Name, t.Year, t.Category)
	}
	w.Flush()
}

func (c *Console) listAllActiveRentals(ctx context.Context) error {
	rentals, err := c.store.AllActiveRentals(ctx)
	if err != nil {
		return err
	}
	return c.showRentalTable(ctx, rentals, "ALL ACTIVE RENTALS")
}

func (c *Console) listCustomerRentals(ctx context.Context) error {
	c.heading("ALL CUSTOMER RENTALS")
	id, ok := c.promptInt("Customer ID: ", 1, maxID)
	if !ok {
		return nil
	}

	rentals, err := c.store.ActiveRentals(ctx, id)
	if err != nil {
		return err
	}
	return c.showRentalTable(ctx, rentals, fmt.Sprintf("ACTIVE RENTALS OF CUSTOMER %d", id))
}

func (c *Console) showRentalTable(ctx context.Context, rentals []rental.Rental, heading string) error {
	c.heading(heading)
	w := tabwriter.NewWriter(c.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Copy\tCust.\tName\tCategory\tDays\tPrice")

	total := decimal.Zero
	for _, r := range rentals {
		name := fmt.Sprintf("copy %d", r.CopyID)
		if cpy, err := c.store.GetCopy(ctx, r.CopyID); err == nil {
			if title, err := c.store.GetTitle(ctx, cpy.TitleID); err == nil {
				name = title.Name
			}
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d days\t%s Eur\n",
			r.CopyID, r.CustomerID, name, r.Category, r.RentalDays, r.Price.String())
		total = total.Add(r.Price)
	}
	w.Flush()
	fmt.Fprintf(c.out, "\nTotal price: %s Eur\n", total.String())
	return nil
}

func (c *Console) createCustomer(ctx context.Context) error {
	id, err := c.store.CreateCustomer(ctx)
	if err != nil {
		return err
	}
	c.heading("CREATED CUSTOMER")
	fmt.Fprintf(c.out, "Created customer ID: %d\n", id)
	return nil
}

func (c *Console) returnCopy(ctx context.Context) error {
	c.heading("RETURN A COPY")
	customerID, ok := c.promptInt("Customer ID: ", 1, maxID)
	if !ok {
		return nil
	}
	copyID, ok := c.promptInt("Copy ID: ", 1, maxID)
	if !ok {
		return nil
	}

	err := c.store.ReturnCopy(ctx, customerID, copyID)
	switch {
	case errors.Is(err, rental.ErrNoActiveRental):
		c.showError("There is no active rental for this customer and copy.")
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintln(c.out, "\nThe copy is returned")
	return nil
}

// Input helpers. All of them report ok=false when the input stream is
// exhausted, which ends the session gracefully.

func (c *Console) prompt(message string) (string, bool) {
	fmt.Fprint(c.out, message)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) promptInt(message string, min, max int) (int, bool) {
	for {
		input, ok := c.prompt(message)
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(input)
		if err == nil && n >= min && n <= max {
			return n, true
		}
	}
}

func (c *Console) promptCategory() (catalog.Category, bool) {
	for {
		input, ok := c.prompt("Film category (new/regular/old): ")
		if !ok {
			return "", false
		}
		if category, valid := catalog.ParseCategory(input); valid {
			return category, true
		}
	}
}

func (c *Console) confirm(message string) bool {
	input, ok := c.prompt(message)
	return ok && strings.EqualFold(input, "y")
}

func (c *Console) heading(text string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, text)
	fmt.Fprintln(c.out)
}

func (c *Console) showError(message string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, message)
}
