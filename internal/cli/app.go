// Package cli implements the interactive text menu of the order ledger.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tienda/internal/domain"
	"github.com/prn-tf/tienda/internal/service"
)

// App runs the menu against the user and ledger services.
type App struct {
	users  *service.UserService
	ledger *service.LedgerService
	reader *bufio.Reader
	out    io.Writer
	logger zerolog.Logger

	// hidePasswords reads passwords from the terminal without echo.
	hidePasswords bool
}

// NewApp creates the menu. Input is read line by line from in.
func NewApp(users *service.UserService, ledger *service.LedgerService, in io.Reader, out io.Writer, logger zerolog.Logger) *App {
	return &App{
		users:  users,
		ledger: ledger,
		reader: bufio.NewReader(in),
		out:    out,
		logger: logger.With().Str("component", "cli").Logger(),
	}
}

// HidePasswords makes the menu read passwords from the terminal without echo.
func (a *App) HidePasswords(hide bool) {
	a.hidePasswords = hide
}

const menu = `=== Tienda ===
1. Register user
2. List catalog
3. Place order
4. List orders
5. Exit`

// Run shows the menu until the user exits or input ends.
// Operation failures are reported to the user and never end the loop.
func (a *App) Run(ctx context.Context) error {
	for {
		a.println(menu)
		choice, err := readLine(a.reader, a.out, "Option")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			err = a.Register(ctx)
		case "2":
			err = a.ShowCatalog(ctx)
		case "3":
			err = a.PlaceOrder(ctx)
		case "4":
			err = a.ShowOrders(ctx)
		case "5":
			a.println("Bye!")
			return nil
		default:
			a.println("Invalid option.\n")
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Register asks for name, email and password and registers the user.
func (a *App) Register(ctx context.Context) error {
	a.println("=== Register user ===")
	name, err := readLine(a.reader, a.out, "Name")
	if err != nil {
		return err
	}
	email, err := readLine(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := a.readPassword()
	if err != nil {
		return err
	}

	out, err := a.users.Register(ctx, service.RegisterInput{Name: name, Email: email, Password: password})
	switch {
	case err == nil:
		a.printf("User %s registered.\n\n", out.User.Name)
	case errors.Is(err, service.ErrInvalidInput):
		a.println("Missing data. Try again.\n")
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		a.println("That email is already registered.\n")
	default:
		a.failed(err)
	}
	return nil
}

// ShowCatalog prints the catalog.
func (a *App) ShowCatalog(ctx context.Context) error {
	a.println("=== Catalog ===")
	items, err := a.ledger.ListCatalog(ctx)
	if err != nil {
		a.failed(err)
		return nil
	}
	for _, item := range items {
		a.printf("%d: %s - $%s\n", item.ID, item.Name, item.Price.String())
	}
	a.println("")
	return nil
}

// PlaceOrder authenticates the user and places a single-item order.
func (a *App) PlaceOrder(ctx context.Context) error {
	hasUsers, err := a.users.HasUsers(ctx)
	if err != nil {
		a.failed(err)
		return nil
	}
	if !hasUsers {
		a.println("No users registered. Register first.\n")
		return nil
	}

	email, err := readLine(a.reader, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := a.readPassword()
	if err != nil {
		return err
	}

	user, err := a.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			a.println("Invalid email or password.\n")
		} else {
			a.failed(err)
		}
		return nil
	}

	if err := a.ShowCatalog(ctx); err != nil {
		return err
	}

	rawItem, err := readLine(a.reader, a.out, "Item id")
	if err != nil {
		return err
	}
	rawQuantity, err := readLine(a.reader, a.out, "Quantity")
	if err != nil {
		return err
	}

	out, err := a.ledger.PlaceOrderText(ctx, user, rawItem, rawQuantity)
	switch {
	case err == nil:
		a.printf("Order of %d x %s placed. Total: $%s\n\n", out.Line.Quantity, out.Item.Name, out.Order.Total.String())
	case errors.Is(err, service.ErrInvalidQuantity):
		a.println("Quantity must be a whole number greater than 0.\n")
	case errors.Is(err, service.ErrInvalidItemID):
		a.println("Item id must be a number.\n")
	case errors.Is(err, service.ErrItemNotFound):
		a.println("Item not found.\n")
	case errors.Is(err, service.ErrOrderFailed):
		a.printf("Error placing order: %v\n\n", err)
	default:
		a.failed(err)
	}
	return nil
}

// ShowOrders prints every order line, newest order first.
func (a *App) ShowOrders(ctx context.Context) error {
	views, err := a.ledger.ListOrders(ctx)
	if err != nil {
		a.failed(err)
		return nil
	}
	if len(views) == 0 {
		a.println("No orders placed yet.\n")
		return nil
	}

	a.println("=== Orders ===")
	for _, v := range views {
		a.printf("#%d | %s (%s) | %s x %d = $%s | %s\n",
			v.OrderID, v.UserName, v.UserEmail, v.ItemName, v.Quantity, v.Subtotal.String(),
			v.PlacedAt.Format(domain.TimestampLayout))
	}
	a.println("")
	return nil
}

func (a *App) readPassword() (string, error) {
	if a.hidePasswords {
		return readSecret(a.out, "Password")
	}
	return readLine(a.reader, a.out, "Password")
}

func (a *App) failed(err error) {
	a.logger.Error().Err(err).Msg("operation failed")
	a.printf("Something went wrong: %v\n\n", err)
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
