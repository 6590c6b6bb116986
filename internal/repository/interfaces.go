// Package repository defines data access interfaces for the Tienda order ledger.
// These interfaces abstract database operations, allowing for different implementations
// (SQLite, PostgreSQL, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/tienda/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user and sets its ID.
	// Returns domain.ErrUserAlreadyExists when the store rejects a duplicate email.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by its normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Catalog Repository
// =============================================================================

// CatalogRepository defines read access to catalog items.
type CatalogRepository interface {
	// GetByID retrieves an item by ID.
	// Returns domain.ErrItemNotFound when it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error)

	// List returns all items ordered by ID.
	List(ctx context.Context) ([]*domain.CatalogItem, error)
}

// =============================================================================
// Order Repository
// =============================================================================

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// WithTx runs fn inside a single store transaction.
	// If fn returns an error or panics, the transaction is rolled back and
	// nothing written through tx is observable. Otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx OrderTx) error) error

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// ListViews returns one row per order line joined with user and item, newest order first.
	ListViews(ctx context.Context) ([]*domain.OrderView, error)

	// Count returns the number of orders.
	Count(ctx context.Context) (int64, error)
}

// OrderTx is the write surface available inside OrderRepository.WithTx.
type OrderTx interface {
	// CreateOrder inserts the order header and sets its generated ID.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// CreateLine inserts an order line and sets its generated ID.
	CreateLine(ctx context.Context, line *domain.OrderLine) error
}

// =============================================================================
// Aggregates
// =============================================================================

// Repositories holds all repository instances for one store.
type Repositories struct {
	User    UserRepository
	Catalog CatalogRepository
	Order   OrderRepository
}

// DatabaseHealth is implemented by store handles.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
