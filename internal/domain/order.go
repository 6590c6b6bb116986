package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the ISO-8601, second precision layout used for order timestamps.
const TimestampLayout = time.RFC3339

// Order is the header of a placed order.
// Total equals the sum of the line subtotals at creation time and is never recomputed.
type Order struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"user_id"`
	PlacedAt time.Time       `json:"placed_at"`
	Total    decimal.Decimal `json:"total"`

	// Lines is populated when the order is loaded with its lines.
	Lines []*OrderLine `json:"lines,omitempty"`
}

// NewOrder creates an order header for a user with the timestamp truncated to seconds.
func NewOrder(userID int64, placedAt time.Time, total decimal.Decimal) *Order {
	return &Order{
		UserID:   userID,
		PlacedAt: placedAt.UTC().Truncate(time.Second),
		Total:    total,
	}
}

// Timestamp returns PlacedAt formatted for storage and display.
func (o *Order) Timestamp() string {
	return o.PlacedAt.UTC().Format(TimestampLayout)
}

// LinesTotal sums the subtotals of the loaded lines.
func (o *Order) LinesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Subtotal)
	}
	return sum
}

// OrderLine is one item of an order. Subtotal is the price snapshot times quantity.
type OrderLine struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	ItemID   int64           `json:"item_id"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// OrderView is a read-only row of the order listing.
type OrderView struct {
	OrderID   int64           `json:"order_id"`
	UserName  string          `json:"user_name"`
	UserEmail string          `json:"user_email"`
	PlacedAt  time.Time       `json:"placed_at"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PlacementState is the state of a single order placement attempt.
type PlacementState int

const (
	PlacementIdle PlacementState = iota
	PlacementValidating
	PlacementRejected
	PlacementItemLookup
	PlacementNotFound
	PlacementPersisting
	PlacementCommitted
	PlacementRolledBack
)

var placementStateNames = map[PlacementState]string{
	PlacementIdle:       "idle",
	PlacementValidating: "validating",
	PlacementRejected:   "rejected",
	PlacementItemLookup: "item_lookup",
	PlacementNotFound:   "not_found",
	PlacementPersisting: "persisting",
	PlacementCommitted:  "committed",
	PlacementRolledBack: "rolled_back",
}

// String returns the state name used in logs and metric labels.
func (s PlacementState) String() string {
	if name, ok := placementStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further transition can happen in the attempt.
func (s PlacementState) IsTerminal() bool {
	switch s {
	case PlacementRejected, PlacementNotFound, PlacementCommitted, PlacementRolledBack:
		return true
	}
	return false
}
