package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tienda/internal/domain"
	"github.com/prn-tf/tienda/internal/metrics"
	"github.com/prn-tf/tienda/internal/repository"
)

// LedgerService places orders and serves the catalog and order listings.
// It holds no state across placement attempts.
type LedgerService struct {
	catalogRepo repository.CatalogRepository
	catalogView repository.CatalogRepository
	orderRepo   repository.OrderRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLedgerService creates a new LedgerService. catalogRepo must read the
// store directly: placement prices orders with what it returns.
func NewLedgerService(
	catalogRepo repository.CatalogRepository,
	orderRepo repository.OrderRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		catalogRepo: catalogRepo,
		catalogView: catalogRepo,
		orderRepo:   orderRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "ledger").Logger(),
		now:         time.Now,
	}
}

// WithCatalogView sets the repository used for catalog listings, typically a
// cached one. Placement keeps reading from the store.
func (s *LedgerService) WithCatalogView(view repository.CatalogRepository) *LedgerService {
	if view != nil {
		s.catalogView = view
	}
	return s
}

// =============================================================================
// Input parsing
// =============================================================================

// ParseQuantity converts user input into a quantity.
// Non-numeric and non-positive values are rejected with ErrInvalidQuantity.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q <= 0 {
		return 0, ErrInvalidQuantity
	}
	return q, nil
}

// ParseItemID converts user input into a catalog item ID.
func ParseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrInvalidItemID
	}
	return id, nil
}

// =============================================================================
// Placement
// =============================================================================

// PlaceOrderInput contains the data needed to place an order.
type PlaceOrderInput struct {
	User     *domain.User
	ItemID   int64
	Quantity int
}

// PlaceOrderOutput contains the committed order.
type PlaceOrderOutput struct {
	Order *domain.Order
	Line  *domain.OrderLine
	Item  *domain.CatalogItem
	State domain.PlacementState
}

// PlacementError reports the terminal state in which an attempt stopped.
type PlacementError struct {
	State domain.PlacementState
	Err   error
}

// Error implements the error interface.
func (e *PlacementError) Error() string {
	return fmt.Sprintf("order placement %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *PlacementError) Unwrap() error {
	return e.Err
}

// placement tracks one attempt through its states.
type placement struct {
	id     string
	state  domain.PlacementState
	start  time.Time
	logger zerolog.Logger
}

func (p *placement) to(state domain.PlacementState) {
	p.logger.Debug().
		Str("from", p.state.String()).
		Str("to", state.String()).
		Msg("placement state changed")
	p.state = state
}

// PlaceOrder validates the input, looks up the item and persists the order
// header and its line in one transaction. On failure a *PlacementError is
// returned and nothing is written.
func (s *LedgerService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderOutput, error) {
	p := s.begin()
	return s.place(ctx, p, func() (PlaceOrderInput, error) {
		if input.Quantity <= 0 {
			return input, ErrInvalidQuantity
		}
		return input, nil
	})
}

// PlaceOrderText is PlaceOrder for raw user input. Parse failures are
// validation failures of the same attempt.
func (s *LedgerService) PlaceOrderText(ctx context.Context, user *domain.User, rawItemID, rawQuantity string) (*PlaceOrderOutput, error) {
	p := s.begin()
	return s.place(ctx, p, func() (PlaceOrderInput, error) {
		quantity, err := ParseQuantity(rawQuantity)
		if err != nil {
			return PlaceOrderInput{}, err
		}
		itemID, err := ParseItemID(rawItemID)
		if err != nil {
			return PlaceOrderInput{}, err
		}
		return PlaceOrderInput{User: user, ItemID: itemID, Quantity: quantity}, nil
	})
}

func (s *LedgerService) begin() *placement {
	id := uuid.NewString()
	return &placement{
		id:     id,
		state:  domain.PlacementIdle,
		start:  s.now(),
		logger: s.logger.With().Str("attempt_id", id).Logger(),
	}
}

func (s *LedgerService) place(ctx context.Context, p *placement, validate func() (PlaceOrderInput, error)) (*PlaceOrderOutput, error) {
	defer func() {
		s.metrics.OrderPlacements.WithLabelValues(p.state.String()).Inc()
		s.metrics.PlacementSeconds.Observe(s.now().Sub(p.start).Seconds())
	}()

	p.to(domain.PlacementValidating)
	input, err := validate()
	if err == nil && input.User == nil {
		err = ErrMissingUser
	}
	if err != nil {
		p.to(domain.PlacementRejected)
		p.logger.Info().Err(err).Msg("order rejected")
		return nil, &PlacementError{State: p.state, Err: err}
	}

	p.to(domain.PlacementItemLookup)
	item, err := s.catalogRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			p.to(domain.PlacementNotFound)
			p.logger.Info().Int64("item_id", input.ItemID).Msg("order item not found")
			return nil, &PlacementError{
				State: p.state,
				Err:   fmt.Errorf("%w: %d", ErrItemNotFound, input.ItemID),
			}
		}
		// No transaction is open yet; the attempt still ends as a failure.
		p.to(domain.PlacementRolledBack)
		p.logger.Error().Err(err).Int64("item_id", input.ItemID).Msg("failed to look up item")
		return nil, &PlacementError{State: p.state, Err: fmt.Errorf("%w: %v", ErrInternalError, err)}
	}

	subtotal := item.SubtotalFor(input.Quantity)
	order := domain.NewOrder(input.User.ID, s.now(), subtotal)
	line := &domain.OrderLine{
		ItemID:   item.ID,
		Quantity: input.Quantity,
		Subtotal: subtotal,
	}

	p.to(domain.PlacementPersisting)
	err = s.orderRepo.WithTx(ctx, func(tx repository.OrderTx) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		line.OrderID = order.ID
		return tx.CreateLine(ctx, line)
	})
	if err != nil {
		p.to(domain.PlacementRolledBack)
		p.logger.Warn().
			Err(err).
			Int64("user_id", input.User.ID).
			Int64("item_id", item.ID).
			Int("quantity", input.Quantity).
			Msg("order transaction rolled back")
		return nil, &PlacementError{State: p.state, Err: fmt.Errorf("%w: %w", ErrOrderFailed, err)}
	}

	p.to(domain.PlacementCommitted)
	order.Lines = []*domain.OrderLine{line}

	p.logger.Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Int64("item_id", item.ID).
		Int("quantity", line.Quantity).
		Str("total", order.Total.String()).
		Msg("order placed")

	return &PlaceOrderOutput{Order: order, Line: line, Item: item, State: p.state}, nil
}

// =============================================================================
// Read operations
// =============================================================================

// ListCatalog returns every catalog item ordered by ID.
func (s *LedgerService) ListCatalog(ctx context.Context) ([]*domain.CatalogItem, error) {
	items, err := s.catalogView.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list catalog")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return items, nil
}

// ListOrders returns one view per order line, newest order first.
func (s *LedgerService) ListOrders(ctx context.Context) ([]*domain.OrderView, error) {
	views, err := s.orderRepo.ListViews(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return views, nil
}

// GetOrder returns an order with its lines.
func (s *LedgerService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return order, nil
}
