package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tienda/internal/domain"
	"github.com/prn-tf/tienda/internal/metrics"
	"github.com/prn-tf/tienda/internal/repository"
)

// =============================================================================
// Mock Types for LedgerService
// =============================================================================

type mockCatalogRepository struct {
	mock.Mock
}

func (m *mockCatalogRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}

func (m *mockCatalogRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CatalogItem), args.Error(1)
}

type mockOrderTx struct {
	mock.Mock
}

func (m *mockOrderTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil {
		order.ID = 7
	}
	return args.Error(0)
}

func (m *mockOrderTx) CreateLine(ctx context.Context, line *domain.OrderLine) error {
	args := m.Called(ctx, line)
	if args.Error(0) == nil {
		line.ID = 11
	}
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
	tx *mockOrderTx
}

func (m *mockOrderRepository) WithTx(ctx context.Context, fn func(tx repository.OrderTx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.tx)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListViews(ctx context.Context) ([]*domain.OrderView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OrderView), args.Error(1)
}

func (m *mockOrderRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

var fixedNow = time.Date(2024, 3, 9, 14, 5, 30, 123456789, time.UTC)

type ledgerFixture struct {
	svc     *LedgerService
	catalog *mockCatalogRepository
	orders  *mockOrderRepository
	tx      *mockOrderTx
	metrics *metrics.Metrics
}

func newLedgerFixture() *ledgerFixture {
	tx := &mockOrderTx{}
	f := &ledgerFixture{
		catalog: &mockCatalogRepository{},
		orders:  &mockOrderRepository{tx: tx},
		tx:      tx,
		metrics: metrics.NewNop(),
	}
	f.svc = NewLedgerService(f.catalog, f.orders, f.metrics, zerolog.Nop())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func placements(m *metrics.Metrics, state domain.PlacementState) float64 {
	return testutil.ToFloat64(m.OrderPlacements.WithLabelValues(state.String()))
}

var ana = &domain.User{ID: 1, Name: "Ana", Email: "a@x.com"}

// =============================================================================
// Tests
// =============================================================================

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "3", want: 3},
		{raw: " 12 ", want: 12},
		{raw: "0", wantErr: true},
		{raw: "-2", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "1.5", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseQuantity(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseItemID(t *testing.T) {
	id, err := ParseItemID(" 2 ")
	require.NoError(t, err)
	require.Equal(t, int64(2), id)

	_, err = ParseItemID("two")
	require.ErrorIs(t, err, ErrInvalidItemID)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLedgerService_PlaceOrder_Success(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	f.catalog.On("GetByID", ctx, int64(1)).Return(&domain.CatalogItem{
		ID: 1, Name: "Camiseta", Price: decimal.NewFromInt(20),
	}, nil)
	f.orders.On("WithTx", ctx).Return(nil)
	f.tx.On("CreateOrder", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	f.tx.On("CreateLine", ctx, mock.AnythingOfType("*domain.OrderLine")).Return(nil)

	out, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{User: ana, ItemID: 1, Quantity: 3})
	require.NoError(t, err)

	require.Equal(t, domain.PlacementCommitted, out.State)
	require.Equal(t, int64(7), out.Order.ID)
	require.Equal(t, int64(1), out.Order.UserID)
	require.True(t, out.Order.Total.Equal(decimal.NewFromInt(60)))
	require.Equal(t, "2024-03-09T14:05:30Z", out.Order.Timestamp())

	require.Equal(t, int64(7), out.Line.OrderID)
	require.Equal(t, int64(1), out.Line.ItemID)
	require.Equal(t, 3, out.Line.Quantity)
	require.True(t, out.Line.Subtotal.Equal(decimal.NewFromInt(60)))
	require.True(t, out.Order.Total.Equal(out.Order.LinesTotal()))

	require.Equal(t, 1.0, placements(f.metrics, domain.PlacementCommitted))
	f.catalog.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func TestLedgerService_PlaceOrder_ExactArithmetic(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	f.catalog.On("GetByID", ctx, int64(4)).Return(&domain.CatalogItem{
		ID: 4, Name: "Calcetines", Price: decimal.RequireFromString("0.10"),
	}, nil)
	f.orders.On("WithTx", ctx).Return(nil)
	f.tx.On("CreateOrder", ctx, mock.Anything).Return(nil)
	f.tx.On("CreateLine", ctx, mock.Anything).Return(nil)

	out, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{User: ana, ItemID: 4, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, "0.3", out.Order.Total.String())
}

func TestLedgerService_PlaceOrder_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		place   func(s *LedgerService) error
		wantErr error
	}{
		{
			name: "zero quantity",
			place: func(s *LedgerService) error {
				_, err := s.PlaceOrder(context.Background(), PlaceOrderInput{User: ana, ItemID: 1, Quantity: 0})
				return err
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			place: func(s *LedgerService) error {
				_, err := s.PlaceOrder(context.Background(), PlaceOrderInput{User: ana, ItemID: 1, Quantity: -1})
				return err
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "non-numeric quantity",
			place: func(s *LedgerService) error {
				_, err := s.PlaceOrderText(context.Background(), ana, "1", "tres")
				return err
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "non-numeric item",
			place: func(s *LedgerService) error {
				_, err := s.PlaceOrderText(context.Background(), ana, "uno", "3")
				return err
			},
			wantErr: ErrInvalidItemID,
		},
		{
			name: "no user",
			place: func(s *LedgerService) error {
				_, err := s.PlaceOrder(context.Background(), PlaceOrderInput{ItemID: 1, Quantity: 1})
				return err
			},
			wantErr: ErrMissingUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()

			err := tt.place(f.svc)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, ErrInvalidInput)

			var pe *PlacementError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, domain.PlacementRejected, pe.State)
			require.Equal(t, 1.0, placements(f.metrics, domain.PlacementRejected))

			f.catalog.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			f.orders.AssertNotCalled(t, "WithTx", mock.Anything)
		})
	}
}

func TestLedgerService_PlaceOrder_ItemNotFound(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	f.catalog.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrItemNotFound)

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{User: ana, ItemID: 99, Quantity: 1})
	require.ErrorIs(t, err, ErrItemNotFound)

	var pe *PlacementError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, domain.PlacementNotFound, pe.State)
	f.orders.AssertNotCalled(t, "WithTx", mock.Anything)
}

func TestLedgerService_PlaceOrder_LookupFailure(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	f.catalog.On("GetByID", ctx, int64(1)).Return(nil, errors.New("connection reset"))

	_, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{User: ana, ItemID: 1, Quantity: 1})
	require.ErrorIs(t, err, ErrInternalError)
	f.orders.AssertNotCalled(t, "WithTx", mock.Anything)

	var pe *PlacementError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, domain.PlacementRolledBack, pe.State)
	require.True(t, pe.State.IsTerminal())
	require.Equal(t, 1.0, placements(f.metrics, domain.PlacementRolledBack))
	require.Zero(t, placements(f.metrics, domain.PlacementItemLookup))
}

func TestLedgerService_PlaceOrder_RolledBack(t *testing.T) {
	lineErr := errors.New("CHECK constraint failed")

	tests := []struct {
		name  string
		setup func(f *ledgerFixture, ctx context.Context)
		cause error
	}{
		{
			name: "begin fails",
			setup: func(f *ledgerFixture, ctx context.Context) {
				f.orders.On("WithTx", ctx).Return(errors.New("database is locked"))
			},
		},
		{
			name: "header insert fails",
			setup: func(f *ledgerFixture, ctx context.Context) {
				f.orders.On("WithTx", ctx).Return(nil)
				f.tx.On("CreateOrder", ctx, mock.Anything).Return(errors.New("FOREIGN KEY constraint failed"))
			},
		},
		{
			name: "line insert fails",
			setup: func(f *ledgerFixture, ctx context.Context) {
				f.orders.On("WithTx", ctx).Return(nil)
				f.tx.On("CreateOrder", ctx, mock.Anything).Return(nil)
				f.tx.On("CreateLine", ctx, mock.Anything).Return(lineErr)
			},
			cause: lineErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			ctx := context.Background()
			f.catalog.On("GetByID", ctx, int64(1)).Return(&domain.CatalogItem{
				ID: 1, Name: "Camiseta", Price: decimal.NewFromInt(20),
			}, nil)
			tt.setup(f, ctx)

			out, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{User: ana, ItemID: 1, Quantity: 2})
			require.Nil(t, out)
			require.ErrorIs(t, err, ErrOrderFailed)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}

			var pe *PlacementError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, domain.PlacementRolledBack, pe.State)
			require.Equal(t, 1.0, placements(f.metrics, domain.PlacementRolledBack))
		})
	}
}

func TestLedgerService_ReadOperations(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	items := []*domain.CatalogItem{{ID: 1, Name: "Camiseta", Price: decimal.NewFromInt(20)}}
	f.catalog.On("List", ctx).Return(items, nil)
	views := []*domain.OrderView{{OrderID: 2}, {OrderID: 1}}
	f.orders.On("ListViews", ctx).Return(views, nil)
	f.orders.On("GetByID", ctx, int64(5)).Return(nil, domain.ErrOrderNotFound)
	f.orders.On("GetByID", ctx, int64(6)).Return(nil, errors.New("boom"))

	gotItems, err := f.svc.ListCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, items, gotItems)

	gotViews, err := f.svc.ListOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, views, gotViews)

	_, err = f.svc.GetOrder(ctx, 5)
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.GetOrder(ctx, 6)
	require.ErrorIs(t, err, ErrInternalError)
}

func TestPlacementError_Message(t *testing.T) {
	err := &PlacementError{State: domain.PlacementNotFound, Err: ErrItemNotFound}
	require.Equal(t, "order placement not_found: item not found", err.Error())
}
