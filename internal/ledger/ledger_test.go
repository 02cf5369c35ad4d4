package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inventario/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderLine{}))
	return &Service{DB: db}
}

func testOrder(id string, clientID uint, day int) *models.Order {
	return &models.Order{
		ID:         id,
		ClientID:   clientID,
		ClientName: "Cliente Test",
		Lines: []models.OrderLine{
			{ProductID: 1, ProductName: "ProductA", LoteNumber: "LOT001", UnitPrice: 100, Quantity: 2, Subtotal: 200},
			{ProductID: 2, ProductName: "ProductB", LoteNumber: "LOT002", UnitPrice: 50, Quantity: 1, Subtotal: 50},
		},
		Total:        250,
		PurchaseDate: time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC),
		Status:       models.OrderStatusPending,
	}
}

func TestAppendAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, testOrder("order-1", 2, 10)))

	got, err := svc.Get(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, float64(250), got.Total)
	require.Equal(t, models.OrderStatusPending, got.Status)
	require.Len(t, got.Lines, 2)
	require.Equal(t, "ProductA", got.Lines[0].ProductName)
}

func TestAppendValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	noID := testOrder("", 2, 10)
	require.ErrorIs(t, svc.Append(ctx, noID), ErrValidation)

	noLines := testOrder("order-2", 2, 10)
	noLines.Lines = nil
	require.ErrorIs(t, svc.Append(ctx, noLines), ErrValidation)

	badSubtotal := testOrder("order-3", 2, 10)
	badSubtotal.Lines[0].Subtotal = 123
	require.ErrorIs(t, svc.Append(ctx, badSubtotal), ErrValidation)

	badTotal := testOrder("order-4", 2, 10)
	badTotal.Total = 999
	require.ErrorIs(t, svc.Append(ctx, badTotal), ErrValidation)

	badStatus := testOrder("order-5", 2, 10)
	badStatus.Status = "shipped"
	require.ErrorIs(t, svc.Append(ctx, badStatus), ErrValidation)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestGetUnknownOrder(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListQueries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, testOrder("order-1", 2, 10)))
	require.NoError(t, svc.Append(ctx, testOrder("order-2", 3, 12)))
	newest := testOrder("order-3", 2, 15)
	newest.Status = models.OrderStatusCompleted
	require.NoError(t, svc.Append(ctx, newest))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "order-3", all[0].ID, "newest first")

	mine, err := svc.ListByClient(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, o := range mine {
		require.Equal(t, uint(2), o.ClientID)
		require.Len(t, o.Lines, 2)
	}

	pending, err := svc.ListByStatus(ctx, models.OrderStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	_, err = svc.ListByStatus(ctx, "shipped")
	require.ErrorIs(t, err, ErrValidation)
}

func TestSetStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, testOrder("order-1", 2, 10)))

	order, err := svc.SetStatus(ctx, "order-1", models.OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCompleted, order.Status)

	// re-setting the same status is a no-op, not an error
	order, err = svc.SetStatus(ctx, "order-1", models.OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCompleted, order.Status)

	got, err := svc.Get(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCompleted, got.Status)

	_, err = svc.SetStatus(ctx, "order-1", "shipped")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.SetStatus(ctx, "missing", models.OrderStatusCancelled)
	require.ErrorIs(t, err, ErrNotFound)
}
