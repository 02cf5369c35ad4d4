package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"inventario/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
)

// Service is the append-only purchase ledger. Orders are inserted once by the
// checkout process and never deleted; the only later mutation is the status
// field, set by sales management.
type Service struct {
	DB *gorm.DB
}

// Append writes the order and its lines in one transaction. The order must
// carry consistent totals: each line subtotal equals quantity * unit price
// and the order total equals the sum of subtotals.
func (s *Service) Append(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		return fmt.Errorf("%w: order id required", ErrValidation)
	}
	if len(order.Lines) == 0 {
		return fmt.Errorf("%w: lines required", ErrValidation)
	}
	if !models.ValidOrderStatus(order.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, order.Status)
	}

	var total float64
	for i := range order.Lines {
		line := &order.Lines[i]
		if line.Quantity == 0 {
			return fmt.Errorf("%w: line quantity must be > 0", ErrValidation)
		}
		if !moneyEqual(line.Subtotal, float64(line.Quantity)*line.UnitPrice) {
			return fmt.Errorf("%w: line subtotal mismatch for product %d", ErrValidation, line.ProductID)
		}
		total += line.Subtotal
	}
	if !moneyEqual(total, order.Total) {
		return fmt.Errorf("%w: order total %v != sum of subtotals %v", ErrValidation, order.Total, total)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Preload("Lines").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &order, nil
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, s.DB.WithContext(ctx))
}

func (s *Service) ListByClient(ctx context.Context, clientID uint) ([]models.Order, error) {
	return s.list(ctx, s.DB.WithContext(ctx).Where("client_id = ?", clientID))
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.list(ctx, s.DB.WithContext(ctx).Where("status = ?", status))
}

func (s *Service) list(ctx context.Context, q *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	if err := q.Preload("Lines").Order("purchase_date DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SetStatus records a status transition made by sales management. Setting the
// status an order already has is a no-op, not an error.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	if err := s.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status
	return order, nil
}

func moneyEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
