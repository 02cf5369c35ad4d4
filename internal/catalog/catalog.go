package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"inventario/internal/models"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

// Service is the read surface the cart depends on plus the inventory
// management operations used by the admin views. It never touches cart or
// order state.
type Service struct {
	DB *gorm.DB
}

// ListAvailable returns every product with stock left, in catalog insertion
// order.
func (s *Service) ListAvailable(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := s.DB.WithContext(ctx).
		Where("available_quantity > 0").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	product := models.Product{}
	if err := s.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &product, nil
}

// StockOf reports the units currently available for purchase.
func (s *Service) StockOf(ctx context.Context, id uint) (uint, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return product.AvailableQuantity, nil
}

func (s *Service) List(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (s *Service) Create(ctx context.Context, product *models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if product.LoteNumber == "" {
		return fmt.Errorf("%w: lote_number required", ErrValidation)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if product.EntryDate.IsZero() {
		product.EntryDate = time.Now().UTC()
	}

	if err := s.DB.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: lote_number %s already exists", ErrConflict, product.LoteNumber)
		}
		return err
	}
	return nil
}

type PatchRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Category          *string  `json:"category"`
	Price             *float64 `json:"price"`
	AvailableQuantity *uint    `json:"available_quantity"`
}

func (s *Service) Patch(ctx context.Context, id uint, req PatchRequest) (*models.Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.AvailableQuantity != nil {
		product.AvailableQuantity = *req.AvailableQuantity
	}

	if err := s.DB.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return nil
}
