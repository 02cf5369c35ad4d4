package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inventario/internal/catalog"
	"inventario/internal/models"
)

var (
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartLocked        = errors.New("cart locked by checkout in progress")
	ErrEmptyCart         = errors.New("cart is empty")
)

// Catalog is the slice of the catalog service the engine needs: product
// lookups for prices and stock ceilings.
type Catalog interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
}

// Item is one cart row. Product is a value copy taken when the row was
// created; stock checks always go back to the catalog, the copy is for
// rendering and pricing.
type Item struct {
	Product  models.Product `json:"product"`
	Quantity uint           `json:"quantity"`
}

// Engine owns the cart of one session: a productID -> quantity mapping with
// stable insertion order. Every entry holds a quantity that was > 0 and within
// stock at the time of its last successful mutation; failed operations leave
// the cart untouched.
type Engine struct {
	mu      sync.Mutex
	catalog Catalog
	items   map[uint]*Item
	order   []uint
	locked  bool
}

func NewEngine(cat Catalog) *Engine {
	return &Engine{
		catalog: cat,
		items:   make(map[uint]*Item),
	}
}

func (e *Engine) lookup(ctx context.Context, productID uint) (*models.Product, error) {
	product, err := e.catalog.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		return nil, err
	}
	return product, nil
}

// AddOrIncrement merges delta into the existing row for the product, creating
// the row if absent. The resulting quantity must not exceed the product's
// current availability.
func (e *Engine) AddOrIncrement(ctx context.Context, productID uint, delta int) (Item, error) {
	if delta <= 0 {
		return Item{}, fmt.Errorf("%w: delta must be > 0, got %d", ErrInvalidQuantity, delta)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return Item{}, ErrCartLocked
	}

	product, err := e.lookup(ctx, productID)
	if err != nil {
		return Item{}, err
	}

	current := uint(0)
	if it, ok := e.items[productID]; ok {
		current = it.Quantity
	}

	requested := current + uint(delta)
	if requested > product.AvailableQuantity {
		return Item{}, fmt.Errorf("%w: requested %d of %q, available %d",
			ErrInsufficientStock, requested, product.Name, product.AvailableQuantity)
	}

	if it, ok := e.items[productID]; ok {
		it.Quantity = requested
		it.Product = *product
		return *it, nil
	}

	it := &Item{Product: *product, Quantity: requested}
	e.items[productID] = it
	e.order = append(e.order, productID)
	return *it, nil
}

// SetQuantity replaces the row's quantity. Zero or negative removes the row.
// Quantities beyond the available stock are rejected, never clamped.
func (e *Engine) SetQuantity(ctx context.Context, productID uint, quantity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return ErrCartLocked
	}

	if quantity <= 0 {
		e.remove(productID)
		return nil
	}

	product, err := e.lookup(ctx, productID)
	if err != nil {
		return err
	}

	if uint(quantity) > product.AvailableQuantity {
		return fmt.Errorf("%w: requested %d of %q, available %d",
			ErrInsufficientStock, quantity, product.Name, product.AvailableQuantity)
	}

	if it, ok := e.items[productID]; ok {
		it.Quantity = uint(quantity)
		it.Product = *product
		return nil
	}

	e.items[productID] = &Item{Product: *product, Quantity: uint(quantity)}
	e.order = append(e.order, productID)
	return nil
}

// Remove deletes the row if present. Removing an absent product is a no-op.
func (e *Engine) Remove(productID uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return ErrCartLocked
	}
	e.remove(productID)
	return nil
}

func (e *Engine) remove(productID uint) {
	if _, ok := e.items[productID]; !ok {
		return
	}
	delete(e.items, productID)
	for i, id := range e.order {
		if id == productID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return ErrCartLocked
	}
	e.items = make(map[uint]*Item)
	e.order = nil
	return nil
}

// Items returns the rows in insertion order. The slice and its items are
// copies.
func (e *Engine) Items() []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemsLocked()
}

func (e *Engine) itemsLocked() []Item {
	out := make([]Item, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.items[id])
	}
	return out
}

func (e *Engine) LineTotal(productID uint) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, ok := e.items[productID]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	return float64(it.Quantity) * it.Product.Price, nil
}

func (e *Engine) GrandTotal() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grandTotalLocked()
}

func (e *Engine) grandTotalLocked() float64 {
	var total float64
	for _, it := range e.items {
		total += float64(it.Quantity) * it.Product.Price
	}
	return total
}

// ItemCount is the sum of quantities, not the number of distinct products.
func (e *Engine) ItemCount() uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemCountLocked()
}

func (e *Engine) itemCountLocked() uint {
	var n uint
	for _, it := range e.items {
		n += it.Quantity
	}
	return n
}

// Summary returns the rows, grand total and item count under a single lock,
// so the three values always describe the same cart state.
func (e *Engine) Summary() ([]Item, float64, uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemsLocked(), e.grandTotalLocked(), e.itemCountLocked()
}

// Len is the number of distinct products.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// Snapshot is an immutable copy of the cart taken when a checkout begins.
type Snapshot struct {
	Lines []Item
	Total float64
}

// BeginCheckout locks the cart and captures a snapshot. While locked, every
// mutating operation fails with ErrCartLocked, so the snapshot cannot diverge
// from the cart before the checkout reaches a terminal state.
func (e *Engine) BeginCheckout() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locked {
		return Snapshot{}, ErrCartLocked
	}
	if len(e.items) == 0 {
		return Snapshot{}, ErrEmptyCart
	}

	e.locked = true
	return Snapshot{
		Lines: e.itemsLocked(),
		Total: e.grandTotalLocked(),
	}, nil
}

// FinishCheckout releases the checkout lock. When clear is true the cart is
// emptied first (successful checkout); otherwise it is left as it was
// (cancelled or failed checkout).
func (e *Engine) FinishCheckout(clear bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if clear {
		e.items = make(map[uint]*Item)
		e.order = nil
	}
	e.locked = false
}
