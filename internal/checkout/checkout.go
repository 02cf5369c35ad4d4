package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventario/internal/cart"
	"inventario/internal/models"
)

var (
	ErrNotStarted       = errors.New("checkout not started")
	ErrAlreadyFinalized = errors.New("checkout already finalized")
	ErrCancelled        = errors.New("checkout cancelled")
	ErrCheckoutFailed   = errors.New("checkout failed")
)

type State int

const (
	StateIdle State = iota
	StateConfirming
	StateFinalizing
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Ledger is the single writer target of a checkout.
type Ledger interface {
	Append(ctx context.Context, order *models.Order) error
}

// Process drives one checkout attempt through
// Idle -> Confirming -> Finalizing -> Completed, or to Failed on cancel,
// timeout or a ledger error. It is single use: a finished process rejects
// every further call with ErrAlreadyFinalized.
type Process struct {
	mu     sync.Mutex
	state  State
	cancel chan struct{}

	cart   *cart.Engine
	ledger Ledger
	client models.User

	snapshot cart.Snapshot

	// Delay simulates the payment round trip, Timeout bounds it. Both are
	// injectable so tests run with zero delay.
	delay   time.Duration
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

func New(engine *cart.Engine, ledger Ledger, client models.User, delay, timeout time.Duration) *Process {
	return &Process{
		cancel:  make(chan struct{}),
		cart:    engine,
		ledger:  ledger,
		client:  client,
		delay:   delay,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Begin locks the cart and captures the snapshot the order will be built
// from. An empty cart fails with cart.ErrEmptyCart and leaves the process
// idle.
func (p *Process) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateIdle:
	case StateConfirming, StateFinalizing:
		return cart.ErrCartLocked
	default:
		return ErrAlreadyFinalized
	}

	snap, err := p.cart.BeginCheckout()
	if err != nil {
		return err
	}

	p.snapshot = snap
	p.state = StateConfirming
	return nil
}

// Confirm runs the simulated processing delay and finalizes: builds the
// order, appends it to the ledger, clears and unlocks the cart. At most one
// order is ever written; a second Confirm fails with ErrAlreadyFinalized.
func (p *Process) Confirm(ctx context.Context) (*models.Order, error) {
	p.mu.Lock()
	switch p.state {
	case StateIdle:
		p.mu.Unlock()
		return nil, ErrNotStarted
	case StateConfirming:
	default:
		p.mu.Unlock()
		return nil, ErrAlreadyFinalized
	}
	delay := p.delay
	p.mu.Unlock()

	if p.timeout > 0 {
		var cancelFn context.CancelFunc
		ctx, cancelFn = context.WithTimeout(ctx, p.timeout)
		defer cancelFn()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, p.fail(fmt.Errorf("%w: %v", ErrCheckoutFailed, ctx.Err()))
	case <-p.cancel:
		return nil, ErrCancelled
	}

	p.mu.Lock()
	if p.state != StateConfirming {
		p.mu.Unlock()
		return nil, ErrCancelled
	}
	p.state = StateFinalizing
	snap := p.snapshot
	p.mu.Unlock()

	order := p.buildOrder(snap)
	if err := p.ledger.Append(ctx, order); err != nil {
		return nil, p.fail(fmt.Errorf("%w: append order: %v", ErrCheckoutFailed, err))
	}

	p.mu.Lock()
	p.state = StateCompleted
	p.mu.Unlock()

	p.cart.FinishCheckout(true)
	return order, nil
}

// Cancel aborts a checkout that has not started finalizing. The cart is
// unlocked untouched and nothing is written. Cancelling an already failed
// process is a no-op.
func (p *Process) Cancel() error {
	p.mu.Lock()
	switch p.state {
	case StateIdle:
		p.state = StateFailed
		p.mu.Unlock()
		return nil
	case StateConfirming:
		p.state = StateFailed
		close(p.cancel)
		p.mu.Unlock()
		p.cart.FinishCheckout(false)
		return nil
	case StateFailed:
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		return ErrAlreadyFinalized
	}
}

func (p *Process) fail(err error) error {
	p.mu.Lock()
	if p.state == StateConfirming || p.state == StateFinalizing {
		p.state = StateFailed
		p.mu.Unlock()
		p.cart.FinishCheckout(false)
		return err
	}
	p.mu.Unlock()
	return err
}

// buildOrder copies the snapshot lines into an order record. Subtotals and
// the total are fixed here and never recomputed.
func (p *Process) buildOrder(snap cart.Snapshot) *models.Order {
	lines := make([]models.OrderLine, 0, len(snap.Lines))
	for _, it := range snap.Lines {
		lines = append(lines, models.OrderLine{
			ProductID:   it.Product.ID,
			ProductName: it.Product.Name,
			LoteNumber:  it.Product.LoteNumber,
			UnitPrice:   it.Product.Price,
			Quantity:    it.Quantity,
			Subtotal:    float64(it.Quantity) * it.Product.Price,
		})
	}

	return &models.Order{
		ID:           p.newID(),
		ClientID:     p.client.ID,
		ClientName:   p.client.Name,
		Lines:        lines,
		Total:        snap.Total,
		PurchaseDate: p.now().UTC(),
		Status:       models.OrderStatusPending,
	}
}
