package checkout

import (
	"context"
	"sync"
	"time"

	"inventario/internal/cart"
	"inventario/internal/models"
)

// Manager creates one checkout process per request and enforces a single
// in-flight checkout per session.
type Manager struct {
	mu     sync.Mutex
	carts  *cart.Store
	ledger Ledger
	active map[uint]*Process

	delay   time.Duration
	timeout time.Duration
}

func NewManager(carts *cart.Store, ledger Ledger, delay, timeout time.Duration) *Manager {
	return &Manager{
		carts:   carts,
		ledger:  ledger,
		active:  make(map[uint]*Process),
		delay:   delay,
		timeout: timeout,
	}
}

// Checkout runs the full state machine for the client's cart and returns the
// appended order.
func (m *Manager) Checkout(ctx context.Context, client models.User) (*models.Order, error) {
	p := New(m.carts.ForUser(client.ID), m.ledger, client, m.delay, m.timeout)

	m.mu.Lock()
	if _, busy := m.active[client.ID]; busy {
		m.mu.Unlock()
		return nil, cart.ErrCartLocked
	}
	m.active[client.ID] = p
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.active, client.ID)
		m.mu.Unlock()
	}()

	if err := p.Begin(); err != nil {
		return nil, err
	}
	return p.Confirm(ctx)
}

// Cancel aborts the client's in-flight checkout, if any.
func (m *Manager) Cancel(userID uint) error {
	m.mu.Lock()
	p, ok := m.active[userID]
	m.mu.Unlock()

	if !ok {
		return ErrNotStarted
	}
	return p.Cancel()
}
