// Package cart mirrors the authenticated user's server-side cart.
package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront-client/internal/apiclient"
	"storefront-client/internal/domain"
	"storefront-client/internal/events"
	"storefront-client/internal/metrics"
)

// State is a point-in-time copy of the container. Cart is nil until the first
// successful fetch or mutation.
type State struct {
	Cart    *domain.Cart
	Loading bool
	Err     string
}

type API interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddCartItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	RemoveCartItem(ctx context.Context, productID string) (*domain.Cart, error)
	ClearCart(ctx context.Context) (*domain.StatusMessage, error)
}

const (
	msgFetchFailed  = "Failed to fetch cart"
	msgAddFailed    = "Failed to add item"
	msgUpdateFailed = "Failed to update item"
	msgRemoveFailed = "Failed to remove item"
	msgClearFailed  = "Failed to clear cart"
)

// Store holds at most one cart snapshot. Every operation except Clear replaces
// the snapshot with the server's response; no totals are computed locally.
type Store struct {
	api     API
	logger  *zap.Logger
	metrics metrics.Recorder

	mu    sync.RWMutex
	state State
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Store) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

func New(api API, opts ...Option) *Store {
	s := &Store{
		api:     api,
		logger:  zap.NewNop(),
		metrics: metrics.NewNoopRecorder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	out.Cart = s.state.Cart.Clone()
	return out
}

// Fetch replaces the snapshot with GET /cart. Failures are recorded, not returned.
func (s *Store) Fetch(ctx context.Context) {
	s.begin(true)
	c, err := s.api.GetCart(ctx)
	s.settle("fetch", c, err, msgFetchFailed)
}

// AddItem is the only mutation whose error reaches the caller, so callers can
// react to ErrInsufficientStock.
func (s *Store) AddItem(ctx context.Context, productID string, quantity int) error {
	s.begin(true)
	c, err := s.api.AddCartItem(ctx, productID, quantity)
	s.settle("add", c, err, msgAddFailed)
	return err
}

// UpdateItem sends quantity unchanged, including zero or negative values.
func (s *Store) UpdateItem(ctx context.Context, productID string, quantity int) {
	s.begin(false)
	c, err := s.api.UpdateCartItem(ctx, productID, quantity)
	s.settle("update", c, err, msgUpdateFailed)
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.begin(false)
	c, err := s.api.RemoveCartItem(ctx, productID)
	s.settle("remove", c, err, msgRemoveFailed)
}

// Clear empties the cart remotely and then, since the API answers with a
// message instead of a cart, empties the local snapshot in place. A nil
// snapshot stays nil.
func (s *Store) Clear(ctx context.Context) {
	s.begin(false)
	_, err := s.api.ClearCart(ctx)

	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.Err = apiclient.ErrorMessage(err, msgClearFailed)
	} else if s.state.Cart != nil {
		s.state.Cart.Items = []domain.CartItem{}
		s.state.Cart.TotalAmount = 0
	}
	s.mu.Unlock()

	s.record("clear", err)
}

// ClearError drops the recorded error and keeps the snapshot. Update, remove
// and clear leave an earlier error in place, so a caller that reports their
// outcome clears it first.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.state.Err = ""
	s.mu.Unlock()
}

// Reset drops the snapshot and any recorded error.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

// Follow wires the store to session events: every LoggedIn triggers a Fetch,
// and with resetOnLogout every LoggedOut triggers a Reset. The returned
// function removes the subscriptions.
func (s *Store) Follow(bus *events.Bus, resetOnLogout bool) func() {
	unsubs := []func(){
		bus.Subscribe(events.LoggedIn, func(ctx context.Context, _ events.Event) {
			s.Fetch(ctx)
		}),
	}
	if resetOnLogout {
		unsubs = append(unsubs, bus.Subscribe(events.LoggedOut, func(context.Context, events.Event) {
			s.Reset()
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *Store) begin(resetErr bool) {
	s.mu.Lock()
	s.state.Loading = true
	if resetErr {
		s.state.Err = ""
	}
	s.mu.Unlock()
}

func (s *Store) settle(op string, c *domain.Cart, err error, fallback string) {
	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.Err = apiclient.ErrorMessage(err, fallback)
	} else {
		s.state.Cart = c.Clone()
	}
	s.mu.Unlock()

	s.record(op, err)
}

func (s *Store) record(op string, err error) {
	s.metrics.RecordCartOperation(op, err == nil)
	if err != nil {
		s.logger.Info("cart operation failed", zap.String("operation", op), zap.Error(err))
	}
}
