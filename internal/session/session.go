// Package session owns the storefront credential and the identity behind it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"storefront-client/internal/apiclient"
	"storefront-client/internal/domain"
	"storefront-client/internal/events"
	"storefront-client/internal/metrics"
	"storefront-client/internal/slot"
)

type Phase int

const (
	Anonymous Phase = iota
	// Authenticating is the window in CheckAuth where a persisted credential
	// is held but the identity has not been confirmed yet.
	Authenticating
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// State is a point-in-time copy of the container.
type State struct {
	Phase   Phase
	Token   string
	User    *domain.User
	Loading bool
	Err     string
}

// Authenticated reports whether both a credential and an identity are held.
func (s State) Authenticated() bool {
	return s.Phase == Authenticated && s.Token != "" && s.User != nil
}

// API is the slice of the storefront API the session needs.
type API interface {
	Login(ctx context.Context, in domain.LoginRequest) (*domain.AuthResponse, error)
	Register(ctx context.Context, in domain.RegisterRequest) (*domain.User, error)
	Me(ctx context.Context) (*domain.User, error)
}

const (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
)

type Store struct {
	api     API
	slot    slot.Store
	bus     *events.Bus
	logger  *zap.Logger
	metrics metrics.Recorder

	mu    sync.RWMutex
	state State

	unsubscribe func()
}

type Option func(*Store)

// WithBus publishes LoggedIn/LoggedOut on bus and subscribes the store to
// Unauthorized, which ends the session when the rejected credential is the
// one currently held.
func WithBus(bus *events.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

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

func New(api API, store slot.Store, opts ...Option) *Store {
	s := &Store{
		api:     api,
		slot:    store,
		logger:  zap.NewNop(),
		metrics: metrics.NewNoopRecorder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus != nil {
		s.unsubscribe = s.bus.Subscribe(events.Unauthorized, func(ctx context.Context, ev events.Event) {
			s.expire(ctx, ev.Token)
		})
	}
	return s
}

// Close detaches the store from its bus.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Token returns the current credential. It satisfies apiclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	out.User = s.state.User.Clone()
	return out
}

// Login exchanges credentials for a session. Token and identity are applied
// together; on failure the state keeps no partial credential.
func (s *Store) Login(ctx context.Context, in domain.LoginRequest) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = ""
	s.mu.Unlock()

	resp, err := s.api.Login(ctx, in)
	if err == nil && (resp == nil || resp.AccessToken == "" || resp.User == nil) {
		err = fmt.Errorf("login response missing credential or user: %w", domain.ErrAuthentication)
	}
	if err != nil {
		s.mu.Lock()
		s.state.Loading = false
		s.state.Err = apiclient.ErrorMessage(err, msgLoginFailed)
		s.mu.Unlock()
		s.metrics.RecordAuthAttempt("login", false)
		s.logger.Info("login failed", zap.Error(err))
		return err
	}

	user := resp.User.Clone()
	s.mu.Lock()
	s.state = State{Phase: Authenticated, Token: resp.AccessToken, User: user}
	s.mu.Unlock()

	s.persist(ctx, resp.AccessToken, user)
	s.metrics.RecordAuthAttempt("login", true)
	s.logger.Info("logged in", zap.String("user_id", user.ID))
	s.publish(ctx, events.Event{Kind: events.LoggedIn, User: user.Clone()})
	return nil
}

// Register creates an account and returns it. The session stays anonymous.
func (s *Store) Register(ctx context.Context, in domain.RegisterRequest) (*domain.User, error) {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = ""
	s.mu.Unlock()

	user, err := s.api.Register(ctx, in)
	s.mu.Lock()
	s.state.Loading = false
	if err != nil {
		s.state.Err = apiclient.ErrorMessage(err, msgRegisterFailed)
	}
	s.mu.Unlock()

	s.metrics.RecordAuthAttempt("register", err == nil)
	if err != nil {
		s.logger.Info("registration failed", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Logout drops the credential, the identity and the persisted slot. Calling it
// on an anonymous session only clears the slot.
func (s *Store) Logout(ctx context.Context) error {
	return s.end(ctx, "logout")
}

// CheckAuth revalidates a persisted credential. An empty slot leaves the
// session untouched; any failure ends the session without returning an error.
func (s *Store) CheckAuth(ctx context.Context) {
	rec, err := s.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("load session slot", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	s.state.Phase = Authenticating
	s.state.Token = rec.Token
	s.state.User = nil
	s.state.Loading = true
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil || user == nil {
		s.metrics.RecordAuthAttempt("check_auth", false)
		s.logger.Info("persisted session rejected", zap.Error(err))
		// A login that settled while Me was in flight owns the session now.
		ended, endErr := s.endHolding(ctx, rec.Token, "revalidation failed")
		if endErr != nil {
			s.logger.Warn("clear session slot", zap.Error(endErr))
		}
		if !ended {
			s.logger.Info("stale revalidation discarded")
		}
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.state.Token != rec.Token {
		// Another operation replaced the credential while Me was in flight.
		s.state.Loading = false
		s.mu.Unlock()
		return
	}
	user = user.Clone()
	s.state = State{Phase: Authenticated, Token: rec.Token, User: user}
	s.mu.Unlock()

	s.persist(ctx, rec.Token, user)
	s.metrics.RecordAuthAttempt("check_auth", true)
	s.publish(ctx, events.Event{Kind: events.LoggedIn, User: user.Clone()})
}

// expire ends the session after a 401 for token. A rejection of a request
// sent without a credential, or with one that has since been replaced, leaves
// the session alone.
func (s *Store) expire(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if _, err := s.endHolding(ctx, token, "unauthorized"); err != nil {
		s.logger.Warn("clear session slot", zap.Error(err))
	}
}

func (s *Store) end(ctx context.Context, reason string) error {
	_, err := s.endIf(ctx, reason, func(State) bool { return true })
	return err
}

// endHolding ends the session only while it still holds token.
func (s *Store) endHolding(ctx context.Context, token, reason string) (bool, error) {
	return s.endIf(ctx, reason, func(st State) bool { return st.Token == token })
}

func (s *Store) endIf(ctx context.Context, reason string, match func(State) bool) (bool, error) {
	s.mu.Lock()
	prev := s.state
	if !match(prev) {
		s.mu.Unlock()
		return false, nil
	}
	s.state.Phase = Anonymous
	s.state.Token = ""
	s.state.User = nil
	s.mu.Unlock()

	err := s.slot.Clear(ctx)
	if prev.Token == "" && prev.User == nil {
		return true, err
	}
	s.logger.Info("session ended", zap.String("reason", reason))
	s.publish(ctx, events.Event{Kind: events.LoggedOut, User: prev.User.Clone(), Reason: reason})
	return true, err
}

func (s *Store) persist(ctx context.Context, token string, user *domain.User) {
	if err := s.slot.Save(ctx, slot.Record{Token: token, User: user.Clone()}); err != nil {
		s.logger.Warn("save session slot", zap.Error(err))
	}
}

func (s *Store) publish(ctx context.Context, ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, ev)
	}
}

var _ apiclient.TokenSource = (*Store)(nil)
