package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront-client/internal/apiclient"
	"storefront-client/internal/domain"
	"storefront-client/internal/events"
	"storefront-client/internal/slot"
)

type stubAPI struct {
	loginResp *domain.AuthResponse
	loginErr  error
	regUser   *domain.User
	regErr    error
	meUser    *domain.User
	meErr     error

	meCalls   int
	meToken   string
	tokenFrom func() string
}

func (s *stubAPI) Login(_ context.Context, _ domain.LoginRequest) (*domain.AuthResponse, error) {
	return s.loginResp, s.loginErr
}

func (s *stubAPI) Register(_ context.Context, _ domain.RegisterRequest) (*domain.User, error) {
	return s.regUser, s.regErr
}

func (s *stubAPI) Me(_ context.Context) (*domain.User, error) {
	s.meCalls++
	if s.tokenFrom != nil {
		s.meToken = s.tokenFrom()
	}
	return s.meUser, s.meErr
}

func loginOK() *domain.AuthResponse {
	return &domain.AuthResponse{
		AccessToken: "tok1",
		TokenType:   "bearer",
		User:        &domain.User{ID: "u1", Email: "a@x.com", Username: "alice", IsAdmin: false},
	}
}

func TestLogin_ConcreteScenario(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	s := New(&stubAPI{loginResp: loginOK()}, store)

	if err := s.Login(ctx, domain.LoginRequest{Email: "a@x.com", Password: "secret12345678"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	st := s.Snapshot()
	if !st.Authenticated() {
		t.Fatalf("expected authenticated, got %+v", st)
	}
	if st.Token != "tok1" || st.User == nil || st.User.ID != "u1" {
		t.Fatalf("unexpected state %+v", st)
	}
	if s.Token() != "tok1" {
		t.Fatalf("token source returned %q", s.Token())
	}
	if st.Loading || st.Err != "" {
		t.Fatalf("expected settled state, got %+v", st)
	}

	rec, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if rec.Token != "tok1" || rec.User.ID != "u1" {
		t.Fatalf("slot not persisted: %+v", rec)
	}
}

func TestLogin_FailureRecordsDetail(t *testing.T) {
	apiErr := &apiclient.Error{Kind: apiclient.KindAuthentication, StatusCode: http.StatusUnauthorized, Detail: "Incorrect email or password"}
	s := New(&stubAPI{loginErr: apiErr}, slot.NewMemory())

	err := s.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "nope"})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	st := s.Snapshot()
	if st.Authenticated() || st.Token != "" {
		t.Fatalf("expected anonymous, got %+v", st)
	}
	if st.Err != "Incorrect email or password" {
		t.Fatalf("unexpected error message %q", st.Err)
	}
	if st.Loading {
		t.Fatalf("loading flag left set")
	}
}

func TestLogin_FallbackMessage(t *testing.T) {
	s := New(&stubAPI{loginErr: errors.New("dial tcp: refused")}, slot.NewMemory())
	_ = s.Login(context.Background(), domain.LoginRequest{})
	if got := s.Snapshot().Err; got != "Login failed" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestLogin_IncompleteResponseIsRejected(t *testing.T) {
	s := New(&stubAPI{loginResp: &domain.AuthResponse{AccessToken: "tok1"}}, slot.NewMemory())
	err := s.Login(context.Background(), domain.LoginRequest{})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("partial credential stored")
	}
}

func TestRegister_DoesNotAuthenticate(t *testing.T) {
	s := New(&stubAPI{regUser: &domain.User{ID: "u2", Username: "bob"}}, slot.NewMemory())
	user, err := s.Register(context.Background(), domain.RegisterRequest{Username: "bob", Email: "b@x.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID != "u2" {
		t.Fatalf("unexpected user %+v", user)
	}
	if st := s.Snapshot(); st.Authenticated() || st.Token != "" {
		t.Fatalf("register must not authenticate: %+v", st)
	}
}

func TestRegister_Conflict(t *testing.T) {
	conflict := &apiclient.Error{Kind: apiclient.KindConflict, StatusCode: http.StatusBadRequest, Detail: "Email already registered"}
	s := New(&stubAPI{regErr: conflict}, slot.NewMemory())
	_, err := s.Register(context.Background(), domain.RegisterRequest{})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := s.Snapshot().Err; got != "Email already registered" {
		t.Fatalf("unexpected message %q", got)
	}

	s = New(&stubAPI{regErr: errors.New("boom")}, slot.NewMemory())
	_, _ = s.Register(context.Background(), domain.RegisterRequest{})
	if got := s.Snapshot().Err; got != "Registration failed" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestLogout_ClearsEverythingAndCheckAuthIsNoop(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	api := &stubAPI{loginResp: loginOK(), meUser: &domain.User{ID: "u1"}}
	s := New(api, store)
	if err := s.Login(ctx, domain.LoginRequest{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	st := s.Snapshot()
	if st.Authenticated() || st.Token != "" || st.User != nil {
		t.Fatalf("session not cleared: %+v", st)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("slot not cleared: %v", err)
	}

	s.CheckAuth(ctx)
	if api.meCalls != 0 {
		t.Fatalf("check auth after logout must not call the API")
	}
	if s.Snapshot().Authenticated() {
		t.Fatalf("check auth after logout authenticated")
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestLogout_PublishesOnce(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	outs := 0
	bus.Subscribe(events.LoggedOut, func(context.Context, events.Event) { outs++ })
	s := New(&stubAPI{loginResp: loginOK()}, slot.NewMemory(), WithBus(bus))
	if err := s.Login(ctx, domain.LoginRequest{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	_ = s.Logout(ctx)
	_ = s.Logout(ctx)
	if outs != 1 {
		t.Fatalf("expected 1 LoggedOut, got %d", outs)
	}
}

func TestCheckAuth_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	if err := store.Save(ctx, slot.Record{Token: "persisted", User: &domain.User{ID: "stale"}}); err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	api := &stubAPI{meUser: &domain.User{ID: "u1", Username: "alice"}}
	s := New(api, store)
	api.tokenFrom = s.Token

	bus := events.NewBus()
	var logins []string
	bus.Subscribe(events.LoggedIn, func(_ context.Context, ev events.Event) { logins = append(logins, ev.User.ID) })
	s.bus = bus

	s.CheckAuth(ctx)

	if api.meToken != "persisted" {
		t.Fatalf("identity call did not carry persisted token, got %q", api.meToken)
	}
	st := s.Snapshot()
	if !st.Authenticated() || st.User.ID != "u1" || st.Token != "persisted" {
		t.Fatalf("unexpected state %+v", st)
	}
	rec, err := store.Load(ctx)
	if err != nil || rec.User.ID != "u1" {
		t.Fatalf("slot not refreshed: %+v %v", rec, err)
	}
	if len(logins) != 1 || logins[0] != "u1" {
		t.Fatalf("expected one LoggedIn for u1, got %v", logins)
	}
}

func TestCheckAuth_InvalidCredentialEqualsLogout(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	if err := store.Save(ctx, slot.Record{Token: "expired", User: &domain.User{ID: "u1"}}); err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	core, logs := observer.New(zap.InfoLevel)
	api := &stubAPI{meErr: &apiclient.Error{Kind: apiclient.KindAuthentication, StatusCode: http.StatusUnauthorized}}
	s := New(api, store, WithLogger(zap.New(core)))

	s.CheckAuth(ctx)

	st := s.Snapshot()
	if st.Authenticated() || st.Token != "" || st.User != nil || st.Loading {
		t.Fatalf("expected fresh logout state, got %+v", st)
	}
	if st.Phase != Anonymous {
		t.Fatalf("expected anonymous phase, got %s", st.Phase)
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("slot not cleared: %v", err)
	}
	if logs.FilterMessage("persisted session rejected").Len() != 1 {
		t.Fatalf("expected rejection to be logged")
	}
}

func TestUnauthorizedEventEndsSession(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	store := slot.NewMemory()
	s := New(&stubAPI{loginResp: loginOK()}, store, WithBus(bus))
	defer s.Close()

	var reason string
	bus.Subscribe(events.LoggedOut, func(_ context.Context, ev events.Event) { reason = ev.Reason })

	if err := s.Login(ctx, domain.LoginRequest{}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A 401 for a request without a credential, or for a replaced one,
	// leaves the session alone.
	bus.Publish(ctx, events.Event{Kind: events.Unauthorized})
	bus.Publish(ctx, events.Event{Kind: events.Unauthorized, Token: "previous"})
	if !s.Snapshot().Authenticated() {
		t.Fatalf("session ended by a 401 for another credential")
	}

	bus.Publish(ctx, events.Event{Kind: events.Unauthorized, Token: "tok1"})
	if s.Snapshot().Authenticated() {
		t.Fatalf("session still authenticated after 401")
	}
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("slot not cleared: %v", err)
	}
	if reason != "unauthorized" {
		t.Fatalf("expected unauthorized reason, got %q", reason)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New(&stubAPI{loginResp: loginOK()}, slot.NewMemory())
	if err := s.Login(context.Background(), domain.LoginRequest{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	st := s.Snapshot()
	st.User.ID = "mutated"
	if s.Snapshot().User.ID != "u1" {
		t.Fatalf("snapshot shares user with store")
	}
}

// gatedAPI holds Me until release is closed, so a test can interleave other
// operations with an in-flight revalidation.
type gatedAPI struct {
	*stubAPI
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAPI) Me(_ context.Context) (*domain.User, error) {
	close(g.entered)
	<-g.release
	return g.meUser, g.meErr
}

func TestCheckAuth_FailureAfterNewerLoginIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := slot.NewMemory()
	if err := store.Save(ctx, slot.Record{Token: "stale", User: &domain.User{ID: "u0"}}); err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	api := &gatedAPI{
		stubAPI: &stubAPI{
			loginResp: &domain.AuthResponse{AccessToken: "fresh", TokenType: "bearer", User: &domain.User{ID: "u1"}},
			meErr:     &apiclient.Error{Kind: apiclient.KindAuthentication, StatusCode: http.StatusUnauthorized},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	bus := events.NewBus()
	s := New(api, store, WithBus(bus))
	defer s.Close()

	var loggedOut int
	bus.Subscribe(events.LoggedOut, func(context.Context, events.Event) { loggedOut++ })

	done := make(chan struct{})
	go func() {
		s.CheckAuth(ctx)
		close(done)
	}()
	<-api.entered
	if err := s.Login(ctx, domain.LoginRequest{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	close(api.release)
	<-done

	st := s.Snapshot()
	if !st.Authenticated() || st.Token != "fresh" || st.User.ID != "u1" || st.Loading {
		t.Fatalf("stale revalidation failure replaced the newer login: %+v", st)
	}
	rec, err := store.Load(ctx)
	if err != nil || rec.Token != "fresh" {
		t.Fatalf("expected slot to hold the newer credential, got %+v err=%v", rec, err)
	}
	if loggedOut != 0 {
		t.Fatalf("expected no LoggedOut, got %d", loggedOut)
	}
}
