package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront-client/internal/domain"
)

type captured struct {
	method string
	path   string
	query  string
	auth   string
	ctype  string
	reqID  string
	body   string
}

func newTestServer(t *testing.T, status int, response string, seen *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = captured{
				method: r.Method,
				path:   r.URL.Path,
				query:  r.URL.RawQuery,
				auth:   r.Header.Get("Authorization"),
				ctype:  r.Header.Get("Content-Type"),
				reqID:  r.Header.Get("X-Request-ID"),
				body:   string(raw),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_RejectsNonHTTPBase(t *testing.T) {
	if _, err := New("ftp://example.com"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
	c, err := New("http://example.com/api/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.BaseURL() != "http://example.com/api" {
		t.Fatalf("unexpected base url %q", c.BaseURL())
	}
}

func TestSend_AttachesBearerOnlyWhenTokenPresent(t *testing.T) {
	var seen captured
	srv := newTestServer(t, http.StatusOK, `{"id":"u1","email":"a@x.com","username":"a","is_admin":false}`, &seen)

	token := ""
	c, err := New(srv.URL, WithTokenSource(TokenSourceFunc(func() string { return token })))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if seen.auth != "" {
		t.Fatalf("expected no authorization header, got %q", seen.auth)
	}
	if seen.ctype != "application/json" {
		t.Fatalf("expected json content type, got %q", seen.ctype)
	}
	if seen.reqID == "" {
		t.Fatalf("expected request id header")
	}

	token = "tok1"
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if seen.auth != "Bearer tok1" {
		t.Fatalf("expected bearer header, got %q", seen.auth)
	}
	if seen.method != http.MethodPost || seen.path != "/auth/me" {
		t.Fatalf("unexpected request %s %s", seen.method, seen.path)
	}
}

func TestSend_UnauthorizedFiresHooks(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, nil)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var fired int32
	c.OnUnauthorized(func(context.Context, string) { atomic.AddInt32(&fired, 1) })
	c.OnUnauthorized(func(context.Context, string) { atomic.AddInt32(&fired, 1) })

	_, err = c.GetCart(context.Background())
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if got := atomic.LoadInt32(&fired); got != 2 {
		t.Fatalf("expected 2 hook calls, got %d", got)
	}
	if msg := ErrorMessage(err, "Failed to fetch cart"); msg != "Could not validate credentials" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSend_UnauthorizedReportsSentToken(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`, nil)
	token := "old"
	c, err := New(srv.URL, WithTokenSource(TokenSourceFunc(func() string { return token })))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var got []string
	c.OnUnauthorized(func(_ context.Context, sent string) { got = append(got, sent) })

	_, _ = c.GetCart(context.Background())
	token = ""
	_, _ = c.GetCart(context.Background())

	if len(got) != 2 || got[0] != "old" || got[1] != "" {
		t.Fatalf("unexpected tokens reported %q", got)
	}
}

func TestWithTimeout_DoesNotTouchCallerClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]Option{
		{WithTimeout(2 * time.Second), WithHTTPClient(shared)},
		{WithHTTPClient(shared), WithTimeout(2 * time.Second)},
	} {
		c, err := New("http://example.com", opts...)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if c.httpClient.Timeout != 2*time.Second {
			t.Fatalf("expected 2s timeout regardless of option order, got %s", c.httpClient.Timeout)
		}
		if c.httpClient == shared {
			t.Fatalf("caller client was reused instead of copied")
		}
	}
	if shared.Timeout != time.Minute {
		t.Fatalf("caller client modified: %s", shared.Timeout)
	}

	c, err := New("http://example.com")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.httpClient.Timeout != 0 {
		t.Fatalf("expected transport default timeout, got %s", c.httpClient.Timeout)
	}
}

func TestSend_ClassifiesStatuses(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		sentinel error
		detail   string
	}{
		{"stock", http.StatusBadRequest, `{"detail":"Insufficient stock"}`, domain.ErrInsufficientStock, "Insufficient stock"},
		{"already registered", http.StatusBadRequest, `{"detail":"Email already registered"}`, domain.ErrConflict, "Email already registered"},
		{"plain 400", http.StatusBadRequest, `{"detail":"Bad input"}`, domain.ErrValidation, "Bad input"},
		{"conflict", http.StatusConflict, `{"detail":"dup"}`, domain.ErrConflict, "dup"},
		{"forbidden", http.StatusForbidden, `{"detail":"Not authenticated"}`, domain.ErrForbidden, "Not authenticated"},
		{"not found", http.StatusNotFound, `{"detail":"Product not found"}`, domain.ErrNotFound, "Product not found"},
		{"server", http.StatusInternalServerError, `oops`, domain.ErrUnexpectedStatus, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.status, tc.body, nil)
			c, err := New(srv.URL)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			_, err = c.AddCartItem(context.Background(), "p1", 1)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v, got %v", tc.sentinel, err)
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if apiErr.StatusCode != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, apiErr.StatusCode)
			}
			if apiErr.Detail != tc.detail {
				t.Fatalf("expected detail %q, got %q", tc.detail, apiErr.Detail)
			}
		})
	}
}

func TestSend_ValidationDetailList(t *testing.T) {
	body := `{"detail":[{"loc":["body","quantity"],"msg":"ensure this value is greater than 0","type":"value_error.number.not_gt"}]}`
	srv := newTestServer(t, http.StatusUnprocessableEntity, body, nil)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = c.UpdateCartItem(context.Background(), "p1", 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error")
	}
	if len(apiErr.Fields) != 1 || apiErr.Fields[0].Field != "quantity" {
		t.Fatalf("unexpected fields: %+v", apiErr.Fields)
	}
	if apiErr.Detail != "quantity: ensure this value is greater than 0" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}

func TestSend_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = c.GetCart(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if msg := ErrorMessage(err, "Failed to fetch cart"); msg != "Failed to fetch cart" {
		t.Fatalf("expected fallback message, got %q", msg)
	}
}

func TestSend_LogsWithoutCredential(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"user_id":"u1","items":[],"total_amount":0}`, nil)
	core, logs := observer.New(zap.DebugLevel)
	c, err := New(srv.URL,
		WithLogger(zap.New(core)),
		WithTokenSource(TokenSourceFunc(func() string { return "secret-token" })))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := c.GetCart(context.Background()); err != nil {
		t.Fatalf("get cart: %v", err)
	}
	entries := logs.FilterMessage("storefront request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	for _, f := range entries[0].Context {
		if strings.Contains(f.String, "secret-token") {
			t.Fatalf("credential leaked into log field %s", f.Key)
		}
	}
	if entries[0].ContextMap()["route"] != "/cart" {
		t.Fatalf("unexpected route field: %v", entries[0].ContextMap())
	}
}

func TestEndpoints_PathsAndBodies(t *testing.T) {
	var seen captured
	srv := newTestServer(t, http.StatusOK, `{}`, &seen)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if _, err := c.UpdateCartItem(ctx, "p 1", 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if seen.method != http.MethodPut || seen.path != "/cart/items/p 1" {
		t.Fatalf("unexpected update request %s %s", seen.method, seen.path)
	}
	var qty struct {
		Quantity int `json:"quantity"`
	}
	if err := json.Unmarshal([]byte(seen.body), &qty); err != nil || qty.Quantity != 0 {
		t.Fatalf("expected quantity 0 passed through, got %s", seen.body)
	}

	if _, err := c.ClearCart(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if seen.method != http.MethodDelete || seen.path != "/cart/clear" {
		t.Fatalf("unexpected clear request %s %s", seen.method, seen.path)
	}

	if _, err := c.CreateOrder(ctx, domain.OrderCreate{PaymentMethod: "credit_card"}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if seen.path != "/orders/" {
		t.Fatalf("expected trailing slash on orders, got %s", seen.path)
	}

	if _, err := c.ListProducts(ctx, domain.ProductQuery{Limit: 5, Search: "phone"}); err == nil {
		t.Fatalf("expected decode error for object response to list")
	}
	if seen.query != "limit=5&search=phone" {
		t.Fatalf("unexpected query %q", seen.query)
	}
}

func TestListProducts_EmptyQuery(t *testing.T) {
	var seen captured
	srv := newTestServer(t, http.StatusOK, `[]`, &seen)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	products, err := c.ListProducts(context.Background(), domain.ProductQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if seen.query != "" {
		t.Fatalf("expected no query params, got %q", seen.query)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", products)
	}
}
