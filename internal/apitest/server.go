// Package apitest is an in-memory stand-in for the storefront API. It speaks
// the same routes, payloads and error bodies, and is used by the client's
// tests and by the local fakeapi binary.
package apitest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-client/internal/domain"
)

// Request is one entry of the server's request log.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
	Body          string
	Status        int
}

type userRecord struct {
	user domain.User
	hash []byte
}

// Server holds the fake API state. All fields behind mu.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	users    map[string]*userRecord
	byEmail  map[string]string
	products map[string]*domain.Product
	order    []string
	carts    map[string]*domain.Cart
	orders   map[string]*domain.Order
	requests []Request

	engine     *gin.Engine
	httpServer *http.Server
	test       *httptest.Server
}

type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL overrides the 30 minute access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("storefront-test-secret"),
		tokenTTL: 30 * time.Minute,
		logger:   zap.NewNop(),
		users:    map[string]*userRecord{},
		byEmail:  map[string]string{},
		products: map[string]*domain.Product{},
		carts:    map[string]*domain.Cart{},
		orders:   map[string]*domain.Order{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.buildRouter()
	return s
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves the API on a loopback port and returns its base URL.
func (s *Server) Start() string {
	s.test = httptest.NewServer(s.engine)
	return s.test.URL
}

// Close stops a server started with Start.
func (s *Server) Close() {
	if s.test != nil {
		s.test.Close()
	}
}

// ListenAndServe serves the API on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown gracefully stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.Use(gin.Recovery(), s.recordRequests(), cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "Accept", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the E-commerce API"})
	})
	router.GET("/healthz", healthHandler)

	auth := router.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/me", s.requireUser, s.me)

	router.GET("/products", s.listProducts)
	router.GET("/products/:id", s.getProduct)
	router.POST("/products", s.requireUser, s.requireAdmin, s.createProduct)
	router.PUT("/products/:id", s.requireUser, s.requireAdmin, s.updateProduct)
	router.DELETE("/products/:id", s.requireUser, s.requireAdmin, s.deleteProduct)

	seedGroup := router.Group("/seed")
	seedGroup.POST("/products", s.seedProducts)
	seedGroup.DELETE("/products", s.clearProducts)
	seedGroup.GET("/products/count", s.countProducts)
	seedGroup.GET("/categories", s.listCategories)

	cart := router.Group("/cart", s.requireUser)
	cart.GET("", s.getCart)
	cart.POST("/items", s.addCartItem)
	cart.PUT("/items/:product_id", s.updateCartItem)
	cart.DELETE("/items/:product_id", s.removeCartItem)
	cart.DELETE("/clear", s.clearCart)
	cart.POST("/checkout", s.checkoutCart)

	orders := router.Group("/orders", s.requireUser)
	orders.POST("/", s.createOrder)
	orders.GET("/", s.listOrders)
	orders.GET("/:id", s.getOrder)
	orders.PUT("/:id/status", s.requireAdmin, s.updateOrderStatus)
	orders.PUT("/:id/payment", s.updateOrderPayment)

	return router
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) recordRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := readBody(c)
		start := time.Now()
		c.Next()

		entry := Request{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			RawQuery:      c.Request.URL.RawQuery,
			Authorization: c.GetHeader("Authorization"),
			RequestID:     c.GetHeader("X-Request-ID"),
			Body:          body,
			Status:        c.Writer.Status(),
		}
		s.mu.Lock()
		s.requests = append(s.requests, entry)
		s.mu.Unlock()

		s.logger.Debug("fake api request",
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
			zap.Int("status", entry.Status),
			zap.Duration("elapsed", time.Since(start)))
	}
}
