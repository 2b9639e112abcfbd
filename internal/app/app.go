// Package app assembles the storefront client from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"storefront-client/internal/apiclient"
	"storefront-client/internal/cart"
	"storefront-client/internal/checkout"
	"storefront-client/internal/config"
	"storefront-client/internal/db"
	"storefront-client/internal/events"
	"storefront-client/internal/metrics"
	"storefront-client/internal/migrate"
	"storefront-client/internal/session"
	"storefront-client/internal/slot"
)

// App owns every long-lived component and the order they are torn down in.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Bus      *events.Bus
	Client   *apiclient.Client
	Session  *session.Store
	Cart     *cart.Store
	Checkout *checkout.Service

	slot    slot.Store
	detach  []func()
	release []func()
}

// NewLogger builds a production logger, or a development one with LOG_DEV.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if cfg.LogDev {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// OpenSlot opens the persisted session slot selected by SLOT_BACKEND.
func OpenSlot(ctx context.Context, cfg config.Config) (slot.Store, []func(), error) {
	switch cfg.SlotBackend {
	case config.BackendMemory:
		return slot.NewMemory(), nil, nil
	case config.BackendSQLite:
		s, err := slot.OpenSQLite(ctx, cfg.SlotPath, cfg.SlotName)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return slot.NewPostgres(pool, cfg.SlotName), []func(){pool.Close}, nil
	case config.BackendRedis:
		client := slot.NewRedisClient(cfg.RedisAddress, cfg.RedisPassword)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return slot.NewRedis(client, cfg.SlotName), nil, nil
	case config.BackendMongo:
		client, err := slot.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		return slot.NewMongo(client, cfg.MongoDatabase, cfg.SlotName), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown slot backend %q", cfg.SlotBackend)
	}
}

// New wires the client, the bus and both containers. The session is the
// client's only credential source, and every 401 is published as
// Unauthorized so the session can end itself.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, closers, err := OpenSlot(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open session slot: %w", err)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	bus := events.NewBus()

	client, err := apiclient.New(cfg.APIURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithLogger(logger.Named("apiclient")),
		apiclient.WithMetrics(rec),
	)
	if err != nil {
		_ = store.Close()
		for _, c := range closers {
			c()
		}
		return nil, err
	}

	sess := session.New(client, store,
		session.WithBus(bus),
		session.WithLogger(logger.Named("session")),
		session.WithMetrics(rec),
	)
	client.UseTokenSource(sess)
	client.OnUnauthorized(func(ctx context.Context, token string) {
		bus.Publish(ctx, events.Event{Kind: events.Unauthorized, Reason: "server rejected credential", Token: token})
	})

	carts := cart.New(client,
		cart.WithLogger(logger.Named("cart")),
		cart.WithMetrics(rec),
	)
	unfollow := carts.Follow(bus, cfg.CartResetOnLogout)

	co := checkout.New(carts, client,
		checkout.WithShippingPrice(cfg.ShippingPrice),
		checkout.WithPaymentMethod(cfg.PaymentMethod),
		checkout.WithLogger(logger.Named("checkout")),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Bus:      bus,
		Client:   client,
		Session:  sess,
		Cart:     carts,
		Checkout: co,
		slot:     store,
		detach:   []func(){unfollow, sess.Close},
		release:  closers,
	}, nil
}

// Start revalidates any persisted credential. A confirmed session triggers
// the first cart fetch through the bus.
func (a *App) Start(ctx context.Context) {
	a.Session.CheckAuth(ctx)
}

// WriteMetrics writes the registry in the Prometheus text format.
func (a *App) WriteMetrics(w io.Writer) error {
	families, err := a.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// Close releases the slot and any connection pool behind it.
func (a *App) Close() {
	for _, c := range a.detach {
		c()
	}
	if err := a.slot.Close(); err != nil {
		a.Logger.Warn("close session slot", zap.Error(err))
	}
	for _, c := range a.release {
		c()
	}
}
