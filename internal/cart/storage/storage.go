// Package storage selects and instruments the cart storage backend.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shoppingcart/internal/cart"
	"github.com/angelmondragon/shoppingcart/internal/cart/storage/database"
	"github.com/angelmondragon/shoppingcart/internal/cart/storage/session"
	"github.com/angelmondragon/shoppingcart/pkg/config"
	pkgdb "github.com/angelmondragon/shoppingcart/pkg/db"
	"github.com/angelmondragon/shoppingcart/pkg/metrics"
)

// Deps are the collaborators a backend may need.
type Deps struct {
	// DB serves the database backend unless Connections names the configured connection.
	DB          *pkgdb.Client
	Connections map[string]*pkgdb.Client
	Session     session.Store
	Metrics     *metrics.StorageMetrics
	Now         func() time.Time
}

// New builds the backend named by the "storage" key and wraps it with metrics.
func New(acc *config.Accessor, deps Deps) (cart.Storage, error) {
	if acc == nil {
		return nil, fmt.Errorf("config accessor required")
	}
	driver := acc.String(config.KeyStorage, config.StorageSession)
	switch driver {
	case config.StorageSession:
		if deps.Session == nil {
			return nil, fmt.Errorf("session store required for %q storage", driver)
		}
		s, err := session.New(deps.Session, acc.String(config.KeySessionKey, session.DefaultKey))
		if err != nil {
			return nil, err
		}
		return Instrument(driver, s, deps.Metrics), nil
	case config.StorageDatabase:
		client := deps.DB
		if name := acc.String(config.KeyDBConnection, ""); name != "" {
			conn, ok := deps.Connections[name]
			if !ok {
				return nil, fmt.Errorf("unknown database connection %q", name)
			}
			client = conn
		}
		if client == nil {
			return nil, fmt.Errorf("db client required for %q storage", driver)
		}
		s, err := database.New(database.Params{
			DB: client,
			Tables: database.Tables{
				Carts: acc.String(config.KeyCartsTable, ""),
				Items: acc.String(config.KeyCartItemsTable, ""),
			},
			Expiration: Expiration(acc),
			Now:        deps.Now,
		})
		if err != nil {
			return nil, err
		}
		return Instrument(driver, s, deps.Metrics), nil
	default:
		return nil, fmt.Errorf("unsupported cart storage %q", driver)
	}
}

// Expiration reads the expiration window in minutes. Missing or non-positive
// means carts never expire.
func Expiration(acc *config.Accessor) time.Duration {
	minutes, ok := acc.OptionalInt(config.KeyExpiration)
	if !ok || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

type instrumented struct {
	backend string
	next    cart.Storage
	metrics *metrics.StorageMetrics
}

// Instrument records latency and failures of every call on next. A nil
// metrics value returns next unchanged.
func Instrument(backend string, next cart.Storage, m *metrics.StorageMetrics) cart.Storage {
	if m == nil {
		return next
	}
	return &instrumented{backend: backend, next: next, metrics: m}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.metrics.Observe(s.backend, op, time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, identifier, instance string) (*cart.Snapshot, error) {
	start := time.Now()
	snap, err := s.next.Get(ctx, identifier, instance)
	s.observe("get", start, err)
	return snap, err
}

func (s *instrumented) Put(ctx context.Context, identifier string, snapshot cart.Snapshot, instance string) error {
	start := time.Now()
	err := s.next.Put(ctx, identifier, snapshot, instance)
	s.observe("put", start, err)
	return err
}

func (s *instrumented) Has(ctx context.Context, identifier, instance string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Has(ctx, identifier, instance)
	s.observe("has", start, err)
	return ok, err
}

func (s *instrumented) Forget(ctx context.Context, identifier, instance string) error {
	start := time.Now()
	err := s.next.Forget(ctx, identifier, instance)
	s.observe("forget", start, err)
	return err
}

func (s *instrumented) Flush(ctx context.Context) error {
	start := time.Now()
	err := s.next.Flush(ctx)
	s.observe("flush", start, err)
	return err
}
