// Package app wires configuration, storage and services into a runnable API.
package app

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"retailhub/internal/config"
	"retailhub/internal/events"
	httpapi "retailhub/internal/http"
	"retailhub/internal/repository"
	"retailhub/internal/service"
	"retailhub/internal/storage"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenPersister returns the backend selected by cfg.Storage. The closer
// releases its connections.
func OpenPersister(cfg *config.Config, log logrus.FieldLogger) (storage.Persister, io.Closer, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("memory storage: data is lost on exit")
		return storage.NewMemoryPersister(), nopCloser{}, nil
	case config.StorageFile:
		p, err := storage.NewFilePersister(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return p, nopCloser{}, nil
	case config.StorageRedis:
		p, err := storage.NewRedisPersister(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.StorageMySQL:
		p, err := storage.OpenMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := p.Migrate(); err != nil {
			_ = p.Close()
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// App is the assembled service graph.
type App struct {
	Store  *repository.MemoryStore
	Bus    *events.Bus
	Server *httpapi.Server

	unsubscribe []func()
}

// New loads the catalog and ledger from persist, seeding on first start, and
// builds every service on top of them.
func New(ctx context.Context, cfg *config.Config, persist storage.Persister, log logrus.FieldLogger) (*App, error) {
	store := repository.NewMemoryStore(persist, log)
	store.Load(ctx, repository.SeedDataset())

	ordersRepo := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	bus := events.NewBus()
	opts := []service.Option{service.WithPublisher(bus), service.WithLogger(log)}

	authz, err := service.NewAuthorizationService()
	if err != nil {
		return nil, err
	}
	orders := service.NewOrderService(store, ordersRepo, tx, opts...)
	carts := service.NewCartService(store, opts...)
	notes := service.NewNotificationService()

	a := &App{Store: store, Bus: bus}
	a.unsubscribe = append(a.unsubscribe, carts.Subscribe(bus), bus.Subscribe(func(ev events.Event) {
		log.WithFields(logrus.Fields{"event": ev.Type, "subject": ev.Subject}).Debug("event published")
	}))

	a.Server = httpapi.NewServer(httpapi.Services{
		Products:      service.NewProductService(store, opts...),
		Orders:        orders,
		Inventory:     service.NewInventoryService(store, opts...),
		Carts:         carts,
		Checkout:      service.NewCheckoutService(carts, orders, notes, cfg.PaymentDelay, opts...),
		Notifications: notes,
		Auth:          service.NewAuthService([]byte(cfg.JWTSecret), opts...),
		Authz:         authz,
		Dashboard:     service.NewDashboardService(ordersRepo, store, opts...),
		Bus:           bus,
	}, log)
	return a, nil
}

// Close detaches the internal subscribers.
func (a *App) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
}

// Reset rewrites both documents with the built-in dataset.
func Reset(ctx context.Context, persist storage.Persister, log logrus.FieldLogger) {
	repository.NewMemoryStore(persist, log).Reset(ctx, repository.SeedDataset())
}
