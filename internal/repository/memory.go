package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"retailhub/internal/domain"
	"retailhub/internal/storage"
)

// Storage keys of the two persisted documents.
const (
	ProductsKey = "retail_hub_products"
	OrdersKey   = "retail_hub_orders"
)

// Dataset содержимое обоих документов
type Dataset struct {
	Products []domain.Product
	Orders   []domain.Order
}

// MemoryStore объединённое in-memory хранилище каталога и заказов, зеркалируемое в Persister.
// Товары хранятся в порядке добавления, заказы — от новых к старым.
type MemoryStore struct {
	mu       sync.RWMutex
	products []domain.Product
	orders   []domain.Order

	persist storage.Persister
	log     logrus.FieldLogger
}

func NewMemoryStore(persist storage.Persister, log logrus.FieldLogger) *MemoryStore {
	if persist == nil {
		persist = storage.NewMemoryPersister()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MemoryStore{persist: persist, log: log}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Load reads both documents from the persister. A missing or unreadable
// document falls back to the matching part of defaults; a corrupt one is
// also deleted. Whatever ends up in memory is written back.
func (m *MemoryStore) Load(ctx context.Context, defaults Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = loadDocument(ctx, m.persist, m.log, ProductsKey, defaults.Products)
	m.orders = loadDocument(ctx, m.persist, m.log, OrdersKey, defaults.Orders)
	m.saveProducts(ctx)
	m.saveOrders(ctx)
}

// Reset replaces both collections with ds and persists them.
func (m *MemoryStore) Reset(ctx context.Context, ds Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = cloneProducts(ds.Products)
	m.orders = cloneOrders(ds.Orders)
	m.saveProducts(ctx)
	m.saveOrders(ctx)
}

// Snapshot returns deep copies of both collections.
func (m *MemoryStore) Snapshot(ctx context.Context) Dataset {
	m.rlock(ctx)
	defer m.runlock(ctx)
	return Dataset{Products: cloneProducts(m.products), Orders: cloneOrders(m.orders)}
}

func loadDocument[T any](ctx context.Context, p storage.Persister, log logrus.FieldLogger, key string, fallback []T) []T {
	data, err := p.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.WithError(err).WithField("key", key).Error("load document, using defaults")
		}
		return append([]T{}, fallback...)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		log.WithError(err).WithField("key", key).Error("corrupt document, resetting to defaults")
		if err := p.Delete(ctx, key); err != nil {
			log.WithError(err).WithField("key", key).Error("delete corrupt document")
		}
		return append([]T{}, fallback...)
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// callers hold the write lock
func (m *MemoryStore) saveProducts(ctx context.Context) {
	m.save(ctx, ProductsKey, m.products)
}

func (m *MemoryStore) saveOrders(ctx context.Context) {
	m.save(ctx, OrdersKey, m.orders)
}

func (m *MemoryStore) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.WithError(err).WithField("key", key).Error("encode document")
		return
	}
	if err := m.persist.Save(ctx, key, data); err != nil {
		// in-memory state stays authoritative
		m.log.WithError(err).WithField("key", key).Error("save document")
	}
}

func (m *MemoryStore) productIndex(id string) int {
	for i := range m.products {
		if m.products[i].ID == id {
			return i
		}
	}
	return -1
}

// Ensure interfaces
var _ ProductRepository = (*MemoryStore)(nil)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if p.ID == "" {
		p.ID = "p-" + uuid.NewString()
	}
	if m.productIndex(p.ID) >= 0 {
		return ErrAlreadyExists
	}
	m.products = append(m.products, *p)
	m.saveProducts(ctx)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	i := m.productIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	// return copy
	cp := m.products[i]
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	i := m.productIndex(p.ID)
	if i < 0 {
		return ErrNotFound
	}
	m.products[i] = *p
	m.saveProducts(ctx)
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if p.ID == "" {
		p.ID = "p-" + uuid.NewString()
	}
	if i := m.productIndex(p.ID); i >= 0 {
		m.products[i] = *p
	} else {
		m.products = append(m.products, *p)
	}
	m.saveProducts(ctx)
	return nil
}

func (m *MemoryStore) SetStock(ctx context.Context, id string, stock int64) error {
	if stock < 0 {
		return errors.New("stock cannot be negative")
	}
	m.wlock(ctx)
	defer m.wunlock(ctx)
	i := m.productIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	m.products[i].Stock = stock
	m.saveProducts(ctx)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	i := m.productIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	m.products = append(m.products[:i:i], m.products[i+1:]...)
	m.saveProducts(ctx)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (mo *MemoryOrders) indexOf(id string) int {
	for i := range mo.store.orders {
		if mo.store.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Create prepends o so the ledger reads newest first.
func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if o.ID == "" {
		o.ID = "o-" + uuid.NewString()
	}
	if mo.indexOf(o.ID) >= 0 {
		return ErrAlreadyExists
	}
	orders := make([]domain.Order, 0, len(mo.store.orders)+1)
	orders = append(orders, o.Clone())
	mo.store.orders = append(orders, mo.store.orders...)
	mo.store.saveOrders(ctx)
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	i := mo.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	cp := mo.store.orders[i].Clone()
	return &cp, nil
}

func (mo *MemoryOrders) List(ctx context.Context) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	return cloneOrders(mo.store.orders), nil
}

func (mo *MemoryOrders) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	i := mo.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	mo.store.orders[i].Status = status
	mo.store.saveOrders(ctx)
	cp := mo.store.orders[i].Clone()
	return &cp, nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// write lock for the whole callback; repositories skip their own locks on a marked context
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}

func cloneProducts(in []domain.Product) []domain.Product {
	return append([]domain.Product{}, in...)
}

func cloneOrders(in []domain.Order) []domain.Order {
	out := make([]domain.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
