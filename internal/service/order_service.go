package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"retailhub/internal/domain"
	"retailhub/internal/events"
	"retailhub/internal/repository"
)

var (
	ErrNotEnoughStock      = errors.New("not enough stock")
	ErrEmptyCart           = &ValidationError{Msg: "cart is empty"}
	ErrIdempotencyConflict = errors.New("idempotency key was already used for a different order")
)

// InsufficientStockError отклонение заказа из-за нехватки товара.
// Available равно 0, если товар удалён из каталога.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.Name, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrNotEnoughStock }

// PlaceOrderResult результат оформления заказа
type PlaceOrderResult struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order,omitempty"`
	// Replayed is set when an idempotency key returned an earlier order
	Replayed bool `json:"replayed,omitempty"`
	// Err is the cause of a failure, kept for status mapping
	Err error `json:"-"`
}

const (
	msgOrderPlaced  = "order placed successfully"
	msgOrderReplay  = "order already placed"
	msgPlaceFailure = "failed to place order"
)

// OrderService реализует оформление заказов и управление их статусом
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	deps

	idemMu sync.Mutex
	placed map[string]placedOrder // session + key
}

type placedOrder struct {
	orderID  string
	customer string
	lines    string
}

func NewOrderService(products repository.ProductRepository, orders repository.OrderRepository, tx repository.TxManager, opts ...Option) *OrderService {
	return &OrderService{
		products: products,
		orders:   orders,
		tx:       tx,
		deps:     newDeps(opts),
		placed:   make(map[string]placedOrder),
	}
}

type stockChange struct {
	ProductID string `json:"productId"`
	Stock     int64  `json:"stock"`
}

// CreateOrder проверяет наличие всех позиций и атомарно создаёт заказ со списанием запаса.
// On any validation failure nothing is written.
func (s *OrderService) CreateOrder(ctx context.Context, customer string, lines []domain.LineItem) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, invalid("customer name is required")
	}

	// aggregate per product so repeated lines are checked against their sum
	requested := make(map[string]int64, len(lines))
	snapshotNames := make(map[string]string, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, invalid("invalid quantity for %s", displayName("", l.ProductName, l.ProductID))
		}
		if _, seen := requested[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		requested[l.ProductID] += l.Quantity
		if snapshotNames[l.ProductID] == "" {
			snapshotNames[l.ProductID] = l.ProductName
		}
	}

	var (
		created *domain.Order
		changes []stockChange
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// load and check stock against the catalog, not the caller's snapshot
		current := make(map[string]*domain.Product, len(ids))
		for _, id := range ids {
			p, err := s.products.GetByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return &InsufficientStockError{
					ProductID: id,
					Name:      displayName("", snapshotNames[id], id),
					Requested: requested[id],
				}
			}
			if err != nil {
				return err
			}
			if p.Stock < requested[id] {
				return &InsufficientStockError{
					ProductID: id,
					Name:      displayName(p.Name, snapshotNames[id], id),
					Requested: requested[id],
					Available: p.Stock,
				}
			}
			current[id] = p
		}

		items := make([]domain.OrderItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, domain.OrderItem{ProductID: id, Quantity: requested[id], Price: current[id].Price})
		}
		total, err := domain.OrderTotal(items)
		if err != nil {
			return invalid("order total is too large")
		}
		o := domain.Order{
			CustomerName: customer,
			Date:         s.now().UTC().Format("2006-01-02"),
			Status:       domain.OrderStatusPending,
			Total:        total,
			Items:        items,
		}
		if err := s.orders.Create(ctx, &o); err != nil {
			return err
		}

		for _, id := range ids {
			left := current[id].Stock - requested[id]
			if err := s.products.SetStock(ctx, id, left); err != nil {
				return err
			}
			changes = append(changes, stockChange{ProductID: id, Stock: left})
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{Type: events.OrderPlaced, Subject: created.ID, Payload: created.Clone()})
	for _, c := range changes {
		s.bus.Publish(events.Event{Type: events.StockChanged, Subject: c.ProductID, Payload: c})
	}
	s.log.WithFields(logrus.Fields{
		"order_id": created.ID,
		"customer": created.CustomerName,
		"total":    created.Total,
		"items":    len(created.Items),
	}).Info("order placed")
	return created, nil
}

// PlaceOrder wraps CreateOrder into a result that is safe to show to the
// customer. Internal failures are logged and reported generically.
func (s *OrderService) PlaceOrder(ctx context.Context, customer string, lines []domain.LineItem) PlaceOrderResult {
	o, err := s.CreateOrder(ctx, customer, lines)
	if err != nil {
		return s.failure(err)
	}
	return PlaceOrderResult{Success: true, Message: msgOrderPlaced, Order: o}
}

// PlaceOrderWithKey is PlaceOrder with an idempotency key scoped to session:
// a key that already produced an order for the same customer and lines
// returns that order and changes nothing. Empty lines replay the order too,
// since the cart behind the first attempt is cleared by then. Reusing the key
// for different lines fails with ErrIdempotencyConflict.
func (s *OrderService) PlaceOrderWithKey(ctx context.Context, session, key, customer string, lines []domain.LineItem) PlaceOrderResult {
	if key == "" {
		return s.PlaceOrder(ctx, customer, lines)
	}
	scoped := session + "\x00" + key
	customer = strings.TrimSpace(customer)
	fp := fingerprint(lines)

	s.idemMu.Lock()
	defer s.idemMu.Unlock()

	if prev, ok := s.placed[scoped]; ok {
		o, err := s.orders.GetByID(ctx, prev.orderID)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("idempotency_key", key).Warn("replayed order is gone, placing again")
			delete(s.placed, scoped)
		case prev.customer != customer || (len(lines) > 0 && prev.lines != fp):
			return s.failure(ErrIdempotencyConflict)
		default:
			return PlaceOrderResult{Success: true, Message: msgOrderReplay, Order: o, Replayed: true}
		}
	}

	o, err := s.CreateOrder(ctx, customer, lines)
	if err != nil {
		return s.failure(err)
	}
	s.placed[scoped] = placedOrder{orderID: o.ID, customer: customer, lines: fp}
	return PlaceOrderResult{Success: true, Message: msgOrderPlaced, Order: o}
}

// fingerprint is the order-independent form of lines, quantities summed per product.
func fingerprint(lines []domain.LineItem) string {
	qty := make(map[string]int64, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += l.Quantity
	}
	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s=%d;", id, qty[id])
	}
	return b.String()
}

func (s *OrderService) failure(err error) PlaceOrderResult {
	var verr *ValidationError
	var serr *InsufficientStockError
	switch {
	case errors.As(err, &verr), errors.As(err, &serr), errors.Is(err, ErrIdempotencyConflict):
		s.log.WithError(err).Debug("order rejected")
		return PlaceOrderResult{Message: err.Error(), Err: err}
	default:
		s.log.WithError(err).Error("place order")
		return PlaceOrderResult{Message: msgPlaceFailure, Err: err}
	}
}

// GetOrder возвращает заказ по id
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

// List returns the ledger newest first.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// ListByCustomer returns the orders placed under the given customer name.
func (s *OrderService) ListByCustomer(ctx context.Context, customer string) ([]domain.Order, error) {
	all, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0)
	for _, o := range all {
		if o.CustomerName == customer {
			out = append(out, o)
		}
	}
	return out, nil
}

// SetStatus sets any known status regardless of the current one.
func (s *OrderService) SetStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	o, err := s.orders.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Type: events.OrderStatusChanged, Subject: o.ID, Payload: map[string]any{"status": o.Status}})
	return o, nil
}

func displayName(catalog, snapshot, id string) string {
	switch {
	case catalog != "":
		return catalog
	case snapshot != "":
		return snapshot
	default:
		return id
	}
}
