package service

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"retailhub/internal/domain"
)

// TaxRate applied on top of the cart subtotal.
var TaxRate = decimal.RequireFromString("0.08")

const msgCheckoutNotice = "Order placed successfully!"

// Quote итог корзины перед оплатой, в минимальных единицах
type Quote struct {
	Subtotal int64  `json:"subtotal"`
	Tax      int64  `json:"tax"`
	Total    int64  `json:"total"`
	TaxRate  string `json:"taxRate"`
}

// QuoteFor computes tax rounded half-up to a whole minor unit.
func QuoteFor(subtotal int64) Quote {
	tax := decimal.NewFromInt(subtotal).Mul(TaxRate).Round(0)
	total := decimal.NewFromInt(subtotal).Add(tax)
	q := Quote{Subtotal: subtotal, Tax: tax.IntPart(), Total: total.IntPart(), TaxRate: TaxRate.String()}
	if total.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		q.Total = math.MaxInt64
	}
	return q
}

// CheckoutService соединяет корзину сессии с оформлением заказа
type CheckoutService struct {
	carts  *CartService
	orders *OrderService
	notes  *NotificationService
	delay  time.Duration
	deps
}

func NewCheckoutService(carts *CartService, orders *OrderService, notes *NotificationService, paymentDelay time.Duration, opts ...Option) *CheckoutService {
	return &CheckoutService{carts: carts, orders: orders, notes: notes, delay: paymentDelay, deps: newDeps(opts)}
}

func (s *CheckoutService) Quote(ctx context.Context, session string) Quote {
	return QuoteFor(s.carts.Get(ctx, session).Subtotal)
}

// Checkout places an order for the session cart under the user's name.
// The cart is cleared only on success; a failed attempt leaves it for the
// customer to fix. A nil payment skips card validation.
func (s *CheckoutService) Checkout(ctx context.Context, session string, user domain.User, idempotencyKey string, payment *Payment) PlaceOrderResult {
	if payment != nil {
		if err := payment.Validate(); err != nil {
			return PlaceOrderResult{Message: err.Error(), Err: err}
		}
	}
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return PlaceOrderResult{Message: "checkout cancelled", Err: ctx.Err()}
		case <-t.C:
		}
	}

	cart := s.carts.Get(ctx, session)
	res := s.orders.PlaceOrderWithKey(ctx, session, idempotencyKey, user.Name, cart.Lines())
	if !res.Success {
		return res
	}
	// a replay only matched if the cart is empty or holds the same lines
	s.carts.Clear(ctx, session)
	if res.Replayed {
		return res
	}
	s.notes.Set(session, msgCheckoutNotice)
	s.log.WithField("session", session).WithField("order_id", res.Order.ID).Info("checkout complete")
	return res
}
