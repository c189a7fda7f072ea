package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailhub/internal/domain"
)

func TestQuoteFor_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		subtotal, tax int64
	}{
		{0, 0},
		{1000, 80},
		{1799, 144},   // 143.92
		{1806, 144},   // 144.48
		{1807, 145},   // 144.56
		{24999, 2000}, // 1999.92
		{1875, 150},   // exactly 150
		{6, 0},        // 0.48
		{7, 1},        // 0.56
	}
	for _, tc := range cases {
		q := QuoteFor(tc.subtotal)
		assert.Equal(t, tc.tax, q.Tax, "subtotal %d", tc.subtotal)
		assert.Equal(t, tc.subtotal+tc.tax, q.Total)
		assert.Equal(t, "0.08", q.TaxRate)
	}
}

type checkoutFixture struct {
	*fixture
	carts    *CartService
	notes    *NotificationService
	checkout *CheckoutService
}

func setupCheckout(t *testing.T, delay time.Duration, products ...domain.Product) *checkoutFixture {
	f := setup(t, products...)
	carts := NewCartService(f.store, f.opts...)
	notes := NewNotificationService()
	return &checkoutFixture{
		fixture:  f,
		carts:    carts,
		notes:    notes,
		checkout: NewCheckoutService(carts, f.os, notes, delay, f.opts...),
	}
}

func TestCheckout_Success(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 0, widget("p1", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}
	f.carts.Add(ctx, user.ID, "p1")
	f.carts.Add(ctx, user.ID, "p1")

	assert.Equal(t, Quote{Subtotal: 2000, Tax: 160, Total: 2160, TaxRate: "0.08"}, f.checkout.Quote(ctx, user.ID))

	res := f.checkout.Checkout(ctx, user.ID, user, "", nil)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Jane Doe", res.Order.CustomerName)
	assert.Equal(t, int64(2000), res.Order.Total)
	assert.Empty(t, f.carts.Get(ctx, user.ID).Items)

	msg, ok := f.notes.Take(user.ID)
	assert.True(t, ok)
	assert.Equal(t, "Order placed successfully!", msg)
	_, ok = f.notes.Take(user.ID)
	assert.False(t, ok, "notification is consumed once")
}

func TestCheckout_FailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 0, widget("p1", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}

	res := f.checkout.Checkout(ctx, user.ID, user, "", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "cart is empty", res.Message)

	f.carts.Add(ctx, user.ID, "p1")
	f.carts.UpdateQuantity(ctx, user.ID, "p1", 5)
	// stock is sold elsewhere while the cart waits
	require.True(t, f.os.PlaceOrder(ctx, "Other", []domain.LineItem{{ProductID: "p1", Quantity: 4}}).Success)

	res = f.checkout.Checkout(ctx, user.ID, user, "", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient stock for Widget p1: only 1 available", res.Message)
	assert.Len(t, f.carts.Get(ctx, user.ID).Items, 1)
	_, ok := f.notes.Take(user.ID)
	assert.False(t, ok)
}

func TestCheckout_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 0, widget("p1", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}
	f.carts.Add(ctx, user.ID, "p1")

	first := f.checkout.Checkout(ctx, user.ID, user, "key-1", nil)
	require.True(t, first.Success)
	// the cart is now empty; a retry with the same key still reports the order
	retry := f.checkout.Checkout(ctx, user.ID, user, "key-1", nil)
	require.True(t, retry.Success)
	assert.Equal(t, first.Order.ID, retry.Order.ID)

	orders, _ := f.os.List(ctx)
	assert.Len(t, orders, 1)
	_, ok := f.notes.Take(user.ID)
	assert.True(t, ok)
	_, ok = f.notes.Take(user.ID)
	assert.False(t, ok, "a replay does not notify again")
}

func TestCheckout_IdempotencyKeyPerSession(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 0, widget("p1", 5), widget("p2", 5))
	alice := domain.User{ID: "u-alice", Name: "Alice"}
	bob := domain.User{ID: "u-bob", Name: "Bob"}

	f.carts.Add(ctx, alice.ID, "p1")
	require.True(t, f.checkout.Checkout(ctx, alice.ID, alice, "retry-1", nil).Success)

	f.carts.Add(ctx, bob.ID, "p2")
	f.carts.Add(ctx, bob.ID, "p2")
	res := f.checkout.Checkout(ctx, bob.ID, bob, "retry-1", nil)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Bob", res.Order.CustomerName)
	assert.Empty(t, f.carts.Get(ctx, bob.ID).Items)

	p2, _ := f.products.GetByID(ctx, "p2")
	assert.Equal(t, int64(3), p2.Stock)
	orders, _ := f.os.List(ctx)
	assert.Len(t, orders, 2)
}

func TestCheckout_ReusedKeyWithNewCartKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 0, widget("p1", 5), widget("p2", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}

	f.carts.Add(ctx, user.ID, "p1")
	require.True(t, f.checkout.Checkout(ctx, user.ID, user, "key-1", nil).Success)

	f.carts.Add(ctx, user.ID, "p2")
	res := f.checkout.Checkout(ctx, user.ID, user, "key-1", nil)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrIdempotencyConflict)
	assert.Len(t, f.carts.Get(ctx, user.ID).Items, 1)

	p2, _ := f.products.GetByID(ctx, "p2")
	assert.Equal(t, int64(5), p2.Stock)
}

func TestCheckout_DelayHonoursCancellation(t *testing.T) {
	f := setupCheckout(t, time.Hour, widget("p1", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}
	f.carts.Add(context.Background(), user.ID, "p1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := f.checkout.Checkout(ctx, user.ID, user, "", nil)
	assert.False(t, res.Success)
	assert.Len(t, f.carts.Get(context.Background(), user.ID).Items, 1)

	p, _ := f.products.GetByID(context.Background(), "p1")
	assert.Equal(t, int64(5), p.Stock)
}

func TestCheckout_ShortDelayCompletes(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 5*time.Millisecond, widget("p1", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}
	f.carts.Add(ctx, user.ID, "p1")

	assert.True(t, f.checkout.Checkout(ctx, user.ID, user, "", nil).Success)
}

func TestPayment_Validate(t *testing.T) {
	valid := Payment{CardholderName: "Jane Doe", CardNumber: "4111111111111111", ExpiryDate: "09/27", CVC: "123"}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		edit func(p *Payment)
		msg  string
	}{
		{"no cardholder", func(p *Payment) { p.CardholderName = "  " }, "cardholder name is required"},
		{"short card", func(p *Payment) { p.CardNumber = "411111111111111" }, "card number must be 16 digits"},
		{"card with letters", func(p *Payment) { p.CardNumber = "4111-1111-1111-1" }, "card number must be 16 digits"},
		{"month 13", func(p *Payment) { p.ExpiryDate = "13/27" }, "expiry date must be MM/YY"},
		{"single digit month", func(p *Payment) { p.ExpiryDate = "9/27" }, "expiry date must be MM/YY"},
		{"cvc too short", func(p *Payment) { p.CVC = "12" }, "cvc must be 3 or 4 digits"},
		{"cvc signed", func(p *Payment) { p.CVC = "-123" }, "cvc must be 3 or 4 digits"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.edit(&p)
			err := p.Validate()
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.EqualError(t, err, tc.msg)
		})
	}

	four := valid
	four.CVC = "1234"
	assert.NoError(t, four.Validate())
}

func TestCheckout_InvalidPaymentKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := setupCheckout(t, 0, widget("p1", 5))
	user := domain.User{ID: "user1", Name: "Jane Doe"}
	f.carts.Add(ctx, user.ID, "p1")

	res := f.checkout.Checkout(ctx, user.ID, user, "", &Payment{CardholderName: "Jane", CardNumber: "1234", ExpiryDate: "09/27", CVC: "123"})
	assert.False(t, res.Success)
	assert.Equal(t, "card number must be 16 digits", res.Message)
	assert.Len(t, f.carts.Get(ctx, user.ID).Items, 1)

	res = f.checkout.Checkout(ctx, user.ID, user, "", &Payment{CardholderName: "Jane", CardNumber: "4111111111111111", ExpiryDate: "09/27", CVC: "123"})
	require.True(t, res.Success, res.Message)
}
