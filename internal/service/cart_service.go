package service

import (
	"context"
	"errors"
	"math"
	"sync"

	"retailhub/internal/domain"
	"retailhub/internal/events"
	"retailhub/internal/repository"
)

var (
	ErrStockLimit = errors.New("no more stock available for this product")
	ErrNotInCart  = errors.New("product is not in the cart")
)

// Cart содержимое корзины с итогами
type Cart struct {
	Items    []domain.CartItem `json:"items"`
	Count    int64             `json:"count"`
	Subtotal int64             `json:"subtotal"`
}

// Lines converts the cart into order line items.
func (c Cart) Lines() []domain.LineItem {
	out := make([]domain.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, domain.LineItem{ProductID: it.Product.ID, ProductName: it.Product.Name, Quantity: it.Quantity})
	}
	return out
}

// CartService хранит корзины сессий в памяти. Количество в строке никогда не
// превышает текущий остаток в каталоге на момент изменения.
type CartService struct {
	products repository.ProductRepository
	deps

	mu    sync.Mutex
	carts map[string][]domain.CartItem
}

func NewCartService(products repository.ProductRepository, opts ...Option) *CartService {
	return &CartService{
		products: products,
		deps:     newDeps(opts),
		carts:    make(map[string][]domain.CartItem),
	}
}

// Subscribe drops removed products from every cart. It returns the unsubscribe func.
func (s *CartService) Subscribe(bus *events.Bus) func() {
	return bus.Subscribe(func(ev events.Event) {
		if ev.Type == events.ProductRemoved {
			s.dropEverywhere(ev.Subject)
		}
	})
}

func (s *CartService) dropEverywhere(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for session, items := range s.carts {
		s.carts[session] = without(items, productID)
	}
}

func (s *CartService) Get(_ context.Context, session string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.carts[session])
}

// Add increments the line for productID by one, creating it if needed.
func (s *CartService) Add(ctx context.Context, session, productID string) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		s.carts[session] = without(s.carts[session], productID)
		return summarize(s.carts[session]), err
	}
	if err != nil {
		return Cart{}, err
	}

	items := s.carts[session]
	i := indexOf(items, productID)
	if i < 0 {
		if p.Stock <= 0 {
			return summarize(items), ErrStockLimit
		}
		items = append(items, domain.CartItem{Product: *p, Quantity: 1})
		s.carts[session] = items
		return summarize(items), nil
	}

	if !domain.CanIncrement(items[i].Quantity, p.Stock) {
		return summarize(items), ErrStockLimit
	}
	items[i].Product = *p
	items[i].Quantity = domain.Clamp(items[i].Quantity+1, p.Stock)
	return summarize(items), nil
}

// UpdateQuantity sets the line quantity clamped to current stock; zero removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, session, productID string, quantity int64) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[session]
	i := indexOf(items, productID)
	if i < 0 {
		return summarize(items), ErrNotInCart
	}
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		s.carts[session] = without(items, productID)
		return summarize(s.carts[session]), err
	}
	if err != nil {
		return Cart{}, err
	}

	q := domain.Clamp(quantity, p.Stock)
	if q == 0 {
		s.carts[session] = without(items, productID)
		return summarize(s.carts[session]), nil
	}
	items[i].Product = *p
	items[i].Quantity = q
	return summarize(items), nil
}

func (s *CartService) Remove(_ context.Context, session, productID string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[session] = without(s.carts[session], productID)
	return summarize(s.carts[session])
}

func (s *CartService) Clear(_ context.Context, session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, session)
}

func indexOf(items []domain.CartItem, productID string) int {
	for i := range items {
		if items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func without(items []domain.CartItem, productID string) []domain.CartItem {
	i := indexOf(items, productID)
	if i < 0 {
		return items
	}
	return append(items[:i:i], items[i+1:]...)
}

func summarize(items []domain.CartItem) Cart {
	c := Cart{Items: make([]domain.CartItem, len(items))}
	copy(c.Items, items)
	for _, it := range items {
		c.Count += it.Quantity
		amt, err := domain.LineAmount(it.Product.Price, it.Quantity)
		if err != nil || c.Subtotal > math.MaxInt64-amt {
			// checkout rejects such a cart; the view just saturates
			c.Subtotal = math.MaxInt64
			continue
		}
		c.Subtotal += amt
	}
	return c
}
