package repository

import (
	"context"
	"errors"
	"strings"

	"retailhub/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists возвращается при создании сущности с занятым id
var ErrAlreadyExists = errors.New("already exists")

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	// Term matches name or category, case-insensitive.
	Term string
	// Category is an exact match; empty means any.
	Category string
	MinPrice *int64
	MaxPrice *int64
}

// Match reports whether p passes every set criterion.
func (f ProductFilter) Match(p domain.Product) bool {
	if f.Term != "" && !containsIgnoreCase(p.Name, f.Term) && !containsIgnoreCase(p.Category, f.Term) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

// ProductRepository интерфейс каталога
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Upsert(ctx context.Context, p *domain.Product) error
	SetStock(ctx context.Context, id string, stock int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

// OrderRepository интерфейс журнала заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

// TxManager абстракция транзакции. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
