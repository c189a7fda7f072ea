package service

import (
	"context"

	"retailhub/internal/domain"
	"retailhub/internal/events"
	"retailhub/internal/repository"
)

// InventoryService складская сводка и пороги
type InventoryService struct {
	repo repository.ProductRepository
	deps
}

func NewInventoryService(repo repository.ProductRepository, opts ...Option) *InventoryService {
	return &InventoryService{repo: repo, deps: newDeps(opts)}
}

// InventoryItemFor derives the board row for p.
func InventoryItemFor(p domain.Product) domain.InventoryItem {
	item := domain.InventoryItem{
		ProductID:         p.ID,
		ProductName:       p.Name,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		IsLow:             p.Stock < p.LowStockThreshold,
		Level:             domain.StockLevelOK,
	}
	switch {
	case item.IsLow:
		item.Level = domain.StockLevelLow
	case p.Stock*4 < p.LowStockThreshold*5: // stock < 1.25 * threshold
		item.Level = domain.StockLevelWarning
	}

	ceiling := 2 * p.LowStockThreshold
	if p.Stock > ceiling {
		ceiling = p.Stock
	}
	if ceiling > 0 {
		item.StockPercent = float64(p.Stock) / float64(ceiling) * 100
		if item.StockPercent > 100 {
			item.StockPercent = 100
		}
	}
	return item
}

// Inventory returns one row per product in catalog order.
func (s *InventoryService) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	products, err := s.repo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryItem, 0, len(products))
	for _, p := range products {
		out = append(out, InventoryItemFor(p))
	}
	return out, nil
}

// LowStock returns only the rows below their threshold.
func (s *InventoryService) LowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	all, err := s.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.InventoryItem, 0)
	for _, it := range all {
		if it.IsLow {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *InventoryService) UpdateThreshold(ctx context.Context, id string, threshold int64) (*domain.InventoryItem, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if threshold < 0 {
		return nil, invalid("low stock threshold cannot be negative")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.LowStockThreshold = threshold
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Type: events.ProductUpserted, Subject: p.ID, Payload: *p})
	item := InventoryItemFor(*p)
	return &item, nil
}
