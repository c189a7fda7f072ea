package service

import (
	"context"
	"sort"
	"strings"

	"retailhub/internal/domain"
	"retailhub/internal/events"
	"retailhub/internal/repository"
)

const (
	defaultLowStockThreshold int64 = 50
	defaultPageSize                = 10
	maxPageSize                    = 100
)

// MaxPrice upper bound for a product price, in minor units.
const MaxPrice int64 = 1_000_000_000_000

// ProductService инкапсулирует бизнес-логику вокруг товаров
type ProductService struct {
	repo repository.ProductRepository
	deps
}

func NewProductService(repo repository.ProductRepository, opts ...Option) *ProductService {
	return &ProductService{repo: repo, deps: newDeps(opts)}
}

// ProductUpdate частичное обновление товара; nil-поля не меняются
type ProductUpdate struct {
	Name              *string `json:"name,omitempty"`
	Category          *string `json:"category,omitempty"`
	Price             *int64  `json:"price,omitempty"`
	Stock             *int64  `json:"stock,omitempty"`
	ImageURL          *string `json:"imageUrl,omitempty"`
	LowStockThreshold *int64  `json:"lowStockThreshold,omitempty"`
}

func validateProduct(p domain.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return invalid("product name is required")
	case strings.TrimSpace(p.Category) == "":
		return invalid("product category is required")
	case p.Price < 0:
		return invalid("price cannot be negative")
	case p.Price > MaxPrice:
		return invalid("price cannot exceed %d", MaxPrice)
	case p.Stock < 0:
		return invalid("stock cannot be negative")
	case p.LowStockThreshold < 0:
		return invalid("low stock threshold cannot be negative")
	}
	return nil
}

// Create добавляет товар. Пустые id, изображение и порог заполняются значениями по умолчанию.
func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	cp := p
	if cp.LowStockThreshold == 0 {
		cp.LowStockThreshold = defaultLowStockThreshold
	}
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	if cp.ImageURL == "" {
		cp.ImageURL = "https://picsum.photos/seed/" + cp.ID + "/200"
		if err := s.repo.Update(ctx, &cp); err != nil {
			return nil, err
		}
	}
	s.bus.Publish(events.Event{Type: events.ProductUpserted, Subject: cp.ID, Payload: cp})
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Update merges u into the stored product.
func (s *ProductService) Update(ctx context.Context, id string, u ProductUpdate) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.LowStockThreshold != nil {
		p.LowStockThreshold = *u.LowStockThreshold
	}
	if err := validateProduct(*p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Type: events.ProductUpserted, Subject: p.ID, Payload: *p})
	return p, nil
}

// Delete убирает товар из каталога. Existing orders keep their items.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.ProductRemoved, Subject: id})
	return nil
}

// SearchQuery параметры витрины
type SearchQuery struct {
	Term     string
	Category string // "all" or empty disables the filter
	MinPrice *int64
	MaxPrice *int64
	Page     int
	PageSize int
}

// SearchResult одна страница витрины
type SearchResult struct {
	Items      []domain.Product `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	Categories []string         `json:"categories"`
}

// Search filters the catalog and returns one page. Page is clamped into
// [1, TotalPages]; Categories lists every category in the catalog.
func (s *ProductService) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	all, err := s.repo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return SearchResult{}, err
	}

	f := repository.ProductFilter{
		Term:     strings.TrimSpace(q.Term),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}
	if !strings.EqualFold(q.Category, "all") {
		f.Category = q.Category
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	matched := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if _, ok := seen[p.Category]; !ok && p.Category != "" {
			seen[p.Category] = struct{}{}
			categories = append(categories, p.Category)
		}
		if f.Match(p) {
			matched = append(matched, p)
		}
	}
	sort.Strings(categories)

	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	totalPages := (len(matched) + size - 1) / size
	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	end := start + size
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return SearchResult{
		Items:      matched[start:end],
		Total:      len(matched),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
		Categories: categories,
	}, nil
}
