package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailhub/internal/domain"
	"retailhub/internal/events"
	"retailhub/internal/repository"
)

func TestProduct_Create_Defaults(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, err := f.products.Create(ctx, domain.Product{Name: "Lamp", Category: "Home", Price: 2500, Stock: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected id assigned")
	}
	assert.Equal(t, "https://picsum.photos/seed/"+p.ID+"/200", p.ImageURL)
	assert.Equal(t, int64(50), p.LowStockThreshold)

	stored, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *stored)
}

func TestProduct_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	for _, p := range []domain.Product{
		{Name: "", Category: "C", Price: 1, Stock: 1},
		{Name: "N", Category: "", Price: 1, Stock: 1},
		{Name: "N", Category: "C", Price: -1, Stock: 1},
		{Name: "N", Category: "C", Price: MaxPrice + 1, Stock: 1},
		{Name: "N", Category: "C", Price: 1, Stock: -1},
		{Name: "N", Category: "C", Price: 1, Stock: 1, LowStockThreshold: -3},
	} {
		if _, err := f.products.Create(ctx, p); err == nil {
			t.Fatalf("expected validation error for %+v", p)
		}
	}
	if _, err := f.products.Create(ctx, domain.Product{Name: "N", Category: "C", Price: MaxPrice, Stock: 1}); err != nil {
		t.Fatalf("price at the cap rejected: %v", err)
	}
}

func TestProduct_Update_Get_Delete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, domain.Product{Name: "A", Category: "C", Price: 10, Stock: 5})

	name, price := "A+", int64(12)
	up, err := f.products.Update(ctx, p.ID, ProductUpdate{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "A+", up.Name)
	assert.Equal(t, int64(12), up.Price)
	assert.Equal(t, int64(5), up.Stock, "unset fields keep their value")

	neg := int64(-1)
	_, err = f.products.Update(ctx, p.ID, ProductUpdate{Stock: &neg})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.products.Update(ctx, "missing", ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	var removed []string
	f.bus.Subscribe(func(ev events.Event) {
		if ev.Type == events.ProductRemoved {
			removed = append(removed, ev.Subject)
		}
	})
	require.NoError(t, f.products.Delete(ctx, p.ID))
	assert.Equal(t, []string{p.ID}, removed)
	if _, err := f.products.GetByID(ctx, p.ID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestProduct_DeleteKeepsOrderHistory(t *testing.T) {
	ctx := context.Background()
	f := setup(t, widget("p1", 5))
	res := f.os.PlaceOrder(ctx, "A", []domain.LineItem{{ProductID: "p1", Quantity: 2}})
	require.True(t, res.Success)

	require.NoError(t, f.products.Delete(ctx, "p1"))
	o, err := f.os.GetOrder(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), o.Items[0].Price)
}

func TestProduct_Search(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.store.Reset(ctx, repository.SeedDataset())

	res, err := f.products.Search(ctx, SearchQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, []string{"Apparel", "Electronics", "Groceries", "Sports"}, res.Categories)

	res, _ = f.products.Search(ctx, SearchQuery{Term: "ELECTRO"})
	assert.Equal(t, 2, res.Total)

	res, _ = f.products.Search(ctx, SearchQuery{Term: "e", Category: "Electronics"})
	assert.Equal(t, 2, res.Total)
	res, _ = f.products.Search(ctx, SearchQuery{Category: "all"})
	assert.Equal(t, 5, res.Total)

	// paging with clamping
	res, _ = f.products.Search(ctx, SearchQuery{PageSize: 2, Page: 9})
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 3, res.Page)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "p5", res.Items[0].ID)

	res, _ = f.products.Search(ctx, SearchQuery{PageSize: 1000, Page: -1})
	assert.Equal(t, 100, res.PageSize)
	assert.Equal(t, 1, res.Page)

	// no matches still yields a valid first page
	res, _ = f.products.Search(ctx, SearchQuery{Term: "zzz"})
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.TotalPages)
	assert.Equal(t, 1, res.Page)
	assert.Empty(t, res.Items)
}
