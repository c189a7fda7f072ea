package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"retailhub/internal/domain"
	"retailhub/internal/storage"
)

func newStore(t *testing.T, ds Dataset) (*MemoryStore, *storage.MemoryPersister) {
	t.Helper()
	p := storage.NewMemoryPersister()
	logger, _ := logtest.NewNullLogger()
	store := NewMemoryStore(p, logger)
	store.Load(context.Background(), ds)
	return store, p
}

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, Dataset{})

	p := domain.Product{Name: "A", Category: "C", Price: 10, Stock: 5}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("no id")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}

	p.Price = 12
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.SetStock(ctx, p.ID, 3); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	got, _ = store.GetByID(ctx, p.ID)
	if got.Price != 12 || got.Stock != 3 {
		t.Fatalf("unexpected product %+v", got)
	}
	if err := store.SetStock(ctx, p.ID, -1); err == nil {
		t.Fatalf("expected negative stock to be rejected")
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_CreateDuplicateAndUpsert(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, SeedDataset())

	dup := domain.Product{ID: "p1", Name: "dup"}
	if err := store.Create(ctx, &dup); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}

	up := domain.Product{ID: "p1", Name: "Smartwatch Max", Category: "Electronics", Price: 1, Stock: 1}
	if err := store.Upsert(ctx, &up); err != nil {
		t.Fatal(err)
	}
	fresh := domain.Product{ID: "p9", Name: "New"}
	if err := store.Upsert(ctx, &fresh); err != nil {
		t.Fatal(err)
	}
	list, _ := store.List(ctx, ProductFilter{})
	if len(list) != 6 || list[0].Name != "Smartwatch Max" || list[5].ID != "p9" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, Dataset{})
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	// seed product
	p := domain.Product{ID: "p1", Name: "A", Category: "C", Price: 10, Stock: 5}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	// emulate atomic create order with stock decrease
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		pp, err := store.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if pp.Stock < 3 {
			t.Fatalf("stock precondition")
		}
		if err := store.SetStock(ctx, pp.ID, pp.Stock-3); err != nil {
			return err
		}
		o := domain.Order{CustomerName: "John", Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 3, Price: 10}}, Status: domain.OrderStatusPending, Total: 30}
		return orders.Create(ctx, &o)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	// check stock after
	pp, _ := store.GetByID(context.Background(), p.ID)
	if pp.Stock != 2 {
		t.Fatalf("stock expected 2, got %v", pp.Stock)
	}
}

func TestMemoryOrders_NewestFirstAndStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, SeedDataset())
	orders := NewMemoryOrders(store)

	o := domain.Order{CustomerName: "Jane Doe", Date: "2024-01-01", Status: domain.OrderStatusPending}
	if err := orders.Create(ctx, &o); err != nil {
		t.Fatal(err)
	}
	list, _ := orders.List(ctx)
	if len(list) != 6 || list[0].ID != o.ID {
		t.Fatalf("new order should be first, got %+v", list[0])
	}

	// any status may follow any other
	updated, err := orders.SetStatus(ctx, "o1", domain.OrderStatusPending)
	if err != nil || updated.Status != domain.OrderStatusPending {
		t.Fatalf("set status: %v %+v", err, updated)
	}
	if _, err := orders.SetStatus(ctx, "nope", domain.OrderStatusShipped); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// returned copies do not alias the ledger
	got, _ := orders.GetByID(ctx, "o1")
	got.Items[0].Quantity = 100
	again, _ := orders.GetByID(ctx, "o1")
	if again.Items[0].Quantity != 1 {
		t.Fatalf("ledger mutated through a copy")
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, SeedDataset())

	// term matches name or category
	list, _ := store.List(ctx, ProductFilter{Term: "electro"})
	if len(list) != 2 {
		t.Fatalf("term filter expected 2, got %d", len(list))
	}
	list, _ = store.List(ctx, ProductFilter{Term: "coffee"})
	if len(list) != 1 || list[0].ID != "p2" {
		t.Fatalf("name filter failed: %+v", list)
	}

	list, _ = store.List(ctx, ProductFilter{Category: "Sports"})
	if len(list) != 1 || list[0].ID != "p4" {
		t.Fatalf("category filter failed: %+v", list)
	}

	// min
	min := int64(12000)
	list, _ = store.List(ctx, ProductFilter{MinPrice: &min})
	for _, p := range list {
		if p.Price < min {
			t.Fatalf("min filter fail")
		}
	}

	// max
	max := int64(12000)
	list, _ = store.List(ctx, ProductFilter{MaxPrice: &max})
	for _, p := range list {
		if p.Price > max {
			t.Fatalf("max filter fail")
		}
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, p := newStore(t, SeedDataset())
	before := store.Snapshot(ctx)

	reloaded := NewMemoryStore(p, nil)
	reloaded.Load(ctx, Dataset{})
	after := reloaded.Snapshot(ctx)

	if !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", before, after)
	}
}

func TestMemoryStore_CorruptDocumentFallsBack(t *testing.T) {
	ctx := context.Background()
	p := storage.NewMemoryPersister()
	_ = p.Save(ctx, ProductsKey, []byte("{not json"))
	_ = p.Save(ctx, OrdersKey, []byte(`[]`))

	logger, hook := logtest.NewNullLogger()
	store := NewMemoryStore(p, logger)
	store.Load(ctx, SeedDataset())

	snap := store.Snapshot(ctx)
	if len(snap.Products) != 5 {
		t.Fatalf("expected seed products, got %d", len(snap.Products))
	}
	if len(snap.Orders) != 0 {
		t.Fatalf("valid empty ledger must be kept, got %d", len(snap.Orders))
	}
	var sawCorrupt bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["key"] == ProductsKey {
			sawCorrupt = true
		}
	}
	if !sawCorrupt {
		t.Fatalf("corrupt document was not logged")
	}
	// the corrupt entry was cleared and replaced by the defaults
	data, err := p.Load(ctx, ProductsKey)
	if err != nil || data[0] != '[' {
		t.Fatalf("expected rewritten products document, got %q %v", data, err)
	}
}

type failingPersister struct{ *storage.MemoryPersister }

func (f *failingPersister) Save(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestMemoryStore_SaveFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	logger, hook := logtest.NewNullLogger()
	store := NewMemoryStore(&failingPersister{storage.NewMemoryPersister()}, logger)
	store.Load(ctx, SeedDataset())

	if err := store.SetStock(ctx, "p1", 7); err != nil {
		t.Fatalf("set stock must not fail on persistence errors: %v", err)
	}
	got, _ := store.GetByID(ctx, "p1")
	if got.Stock != 7 {
		t.Fatalf("in-memory value lost")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Fatalf("expected persistence error to be logged")
	}
}
