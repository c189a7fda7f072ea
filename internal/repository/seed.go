package repository

import "retailhub/internal/domain"

// SeedDataset is the built-in catalog and ledger used on first start and
// whenever a stored document cannot be decoded.
func SeedDataset() Dataset {
	return Dataset{
		Products: []domain.Product{
			{ID: "p1", Name: "Smartwatch Pro", Category: "Electronics", Price: 24999, Stock: 150, ImageURL: "https://picsum.photos/seed/p1/200", LowStockThreshold: 30},
			{ID: "p2", Name: "Organic Coffee Beans", Category: "Groceries", Price: 1799, Stock: 300, ImageURL: "https://picsum.photos/seed/p2/200", LowStockThreshold: 100},
			{ID: "p3", Name: "Designer Denim Jacket", Category: "Apparel", Price: 11999, Stock: 80, ImageURL: "https://picsum.photos/seed/p3/200", LowStockThreshold: 20},
			{ID: "p4", Name: "Yoga Mat", Category: "Sports", Price: 3599, Stock: 40, ImageURL: "https://picsum.photos/seed/p4/200", LowStockThreshold: 50},
			{ID: "p5", Name: "Wireless Earbuds", Category: "Electronics", Price: 15999, Stock: 120, ImageURL: "https://picsum.photos/seed/p5/200", LowStockThreshold: 25},
		},
		Orders: []domain.Order{
			{ID: "o1", CustomerName: "Alice Johnson", Date: "2023-10-26", Status: domain.OrderStatusDelivered, Total: 28598, Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1, Price: 24999}, {ProductID: "p4", Quantity: 1, Price: 3599}}},
			{ID: "o2", CustomerName: "Bob Williams", Date: "2023-10-25", Status: domain.OrderStatusShipped, Total: 11999, Items: []domain.OrderItem{{ProductID: "p3", Quantity: 1, Price: 11999}}},
			{ID: "o3", CustomerName: "Charlie Brown", Date: "2023-10-25", Status: domain.OrderStatusProcessing, Total: 3598, Items: []domain.OrderItem{{ProductID: "p2", Quantity: 2, Price: 1799}}},
			{ID: "o4", CustomerName: "Diana Prince", Date: "2023-10-24", Status: domain.OrderStatusPending, Total: 15999, Items: []domain.OrderItem{{ProductID: "p5", Quantity: 1, Price: 15999}}},
			{ID: "o5", CustomerName: "Eve Adams", Date: "2023-10-22", Status: domain.OrderStatusCancelled, Total: 1799, Items: []domain.OrderItem{{ProductID: "p2", Quantity: 1, Price: 1799}}},
		},
	}
}
