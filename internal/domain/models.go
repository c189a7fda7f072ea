package domain

import (
	"errors"
	"math"
)

// Product представляет товар каталога. Цены хранятся в минимальных единицах валюты.
type Product struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Price             int64  `json:"price"`
	Stock             int64  `json:"stock"`
	ImageURL          string `json:"imageUrl"`
	LowStockThreshold int64  `json:"lowStockThreshold"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem позиция в заказе; Price фиксируется в момент покупки
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
}

// Order сущность заказа
type Order struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customerName"`
	Date         string      `json:"date"`
	Status       OrderStatus `json:"status"`
	Total        int64       `json:"total"`
	Items        []OrderItem `json:"items"`
}

// Clone returns a deep copy so callers never share the items slice with a store.
func (o Order) Clone() Order {
	cp := o
	cp.Items = append([]OrderItem(nil), o.Items...)
	return cp
}

// ErrAmountOverflow сумма не помещается в int64.
var ErrAmountOverflow = errors.New("amount overflows int64")

// LineAmount returns price*quantity for non-negative operands.
func LineAmount(price, quantity int64) (int64, error) {
	if price < 0 || quantity < 0 {
		return 0, errors.New("negative amount")
	}
	if quantity != 0 && price > math.MaxInt64/quantity {
		return 0, ErrAmountOverflow
	}
	return price * quantity, nil
}

// OrderTotal sums price*quantity over the items.
func OrderTotal(items []OrderItem) (int64, error) {
	var total int64
	for _, it := range items {
		amt, err := LineAmount(it.Price, it.Quantity)
		if err != nil {
			return 0, err
		}
		if total > math.MaxInt64-amt {
			return 0, ErrAmountOverflow
		}
		total += amt
	}
	return total, nil
}

// LineItem запрос на покупку одной позиции. ProductName — снимок из корзины,
// используется только в сообщениях об ошибках.
type LineItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int64  `json:"quantity"`
}

// CartItem позиция корзины сессии
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int64   `json:"quantity"`
}

// Role роль пользователя
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User учётная запись. Password никогда не отдаётся наружу.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

// StockLevel coarse stock indicator shown on the inventory board.
type StockLevel string

const (
	StockLevelOK      StockLevel = "ok"
	StockLevelWarning StockLevel = "warning"
	StockLevelLow     StockLevel = "low"
)

// InventoryItem строка складской сводки
type InventoryItem struct {
	ProductID         string     `json:"productId"`
	ProductName       string     `json:"productName"`
	Stock             int64      `json:"stock"`
	LowStockThreshold int64      `json:"lowStockThreshold"`
	IsLow             bool       `json:"isLow"`
	Level             StockLevel `json:"level"`
	StockPercent      float64    `json:"stockPercent"`
}

// SalesPoint одна точка графика выручки
type SalesPoint struct {
	Label   string `json:"label"`
	Revenue int64  `json:"revenue"`
}

// TopProduct товар-лидер продаж
type TopProduct struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitsSold int64  `json:"unitsSold"`
}

// KeyMetrics сводные показатели
type KeyMetrics struct {
	TotalRevenue int64 `json:"totalRevenue"`
	TotalOrders  int64 `json:"totalOrders"`
	Customers    int64 `json:"customers"`
}

// SalesData данные дашборда продаж
type SalesData struct {
	DailySales     []SalesPoint `json:"dailySales"`
	MonthlySales   []SalesPoint `json:"monthlySales"`
	QuarterlySales []SalesPoint `json:"quarterlySales"`
	YearlySales    []SalesPoint `json:"yearlySales"`
	TopProducts    []TopProduct `json:"topProducts"`
	KeyMetrics     KeyMetrics   `json:"keyMetrics"`
}
