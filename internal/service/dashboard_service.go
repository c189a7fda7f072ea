package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"retailhub/internal/domain"
	"retailhub/internal/repository"
)

const topProductsLimit = 3

// SalesSeries one chart of the dashboard.
type SalesSeries struct {
	Period string   `json:"period"`
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

var periodTitles = map[string]string{
	"daily":     "Daily Sales (Last 30 Days)",
	"monthly":   "Monthly Sales (This Year)",
	"quarterly": "Quarterly Sales",
	"yearly":    "Yearly Sales",
}

// DashboardService агрегирует журнал заказов для дашборда продаж.
// Cancelled orders never count toward revenue or units sold.
type DashboardService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	deps
}

func NewDashboardService(orders repository.OrderRepository, products repository.ProductRepository, opts ...Option) *DashboardService {
	return &DashboardService{orders: orders, products: products, deps: newDeps(opts)}
}

type datedOrder struct {
	domain.Order
	day time.Time
}

func (s *DashboardService) load(ctx context.Context) ([]domain.Order, []datedOrder, error) {
	all, err := s.orders.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	counted := make([]datedOrder, 0, len(all))
	for _, o := range all {
		if o.Status == domain.OrderStatusCancelled {
			continue
		}
		day, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			s.log.WithField("order_id", o.ID).WithError(err).Warn("skip order with bad date")
			continue
		}
		counted = append(counted, datedOrder{Order: o, day: day})
	}
	return all, counted, nil
}

func (s *DashboardService) SalesData(ctx context.Context) (domain.SalesData, error) {
	all, counted, err := s.load(ctx)
	if err != nil {
		return domain.SalesData{}, err
	}
	today := s.today()
	top, err := s.topProducts(ctx, counted)
	if err != nil {
		return domain.SalesData{}, err
	}
	return domain.SalesData{
		DailySales:     daily(counted, today),
		MonthlySales:   monthly(counted, today),
		QuarterlySales: quarterly(counted, today),
		YearlySales:    yearly(counted, today),
		TopProducts:    top,
		KeyMetrics:     keyMetrics(all, counted),
	}, nil
}

// Series returns one chart; period is daily, monthly, quarterly or yearly.
func (s *DashboardService) Series(ctx context.Context, period string) (SalesSeries, error) {
	title, ok := periodTitles[period]
	if !ok {
		return SalesSeries{}, invalid("unknown period %q", period)
	}
	_, counted, err := s.load(ctx)
	if err != nil {
		return SalesSeries{}, err
	}
	today := s.today()
	var points []domain.SalesPoint
	switch period {
	case "daily":
		points = daily(counted, today)
	case "monthly":
		points = monthly(counted, today)
	case "quarterly":
		points = quarterly(counted, today)
	case "yearly":
		points = yearly(counted, today)
	}
	out := SalesSeries{Period: period, Title: title, Labels: make([]string, len(points)), Data: make([]int64, len(points))}
	for i, p := range points {
		out.Labels[i] = p.Label
		out.Data[i] = p.Revenue
	}
	return out, nil
}

func (s *DashboardService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// daily covers the 30 days ending today.
func daily(orders []datedOrder, today time.Time) []domain.SalesPoint {
	const days = 30
	first := today.AddDate(0, 0, -(days - 1))
	out := make([]domain.SalesPoint, days)
	for i := range out {
		out[i].Label = first.AddDate(0, 0, i).Format("Jan 2")
	}
	for _, o := range orders {
		if o.day.Before(first) || o.day.After(today) {
			continue
		}
		out[int(o.day.Sub(first).Hours()/24)].Revenue += o.Total
	}
	return out
}

// monthly covers January through the current month.
func monthly(orders []datedOrder, today time.Time) []domain.SalesPoint {
	out := make([]domain.SalesPoint, int(today.Month()))
	for i := range out {
		out[i].Label = time.Month(i + 1).String()[:3]
	}
	for _, o := range orders {
		if o.day.Year() == today.Year() && o.day.Month() <= today.Month() {
			out[o.day.Month()-1].Revenue += o.Total
		}
	}
	return out
}

func quarterIndex(t time.Time) int {
	return t.Year()*4 + (int(t.Month())-1)/3
}

// quarterly covers the six quarters ending with the current one.
func quarterly(orders []datedOrder, today time.Time) []domain.SalesPoint {
	const quarters = 6
	last := quarterIndex(today)
	first := last - quarters + 1
	out := make([]domain.SalesPoint, quarters)
	for i := range out {
		q := first + i
		out[i].Label = fmt.Sprintf("Q%d %02d", q%4+1, (q/4)%100)
	}
	for _, o := range orders {
		q := quarterIndex(o.day)
		if q >= first && q <= last {
			out[q-first].Revenue += o.Total
		}
	}
	return out
}

// yearly covers the five years ending with the current one.
func yearly(orders []datedOrder, today time.Time) []domain.SalesPoint {
	const years = 5
	first := today.Year() - years + 1
	out := make([]domain.SalesPoint, years)
	for i := range out {
		out[i].Label = fmt.Sprint(first + i)
	}
	for _, o := range orders {
		y := o.day.Year()
		if y >= first && y <= today.Year() {
			out[y-first].Revenue += o.Total
		}
	}
	return out
}

func (s *DashboardService) topProducts(ctx context.Context, orders []datedOrder) ([]domain.TopProduct, error) {
	units := make(map[string]int64)
	for _, o := range orders {
		for _, it := range o.Items {
			units[it.ProductID] += it.Quantity
		}
	}
	top := make([]domain.TopProduct, 0, len(units))
	for id, n := range units {
		top = append(top, domain.TopProduct{ProductID: id, Name: id, UnitsSold: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].UnitsSold != top[j].UnitsSold {
			return top[i].UnitsSold > top[j].UnitsSold
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > topProductsLimit {
		top = top[:topProductsLimit]
	}
	for i := range top {
		p, err := s.products.GetByID(ctx, top[i].ProductID)
		switch {
		case err == nil:
			top[i].Name = p.Name
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return top, nil
}

// keyMetrics: revenue from counted orders, order count and customers over the whole ledger.
func keyMetrics(all []domain.Order, counted []datedOrder) domain.KeyMetrics {
	var m domain.KeyMetrics
	for _, o := range counted {
		m.TotalRevenue += o.Total
	}
	customers := make(map[string]struct{})
	for _, o := range all {
		customers[o.CustomerName] = struct{}{}
	}
	m.TotalOrders = int64(len(all))
	m.Customers = int64(len(customers))
	return m
}
