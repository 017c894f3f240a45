// Package dashboard computes the seller and admin overview figures.
package dashboard

import (
	"sort"

	"storefront/internal/catalog"
	"storefront/internal/orders"
)

const (
	lowStockThreshold = 10
	listLen           = 5
)

// PopularProduct is a product ranked by units sold.
type PopularProduct struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Sold    int     `json:"sold"`
	Revenue float64 `json:"revenue"`
}

// Seller is the seller dashboard.
type Seller struct {
	Revenue         float64                `json:"revenue"`
	Orders          int                    `json:"orders"`
	OrdersByStatus  map[orders.Status]int  `json:"ordersByStatus"`
	Products        int                    `json:"products"`
	ProductsByState map[catalog.Status]int `json:"productsByStatus"`
	LowStock        []catalog.Product      `json:"lowStock"`
	RecentOrders    []orders.Order         `json:"recentOrders"`
	PopularProducts []PopularProduct       `json:"popularProducts"`
}

// Admin is the admin dashboard.
type Admin struct {
	Users          int                   `json:"users"`
	Products       int                   `json:"products"`
	Orders         int                   `json:"orders"`
	Revenue        float64               `json:"revenue"`
	OrdersByStatus map[orders.Status]int `json:"ordersByStatus"`
}

// revenue sums the totals of orders that were not cancelled.
func revenue(os []orders.Order) float64 {
	var total float64
	for _, o := range os {
		if o.Status != orders.StatusCancelled {
			total += o.TotalPrice
		}
	}
	return total
}

func byStatus(os []orders.Order) map[orders.Status]int {
	m := make(map[orders.Status]int, len(orders.Statuses))
	for _, st := range orders.Statuses {
		m[st] = 0
	}
	for _, o := range os {
		m[o.Status]++
	}
	return m
}

// ForSeller computes the seller dashboard.
func ForSeller(products []catalog.Product, os []orders.Order) Seller {
	s := Seller{
		Revenue:         revenue(os),
		Orders:          len(os),
		OrdersByStatus:  byStatus(os),
		Products:        len(products),
		ProductsByState: map[catalog.Status]int{},
		LowStock:        []catalog.Product{},
		RecentOrders:    []orders.Order{},
		PopularProducts: []PopularProduct{},
	}

	for _, p := range products {
		s.ProductsByState[p.Status]++
		if p.Stock < lowStockThreshold {
			s.LowStock = append(s.LowStock, p)
		}
	}
	sort.SliceStable(s.LowStock, func(i, j int) bool {
		return s.LowStock[i].Stock < s.LowStock[j].Stock
	})

	for i := len(os) - 1; i >= 0 && len(s.RecentOrders) < listLen; i-- {
		s.RecentOrders = append(s.RecentOrders, os[i])
	}

	sold := map[int64]*PopularProduct{}
	var order []int64
	for _, o := range os {
		if o.Status == orders.StatusCancelled {
			continue
		}
		for _, it := range o.Items {
			pp, ok := sold[it.ID]
			if !ok {
				pp = &PopularProduct{ID: it.ID, Name: it.Name}
				sold[it.ID] = pp
				order = append(order, it.ID)
			}
			pp.Sold += it.Quantity
			pp.Revenue += it.Price * float64(it.Quantity)
		}
	}
	for _, id := range order {
		s.PopularProducts = append(s.PopularProducts, *sold[id])
	}
	sort.SliceStable(s.PopularProducts, func(i, j int) bool {
		return s.PopularProducts[i].Sold > s.PopularProducts[j].Sold
	})
	if len(s.PopularProducts) > listLen {
		s.PopularProducts = s.PopularProducts[:listLen]
	}
	return s
}

// ForAdmin computes the admin dashboard.
func ForAdmin(users int, products []catalog.Product, os []orders.Order) Admin {
	return Admin{
		Users:          users,
		Products:       len(products),
		Orders:         len(os),
		Revenue:        revenue(os),
		OrdersByStatus: byStatus(os),
	}
}
