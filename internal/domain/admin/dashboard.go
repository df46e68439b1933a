package admin

import (
	"github.com/shopspring/decimal"
)

// MonthlySales is one bar of the sales overview chart.
type MonthlySales struct {
	Month string
	Sales int
}

// salesHistory is the overview series shown before live order data.
var salesHistory = []MonthlySales{
	{"Jan", 400}, {"Feb", 300}, {"Mar", 500}, {"Apr", 700},
	{"May", 600}, {"Jun", 800}, {"Jul", 1000}, {"Aug", 900},
}

// Dashboard summarises the store for the console landing page.
type Dashboard struct {
	TotalProducts int
	TotalOrders   int
	TotalUsers    int
	LowStock      []Item
	// MonthRevenue sums non-cancelled orders placed in the current month.
	MonthRevenue decimal.Decimal
	Sales        []MonthlySales
}
