package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

const (
	RangeToday  = "today"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeCustom = "custom"

	DateLayout = "2006-01-02"

	topItemsLimit = 5
)

type RangeSpec struct {
	Kind string
	From string
	To   string
}

// Window is an inclusive [From, To] interval in the café's local time.
type Window struct {
	Kind string
	From time.Time
	To   time.Time
}

// ResolveRange turns a named range into absolute bounds. Rolling ranges
// start at local midnight and end at now; custom ranges cover whole days.
func ResolveRange(spec RangeSpec, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	kind := strings.ToLower(strings.TrimSpace(spec.Kind))
	if kind == "" {
		kind = RangeToday
	}

	switch kind {
	case RangeToday:
		return Window{Kind: kind, From: startOfDay(now, 0), To: now}, nil
	case RangeWeek:
		return Window{Kind: kind, From: startOfDay(now, 7), To: now}, nil
	case RangeMonth:
		return Window{Kind: kind, From: startOfDay(now, 30), To: now}, nil
	case RangeCustom:
		if strings.TrimSpace(spec.From) == "" || strings.TrimSpace(spec.To) == "" {
			return Window{}, fmt.Errorf("%w: custom range requires from and to", store.ErrInvalidInput)
		}
		from, err := time.ParseInLocation(DateLayout, strings.TrimSpace(spec.From), loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: from must be YYYY-MM-DD", store.ErrInvalidInput)
		}
		to, err := time.ParseInLocation(DateLayout, strings.TrimSpace(spec.To), loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: to must be YYYY-MM-DD", store.ErrInvalidInput)
		}
		if from.After(to) {
			return Window{}, fmt.Errorf("%w: from is after to", store.ErrInvalidInput)
		}
		end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
		return Window{Kind: kind, From: from, To: end}, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown range %q", store.ErrInvalidInput, spec.Kind)
	}
}

func startOfDay(now time.Time, daysBack int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()-daysBack, 0, 0, 0, 0, now.Location())
}

// Summarize aggregates bills and expenses that already fall inside one
// window. Bills are expected newest first; the slice is kept as given.
func Summarize(bills []domain.Bill, expenses []domain.Expense) domain.SalesSummary {
	summary := domain.SalesSummary{
		TotalSales:         decimal.Zero,
		TotalExpenses:      decimal.Zero,
		Bills:              bills,
		TopItems:           []domain.TopItem{},
		ByPaymentMethod:    []domain.PaymentBreakdown{},
		ExpensesByCategory: []domain.CategoryBreakdown{},
	}
	if summary.Bills == nil {
		summary.Bills = []domain.Bill{}
	}

	quantities := make(map[string]int)
	itemOrder := make([]string, 0, 16)
	payments := make(map[string]int)

	for _, bill := range bills {
		summary.TotalSales = summary.TotalSales.Add(bill.TotalAmount)
		summary.BillCount++

		for _, line := range bill.Items {
			if _, seen := quantities[line.Name]; !seen {
				itemOrder = append(itemOrder, line.Name)
			}
			quantities[line.Name] += line.Quantity
		}

		method := bill.PaymentMethod
		if method == "" {
			method = domain.DefaultPaymentMethod
		}
		idx, ok := payments[method]
		if !ok {
			idx = len(summary.ByPaymentMethod)
			payments[method] = idx
			summary.ByPaymentMethod = append(summary.ByPaymentMethod, domain.PaymentBreakdown{
				PaymentMethod: method,
				Total:         decimal.Zero,
			})
		}
		summary.ByPaymentMethod[idx].Bills++
		summary.ByPaymentMethod[idx].Total = summary.ByPaymentMethod[idx].Total.Add(bill.TotalAmount)
	}

	categories := make(map[string]int)
	for _, expense := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(expense.Amount)

		category := expense.Category
		if category == "" {
			category = domain.DefaultExpenseCategory
		}
		idx, ok := categories[category]
		if !ok {
			idx = len(summary.ExpensesByCategory)
			categories[category] = idx
			summary.ExpensesByCategory = append(summary.ExpensesByCategory, domain.CategoryBreakdown{
				Category: category,
				Total:    decimal.Zero,
			})
		}
		summary.ExpensesByCategory[idx].Entries++
		summary.ExpensesByCategory[idx].Total = summary.ExpensesByCategory[idx].Total.Add(expense.Amount)
	}

	summary.NetProfit = summary.TotalSales.Sub(summary.TotalExpenses)
	summary.TopItems = topItems(quantities, itemOrder, topItemsLimit)

	slices.SortStableFunc(summary.ByPaymentMethod, func(a, b domain.PaymentBreakdown) int {
		return b.Total.Cmp(a.Total)
	})
	slices.SortStableFunc(summary.ExpensesByCategory, func(a, b domain.CategoryBreakdown) int {
		return b.Total.Cmp(a.Total)
	})
	return summary
}

// topItems ranks names by summed quantity. Ties keep first-seen order.
func topItems(quantities map[string]int, order []string, limit int) []domain.TopItem {
	items := make([]domain.TopItem, 0, len(order))
	for _, name := range order {
		items = append(items, domain.TopItem{Name: name, Quantity: quantities[name]})
	}
	slices.SortStableFunc(items, func(a, b domain.TopItem) int {
		return b.Quantity - a.Quantity
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Apply stamps the window onto a summary built by Summarize.
func (w Window) Apply(summary domain.SalesSummary) domain.SalesSummary {
	summary.Range = w.Kind
	summary.From = w.From
	summary.To = w.To
	return summary
}
