package report

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

func mustLocation(t *testing.T) *time.Location {
	t.Helper()
	return time.FixedZone("IST", 5*3600+1800)
}

func TestResolveRangeRollingWindows(t *testing.T) {
	loc := mustLocation(t)
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, loc)

	tests := []struct {
		kind     string
		wantFrom time.Time
	}{
		{kind: "", wantFrom: time.Date(2024, 3, 15, 0, 0, 0, 0, loc)},
		{kind: "today", wantFrom: time.Date(2024, 3, 15, 0, 0, 0, 0, loc)},
		{kind: "week", wantFrom: time.Date(2024, 3, 8, 0, 0, 0, 0, loc)},
		{kind: "MONTH", wantFrom: time.Date(2024, 2, 14, 0, 0, 0, 0, loc)},
	}

	for _, tc := range tests {
		w, err := ResolveRange(RangeSpec{Kind: tc.kind}, now, loc)
		if err != nil {
			t.Fatalf("kind %q: unexpected error: %v", tc.kind, err)
		}
		if !w.From.Equal(tc.wantFrom) {
			t.Fatalf("kind %q: from = %s, want %s", tc.kind, w.From, tc.wantFrom)
		}
		if !w.To.Equal(now) {
			t.Fatalf("kind %q: to = %s, want now", tc.kind, w.To)
		}
	}
}

func TestResolveRangeCustomCoversWholeDays(t *testing.T) {
	loc := mustLocation(t)
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, loc)

	w, err := ResolveRange(RangeSpec{Kind: "custom", From: "2024-01-01", To: "2024-01-31"}, now, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, loc); !w.From.Equal(want) {
		t.Fatalf("from = %s, want %s", w.From, want)
	}
	if want := time.Date(2024, 1, 31, 23, 59, 59, 999000000, loc); !w.To.Equal(want) {
		t.Fatalf("to = %s, want %s", w.To, want)
	}

	single, err := ResolveRange(RangeSpec{Kind: "custom", From: "2024-02-10", To: "2024-02-10"}, now, loc)
	if err != nil {
		t.Fatalf("single day: unexpected error: %v", err)
	}
	if single.To.Sub(single.From) != 24*time.Hour-time.Millisecond {
		t.Fatalf("single day span = %s", single.To.Sub(single.From))
	}
}

func TestResolveRangeRejectsBadInput(t *testing.T) {
	loc := mustLocation(t)
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, loc)

	cases := []RangeSpec{
		{Kind: "custom"},
		{Kind: "custom", From: "2024-01-01"},
		{Kind: "custom", From: "01/01/2024", To: "2024-01-31"},
		{Kind: "custom", From: "2024-02-01", To: "2024-01-31"},
		{Kind: "yearly"},
	}
	for _, spec := range cases {
		if _, err := ResolveRange(spec, now, loc); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("spec %+v: expected invalid input, got %v", spec, err)
		}
	}
}

func bill(total int64, method string, lines ...domain.BillLine) domain.Bill {
	return domain.Bill{TotalAmount: decimal.NewFromInt(total), PaymentMethod: method, Items: lines}
}

func line(name string, qty int) domain.BillLine {
	return domain.BillLine{Name: name, Price: decimal.NewFromInt(10), Quantity: qty}
}

func TestSummarizeTotalsAndTopItems(t *testing.T) {
	bills := []domain.Bill{
		bill(100, "UPI", line("A", 2), line("B", 5)),
		bill(150, "Cash", line("A", 4)),
	}
	expenses := []domain.Expense{
		{Amount: decimal.NewFromInt(300), Category: "Rent"},
	}

	summary := Summarize(bills, expenses)
	if !summary.TotalSales.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("totalSales = %s", summary.TotalSales)
	}
	if !summary.NetProfit.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("expected signed net profit -50, got %s", summary.NetProfit)
	}
	if summary.BillCount != 2 || len(summary.Bills) != 2 {
		t.Fatalf("billCount = %d", summary.BillCount)
	}
	if len(summary.TopItems) != 2 ||
		summary.TopItems[0] != (domain.TopItem{Name: "A", Quantity: 6}) ||
		summary.TopItems[1] != (domain.TopItem{Name: "B", Quantity: 5}) {
		t.Fatalf("unexpected top items: %+v", summary.TopItems)
	}
	if len(summary.ByPaymentMethod) != 2 || summary.ByPaymentMethod[0].PaymentMethod != "Cash" {
		t.Fatalf("unexpected payment breakdown: %+v", summary.ByPaymentMethod)
	}
	if len(summary.ExpensesByCategory) != 1 || summary.ExpensesByCategory[0].Entries != 1 {
		t.Fatalf("unexpected expense breakdown: %+v", summary.ExpensesByCategory)
	}
}

func TestSummarizeTopItemsCapsAtFiveAndKeepsTieOrder(t *testing.T) {
	bills := []domain.Bill{
		bill(10, "Cash", line("first", 1), line("second", 1), line("third", 3)),
		bill(10, "Cash", line("fourth", 1), line("fifth", 1), line("sixth", 1)),
	}

	top := Summarize(bills, nil).TopItems
	if len(top) != 5 {
		t.Fatalf("expected 5 top items, got %d", len(top))
	}
	want := []string{"third", "first", "second", "fourth", "fifth"}
	for i, name := range want {
		if top[i].Name != name {
			t.Fatalf("position %d: got %s, want %s (%+v)", i, top[i].Name, name, top)
		}
	}
}

func TestSummarizeIsAdditiveOverSplitInputs(t *testing.T) {
	older := []domain.Bill{bill(40, "Cash", line("A", 1))}
	newer := []domain.Bill{bill(60, "Card", line("B", 2))}
	olderExp := []domain.Expense{{Amount: decimal.NewFromInt(15)}}
	newerExp := []domain.Expense{{Amount: decimal.NewFromInt(5)}}

	whole := Summarize(append(append([]domain.Bill{}, newer...), older...), append(append([]domain.Expense{}, newerExp...), olderExp...))
	a := Summarize(older, olderExp)
	b := Summarize(newer, newerExp)

	if !whole.TotalSales.Equal(a.TotalSales.Add(b.TotalSales)) {
		t.Fatalf("sales not additive: %s vs %s+%s", whole.TotalSales, a.TotalSales, b.TotalSales)
	}
	if !whole.TotalExpenses.Equal(a.TotalExpenses.Add(b.TotalExpenses)) {
		t.Fatalf("expenses not additive")
	}
	if whole.BillCount != a.BillCount+b.BillCount {
		t.Fatalf("bill count not additive")
	}
}

func TestSummarizeEmptyInputsYieldZeros(t *testing.T) {
	summary := Summarize(nil, nil)
	if !summary.TotalSales.IsZero() || !summary.TotalExpenses.IsZero() || !summary.NetProfit.IsZero() {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
	if summary.BillCount != 0 || summary.Bills == nil || summary.TopItems == nil {
		t.Fatalf("expected empty non-nil collections, got %+v", summary)
	}
}

func TestWindowApplyStampsRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	summary := Window{Kind: RangeCustom, From: from, To: to}.Apply(domain.SalesSummary{})
	if summary.Range != RangeCustom || !summary.From.Equal(from) || !summary.To.Equal(to) {
		t.Fatalf("unexpected stamped summary: %+v", summary)
	}
}
