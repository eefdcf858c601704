package httpapi

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
)

func TestSalesCSVNeutralizesFormulaText(t *testing.T) {
	summary := domain.SalesSummary{
		Range:         "today",
		TotalSales:    decimal.NewFromInt(10),
		TotalExpenses: decimal.NewFromInt(60),
		NetProfit:     decimal.NewFromInt(-50),
		TopItems:      []domain.TopItem{{Name: "=HYPERLINK(\"http://evil.test\")", Quantity: 2}, {Name: "Latte", Quantity: 1}},
		ByPaymentMethod: []domain.PaymentBreakdown{
			{PaymentMethod: "@cmd", Bills: 1, Total: decimal.NewFromInt(10)},
		},
		ExpensesByCategory: []domain.CategoryBreakdown{
			{Category: "+Rent", Entries: 1, Total: decimal.NewFromInt(60)},
		},
	}

	body, err := salesSummaryToCSV(summary)
	if err != nil {
		t.Fatalf("csv export: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}

	got := make(map[string][]string)
	for _, record := range records {
		got[record[0]+"|"+record[1]] = record
	}
	for _, key := range []string{
		"top_item|'=HYPERLINK(\"http://evil.test\")",
		"top_item|Latte",
		"payment|'@cmd_bills",
		"expense|'+Rent",
	} {
		if _, ok := got[key]; !ok {
			t.Fatalf("expected row %q in export, got %v", key, records)
		}
	}
	if net := got["summary|net_profit"]; len(net) != 3 || net[2] != "-50.00" {
		t.Fatalf("expected numeric net profit to stay unprefixed, got %v", net)
	}
}

func TestCSVText(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"Latte":   "Latte",
		"=1+1":    "'=1+1",
		"-2":      "'-2",
		"@SUM(A)": "'@SUM(A)",
		"\tx":     "'\tx",
	}
	for in, want := range cases {
		if got := csvText(in); got != want {
			t.Fatalf("csvText(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSalesXLSXHasAllSheets(t *testing.T) {
	book, err := salesSummaryToXLSX(domain.SalesSummary{Range: "week"})
	if err != nil {
		t.Fatalf("xlsx export: %v", err)
	}
	defer book.Close()

	want := []string{"Summary", "Bills", "Top Items", "Expenses"}
	sheets := book.GetSheetList()
	if len(sheets) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, sheets)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Fatalf("expected sheets %v, got %v", want, sheets)
		}
	}
}
