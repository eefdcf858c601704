package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
)

const exportTimeLayout = "2006-01-02 15:04"

func exportFilename(summary domain.SalesSummary) string {
	return fmt.Sprintf("sales-%s-%s", summary.From.Format("20060102"), summary.To.Format("20060102"))
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// csvText keeps spreadsheet apps from evaluating owner- or customer-typed
// text as a formula.
func csvText(value string) string {
	if value != "" && strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return "'" + value
	}
	return value
}

func salesSummaryToCSV(summary domain.SalesSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "range", summary.Range},
		{"summary", "from", summary.From.Format(time.RFC3339)},
		{"summary", "to", summary.To.Format(time.RFC3339)},
		{"summary", "bill_count", strconv.Itoa(summary.BillCount)},
		{"summary", "total_sales", money(summary.TotalSales)},
		{"summary", "total_expenses", money(summary.TotalExpenses)},
		{"summary", "net_profit", money(summary.NetProfit)},
	}
	for _, item := range summary.TopItems {
		rows = append(rows, []string{"top_item", csvText(item.Name), strconv.Itoa(item.Quantity)})
	}
	for _, payment := range summary.ByPaymentMethod {
		rows = append(rows, []string{"payment", csvText(payment.PaymentMethod + "_bills"), strconv.Itoa(payment.Bills)})
		rows = append(rows, []string{"payment", csvText(payment.PaymentMethod + "_total"), money(payment.Total)})
	}
	for _, category := range summary.ExpensesByCategory {
		rows = append(rows, []string{"expense", csvText(category.Category), money(category.Total)})
	}
	for _, bill := range summary.Bills {
		rows = append(rows, []string{"bill", bill.ID, money(bill.TotalAmount)})
	}

	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func salesSummaryToXLSX(summary domain.SalesSummary) (book *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	summaryRows := [][]any{
		{"Range", summary.Range},
		{"From", summary.From.Format(exportTimeLayout)},
		{"To", summary.To.Format(exportTimeLayout)},
		{"Bills", summary.BillCount},
		{"Total sales", summary.TotalSales.InexactFloat64()},
		{"Total expenses", summary.TotalExpenses.InexactFloat64()},
		{"Net profit", summary.NetProfit.InexactFloat64()},
	}
	if err := writeSheetRows(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}

	billRows := [][]any{{"Bill", "Created", "Customer", "Payment", "Items", "Total"}}
	for _, bill := range summary.Bills {
		billRows = append(billRows, []any{
			bill.ID,
			bill.CreatedAt.Format(exportTimeLayout),
			bill.CustomerName,
			bill.PaymentMethod,
			len(bill.Items),
			bill.TotalAmount.InexactFloat64(),
		})
	}
	if err := addSheet(f, "Bills", billRows); err != nil {
		return nil, err
	}

	itemRows := [][]any{{"Item", "Quantity"}}
	for _, item := range summary.TopItems {
		itemRows = append(itemRows, []any{item.Name, item.Quantity})
	}
	if err := addSheet(f, "Top Items", itemRows); err != nil {
		return nil, err
	}

	expenseRows := [][]any{{"Category", "Entries", "Total"}}
	for _, category := range summary.ExpensesByCategory {
		expenseRows = append(expenseRows, []any{category.Category, category.Entries, category.Total.InexactFloat64()})
	}
	if err := addSheet(f, "Expenses", expenseRows); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth("Bills", "A", "A", 38)
	_ = f.SetColWidth("Bills", "B", "D", 18)
	return f, nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeSheetRows(f, name, rows)
}

func writeSheetRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

var exportFuncs = template.FuncMap{
	"money": money,
	"stamp": func(t time.Time) string { return t.Format(exportTimeLayout) },
}

// html/template escapes every owner- and customer-supplied field.
var salesSummaryHTMLTmpl = template.Must(template.New("sales-summary").Funcs(exportFuncs).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Sales {{.Summary.Range}} - {{.Owner.CafeName}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>{{.Owner.CafeName}} sales report</h2>
  <p>{{stamp .Summary.From}} to {{stamp .Summary.To}} ({{.Summary.Range}})</p>
  <p>Bills: {{.Summary.BillCount}} | Sales: {{.Owner.CurrencySymbol}}{{money .Summary.TotalSales}} | Expenses: {{.Owner.CurrencySymbol}}{{money .Summary.TotalExpenses}} | Net: {{.Owner.CurrencySymbol}}{{money .Summary.NetProfit}}</p>

  <h3>Top Items</h3>
  <table>
    <thead><tr><th>Item</th><th>Quantity</th></tr></thead>
    <tbody>{{range .Summary.TopItems}}<tr><td>{{.Name}}</td><td style="text-align:right;">{{.Quantity}}</td></tr>{{end}}</tbody>
  </table>

  <h3>By Payment</h3>
  <table>
    <thead><tr><th>Payment</th><th>Bills</th><th>Total</th></tr></thead>
    <tbody>{{range .Summary.ByPaymentMethod}}<tr><td>{{.PaymentMethod}}</td><td style="text-align:right;">{{.Bills}}</td><td style="text-align:right;">{{money .Total}}</td></tr>{{end}}</tbody>
  </table>

  <h3>Expenses</h3>
  <table>
    <thead><tr><th>Category</th><th>Entries</th><th>Total</th></tr></thead>
    <tbody>{{range .Summary.ExpensesByCategory}}<tr><td>{{.Category}}</td><td style="text-align:right;">{{.Entries}}</td><td style="text-align:right;">{{money .Total}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

func salesSummaryToPrintableHTML(owner domain.Owner, summary domain.SalesSummary) string {
	var buf bytes.Buffer
	err := salesSummaryHTMLTmpl.Execute(&buf, struct {
		Owner   domain.Owner
		Summary domain.SalesSummary
	}{owner, summary})
	if err != nil {
		return "<!doctype html><html><body><p>Report rendering error.</p></body></html>"
	}
	return buf.String()
}

var receiptHTMLTmpl = template.Must(template.New("receipt").Funcs(exportFuncs).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Receipt {{.Bill.ID}}</title>
  <style>
    body { font-family: monospace; width: 300px; margin: 16px auto; }
    table { width: 100%; border-collapse: collapse; }
    td { padding: 2px 0; font-size: 12px; }
    .r { text-align: right; }
    .c { text-align: center; }
  </style>
</head>
<body>
  <div class="c">
    <strong>{{.Owner.CafeName}}</strong><br />
    {{if .Owner.Address}}{{.Owner.Address}}<br />{{end}}
    {{if .Owner.Phone}}Ph: {{.Owner.Phone}}<br />{{end}}
    {{if .Owner.TaxID}}GSTIN: {{.Owner.TaxID}}<br />{{end}}
  </div>
  <hr />
  <p>Bill: {{.Bill.ID}}<br />Date: {{stamp .Bill.CreatedAt}}<br />Customer: {{.Bill.CustomerName}}{{if .Bill.CustomerPhone}} ({{.Bill.CustomerPhone}}){{end}}</p>
  <table>
    {{range .Bill.Items}}<tr><td>{{.Name}} x{{.Quantity}}</td><td class="r">{{money .Amount}}</td></tr>{{end}}
  </table>
  <hr />
  <table>
    <tr><td>Subtotal</td><td class="r">{{$.Owner.CurrencySymbol}}{{money .Subtotal}}</td></tr>
    {{if .HasAdjustment}}<tr><td>Tax / discount</td><td class="r">{{$.Owner.CurrencySymbol}}{{money .Adjustment}}</td></tr>{{end}}
    <tr><td><strong>Total</strong></td><td class="r"><strong>{{$.Owner.CurrencySymbol}}{{money .Bill.TotalAmount}}</strong></td></tr>
    <tr><td>Paid by</td><td class="r">{{.Bill.PaymentMethod}}</td></tr>
  </table>
  <p class="c">Thank you, visit again!</p>
</body>
</html>
`))

func billToReceiptHTML(owner domain.Owner, bill domain.Bill) string {
	subtotal := bill.Subtotal()
	adjustment := bill.TotalAmount.Sub(subtotal)

	var buf bytes.Buffer
	err := receiptHTMLTmpl.Execute(&buf, struct {
		Owner         domain.Owner
		Bill          domain.Bill
		Subtotal      decimal.Decimal
		Adjustment    decimal.Decimal
		HasAdjustment bool
	}{owner, bill, subtotal, adjustment, !adjustment.IsZero()})
	if err != nil {
		return "<!doctype html><html><body><p>Receipt rendering error.</p></body></html>"
	}
	return buf.String()
}
