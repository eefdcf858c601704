package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCategory        = "General"
	DefaultCustomerName    = "Guest"
	DefaultPaymentMethod   = "Cash"
	DefaultExpenseCategory = "Inventory"
	DefaultCurrencySymbol  = "₹"
)

var ExpenseCategories = []string{"Inventory", "Utilities", "Salary", "Rent", "Other"}

type Owner struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	CafeName       string    `json:"cafeName"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	TaxID          string    `json:"taxId"`
	CurrencySymbol string    `json:"currencySymbol"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	CafeName string `json:"cafeName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	Owner     Owner  `json:"owner"`
}

type ProfileUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	CafeName       *string `json:"cafeName,omitempty"`
	Address        *string `json:"address,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	TaxID          *string `json:"taxId,omitempty"`
	CurrencySymbol *string `json:"currencySymbol,omitempty"`
}

type MenuItem struct {
	ID        string          `json:"_id"`
	Owner     string          `json:"owner"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type MenuItemRequest struct {
	Name     *string          `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Category *string          `json:"category,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
}

type StockLevel struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
}

type LowStockResponse struct {
	Threshold int          `json:"threshold"`
	Items     []StockLevel `json:"items"`
}

type PublicMenuItem struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
	LowStock  bool            `json:"lowStock"`
}

type PublicMenu struct {
	OwnerID        string           `json:"ownerId"`
	CafeName       string           `json:"cafeName"`
	CurrencySymbol string           `json:"currencySymbol"`
	Items          []PublicMenuItem `json:"items"`
}

// BillLine is a snapshot of a sold item; it does not follow later menu edits.
type BillLine struct {
	MenuItemID string          `json:"menuItemId,omitempty"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

func (l BillLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Bill struct {
	ID            string          `json:"_id"`
	Owner         string          `json:"owner"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Items         []BillLine      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Subtotal sums line amounts. It differs from TotalAmount when tax or a
// discount was folded in by the till.
func (b Bill) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.Items {
		total = total.Add(line.Amount())
	}
	return total
}

type CartLine struct {
	MenuItemID string           `json:"_id,omitempty"`
	Name       string           `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	Quantity   *int             `json:"quantity"`
}

type CreateBillRequest struct {
	Items         []CartLine       `json:"items"`
	TotalAmount   *decimal.Decimal `json:"totalAmount,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	CustomerName  string           `json:"customerName,omitempty"`
	CustomerPhone string           `json:"customerPhone,omitempty"`
}

// StockUpdate reports the outcome of one post-commit stock decrement.
type StockUpdate struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Applied    bool   `json:"applied"`
	Stock      *int   `json:"stock,omitempty"`
	Error      string `json:"error,omitempty"`
}

type CreateBillResult struct {
	Bill
	StockUpdates []StockUpdate `json:"stockUpdates"`
}

type Expense struct {
	ID        string          `json:"_id"`
	Owner     string          `json:"owner"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ExpenseCreateRequest.Date accepts an empty value (now), a YYYY-MM-DD day
// or an RFC3339 timestamp.
type ExpenseCreateRequest struct {
	Title    string           `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	Category string           `json:"category,omitempty"`
	Date     string           `json:"date,omitempty"`
}

type TopItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type PaymentBreakdown struct {
	PaymentMethod string          `json:"paymentMethod"`
	Bills         int             `json:"bills"`
	Total         decimal.Decimal `json:"total"`
}

type CategoryBreakdown struct {
	Category string          `json:"category"`
	Entries  int             `json:"entries"`
	Total    decimal.Decimal `json:"total"`
}

type SalesSummary struct {
	Range              string              `json:"range"`
	From               time.Time           `json:"from"`
	To                 time.Time           `json:"to"`
	TotalSales         decimal.Decimal     `json:"totalSales"`
	TotalExpenses      decimal.Decimal     `json:"totalExpenses"`
	NetProfit          decimal.Decimal     `json:"netProfit"`
	BillCount          int                 `json:"billCount"`
	Bills              []Bill              `json:"bills"`
	TopItems           []TopItem           `json:"topItems"`
	ByPaymentMethod    []PaymentBreakdown  `json:"byPaymentMethod"`
	ExpensesByCategory []CategoryBreakdown `json:"expensesByCategory"`
}
