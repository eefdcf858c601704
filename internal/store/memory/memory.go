package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/xid"
)

type Store struct {
	mu           sync.RWMutex
	owners       map[string]domain.Owner
	ownerByEmail map[string]string
	menuItems    map[string]domain.MenuItem
	bills        []domain.Bill
	expenses     map[string]domain.Expense
	expenseOrder []string
	now          func() time.Time
}

func New() *Store {
	return &Store{
		owners:       make(map[string]domain.Owner),
		ownerByEmail: make(map[string]string),
		menuItems:    make(map[string]domain.MenuItem),
		bills:        make([]domain.Bill, 0, 64),
		expenses:     make(map[string]domain.Expense),
		expenseOrder: make([]string, 0, 32),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// NewSeeded returns a store holding one demo café for dev mode. The owner's
// credentials come from SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD; unset
// values fall back to dev defaults with a warning.
func NewSeeded() *Store {
	s := New()

	email := envOr("SEED_OWNER_EMAIL", "owner@cafe.local")
	password := envOr("SEED_OWNER_PASSWORD", "owner12345")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev owner credentials. Set SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}

	owner, err := s.CreateOwner(context.Background(), domain.Owner{
		Name:         "Demo Owner",
		CafeName:     "Demo Café",
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		log.Fatalf("[memory-store] failed to seed owner: %v", err)
	}

	for _, item := range []struct {
		name     string
		price    int64
		category string
		stock    int
	}{
		{"Espresso", 90, "Coffee", 60},
		{"Latte", 150, "Coffee", 45},
		{"Cappuccino", 140, "Coffee", 40},
		{"Masala Chai", 60, "Tea", 80},
		{"Blueberry Muffin", 80, "Bakery", 18},
		{"Croissant", 110, "Bakery", 8},
		{"Veg Sandwich", 160, "Snacks", 25},
	} {
		_, err := s.CreateMenuItem(context.Background(), domain.MenuItem{
			Owner:    owner.ID,
			Name:     item.name,
			Price:    decimal.NewFromInt(item.price),
			Category: item.category,
			Stock:    item.stock,
		})
		if err != nil {
			log.Fatalf("[memory-store] failed to seed menu item %s: %v", item.name, err)
		}
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateOwner(_ context.Context, owner domain.Owner) (*domain.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner.Email = strings.ToLower(strings.TrimSpace(owner.Email))
	if owner.Email == "" || owner.PasswordHash == "" {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.ownerByEmail[owner.Email]; exists {
		return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
	}

	now := s.now()
	owner.ID = xid.New()
	if owner.CurrencySymbol == "" {
		owner.CurrencySymbol = domain.DefaultCurrencySymbol
	}
	owner.CreatedAt = now
	owner.UpdatedAt = now

	s.owners[owner.ID] = owner
	s.ownerByEmail[owner.Email] = owner.ID
	created := owner
	return &created, nil
}

func (s *Store) GetOwnerByID(_ context.Context, id string) (*domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &owner, nil
}

func (s *Store) GetOwnerByEmail(_ context.Context, email string) (*domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ownerByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, store.ErrNotFound
	}
	owner := s.owners[id]
	return &owner, nil
}

func (s *Store) UpdateOwner(_ context.Context, owner domain.Owner) (*domain.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.owners[owner.ID]
	if !ok {
		return nil, store.ErrNotFound
	}

	// Identity fields are not editable through a profile update.
	owner.Email = existing.Email
	owner.PasswordHash = existing.PasswordHash
	owner.CreatedAt = existing.CreatedAt
	owner.UpdatedAt = s.now()
	s.owners[owner.ID] = owner
	updated := owner
	return &updated, nil
}

func (s *Store) ListMenuItems(_ context.Context, ownerID string) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.MenuItem, 0, 32)
	for _, item := range s.menuItems {
		if item.Owner != ownerID {
			continue
		}
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b domain.MenuItem) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return items, nil
}

func (s *Store) CreateMenuItem(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Owner == "" || item.Name == "" || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	now := s.now()
	item.ID = xid.New()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.menuItems[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetMenuItem(_ context.Context, ownerID string, id string) (*domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.menuItems[id]
	if !ok || item.Owner != ownerID {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Name == "" || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	existing, ok := s.menuItems[item.ID]
	if !ok || existing.Owner != item.Owner {
		return nil, store.ErrNotFound
	}

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.now()
	s.menuItems[item.ID] = item
	updated := item
	return &updated, nil
}

func (s *Store) DeleteMenuItem(_ context.Context, ownerID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.menuItems[id]
	if !ok || item.Owner != ownerID {
		return store.ErrNotFound
	}
	delete(s.menuItems, id)
	return nil
}

func (s *Store) DecrementStock(_ context.Context, ownerID string, id string, qty int, floorAtZero bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 1 {
		return 0, store.ErrInvalidInput
	}
	item, ok := s.menuItems[id]
	if !ok || item.Owner != ownerID {
		return 0, store.ErrNotFound
	}

	item.Stock -= qty
	if floorAtZero && item.Stock < 0 {
		item.Stock = 0
	}
	item.UpdatedAt = s.now()
	s.menuItems[id] = item
	return item.Stock, nil
}

func (s *Store) CreateBill(_ context.Context, bill domain.Bill) (*domain.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bill.Owner == "" || len(bill.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	bill.ID = xid.New()
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = s.now()
	}
	bill = cloneBill(bill)
	s.bills = append(s.bills, bill)
	created := cloneBill(bill)
	return &created, nil
}

func (s *Store) GetBill(_ context.Context, ownerID string, id string) (*domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, bill := range s.bills {
		if bill.ID == id && bill.Owner == ownerID {
			found := cloneBill(bill)
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListBills(_ context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Bill, 0, 32)
	// Walk backwards so equal timestamps keep newest-inserted first.
	for i := len(s.bills) - 1; i >= 0; i-- {
		bill := s.bills[i]
		if bill.Owner != ownerID || !inWindow(bill.CreatedAt, from, to) {
			continue
		}
		result = append(result, cloneBill(bill))
	}

	slices.SortStableFunc(result, func(a, b domain.Bill) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.Owner == "" || expense.Title == "" || expense.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	now := s.now()
	expense.ID = xid.New()
	expense.CreatedAt = now
	if expense.Date.IsZero() {
		expense.Date = now
	}
	s.expenses[expense.ID] = expense
	s.expenseOrder = append(s.expenseOrder, expense.ID)
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, 32)
	for i := len(s.expenseOrder) - 1; i >= 0; i-- {
		expense, ok := s.expenses[s.expenseOrder[i]]
		if !ok || expense.Owner != ownerID || !inWindow(expense.Date, from, to) {
			continue
		}
		result = append(result, expense)
	}

	slices.SortStableFunc(result, func(a, b domain.Expense) int {
		return b.Date.Compare(a.Date)
	})
	return result, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense, ok := s.expenses[id]
	if !ok || expense.Owner != ownerID {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	s.expenseOrder = slices.DeleteFunc(s.expenseOrder, func(candidate string) bool {
		return candidate == id
	})
	return nil
}

func inWindow(at time.Time, from time.Time, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && at.After(to) {
		return false
	}
	return true
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneBill(src domain.Bill) domain.Bill {
	dup := src
	items := make([]domain.BillLine, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}
