package store

import (
	"context"
	"errors"
	"time"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// Repository is the persistence boundary. Every tenant-scoped method takes
// the owner id and must never read or mutate another owner's records; a
// record that exists under a different owner is reported as ErrNotFound.
type Repository interface {
	CreateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error)
	GetOwnerByID(ctx context.Context, id string) (*domain.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error)
	UpdateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error)

	ListMenuItems(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	GetMenuItem(ctx context.Context, ownerID string, id string) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, ownerID string, id string) error
	// DecrementStock subtracts qty from one item's stock as a single atomic
	// increment and returns the resulting value. With floorAtZero the result
	// is clamped at 0, otherwise it may go negative.
	DecrementStock(ctx context.Context, ownerID string, id string, qty int, floorAtZero bool) (int, error)

	CreateBill(ctx context.Context, bill domain.Bill) (*domain.Bill, error)
	GetBill(ctx context.Context, ownerID string, id string) (*domain.Bill, error)
	// ListBills returns bills newest first. A zero from or to leaves that
	// side of the createdAt window open; both bounds are inclusive.
	ListBills(ctx context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Bill, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	// ListExpenses filters on the expense date with the same bound rules as ListBills.
	ListExpenses(ctx context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, ownerID string, id string) error
}
