package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

func newOwner(t *testing.T, s *Store, email string) *domain.Owner {
	t.Helper()
	owner, err := s.CreateOwner(context.Background(), domain.Owner{Name: "Owner", CafeName: "Cafe", Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return owner
}

func TestCreateOwnerNormalizesAndRejectsDuplicateEmail(t *testing.T) {
	s := New()
	owner := newOwner(t, s, "  Owner@Cafe.Test ")
	if owner.Email != "owner@cafe.test" {
		t.Fatalf("expected normalized email, got %q", owner.Email)
	}
	if owner.CurrencySymbol != domain.DefaultCurrencySymbol {
		t.Fatalf("expected default currency symbol, got %q", owner.CurrencySymbol)
	}

	_, err := s.CreateOwner(context.Background(), domain.Owner{Email: "owner@cafe.test", PasswordHash: "hash"})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	found, err := s.GetOwnerByEmail(context.Background(), "OWNER@cafe.test")
	if err != nil || found.ID != owner.ID {
		t.Fatalf("expected lookup by email to find owner, got %+v (%v)", found, err)
	}
}

func TestDecrementStockIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := newOwner(t, s, "a@cafe.test")
	b := newOwner(t, s, "b@cafe.test")

	item, err := s.CreateMenuItem(ctx, domain.MenuItem{Owner: a.ID, Name: "Tea", Price: decimal.NewFromInt(40), Stock: 1})
	if err != nil {
		t.Fatalf("create menu item: %v", err)
	}

	if _, err := s.DecrementStock(ctx, b.ID, item.ID, 1, false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected other owner to miss item, got %v", err)
	}
	if stock, err := s.DecrementStock(ctx, a.ID, item.ID, 4, false); err != nil || stock != -3 {
		t.Fatalf("expected stock -3, got %d (%v)", stock, err)
	}
	if stock, err := s.DecrementStock(ctx, a.ID, item.ID, 1, true); err != nil || stock != 0 {
		t.Fatalf("expected clamped stock 0, got %d (%v)", stock, err)
	}
	if _, err := s.DecrementStock(ctx, a.ID, item.ID, 0, false); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected zero quantity to be rejected, got %v", err)
	}
}

func TestListBillsWindowAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := newOwner(t, s, "bills@cafe.test")
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{0, 2 * time.Hour, time.Hour} {
		_, err := s.CreateBill(ctx, domain.Bill{
			Owner:        owner.ID,
			CustomerName: "Guest",
			TotalAmount:  decimal.NewFromInt(int64(100 * (i + 1))),
			Items:        []domain.BillLine{{Name: "Tea", Price: decimal.NewFromInt(100), Quantity: i + 1}},
			CreatedAt:    base.Add(offset),
		})
		if err != nil {
			t.Fatalf("create bill: %v", err)
		}
	}

	all, err := s.ListBills(ctx, owner.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	if len(all) != 3 || !all[0].CreatedAt.Equal(base.Add(2*time.Hour)) || !all[2].CreatedAt.Equal(base) {
		t.Fatalf("expected newest first, got %+v", all)
	}

	window, err := s.ListBills(ctx, owner.ID, base.Add(time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("list bills in window: %v", err)
	}
	if len(window) != 1 || !window[0].CreatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected inclusive single-instant window, got %+v", window)
	}
}

func TestStoredBillIsNotAliased(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := newOwner(t, s, "alias@cafe.test")

	created, err := s.CreateBill(ctx, domain.Bill{
		Owner: owner.ID,
		Items: []domain.BillLine{{Name: "Tea", Price: decimal.NewFromInt(40), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	created.Items[0].Quantity = 99

	got, err := s.GetBill(ctx, owner.ID, created.ID)
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if got.Items[0].Quantity != 1 {
		t.Fatalf("expected stored quantity 1, got %d", got.Items[0].Quantity)
	}
}

func TestNewSeededHasOwnerAndMenu(t *testing.T) {
	t.Setenv("SEED_OWNER_EMAIL", "seed@cafe.test")
	t.Setenv("SEED_OWNER_PASSWORD", "seed-password")

	s := NewSeeded()
	owner, err := s.GetOwnerByEmail(context.Background(), "seed@cafe.test")
	if err != nil {
		t.Fatalf("expected seeded owner: %v", err)
	}
	items, err := s.ListMenuItems(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("list menu: %v", err)
	}
	if len(items) != 7 {
		t.Fatalf("expected 7 seeded items, got %d", len(items))
	}
}
