package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

// CreateBill records one sale from the submitted cart and then decrements
// stock for every line that references a menu item. The bill is written
// first; stock updates are best effort and never undo it.
func (s *Service) CreateBill(ctx context.Context, session domain.Session, req domain.CreateBillRequest) (domain.CreateBillResult, error) {
	if err := s.authorize(session); err != nil {
		return domain.CreateBillResult{}, err
	}
	if len(req.Items) == 0 {
		return domain.CreateBillResult{}, fmt.Errorf("%w: cart is empty", store.ErrInvalidInput)
	}

	lines := make([]domain.BillLine, 0, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		name := strings.TrimSpace(item.Name)
		switch {
		case name == "":
			return domain.CreateBillResult{}, fmt.Errorf("%w: item %d has no name", store.ErrInvalidInput, i)
		case item.Price == nil:
			return domain.CreateBillResult{}, fmt.Errorf("%w: item %d has no price", store.ErrInvalidInput, i)
		case item.Price.IsNegative():
			return domain.CreateBillResult{}, fmt.Errorf("%w: item %d has a negative price", store.ErrInvalidInput, i)
		case item.Quantity == nil:
			return domain.CreateBillResult{}, fmt.Errorf("%w: item %d has no quantity", store.ErrInvalidInput, i)
		case *item.Quantity < 1:
			return domain.CreateBillResult{}, fmt.Errorf("%w: item %d quantity must be at least 1", store.ErrInvalidInput, i)
		}

		line := domain.BillLine{
			MenuItemID: strings.TrimSpace(item.MenuItemID),
			Name:       name,
			Price:      *item.Price,
			Quantity:   *item.Quantity,
		}
		subtotal = subtotal.Add(line.Amount())
		lines = append(lines, line)
	}

	total := subtotal
	if req.TotalAmount != nil {
		// Tax and discounts are folded in by the till; the submitted figure wins.
		if req.TotalAmount.IsNegative() {
			return domain.CreateBillResult{}, fmt.Errorf("%w: totalAmount must not be negative", store.ErrInvalidInput)
		}
		total = *req.TotalAmount
	}

	bill := domain.Bill{
		Owner:         session.OwnerID,
		CustomerName:  defaultString(strings.TrimSpace(req.CustomerName), domain.DefaultCustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Items:         lines,
		TotalAmount:   total,
		PaymentMethod: defaultString(strings.TrimSpace(req.PaymentMethod), domain.DefaultPaymentMethod),
		CreatedAt:     s.now().UTC(),
	}

	created, err := s.repo.CreateBill(ctx, bill)
	if err != nil {
		return domain.CreateBillResult{}, err
	}

	updates := s.applyStockDecrements(ctx, session.OwnerID, created.Items)
	if len(updates) > 0 {
		s.invalidatePublicMenu(ctx, session.OwnerID)
	}

	return domain.CreateBillResult{Bill: *created, StockUpdates: updates}, nil
}

// applyStockDecrements issues one independent decrement per catalog line.
// A failed line is logged and reported; the remaining lines still run.
func (s *Service) applyStockDecrements(ctx context.Context, ownerID string, lines []domain.BillLine) []domain.StockUpdate {
	updates := make([]domain.StockUpdate, 0, len(lines))
	for _, line := range lines {
		if line.MenuItemID == "" {
			continue
		}

		update := domain.StockUpdate{MenuItemID: line.MenuItemID, Quantity: line.Quantity}
		stock, err := s.repo.DecrementStock(ctx, ownerID, line.MenuItemID, line.Quantity, s.floorAtZero)
		if err != nil {
			log.Printf("[billing] WARN: stock decrement failed owner=%s item=%s qty=%d: %v", ownerID, line.MenuItemID, line.Quantity, err)
			update.Error = err.Error()
		} else {
			update.Applied = true
			update.Stock = &stock
		}
		updates = append(updates, update)
	}
	return updates
}

func (s *Service) ListBills(ctx context.Context, session domain.Session) ([]domain.Bill, error) {
	if err := s.authorize(session); err != nil {
		return nil, err
	}
	return s.repo.ListBills(ctx, session.OwnerID, time.Time{}, time.Time{})
}

func (s *Service) GetBill(ctx context.Context, session domain.Session, id string) (domain.Bill, error) {
	if err := s.authorize(session); err != nil {
		return domain.Bill{}, err
	}

	bill, err := s.repo.GetBill(ctx, session.OwnerID, strings.TrimSpace(id))
	if err != nil {
		return domain.Bill{}, err
	}
	return *bill, nil
}

func defaultString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
