package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/report"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

func (s *Service) CreateExpense(ctx context.Context, session domain.Session, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if err := s.authorize(session); err != nil {
		return domain.Expense{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Expense{}, fmt.Errorf("%w: title is required", store.ErrInvalidInput)
	}
	if req.Amount == nil || req.Amount.IsNegative() {
		return domain.Expense{}, fmt.Errorf("%w: amount must be zero or more", store.ErrInvalidInput)
	}
	category, ok := normalizeExpenseCategory(req.Category)
	if !ok {
		return domain.Expense{}, fmt.Errorf("%w: unknown category %q", store.ErrInvalidInput, req.Category)
	}

	date, err := parseExpenseDate(req.Date, s.now(), s.loc)
	if err != nil {
		return domain.Expense{}, err
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		Owner:    session.OwnerID,
		Title:    title,
		Amount:   *req.Amount,
		Category: category,
		Date:     date,
	})
	if err != nil {
		return domain.Expense{}, err
	}
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, session domain.Session) ([]domain.Expense, error) {
	if err := s.authorize(session); err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, session.OwnerID, time.Time{}, time.Time{})
}

func (s *Service) DeleteExpense(ctx context.Context, session domain.Session, id string) error {
	if err := s.authorize(session); err != nil {
		return err
	}
	return s.repo.DeleteExpense(ctx, session.OwnerID, strings.TrimSpace(id))
}

// parseExpenseDate reads a backdated expense day. A bare date is local
// midnight in loc; an empty value means now.
func parseExpenseDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC(), nil
	}
	if day, err := time.ParseInLocation(report.DateLayout, raw, loc); err == nil {
		return day.UTC(), nil
	}
	if at, err := time.Parse(time.RFC3339, raw); err == nil {
		return at.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC3339, got %q", store.ErrInvalidInput, raw)
}

func normalizeExpenseCategory(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DefaultExpenseCategory, true
	}
	for _, category := range domain.ExpenseCategories {
		if strings.EqualFold(category, raw) {
			return category, true
		}
	}
	return "", false
}
