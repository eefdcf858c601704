package service

import (
	"context"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/report"
)

// SalesSummary aggregates bills and expenses over one resolved window.
// Bills and expenses are read separately; a write landing between the two
// reads may show up in only one of them.
func (s *Service) SalesSummary(ctx context.Context, session domain.Session, spec report.RangeSpec) (domain.SalesSummary, error) {
	if err := s.authorize(session); err != nil {
		return domain.SalesSummary{}, err
	}

	window, err := report.ResolveRange(spec, s.now(), s.loc)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	bills, err := s.repo.ListBills(ctx, session.OwnerID, window.From, window.To)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, session.OwnerID, window.From, window.To)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	return window.Apply(report.Summarize(bills, expenses)), nil
}
