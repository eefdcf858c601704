package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

func (s *Service) Profile(ctx context.Context, session domain.Session) (domain.Owner, error) {
	if err := s.authorize(session); err != nil {
		return domain.Owner{}, err
	}

	owner, err := s.repo.GetOwnerByID(ctx, session.OwnerID)
	if err != nil {
		return domain.Owner{}, err
	}
	return *owner, nil
}

func (s *Service) UpdateProfile(ctx context.Context, session domain.Session, req domain.ProfileUpdateRequest) (domain.Owner, error) {
	if err := s.authorize(session); err != nil {
		return domain.Owner{}, err
	}

	existing, err := s.repo.GetOwnerByID(ctx, session.OwnerID)
	if err != nil {
		return domain.Owner{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Owner{}, fmt.Errorf("%w: name must not be empty", store.ErrInvalidInput)
		}
		updated.Name = name
	}
	if req.CafeName != nil {
		cafeName := strings.TrimSpace(*req.CafeName)
		if cafeName == "" {
			return domain.Owner{}, fmt.Errorf("%w: cafeName must not be empty", store.ErrInvalidInput)
		}
		updated.CafeName = cafeName
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.TaxID != nil {
		updated.TaxID = strings.TrimSpace(*req.TaxID)
	}
	if req.CurrencySymbol != nil {
		symbol := strings.TrimSpace(*req.CurrencySymbol)
		if symbol == "" {
			symbol = domain.DefaultCurrencySymbol
		}
		updated.CurrencySymbol = symbol
	}

	saved, err := s.repo.UpdateOwner(ctx, updated)
	if err != nil {
		return domain.Owner{}, err
	}

	// The public menu shows the café name and currency.
	s.invalidatePublicMenu(ctx, saved.ID)
	return *saved, nil
}
