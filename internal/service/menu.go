package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

func (s *Service) ListMenu(ctx context.Context, session domain.Session) ([]domain.MenuItem, error) {
	if err := s.authorize(session); err != nil {
		return nil, err
	}
	return s.repo.ListMenuItems(ctx, session.OwnerID)
}

func (s *Service) CreateMenuItem(ctx context.Context, session domain.Session, req domain.MenuItemRequest) (domain.MenuItem, error) {
	if err := s.authorize(session); err != nil {
		return domain.MenuItem{}, err
	}
	if req.Name == nil || req.Price == nil {
		return domain.MenuItem{}, fmt.Errorf("%w: name and price are required", store.ErrInvalidInput)
	}
	// New items start from a counted stock; only oversells go below zero.
	if req.Stock != nil && *req.Stock < 0 {
		return domain.MenuItem{}, fmt.Errorf("%w: stock must not be negative", store.ErrInvalidInput)
	}

	item := domain.MenuItem{
		Owner:    session.OwnerID,
		Category: domain.DefaultCategory,
	}
	if err := applyMenuItemRequest(&item, req); err != nil {
		return domain.MenuItem{}, err
	}

	created, err := s.repo.CreateMenuItem(ctx, item)
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.invalidatePublicMenu(ctx, session.OwnerID)
	return *created, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, session domain.Session, id string, req domain.MenuItemRequest) (domain.MenuItem, error) {
	if err := s.authorize(session); err != nil {
		return domain.MenuItem{}, err
	}

	existing, err := s.repo.GetMenuItem(ctx, session.OwnerID, strings.TrimSpace(id))
	if err != nil {
		return domain.MenuItem{}, err
	}

	updated := *existing
	if err := applyMenuItemRequest(&updated, req); err != nil {
		return domain.MenuItem{}, err
	}

	saved, err := s.repo.UpdateMenuItem(ctx, updated)
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.invalidatePublicMenu(ctx, session.OwnerID)
	return *saved, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, session domain.Session, id string) error {
	if err := s.authorize(session); err != nil {
		return err
	}
	if err := s.repo.DeleteMenuItem(ctx, session.OwnerID, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.invalidatePublicMenu(ctx, session.OwnerID)
	return nil
}

func applyMenuItemRequest(item *domain.MenuItem, req domain.MenuItemRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", store.ErrInvalidInput)
		}
		item.Name = name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", store.ErrInvalidInput)
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			category = domain.DefaultCategory
		}
		item.Category = category
	}
	if req.Stock != nil {
		item.Stock = *req.Stock
	}
	return nil
}

func (s *Service) StockLevels(ctx context.Context, session domain.Session) ([]domain.StockLevel, error) {
	if err := s.authorize(session); err != nil {
		return nil, err
	}

	items, err := s.repo.ListMenuItems(ctx, session.OwnerID)
	if err != nil {
		return nil, err
	}

	levels := make([]domain.StockLevel, 0, len(items))
	for _, item := range items {
		levels = append(levels, toStockLevel(item))
	}
	return levels, nil
}

// LowStock lists items whose stock is strictly below threshold, lowest
// first. A threshold below 1 uses the configured dashboard alert level.
func (s *Service) LowStock(ctx context.Context, session domain.Session, threshold int) (domain.LowStockResponse, error) {
	if threshold < 1 {
		threshold, _ = s.StockThresholds()
	}
	return s.lowStock(ctx, session, threshold)
}

func (s *Service) StockNotifications(ctx context.Context, session domain.Session) (domain.LowStockResponse, error) {
	_, notify := s.StockThresholds()
	return s.lowStock(ctx, session, notify)
}

func (s *Service) lowStock(ctx context.Context, session domain.Session, threshold int) (domain.LowStockResponse, error) {
	levels, err := s.StockLevels(ctx, session)
	if err != nil {
		return domain.LowStockResponse{}, err
	}

	low := make([]domain.StockLevel, 0, len(levels))
	for _, level := range levels {
		if level.Stock < threshold {
			low = append(low, level)
		}
	}
	slices.SortStableFunc(low, func(a, b domain.StockLevel) int {
		return a.Stock - b.Stock
	})
	return domain.LowStockResponse{Threshold: threshold, Items: low}, nil
}

// PublicMenu serves an owner's menu without authentication. Results are
// cached per owner until the catalog, stock or profile changes.
func (s *Service) PublicMenu(ctx context.Context, ownerID string) (domain.PublicMenu, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.PublicMenu{}, store.ErrNotFound
	}

	cached, ok, err := s.menuCache.Get(ctx, ownerID)
	if err != nil {
		log.Printf("[service] WARN: public menu cache read failed owner=%s: %v", ownerID, err)
	}
	if ok && cached != nil {
		return *cached, nil
	}

	owner, err := s.repo.GetOwnerByID(ctx, ownerID)
	if err != nil {
		return domain.PublicMenu{}, err
	}
	items, err := s.repo.ListMenuItems(ctx, ownerID)
	if err != nil {
		return domain.PublicMenu{}, err
	}

	_, notify := s.StockThresholds()
	menu := domain.PublicMenu{
		OwnerID:        owner.ID,
		CafeName:       owner.CafeName,
		CurrencySymbol: owner.CurrencySymbol,
		Items:          make([]domain.PublicMenuItem, 0, len(items)),
	}
	for _, item := range items {
		menu.Items = append(menu.Items, domain.PublicMenuItem{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Category:  item.Category,
			Stock:     item.Stock,
			Available: item.Stock > 0,
			LowStock:  item.Stock > 0 && item.Stock < notify,
		})
	}

	if err := s.menuCache.Set(ctx, ownerID, &menu, s.menuCacheTTL); err != nil {
		log.Printf("[service] WARN: public menu cache write failed owner=%s: %v", ownerID, err)
	}
	return menu, nil
}

func toStockLevel(item domain.MenuItem) domain.StockLevel {
	return domain.StockLevel{
		ID:       item.ID,
		Name:     item.Name,
		Category: item.Category,
		Stock:    item.Stock,
	}
}
