package cache

import (
	"context"
	"time"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
)

// MenuCache holds rendered public menus keyed by owner id. Entries are
// dropped whenever the owner's catalog or stock changes.
type MenuCache interface {
	Get(ctx context.Context, ownerID string) (*domain.PublicMenu, bool, error)
	Set(ctx context.Context, ownerID string, menu *domain.PublicMenu, ttl time.Duration) error
	Invalidate(ctx context.Context, ownerID string) error
}

type NoopMenuCache struct{}

func (NoopMenuCache) Get(_ context.Context, _ string) (*domain.PublicMenu, bool, error) {
	return nil, false, nil
}

func (NoopMenuCache) Set(_ context.Context, _ string, _ *domain.PublicMenu, _ time.Duration) error {
	return nil
}

func (NoopMenuCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

func menuKey(ownerID string) string {
	return "cafe:public-menu:" + ownerID
}
