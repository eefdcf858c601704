package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/cache"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

var ErrUnauthorized = errors.New("unauthorized")

const (
	DefaultAlertThreshold  = 20
	DefaultNotifyThreshold = 10
	defaultMenuCacheTTL    = time.Minute
)

type sessionContextKey struct{}

func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(domain.Session)
	return session, ok
}

type Options struct {
	Location        *time.Location
	AlertThreshold  int
	NotifyThreshold int
	FloorAtZero     bool
	MenuCacheTTL    time.Duration
	Now             func() time.Time
}

type Service struct {
	repo         store.Repository
	menuCache    cache.MenuCache
	loc          *time.Location
	floorAtZero  bool
	menuCacheTTL time.Duration
	now          func() time.Time

	mu              sync.RWMutex
	alertThreshold  int
	notifyThreshold int
}

func New(repo store.Repository, menuCache cache.MenuCache, opts Options) *Service {
	if menuCache == nil {
		menuCache = cache.NoopMenuCache{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MenuCacheTTL <= 0 {
		opts.MenuCacheTTL = defaultMenuCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := &Service{
		repo:         repo,
		menuCache:    menuCache,
		loc:          opts.Location,
		floorAtZero:  opts.FloorAtZero,
		menuCacheTTL: opts.MenuCacheTTL,
		now:          opts.Now,
	}
	svc.SetStockThresholds(opts.AlertThreshold, opts.NotifyThreshold)
	return svc
}

// SetStockThresholds swaps the low-stock thresholds at runtime. Values below
// 1 fall back to the defaults.
func (s *Service) SetStockThresholds(alert int, notify int) {
	if alert < 1 {
		alert = DefaultAlertThreshold
	}
	if notify < 1 {
		notify = DefaultNotifyThreshold
	}

	s.mu.Lock()
	s.alertThreshold = alert
	s.notifyThreshold = notify
	s.mu.Unlock()
}

func (s *Service) StockThresholds() (alert int, notify int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alertThreshold, s.notifyThreshold
}

func (s *Service) authorize(session domain.Session) error {
	if !session.Valid(s.now()) {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) invalidatePublicMenu(ctx context.Context, ownerID string) {
	if err := s.menuCache.Invalidate(ctx, ownerID); err != nil {
		log.Printf("[service] WARN: failed to invalidate public menu owner=%s: %v", ownerID, err)
	}
}
