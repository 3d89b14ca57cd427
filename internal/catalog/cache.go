package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
)

// CachedProvider serves the menu from memory, refreshing from the repository
// when the snapshot goes stale. Singleflight collapses concurrent refreshes
// so a cold cache triggers exactly one query.
type CachedProvider struct {
	repo Repository
	ttl  time.Duration
	sfg  singleflight.Group

	mu        sync.RWMutex
	items     []domain.CatalogItem
	byID      map[int64]int
	fetchedAt time.Time
}

func NewCachedProvider(repo Repository, ttl time.Duration) *CachedProvider {
	return &CachedProvider{repo: repo, ttl: ttl}
}

func (p *CachedProvider) snapshot() ([]domain.CatalogItem, map[int64]int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.items == nil || time.Since(p.fetchedAt) > p.ttl {
		return nil, nil, false
	}
	return p.items, p.byID, true
}

func (p *CachedProvider) refresh(ctx context.Context) ([]domain.CatalogItem, map[int64]int, error) {
	v, err, _ := p.sfg.Do("menu", func() (interface{}, error) {
		items, err := p.repo.GetAllItems(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[int64]int, len(items))
		for i := range items {
			byID[items[i].ID] = i
		}
		p.mu.Lock()
		p.items = items
		p.byID = byID
		p.fetchedAt = time.Now()
		p.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return v.([]domain.CatalogItem), p.byID, nil
}

// GetAllItems returns the current menu snapshot.
func (p *CachedProvider) GetAllItems(ctx context.Context) ([]domain.CatalogItem, error) {
	if items, _, ok := p.snapshot(); ok {
		return items, nil
	}
	items, _, err := p.refresh(ctx)
	return items, err
}

// GetItem resolves a single catalog item from the snapshot.
func (p *CachedProvider) GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	items, byID, ok := p.snapshot()
	if !ok {
		var err error
		items, byID, err = p.refresh(ctx)
		if err != nil {
			return nil, err
		}
	}
	idx, found := byID[id]
	if !found {
		return nil, domain.ErrCatalogItemNotFound
	}
	return &items[idx], nil
}

func (p *CachedProvider) Close() error {
	return p.repo.Close()
}
