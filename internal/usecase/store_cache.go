package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/alquileres/internal/domain"
)

// StoreResolver finds a store by slug or id.
type StoreResolver interface {
	Resolve(ctx context.Context, ref string) (*domain.Store, error)
}

// StoreCache keeps recently used store snapshots in a bounded LRU with a TTL, so settings
// edits become visible after at most ttl.
type StoreCache struct {
	Stores domain.StoreRepo
	cache  *expirable.LRU[string, *domain.Store]
}

func NewStoreCache(repo domain.StoreRepo, size int, ttl time.Duration) *StoreCache {
	if size <= 0 {
		size = 256
	}
	return &StoreCache{
		Stores: repo,
		cache:  expirable.NewLRU[string, *domain.Store](size, nil, ttl),
	}
}

func (c *StoreCache) Resolve(ctx context.Context, ref string) (*domain.Store, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	if s, ok := c.cache.Get(ref); ok {
		return s, nil
	}

	var (
		s   *domain.Store
		err error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		s, err = c.Stores.FindByID(ctx, id)
	} else {
		s, err = c.Stores.FindBySlug(ctx, strings.ToLower(ref))
	}
	if err != nil {
		return nil, err
	}
	if err := s.CheckTimezone(); err != nil {
		log.Warn().Err(err).Str("store", s.Slug).Str("timezone", s.Timezone).Msg("zona horaria desconocida, se usa UTC")
	}
	c.cache.Add(ref, s)
	return s, nil
}

// Save persists s and drops every cached entry so no stale snapshot survives. An unknown
// timezone is rejected with ErrInvalidItem.
func (c *StoreCache) Save(ctx context.Context, s *domain.Store) error {
	s.Timezone = strings.TrimSpace(s.Timezone)
	if err := s.CheckTimezone(); err != nil {
		return fmt.Errorf("%w: zona horaria %q", domain.ErrInvalidItem, s.Timezone)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if err := c.Stores.Save(ctx, s); err != nil {
		return err
	}
	c.cache.Purge()
	return nil
}
