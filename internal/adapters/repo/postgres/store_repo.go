package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/alquileres/internal/domain"
)

type StoreRepo struct{ db *gorm.DB }

func NewStoreRepo(db *gorm.DB) *StoreRepo { return &StoreRepo{db: db} }

func (r *StoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	var s domain.Store
	if err := conn(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *StoreRepo) FindBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	var s domain.Store
	sl := strings.ToLower(strings.TrimSpace(slug))
	if sl == "" {
		return nil, domain.ErrNotFound
	}
	if err := conn(ctx, r.db).First(&s, "slug = ?", sl).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *StoreRepo) Save(ctx context.Context, s *domain.Store) error {
	s.Slug = strings.ToLower(strings.TrimSpace(s.Slug))
	return conn(ctx, r.db).Save(s).Error
}
