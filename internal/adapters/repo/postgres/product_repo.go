package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/alquileres/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Save(ctx context.Context, p *domain.Product) error {
	return conn(ctx, r.db).Omit("Units").Save(p).Error
}

func (r *ProductRepo) SaveUnit(ctx context.Context, u *domain.ProductUnit) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return conn(ctx, r.db).Save(u).Error
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	if err := conn(ctx, r.db).Preload("Units", orderUnits).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var list []domain.Product
	q := conn(ctx, r.db).Model(&domain.Product{})
	if f.StoreID != uuid.Nil {
		q = q.Where("store_id = ?", f.StoreID)
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("name asc").Order("id asc").Preload("Units", orderUnits).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// LockForBooking serializes bookings touching the same products. SQLite has no row
// locks; its single writer already serializes transactions.
func (r *ProductRepo) LockForBooking(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := conn(ctx, r.db)
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	var locked []domain.Product
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").Where("id IN ?", ids).Order("id asc").
		Find(&locked).Error
}

func orderUnits(db *gorm.DB) *gorm.DB {
	return db.Order("identifier asc").Order("id asc")
}
