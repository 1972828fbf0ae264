package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/alquileres/internal/domain"
)

type ReservationRepo struct{ db *gorm.DB }

func NewReservationRepo(db *gorm.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ListOverlapping uses the same half-open test as domain.Period.Overlaps.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, storeID uuid.UUID, start, end time.Time, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if len(statuses) == 0 {
		return list, nil
	}
	err := conn(ctx, r.db).
		Where("store_id = ? AND status IN ? AND start_date < ? AND end_date > ?", storeID, statuses, end, start).
		Order("start_date asc").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := conn(ctx, r.db).Preload("Items").First(&res, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

func (r *ReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	for i := range res.Items {
		if res.Items[i].ID == uuid.Nil {
			res.Items[i].ID = uuid.New()
		}
		res.Items[i].ReservationID = res.ID
	}
	return conn(ctx, r.db).Create(res).Error
}

func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	q := conn(ctx, r.db).Model(&domain.Reservation{}).Where("id = ?", id).Update("status", status)
	if q.Error != nil {
		return q.Error
	}
	if q.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountForDay counts the reservation numbers already issued for the day of day.
func (r *ReservationRepo) CountForDay(ctx context.Context, storeID uuid.UUID, day time.Time) (int64, error) {
	var n int64
	prefix := "R-" + day.Format("20060102") + "-%"
	err := conn(ctx, r.db).Model(&domain.Reservation{}).
		Where("store_id = ? AND number LIKE ?", storeID, prefix).
		Count(&n).Error
	return n, err
}
