package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/alquileres/internal/domain"
)

// memStores implements domain.StoreRepo.
type memStores struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]domain.Store
	finds int
}

func newMemStores(stores ...domain.Store) *memStores {
	m := &memStores{byID: map[uuid.UUID]domain.Store{}}
	for _, s := range stores {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memStores) FindByID(_ context.Context, id uuid.UUID) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memStores) FindBySlug(_ context.Context, slug string) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	for _, s := range m.byID {
		if s.Slug == slug {
			s := s
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStores) Save(_ context.Context, s *domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = *s
	return nil
}

// memProducts implements domain.ProductRepo.
type memProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	locked   [][]uuid.UUID
}

func newMemProducts(ps ...domain.Product) *memProducts {
	m := &memProducts{products: map[uuid.UUID]domain.Product{}}
	for _, p := range ps {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range f.IDs {
		want[id] = true
	}
	var out []domain.Product
	for _, p := range m.products {
		if f.StoreID != uuid.Nil && p.StoreID != f.StoreID {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		if len(want) > 0 && !want[p.ID] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) Save(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *memProducts) SaveUnit(_ context.Context, u *domain.ProductUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[u.ProductID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Units = append(p.Units, *u)
	m.products[p.ID] = p
	return nil
}

func (m *memProducts) LockForBooking(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = append(m.locked, ids)
	return nil
}

// memReservations implements domain.ReservationRepo.
type memReservations struct {
	mu   sync.Mutex
	list []domain.Reservation
	// afterList runs after every ListOverlapping call, used to simulate a concurrent writer.
	afterList func(m *memReservations)
	lists     int
}

func (m *memReservations) ListOverlapping(_ context.Context, storeID uuid.UUID, start, end time.Time, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	m.mu.Lock()
	window := domain.Period{Start: start, End: end}
	var out []domain.Reservation
	for _, r := range m.list {
		if r.StoreID != storeID || !r.Period().Overlaps(window) {
			continue
		}
		for _, s := range statuses {
			if r.Status == s {
				out = append(out, r)
				break
			}
		}
	}
	m.lists++
	hook := m.afterList
	m.mu.Unlock()
	if hook != nil {
		hook(m)
	}
	return out, nil
}

func (m *memReservations) FindByID(_ context.Context, id uuid.UUID) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.list {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memReservations) Create(_ context.Context, r *domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, *r)
	return nil
}

func (m *memReservations) UpdateStatus(_ context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].ID == id {
			m.list[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memReservations) CountForDay(_ context.Context, storeID uuid.UUID, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	prefix := "R-" + day.Format("20060102") + "-"
	for _, r := range m.list {
		if r.StoreID == storeID && len(r.Number) > len(prefix) && r.Number[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

type passTx struct{ calls int }

func (t *passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}
