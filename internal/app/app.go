package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/phenrril/alquileres/internal/adapters/httpserver"
	"github.com/phenrril/alquileres/internal/adapters/repo/postgres"
	"github.com/phenrril/alquileres/internal/clock"
	"github.com/phenrril/alquileres/internal/config"
	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/usecase"
)

type App struct {
	DB     *gorm.DB
	Config config.Config

	Stores         *usecase.StoreCache
	AvailabilityUC *usecase.AvailabilityUC
	QuoteUC        *usecase.QuoteUC
	BookingUC      *usecase.BookingUC
	ProductUC      *usecase.ProductUC
}

// NewApp wires repositories and usecases on db. The gorm handle should be opened with
// TranslateError so duplicate reservation numbers surface as conflicts.
func NewApp(db *gorm.DB, cfg config.Config, clk clock.Clock) (*App, error) {
	if db == nil {
		return nil, fmt.Errorf("db nil")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	storeRepo := postgres.NewStoreRepo(db)
	prodRepo := postgres.NewProductRepo(db)
	resRepo := postgres.NewReservationRepo(db)
	tx := postgres.NewTxManager(db)

	cache := usecase.NewStoreCache(storeRepo, cfg.StoreCacheSize, cfg.StoreCacheTTL)

	app := &App{DB: db, Config: cfg, Stores: cache}
	app.AvailabilityUC = &usecase.AvailabilityUC{Stores: cache, Products: prodRepo, Reservations: resRepo, Clock: clk}
	app.QuoteUC = &usecase.QuoteUC{Stores: cache, Products: prodRepo}
	app.BookingUC = &usecase.BookingUC{Stores: cache, Products: prodRepo, Reservations: resRepo, Tx: tx, Clock: clk}
	app.ProductUC = &usecase.ProductUC{Products: prodRepo, Tx: tx}
	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Stores, a.AvailabilityUC, a.QuoteUC, a.BookingUC, a.ProductUC, httpserver.Options{
		AdminKey:           a.Config.AdminAPIKey,
		RateLimitPerMinute: a.Config.RateLimitPerMinute,
		RateLimitClients:   a.Config.RateLimitClients,
		TrustProxy:         a.Config.TrustProxy,
	})
}

func (a *App) MigrateAndSeed(ctx context.Context) error {
	if err := a.DB.AutoMigrate(
		&domain.Store{}, &domain.Product{}, &domain.ProductUnit{}, &domain.Reservation{}, &domain.ReservationItem{},
	); err != nil {
		return err
	}

	if a.DB.Dialector.Name() == "postgres" {
		_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_reservations_store_window ON reservations (store_id, start_date, end_date)").Error
		_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_product_units_attributes_gin ON product_units USING gin (attributes)").Error
		_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_reservation_items_product ON reservation_items (product_id) WHERE product_id IS NOT NULL").Error
	}

	if !a.Config.SeedDemo {
		return nil
	}
	var count int64
	if err := a.DB.WithContext(ctx).Model(&domain.Store{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return a.seedDemo(ctx)
}

func (a *App) seedDemo(ctx context.Context) error {
	minRental := 4 * 60
	store := &domain.Store{
		ID:       uuid.New(),
		Slug:     "demo",
		Name:     "Alquileres Demo",
		Timezone: "America/Argentina/Buenos_Aires",
		Settings: domain.StoreSettings{
			PricingMode:          domain.PricingModeDay,
			AdvanceNoticeMinutes: 120,
			MinRentalMinutes:     &minRental,
			BusinessHours:        domain.BusinessHours{Enabled: true},
			Tax:                  domain.TaxConfig{Enabled: true, DefaultRate: decimal.NewFromInt(21), DisplayMode: domain.TaxDisplayInclusive},
		},
	}
	for d := range store.Settings.BusinessHours.Days {
		store.Settings.BusinessHours.Days[d] = domain.DaySchedule{IsOpen: d != 0, OpenTime: "09:00", CloseTime: "19:00"}
	}
	if err := a.Stores.Save(ctx, store); err != nil {
		return err
	}

	products := []*domain.Product{
		{
			StoreID:       store.ID,
			Name:          "Carpa 4 personas",
			TotalQuantity: 6,
			BasePrice:     decimal.NewFromInt(15000),
			Deposit:       decimal.NewFromInt(30000),
			PricingTiers: []domain.PricingTier{
				{MinDuration: 3, DiscountPercent: decimal.NewFromInt(10)},
				{MinDuration: 7, DiscountPercent: decimal.NewFromInt(20)},
			},
		},
		{
			StoreID:    store.ID,
			Name:       "Bicicleta de paseo",
			TrackUnits: true,
			BasePrice:  decimal.NewFromInt(9000),
			Deposit:    decimal.NewFromInt(20000),
			BookingAttributeAxes: []domain.AttributeAxis{
				{Name: "talle", Values: []string{"S", "M", "L"}},
				{Name: "color", Values: []string{"rojo", "azul"}},
			},
			Units: []domain.ProductUnit{
				{Identifier: "BICI-01", Attributes: map[string]string{"talle": "M", "color": "rojo"}},
				{Identifier: "BICI-02", Attributes: map[string]string{"talle": "M", "color": "azul"}},
				{Identifier: "BICI-03", Attributes: map[string]string{"talle": "L", "color": "rojo"}},
				{Identifier: "BICI-04", Attributes: map[string]string{"talle": "S", "color": "azul"}},
			},
		},
	}
	for _, p := range products {
		if err := a.ProductUC.Create(ctx, p); err != nil {
			return fmt.Errorf("seed %s: %w", p.Name, err)
		}
	}
	log.Info().Str("store", store.Slug).Int("products", len(products)).Msg("datos demo cargados")
	return nil
}
