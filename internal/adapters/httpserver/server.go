package httpserver

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/alquileres/internal/adapters/report/xlsx"
	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/i18n"
	"github.com/phenrril/alquileres/internal/usecase"
)

const maxBody = 64 << 10

type Server struct {
	mux          *http.ServeMux
	stores       usecase.StoreResolver
	availability *usecase.AvailabilityUC
	quotes       *usecase.QuoteUC
	bookings     *usecase.BookingUC
	products     *usecase.ProductUC

	adminKey string
}

type Options struct {
	// AdminKey guards staff endpoints through the X-Admin-Key header. Empty disables them.
	AdminKey           string
	RateLimitPerMinute int
	RateLimitClients   int
	// TrustProxy keys rate limiting by X-Forwarded-For instead of the peer address.
	TrustProxy bool
}

func New(stores usecase.StoreResolver, a *usecase.AvailabilityUC, q *usecase.QuoteUC, b *usecase.BookingUC, p *usecase.ProductUC, opts Options) http.Handler {
	s := &Server{
		mux:          http.NewServeMux(),
		stores:       stores,
		availability: a,
		quotes:       q,
		bookings:     b,
		products:     p,
		adminKey:     opts.AdminKey,
	}
	s.routes()
	return Chain(s.mux,
		RateLimit(opts.RateLimitPerMinute, opts.RateLimitClients, opts.TrustProxy),
		Lang,
		Recovery,
		Logging,
		RequestID,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/stores/{store}/availability", s.apiAvailability)
	s.mux.HandleFunc("POST /api/stores/{store}/combinations/resolve", s.apiResolveCombination)
	s.mux.HandleFunc("POST /api/stores/{store}/quote", s.apiQuote)
	s.mux.HandleFunc("POST /api/stores/{store}/reservations", s.apiCreateReservation)
	s.mux.HandleFunc("PATCH /api/reservations/{id}/status", s.apiReservationStatus)

	s.mux.HandleFunc("GET /api/stores/{store}/products", s.apiProducts)
	s.mux.HandleFunc("POST /api/stores/{store}/products", s.apiCreateProduct)
	s.mux.HandleFunc("POST /api/products/{id}/units", s.apiAddUnit)

	s.mux.HandleFunc("GET /admin/stores/{store}/availability.xlsx", s.handleAdminAvailabilityXLSX)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) apiAvailability(w http.ResponseWriter, r *http.Request) {
	start, end, ok := periodFromQuery(w, r)
	if !ok {
		return
	}
	ids, err := productIDsFromQuery(r)
	if err != nil {
		badRequest(w, r, "product")
		return
	}
	resp, err := s.availability.Check(r.Context(), usecase.AvailabilityQuery{
		StoreRef: r.PathValue("store"), Start: start, End: end, ProductIDs: ids,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, toAvailability(i18n.LangFrom(r.Context()), resp))
}

func (s *Server) apiResolveCombination(w http.ResponseWriter, r *http.Request) {
	var req combinationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ProductID == uuid.Nil {
		badRequest(w, r, "productId")
		return
	}
	res, err := s.availability.ResolveCombination(r.Context(), usecase.CombinationQuery{
		StoreRef:           r.PathValue("store"),
		ProductID:          req.ProductID,
		Start:              req.Start,
		End:                req.End,
		Quantity:           req.Quantity,
		SelectedAttributes: req.SelectedAttributes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ProductID == uuid.Nil {
		badRequest(w, r, "productId")
		return
	}
	q, err := s.quotes.Quote(r.Context(), usecase.QuoteRequest{
		StoreRef: r.PathValue("store"), ProductID: req.ProductID, Start: req.Start, End: req.End, Quantity: req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, toQuote(q))
}

// apiCreateReservation books online by default. Staff bookings need the admin key and
// go through policy warnings instead of failing on them.
func (s *Server) apiCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Source == domain.BookingSourceStaff {
		if !s.requireAdmin(w, r) {
			return
		}
	} else {
		req.Source = domain.BookingSourceOnline
	}
	res, err := s.bookings.Create(r.Context(), req.toUsecase(r.PathValue("store")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := toReservation(res.Reservation)
	out.Warnings = warningsDTO(i18n.LangFrom(r.Context()), res.Warnings)
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) apiReservationStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		badRequest(w, r, "id")
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		badRequest(w, r, "status")
		return
	}
	res, err := s.bookings.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservation(res))
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	store, err := s.stores.Resolve(r.Context(), r.PathValue("store"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.products.List(r.Context(), store.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]productDTO, 0, len(list))
	for i := range list {
		out = append(out, toProduct(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	store, err := s.stores.Resolve(r.Context(), r.PathValue("store"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := req.toDomain(store.ID)
	if err := s.products.Create(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("store", store.Slug).Str("product_id", p.ID.String()).Str("slug", p.Slug).Msg("producto creado")
	writeJSON(w, http.StatusCreated, toProduct(p))
}

func (s *Server) apiAddUnit(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		badRequest(w, r, "id")
		return
	}
	var req unitRequest
	if !decode(w, r, &req) {
		return
	}
	u := req.toDomain()
	if err := s.products.AddUnit(r.Context(), id, &u); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUnit(u))
}

func (s *Server) handleAdminAvailabilityXLSX(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	start, end, ok := periodFromQuery(w, r)
	if !ok {
		return
	}
	store, err := s.stores.Resolve(r.Context(), r.PathValue("store"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.availability.Check(r.Context(), usecase.AvailabilityQuery{StoreRef: store.ID.String(), Start: start, End: end})
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.products.List(r.Context(), store.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	names := make(map[uuid.UUID]string, len(list))
	for _, p := range list {
		names[p.ID] = p.Name
	}

	var buf bytes.Buffer
	if err := xlsx.WriteAvailability(&buf, store, names, resp); err != nil {
		log.Error().Err(err).Str("store", store.Slug).Msg("no se pudo generar el xlsx")
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("disponibilidad-%s-%s.xlsx", store.Slug, start.In(store.Location()).Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	key := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
	if key == "" {
		auth := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			key = strings.TrimSpace(auth[7:])
		}
	}
	if s.adminKey != "" && key != "" && secureCompare(key, s.adminKey) {
		return true
	}
	unauthorized(w, r)
	return false
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		badRequest(w, r, "json")
		return false
	}
	return true
}

func periodFromQuery(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		badRequest(w, r, "start")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		badRequest(w, r, "end")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// productIDsFromQuery accepts repeated and comma separated product parameters.
func productIDsFromQuery(r *http.Request) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range r.URL.Query()["product"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
