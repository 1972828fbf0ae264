package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/i18n"
)

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Params    map[string]any `json:"params,omitempty"`
	Warnings  []warningDTO   `json:"warnings,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

var failureStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrPolicyViolation, http.StatusUnprocessableEntity},
	{domain.ErrInvalidTierConfiguration, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientAvailability, http.StatusConflict},
	{domain.ErrNoMatchingCombination, http.StatusConflict},
}

var sentinels = []struct {
	err    error
	status int
	code   string
	key    string
}{
	{domain.ErrAvailabilityConflict, http.StatusConflict, "availability_conflict", "errors.availability_conflict"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "errors.not_found"},
	{domain.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period", "errors.invalid_period"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity", "errors.invalid_quantity"},
	{domain.ErrInvalidAttributes, http.StatusBadRequest, "invalid_attributes", "errors.invalid_attributes"},
	{domain.ErrInvalidItem, http.StatusBadRequest, "invalid_request", "errors.invalid_request"},
	{domain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition", "errors.invalid_status_transition"},
}

// writeError maps engine and usecase errors to a localized JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	lang := i18n.LangFrom(r.Context())

	// Conflicts wrap the failure found under the lock; the retry hint wins.
	if !errors.Is(err, domain.ErrAvailabilityConflict) {
		if f, ok := domain.AsFailure(err); ok {
			status := http.StatusUnprocessableEntity
			for _, fs := range failureStatus {
				if errors.Is(f, fs.kind) {
					status = fs.status
					break
				}
			}
			writeJSON(w, status, errorBody{
				Code:     f.Code,
				Message:  i18n.Format(lang, f.Key, f.Params),
				Params:   f.Params,
				Warnings: warningsDTO(lang, f.Warnings),
			})
			return
		}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			writeJSON(w, s.status, errorBody{
				Code:      s.code,
				Message:   i18n.T(lang, s.key),
				Retryable: s.err == domain.ErrAvailabilityConflict,
			})
			return
		}
	}

	log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", requestIDFrom(r.Context())).Msg("error no mapeado")
	writeJSON(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: i18n.T(lang, "errors.internal")})
}

func badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	body := errorBody{Code: "invalid_request", Message: i18n.T(i18n.LangFrom(r.Context()), "errors.invalid_request")}
	if detail != "" {
		body.Params = map[string]any{"field": detail}
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: i18n.T(i18n.LangFrom(r.Context()), "errors.unauthorized")})
}
