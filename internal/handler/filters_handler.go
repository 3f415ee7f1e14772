package handler

import (
	"net/http"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Filtros salvos — GET / PUT / DELETE /v1/filters
// ============================================================

func getFiltersHandler(prefs *service.FilterPreferences, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/filters")
		defer span.End()

		criteria, err := prefs.Get(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, criteria)
	}
}

func saveFiltersHandler(prefs *service.FilterPreferences, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/filters")
		defer span.End()

		var criteria domain.FilterCriteria
		if err := decodeBody(r, &criteria); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		saved, err := prefs.Save(ctx, criteria)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func clearFiltersHandler(prefs *service.FilterPreferences, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/filters")
		defer span.End()

		if err := prefs.Clear(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
