package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Denúncias — list, detail, create, update, delete, stats
// ============================================================

// criteriaFromQuery reads the advanced filters from the query string.
func criteriaFromQuery(r *http.Request) domain.FilterCriteria {
	q := r.URL.Query()
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }
	return domain.FilterCriteria{
		FreeText:     get("q"),
		Status:       domain.StatusLabel(strings.ToUpper(get("status"))),
		DateFrom:     get("date_from"),
		DateTo:       get("date_to"),
		Category:     get("categoria"),
		Inspector:    get("fiscal"),
		Neighborhood: get("bairro"),
		ActionTaken:  get("acao_tomada"),
	}
}

func listComplaintsHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/complaints")
		defer span.End()

		page, pageSize := parsePagination(r)
		q := domain.ListQuery{
			Criteria:  criteriaFromQuery(r),
			SortField: r.URL.Query().Get("sort"),
			SortDir:   domain.SortDirection(strings.ToLower(r.URL.Query().Get("dir"))),
			Page:      page,
			PageSize:  pageSize,

			PrevFilters: r.URL.Query().Get("prev"),
		}

		result, err := svc.List(ctx, q, queryBool(r, "refresh"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getComplaintHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/complaints/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("complaint.id", id))

		v, err := svc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func createComplaintHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/complaints")
		defer span.End()

		var c domain.Complaint
		if err := decodeBody(r, &c); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		v, err := svc.Create(ctx, c)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func updateComplaintHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/complaints/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("complaint.id", id))

		var c domain.Complaint
		if err := decodeBody(r, &c); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		v, err := svc.Update(ctx, id, c)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func deleteComplaintHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/complaints/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("complaint.id", id))

		if err := svc.Delete(ctx, id, queryBool(r, "confirm")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Denúncia excluída", ID: id})
	}
}

func statsHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/complaints/stats")
		defer span.End()

		stats, err := svc.Stats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// ============================================================
// Cálculo de prazos — recompute a draft and offline status
// ============================================================

type recomputeRequest struct {
	Complaint domain.Complaint `json:"complaint"`
	Field     string           `json:"field"`
}

func recomputeHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/complaints/recompute")
		defer span.End()

		var req recomputeRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		v, err := svc.Recompute(req.Complaint, req.Field)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// statusHandler computes the status of the deadline columns passed in the
// query string, e.g. ?data_inicial=2024-03-01&prazo_inicial=30&prorrogacao=15.
func statusHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/complaints/status")
		defer span.End()

		q := r.URL.Query()
		optional := func(key string) *string {
			if v := strings.TrimSpace(q.Get(key)); v != "" {
				return &v
			}
			return nil
		}
		c := domain.Complaint{
			StartDate:     optional("data_inicial"),
			DeadlineDays:  domain.FlexInt(domain.ParseIntOrZero(q.Get("prazo_inicial"))),
			EndDate:       optional("data_final"),
			ExtensionDays: domain.FlexInt(domain.ParseIntOrZero(q.Get("prorrogacao"))),
			ExtendedUntil: optional("prorrogado_ate"),
		}

		v, err := svc.Recompute(c, "")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func optionsHandler() http.HandlerFunc {
	opts := domain.DefaultFormOptions()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, opts)
	}
}
