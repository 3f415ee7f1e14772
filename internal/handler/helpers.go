package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/denuncias-bfa/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid request body"}
	}
	return nil
}

// parsePagination reads page and page_size. Missing or malformed values
// fall back to page 1 and the default page size; the list pipeline clamps
// pages past the end.
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = domain.DefaultPageSize
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= domain.MaxPageSize {
			pageSize = ps
		}
	}
	return
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var validationList *domain.ErrValidationList
	var unauthorized *domain.ErrUnauthorized
	var permission *domain.ErrPermission
	var transient *domain.ErrTransientBackend
	var backend *domain.ErrBackend
	var nothing *domain.ErrNothingToExport
	var export *domain.ErrExport

	switch {
	case errors.As(err, &validationList):
		logger.Debug("validation errors", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Dados inválidos", Fields: validationList.Fields()})
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  validation.Message,
			Fields: map[string]string{validation.Field: validation.Message},
		})
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &permission):
		logger.Warn("permission denied", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &nothing):
		logger.Debug("nothing to export")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &export):
		logger.Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Falha ao gerar o relatório")
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &transient):
		logger.Error("backend unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Serviço indisponível, tente novamente")
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &backend):
		logger.Error("backend rejected request", zap.Int("status", backend.Status), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Requisição rejeitada pelo banco de dados")
	case errors.Is(err, context.Canceled):
		logger.Debug("request cancelled by client")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
