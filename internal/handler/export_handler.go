package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Exportação — POST /v1/complaints/export
// ============================================================

// exportHandler streams the rendered report as an attachment.
func exportHandler(svc *service.ComplaintService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/complaints/export")
		defer span.End()

		exportID := uuid.New().String()
		span.SetAttributes(attribute.String("export.id", exportID))

		var req domain.ExportRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		doc, err := svc.Export(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("export delivered",
			zap.String("export_id", exportID),
			zap.String("filename", doc.Filename),
			zap.Int("rows", doc.Rows),
		)

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.Header().Set("X-Export-Id", exportID)
		w.Header().Set("X-Export-Rows", strconv.Itoa(doc.Rows))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc.Body); err != nil {
			logger.Warn("export write interrupted", zap.String("export_id", exportID), zap.Error(err))
		}
	}
}
