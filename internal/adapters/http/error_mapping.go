package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrPatientNotFound),
		domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps typed errors to statuses. Internal failures are logged
// with detail but answered with a generic message; error chains may carry
// DSNs or upstream payloads that must not leak to clients.
func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		slog.Warn("request_failed", "status", status, "error", err)
		message = "dependency temporarily unavailable, retry later"
	case status >= 500:
		slog.Error("request_failed", "status", status, "error", err)
		message = "internal processing error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
