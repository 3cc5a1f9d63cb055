package httpapi

import (
	"net/http"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports ready only when the store answers and the recorded schema
// revision sits at the head of the step chain.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness ping failed", "error", err)
			writeJSON(ctx, w, http.StatusServiceUnavailable, googleResponseEnvelope{
				APIVersion: googleAPIVersion,
				Data:       map[string]string{"status": "unavailable", "reason": "store unreachable"},
			})
			return
		}
	}

	status, err := h.migrationService.Status(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "readiness schema check failed", "error", err)
		writeJSON(ctx, w, http.StatusServiceUnavailable, googleResponseEnvelope{
			APIVersion: googleAPIVersion,
			Data:       map[string]string{"status": "unavailable", "reason": "schema revision unavailable"},
		})
		return
	}
	if !status.UpToDate {
		writeJSON(ctx, w, http.StatusServiceUnavailable, googleResponseEnvelope{
			APIVersion: googleAPIVersion,
			Data: map[string]string{
				"status":           "unavailable",
				"reason":           "schema behind head",
				"current_revision": status.Current,
				"head_revision":    status.Head,
			},
		})
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) SchemaRevision(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SchemaRevision")
	defer span.End()

	status, err := h.migrationService.Status(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get schema revision failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, schemaStatusDTO{
		CurrentRevision: status.Current,
		HeadRevision:    status.Head,
		UpToDate:        status.UpToDate,
	})
}

func (h *Handler) SchemaHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SchemaHistory")
	defer span.End()

	applied, err := h.migrationService.AppliedRevisions(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list schema history failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]appliedRevisionDTO, 0, len(applied))
	for _, rev := range applied {
		items = append(items, appliedRevisionToDTO(rev))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
