package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) ListDivisionStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDivisionStandings")
	defer span.End()

	divisionID := strings.TrimSpace(r.PathValue("divisionID"))
	rows, err := h.standingsService.ListByDivision(ctx, divisionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "division_id", divisionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}
