package httpapi

import (
	"net/http"

	"github.com/pingis-club/league-api/internal/usecase"
)

type reconcileJobRequest struct {
	MaxWorkers int  `json:"maxWorkers" validate:"min=0,max=32"`
	DryRun     bool `json:"dryRun"`
}

// RunReconcileSettlementsJob finishes settlements that were interrupted
// between the rating-history write and the final status flip.
func (h *Handler) RunReconcileSettlementsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReconcileSettlementsJob")
	defer span.End()

	var req reconcileJobRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
		if err := h.validateRequest(ctx, req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	result, err := h.reconcileService.Run(ctx, usecase.ReconcileInput{
		MaxWorkers: req.MaxWorkers,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile settlements job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "reconcile settlements job finished",
		"candidates", result.CandidateCount,
		"completed", result.CompletedCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}
