package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pingis-club/league-api/internal/usecase"
)

type submitResultRequest struct {
	OpponentID string `json:"opponentId" validate:"required"`
	MySets     int    `json:"mySets" validate:"min=0,max=3"`
	OppSets    int    `json:"oppSets" validate:"min=0,max=3"`
}

type previewRequest struct {
	OpponentID string `json:"opponentId" validate:"required"`
	MySets     int    `json:"mySets" validate:"min=0,max=3"`
	OppSets    int    `json:"oppSets" validate:"min=0,max=3"`
}

func (h *Handler) SubmitMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitMatchResult")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitResultRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	m, err := h.matchService.SubmitResult(ctx, usecase.SubmitResultInput{
		SubmitterID: principal.PlayerID,
		OpponentID:  req.OpponentID,
		MySets:      req.MySets,
		OppSets:     req.OppSets,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit result failed", "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(m))
}

func (h *Handler) ConfirmMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmMatchResult")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	m, err := h.matchService.Confirm(ctx, matchID, principal.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "confirm result failed", "match_id", matchID, "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(m))
}

func (h *Handler) RejectMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectMatchResult")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	if err := h.matchService.Reject(ctx, matchID, principal.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "reject result failed", "match_id", matchID, "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) PreviewMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewMatchResult")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req previewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	preview, err := h.matchService.Preview(ctx, usecase.PreviewInput{
		PlayerID:   principal.PlayerID,
		OpponentID: req.OpponentID,
		MySets:     req.MySets,
		OppSets:    req.OppSets,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "preview failed", "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, previewDTO{
		Delta:     preview.Delta,
		NewRating: preview.NewRating,
	})
}

func (h *Handler) ListDivisionMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDivisionMatches")
	defer span.End()

	divisionID := strings.TrimSpace(r.PathValue("divisionID"))
	matches, err := h.matchService.DivisionMatches(ctx, divisionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list division matches failed", "division_id", divisionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTOs(matches))
}

func (h *Handler) ListMyPendingMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyPendingMatches")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	matches, err := h.matchService.PendingForPlayer(ctx, principal.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "list pending matches failed", "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTOs(matches))
}
