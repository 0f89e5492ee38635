package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pingis-club/league-api/internal/usecase"
)

type createGameRequestRequest struct {
	// ToPlayerID empty creates an open request for the whole division.
	ToPlayerID string `json:"toPlayerId"`
}

func (h *Handler) CreateGameRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGameRequest")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createGameRequestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.gameRequestService.Create(ctx, usecase.CreateGameRequestInput{
		FromPlayerID: principal.PlayerID,
		ToPlayerID:   req.ToPlayerID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create game request failed", "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, gameRequestToDTO(created))
}

func (h *Handler) ListMyGameRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyGameRequests")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	requests, err := h.gameRequestService.ListOpenForPlayer(ctx, principal.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "list game requests failed", "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]gameRequestDTO, 0, len(requests))
	for _, item := range requests {
		items = append(items, gameRequestToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListMyOwnGameRequests(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyOwnGameRequests")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	requests, err := h.gameRequestService.ListMine(ctx, principal.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "list own game requests failed", "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]gameRequestDTO, 0, len(requests))
	for _, item := range requests {
		items = append(items, gameRequestToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AcceptGameRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptGameRequest")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	requestID := strings.TrimSpace(r.PathValue("requestID"))
	accepted, err := h.gameRequestService.Accept(ctx, requestID, principal.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept game request failed", "request_id", requestID, "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameRequestToDTO(accepted))
}

func (h *Handler) CancelGameRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelGameRequest")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	requestID := strings.TrimSpace(r.PathValue("requestID"))
	if err := h.gameRequestService.Cancel(ctx, requestID, principal.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "cancel game request failed", "request_id", requestID, "player_id", principal.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "cancelled"})
}
