package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/gamerequest"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/rating"
	"github.com/pingis-club/league-api/internal/domain/season"
	"github.com/pingis-club/league-api/internal/platform/logging"
	"github.com/pingis-club/league-api/internal/usecase"
)

type Handler struct {
	seasonService      *usecase.SeasonService
	playerService      *usecase.PlayerService
	matchService       *usecase.MatchService
	standingsService   *usecase.StandingsService
	gameRequestService *usecase.GameRequestService
	reconcileService   *usecase.ReconcileService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	seasonService *usecase.SeasonService,
	playerService *usecase.PlayerService,
	matchService *usecase.MatchService,
	standingsService *usecase.StandingsService,
	gameRequestService *usecase.GameRequestService,
	reconcileService *usecase.ReconcileService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		seasonService:      seasonService,
		playerService:      playerService,
		matchService:       matchService,
		standingsService:   standingsService,
		gameRequestService: gameRequestService,
		reconcileService:   reconcileService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func decodeBody(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type seasonDTO struct {
	ID        string        `json:"id"`
	Year      int           `json:"year"`
	Month     int           `json:"month"`
	Status    string        `json:"status"`
	Divisions []divisionDTO `json:"divisions"`
}

type divisionDTO struct {
	ID     string  `json:"id"`
	Number int     `json:"number"`
	Coef   float64 `json:"coef"`
}

type playerDTO struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

type playerProfileDTO struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Rating   float64            `json:"rating"`
	Division *divisionDTO       `json:"division,omitempty"`
	Points   int                `json:"points"`
	SetsWon  int                `json:"setsWon"`
	SetsLost int                `json:"setsLost"`
	History  []ratingHistoryDTO `json:"history"`
}

type ratingHistoryDTO struct {
	MatchID   string  `json:"matchId"`
	OldRating float64 `json:"oldRating"`
	NewRating float64 `json:"newRating"`
	Delta     float64 `json:"delta"`
	CreatedAt string  `json:"createdAt"`
}

type matchDTO struct {
	ID          string `json:"id"`
	DivisionID  string `json:"divisionId"`
	Player1ID   string `json:"player1Id"`
	Player2ID   string `json:"player2Id"`
	Status      string `json:"status"`
	Score1      int    `json:"score1"`
	Score2      int    `json:"score2"`
	SubmittedBy string `json:"submittedBy,omitempty"`
	PlayedAt    string `json:"playedAt,omitempty"`
}

type previewDTO struct {
	Delta     float64 `json:"delta"`
	NewRating float64 `json:"newRating"`
}

type gameRequestDTO struct {
	ID         string `json:"id"`
	DivisionID string `json:"divisionId"`
	FromPlayer string `json:"fromPlayer"`
	ToPlayer   string `json:"toPlayer,omitempty"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	AcceptedBy string `json:"acceptedBy,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func seasonToDTO(v season.Season, divisions []division.Division) seasonDTO {
	items := make([]divisionDTO, 0, len(divisions))
	for _, d := range divisions {
		items = append(items, divisionToDTO(d))
	}
	return seasonDTO{
		ID:        v.ID,
		Year:      v.Year,
		Month:     v.Month,
		Status:    v.Status,
		Divisions: items,
	}
}

func divisionToDTO(v division.Division) divisionDTO {
	return divisionDTO{
		ID:     v.ID,
		Number: v.Number,
		Coef:   v.Coef,
	}
}

func playerToDTO(v player.Player) playerDTO {
	return playerDTO{
		ID:     v.ID,
		Name:   v.Name,
		Rating: v.Rating,
	}
}

func profileToDTO(v usecase.PlayerProfile) playerProfileDTO {
	out := playerProfileDTO{
		ID:      v.Player.ID,
		Name:    v.Player.Name,
		Rating:  v.Player.Rating,
		History: historyToDTOs(v.History),
	}
	if v.Division != nil {
		dto := divisionToDTO(*v.Division)
		out.Division = &dto
	}
	if v.Membership != nil {
		out.Points = v.Membership.TotalPoints
		out.SetsWon = v.Membership.TotalSetsWon
		out.SetsLost = v.Membership.TotalSetsLost
	}
	return out
}

func historyToDTOs(items []rating.HistoryEntry) []ratingHistoryDTO {
	out := make([]ratingHistoryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, ratingHistoryDTO{
			MatchID:   item.MatchID,
			OldRating: item.OldRating,
			NewRating: item.NewRating,
			Delta:     item.Delta,
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func matchToDTO(v match.Match) matchDTO {
	out := matchDTO{
		ID:          v.ID,
		DivisionID:  v.DivisionID,
		Player1ID:   v.Player1ID,
		Player2ID:   v.Player2ID,
		Status:      string(v.Status),
		Score1:      v.Score1,
		Score2:      v.Score2,
		SubmittedBy: v.SubmittedBy,
	}
	if v.PlayedAt != nil {
		out.PlayedAt = v.PlayedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func matchesToDTOs(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func gameRequestToDTO(v gamerequest.Request) gameRequestDTO {
	return gameRequestDTO{
		ID:         v.ID,
		DivisionID: v.DivisionID,
		FromPlayer: v.FromPlayer,
		ToPlayer:   v.ToPlayer,
		Kind:       string(v.Kind),
		Status:     string(v.Status),
		AcceptedBy: v.AcceptedBy,
		CreatedAt:  v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
