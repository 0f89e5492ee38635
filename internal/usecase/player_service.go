package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/rating"
	"github.com/pingis-club/league-api/internal/domain/season"
	idgen "github.com/pingis-club/league-api/internal/platform/id"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

const defaultTopRatingLimit = 20

type RegisterPlayerInput struct {
	TelegramID int64
	Name       string
}

// PlayerProfile bundles the player with their current-season placement
// and recent rating history.
type PlayerProfile struct {
	Player     player.Player
	Division   *division.Division
	Membership *division.Membership
	History    []rating.HistoryEntry
}

type PlayerService struct {
	playerRepo     player.Repository
	seasonRepo     season.Repository
	divisionRepo   division.Repository
	membershipRepo division.MembershipRepository
	historyRepo    rating.HistoryRepository
	idGen          idgen.Generator
	logger         *logging.Logger
}

func NewPlayerService(
	playerRepo player.Repository,
	seasonRepo season.Repository,
	divisionRepo division.Repository,
	membershipRepo division.MembershipRepository,
	historyRepo rating.HistoryRepository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *PlayerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PlayerService{
		playerRepo:     playerRepo,
		seasonRepo:     seasonRepo,
		divisionRepo:   divisionRepo,
		membershipRepo: membershipRepo,
		historyRepo:    historyRepo,
		idGen:          idGen,
		logger:         logger,
	}
}

// RegisterByTelegram is idempotent: a returning player gets their existing
// record, a new one starts at the default rating.
func (s *PlayerService) RegisterByTelegram(ctx context.Context, input RegisterPlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.RegisterByTelegram")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if input.TelegramID <= 0 {
		return player.Player{}, fmt.Errorf("%w: telegram id is required", ErrInvalidInput)
	}
	if input.Name == "" {
		return player.Player{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}

	existing, found, err := s.playerRepo.GetByTelegramID(ctx, input.TelegramID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player by telegram id: %w", err)
	}
	if found {
		return existing, nil
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return player.Player{}, fmt.Errorf("generate player id: %w", err)
	}

	p := player.Player{
		ID:         newID,
		TelegramID: input.TelegramID,
		Name:       input.Name,
		Rating:     player.DefaultRating,
	}
	if err := s.playerRepo.Create(ctx, p); err != nil {
		return player.Player{}, fmt.Errorf("create player: %w", err)
	}

	s.logger.InfoContext(ctx, "player registered", "player_id", p.ID, "telegram_id", p.TelegramID)
	return p, nil
}

func (s *PlayerService) GetProfile(ctx context.Context, playerID string) (PlayerProfile, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetProfile")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return PlayerProfile{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	p, found, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("get player: %w", err)
	}
	if !found {
		return PlayerProfile{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}

	profile := PlayerProfile{Player: p}

	active, found, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("get active season: %w", err)
	}
	if found {
		membership, hasMembership, err := s.membershipRepo.FindForPlayerInSeason(ctx, active.ID, playerID)
		if err != nil {
			return PlayerProfile{}, fmt.Errorf("find membership: %w", err)
		}
		if hasMembership {
			profile.Membership = &membership
			div, hasDivision, err := s.divisionRepo.GetByID(ctx, membership.DivisionID)
			if err != nil {
				return PlayerProfile{}, fmt.Errorf("get division: %w", err)
			}
			if hasDivision {
				profile.Division = &div
			}
		}
	}

	history, err := s.historyRepo.ListByPlayer(ctx, playerID, 10)
	if err != nil {
		return PlayerProfile{}, fmt.Errorf("list rating history: %w", err)
	}
	profile.History = history

	return profile, nil
}

func (s *PlayerService) RatingHistory(ctx context.Context, playerID string, limit int) ([]rating.HistoryEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.RatingHistory")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	items, err := s.historyRepo.ListByPlayer(ctx, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rating history: %w", err)
	}
	return items, nil
}

func (s *PlayerService) TopByRating(ctx context.Context, limit int) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.TopByRating")
	defer span.End()

	if limit <= 0 {
		limit = defaultTopRatingLimit
	}

	items, err := s.playerRepo.ListTopByRating(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top players: %w", err)
	}
	return items, nil
}
