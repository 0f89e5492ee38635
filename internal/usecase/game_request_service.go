package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/gamerequest"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/season"
	idgen "github.com/pingis-club/league-api/internal/platform/id"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

type CreateGameRequestInput struct {
	FromPlayerID string
	// ToPlayerID empty means an open request visible to the whole division.
	ToPlayerID string
}

type GameRequestService struct {
	seasonRepo     season.Repository
	membershipRepo division.MembershipRepository
	playerRepo     player.Repository
	requestRepo    gamerequest.Repository
	notifier       Notifier
	idGen          idgen.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewGameRequestService(
	seasonRepo season.Repository,
	membershipRepo division.MembershipRepository,
	playerRepo player.Repository,
	requestRepo gamerequest.Repository,
	notifier Notifier,
	idGen idgen.Generator,
	logger *logging.Logger,
) *GameRequestService {
	if logger == nil {
		logger = logging.Default()
	}

	return &GameRequestService{
		seasonRepo:     seasonRepo,
		membershipRepo: membershipRepo,
		playerRepo:     playerRepo,
		requestRepo:    requestRepo,
		notifier:       notifier,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *GameRequestService) Create(ctx context.Context, input CreateGameRequestInput) (gamerequest.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameRequestService.Create")
	defer span.End()

	input.FromPlayerID = strings.TrimSpace(input.FromPlayerID)
	input.ToPlayerID = strings.TrimSpace(input.ToPlayerID)

	if input.FromPlayerID == "" {
		return gamerequest.Request{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if input.ToPlayerID == input.FromPlayerID {
		return gamerequest.Request{}, fmt.Errorf("%w: cannot request a game against yourself", ErrInvalidInput)
	}

	membership, err := s.resolveMembership(ctx, input.FromPlayerID)
	if err != nil {
		return gamerequest.Request{}, err
	}

	kind := gamerequest.KindOpen
	if input.ToPlayerID != "" {
		kind = gamerequest.KindDirected
		_, exists, err := s.membershipRepo.GetByDivisionAndPlayer(ctx, membership.DivisionID, input.ToPlayerID)
		if err != nil {
			return gamerequest.Request{}, fmt.Errorf("get opponent membership: %w", err)
		}
		if !exists {
			return gamerequest.Request{}, fmt.Errorf("%w: opponent is not in your division", ErrInvalidInput)
		}
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return gamerequest.Request{}, fmt.Errorf("generate request id: %w", err)
	}

	req := gamerequest.Request{
		ID:         newID,
		DivisionID: membership.DivisionID,
		FromPlayer: input.FromPlayerID,
		ToPlayer:   input.ToPlayerID,
		Kind:       kind,
		Status:     gamerequest.StatusOpen,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return gamerequest.Request{}, fmt.Errorf("create game request: %w", err)
	}

	s.notifyGameRequested(ctx, req)
	return req, nil
}

func (s *GameRequestService) Accept(ctx context.Context, requestID, playerID string) (gamerequest.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameRequestService.Accept")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	playerID = strings.TrimSpace(playerID)
	if requestID == "" || playerID == "" {
		return gamerequest.Request{}, fmt.Errorf("%w: request and player ids are required", ErrInvalidInput)
	}

	req, found, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return gamerequest.Request{}, fmt.Errorf("get game request: %w", err)
	}
	if !found {
		return gamerequest.Request{}, fmt.Errorf("%w: request=%s", ErrNotFound, requestID)
	}
	if req.FromPlayer == playerID {
		return gamerequest.Request{}, fmt.Errorf("%w: cannot accept your own request", ErrInvalidInput)
	}
	if req.Kind == gamerequest.KindDirected && req.ToPlayer != playerID {
		return gamerequest.Request{}, fmt.Errorf("%w: request is directed at another player", ErrUnauthorized)
	}
	if req.Kind == gamerequest.KindOpen {
		_, exists, err := s.membershipRepo.GetByDivisionAndPlayer(ctx, req.DivisionID, playerID)
		if err != nil {
			return gamerequest.Request{}, fmt.Errorf("get membership: %w", err)
		}
		if !exists {
			return gamerequest.Request{}, fmt.Errorf("%w: only division members can accept", ErrUnauthorized)
		}
	}

	if err := s.requestRepo.Accept(ctx, requestID, playerID); err != nil {
		if errors.Is(err, gamerequest.ErrNotOpen) {
			return gamerequest.Request{}, fmt.Errorf("%w: request is no longer open", ErrConflict)
		}
		return gamerequest.Request{}, fmt.Errorf("accept game request: %w", err)
	}

	req.Status = gamerequest.StatusAccepted
	req.AcceptedBy = playerID
	return req, nil
}

func (s *GameRequestService) Cancel(ctx context.Context, requestID, playerID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameRequestService.Cancel")
	defer span.End()

	requestID = strings.TrimSpace(requestID)
	playerID = strings.TrimSpace(playerID)
	if requestID == "" || playerID == "" {
		return fmt.Errorf("%w: request and player ids are required", ErrInvalidInput)
	}

	req, found, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get game request: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: request=%s", ErrNotFound, requestID)
	}
	if req.FromPlayer != playerID {
		return fmt.Errorf("%w: only the requester can cancel", ErrUnauthorized)
	}

	if err := s.requestRepo.Cancel(ctx, requestID); err != nil {
		if errors.Is(err, gamerequest.ErrNotOpen) {
			return fmt.Errorf("%w: request is no longer open", ErrConflict)
		}
		return fmt.Errorf("cancel game request: %w", err)
	}
	return nil
}

func (s *GameRequestService) ListOpenForPlayer(ctx context.Context, playerID string) ([]gamerequest.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameRequestService.ListOpenForPlayer")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	membership, err := s.resolveMembership(ctx, playerID)
	if err != nil {
		return nil, err
	}

	items, err := s.requestRepo.ListOpenByDivision(ctx, membership.DivisionID)
	if err != nil {
		return nil, fmt.Errorf("list open game requests: %w", err)
	}

	out := make([]gamerequest.Request, 0, len(items))
	for _, req := range items {
		if req.FromPlayer == playerID {
			continue
		}
		if req.Kind == gamerequest.KindDirected && req.ToPlayer != playerID {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

// ListMine returns the caller's own still-open requests.
func (s *GameRequestService) ListMine(ctx context.Context, playerID string) ([]gamerequest.Request, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameRequestService.ListMine")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	membership, err := s.resolveMembership(ctx, playerID)
	if err != nil {
		return nil, err
	}

	items, err := s.requestRepo.ListOpenByDivision(ctx, membership.DivisionID)
	if err != nil {
		return nil, fmt.Errorf("list open game requests: %w", err)
	}

	out := make([]gamerequest.Request, 0, len(items))
	for _, req := range items {
		if req.FromPlayer != playerID {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *GameRequestService) resolveMembership(ctx context.Context, playerID string) (division.Membership, error) {
	active, found, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return division.Membership{}, fmt.Errorf("get active season: %w", err)
	}
	if !found {
		return division.Membership{}, fmt.Errorf("%w: no active season", ErrNotFound)
	}

	membership, found, err := s.membershipRepo.FindForPlayerInSeason(ctx, active.ID, playerID)
	if err != nil {
		return division.Membership{}, fmt.Errorf("find membership: %w", err)
	}
	if !found {
		return division.Membership{}, fmt.Errorf("%w: player=%s has no division in the active season", ErrNotFound, playerID)
	}
	return membership, nil
}

func (s *GameRequestService) notifyGameRequested(ctx context.Context, req gamerequest.Request) {
	if s.notifier == nil || req.ToPlayer == "" {
		return
	}

	from, foundFrom, err := s.playerRepo.GetByID(ctx, req.FromPlayer)
	if err != nil || !foundFrom {
		return
	}
	to, foundTo, err := s.playerRepo.GetByID(ctx, req.ToPlayer)
	if err != nil || !foundTo {
		return
	}

	if err := s.notifier.NotifyGameRequested(ctx, to, from); err != nil {
		s.logger.WarnContext(ctx, "game request notification failed",
			"request_id", req.ID,
			"to_player", to.ID,
			"error", err,
		)
	}
}
