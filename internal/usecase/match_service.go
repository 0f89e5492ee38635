package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/rating"
	"github.com/pingis-club/league-api/internal/domain/season"
	idgen "github.com/pingis-club/league-api/internal/platform/id"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

// SubmitResultInput is the incoming payload for reporting a played match.
// Set counts are from the submitter's perspective.
type SubmitResultInput struct {
	SubmitterID string
	OpponentID  string
	MySets      int
	OppSets     int
}

type PreviewInput struct {
	PlayerID   string
	OpponentID string
	MySets     int
	OppSets    int
}

type MatchService struct {
	seasonRepo     season.Repository
	divisionRepo   division.Repository
	membershipRepo division.MembershipRepository
	playerRepo     player.Repository
	matchRepo      match.Repository
	notifier       Notifier
	idGen          idgen.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewMatchService(
	seasonRepo season.Repository,
	divisionRepo division.Repository,
	membershipRepo division.MembershipRepository,
	playerRepo player.Repository,
	matchRepo match.Repository,
	notifier Notifier,
	idGen idgen.Generator,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		seasonRepo:     seasonRepo,
		divisionRepo:   divisionRepo,
		membershipRepo: membershipRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		notifier:       notifier,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// submitGuard rejects submissions against a settled match or one pending
// on someone else's score. The submitter's own pending score may be
// overwritten: resubmitting before confirmation is last write wins.
func submitGuard(m match.Match, submitterID string) error {
	switch {
	case m.Status == match.StatusPlayed:
		return fmt.Errorf("%w: match against this opponent is already played", ErrConflict)
	case m.Status == match.StatusPendingConfirm && m.SubmittedBy != submitterID:
		return fmt.Errorf("%w: match is already awaiting confirmation", ErrConflict)
	}
	return nil
}

// SubmitResult records a result and parks it awaiting the opponent's
// confirmation. Nothing touches ratings or standings until Confirm.
func (s *MatchService) SubmitResult(ctx context.Context, input SubmitResultInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitResult")
	defer span.End()

	input.SubmitterID = strings.TrimSpace(input.SubmitterID)
	input.OpponentID = strings.TrimSpace(input.OpponentID)

	if input.SubmitterID == "" {
		return match.Match{}, fmt.Errorf("%w: submitter id is required", ErrInvalidInput)
	}
	if input.OpponentID == "" {
		return match.Match{}, fmt.Errorf("%w: opponent id is required", ErrInvalidInput)
	}
	if input.SubmitterID == input.OpponentID {
		return match.Match{}, fmt.Errorf("%w: cannot play against yourself", ErrInvalidInput)
	}
	if !match.ValidScore(input.MySets, input.OppSets) {
		return match.Match{}, fmt.Errorf("%w: score %d:%d is not a valid best-of-five result", ErrInvalidInput, input.MySets, input.OppSets)
	}

	membership, err := s.resolveMembership(ctx, input.SubmitterID)
	if err != nil {
		return match.Match{}, err
	}
	_, exists, err := s.membershipRepo.GetByDivisionAndPlayer(ctx, membership.DivisionID, input.OpponentID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get opponent membership: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: opponent is not in your division", ErrInvalidInput)
	}

	existing, found, err := s.matchRepo.FindBetween(ctx, membership.DivisionID, input.SubmitterID, input.OpponentID)
	if err != nil {
		return match.Match{}, fmt.Errorf("find match between players: %w", err)
	}

	var m match.Match
	if found {
		if err := submitGuard(existing, input.SubmitterID); err != nil {
			return match.Match{}, err
		}
		m = existing
	} else {
		newID, idErr := s.idGen.NewID()
		if idErr != nil {
			return match.Match{}, fmt.Errorf("generate match id: %w", idErr)
		}
		m = match.Match{
			ID:         newID,
			DivisionID: membership.DivisionID,
			Player1ID:  input.SubmitterID,
			Player2ID:  input.OpponentID,
		}
		if err := s.matchRepo.Create(ctx, m); err != nil {
			return match.Match{}, fmt.Errorf("create match: %w", err)
		}
		// The pair-unique index may have kept a concurrently created row
		// instead of ours, possibly with the players stored in the other
		// order. Re-read so the submission lands on the surviving row.
		surviving, ok, err := s.matchRepo.FindBetween(ctx, membership.DivisionID, input.SubmitterID, input.OpponentID)
		if err != nil {
			return match.Match{}, fmt.Errorf("reread match after create: %w", err)
		}
		if ok {
			if err := submitGuard(surviving, input.SubmitterID); err != nil {
				return match.Match{}, err
			}
			m = surviving
		}
	}

	// Scores are stored from player1's perspective.
	if m.Player1ID == input.SubmitterID {
		m.Score1 = input.MySets
		m.Score2 = input.OppSets
	} else {
		m.Score1 = input.OppSets
		m.Score2 = input.MySets
	}
	m.SubmittedBy = input.SubmitterID
	m.Status = match.StatusPendingConfirm

	if err := s.matchRepo.UpsertPending(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("store pending result: %w", err)
	}

	s.notifyResultSubmitted(ctx, m, input.SubmitterID, input.OpponentID)
	return m, nil
}

// Confirm settles a pending result: ratings move, standings aggregates
// update and two history rows are written, all in one atomic store write.
// Ratings are re-read here so the delta uses confirm-time values.
func (s *MatchService) Confirm(ctx context.Context, matchID, confirmerID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Confirm")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	confirmerID = strings.TrimSpace(confirmerID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if confirmerID == "" {
		return match.Match{}, fmt.Errorf("%w: confirmer id is required", ErrInvalidInput)
	}

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if m.Status != match.StatusPendingConfirm {
		return match.Match{}, fmt.Errorf("%w: match is not awaiting confirmation", ErrConflict)
	}
	if !m.Involves(confirmerID) {
		return match.Match{}, fmt.Errorf("%w: only participants can confirm", ErrUnauthorized)
	}
	if m.SubmittedBy == confirmerID {
		return match.Match{}, fmt.Errorf("%w: the submitter cannot confirm their own result", ErrUnauthorized)
	}

	div, found, err := s.divisionRepo.GetByID(ctx, m.DivisionID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get division: %w", err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: division=%s", ErrNotFound, m.DivisionID)
	}

	winnerID := m.WinnerID()
	loserID := m.LoserID()

	var (
		winner, loser         player.Player
		winnerMemb, loserMemb division.Membership
	)
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		winner, err = s.requirePlayer(ctx, winnerID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		loser, err = s.requirePlayer(ctx, loserID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		winnerMemb, err = s.requireMembership(ctx, m.DivisionID, winnerID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		loserMemb, err = s.requireMembership(ctx, m.DivisionID, loserID)
		return err
	})
	if err := p.Wait(); err != nil {
		return match.Match{}, err
	}

	winnerSets, loserSets := m.Score1, m.Score2
	if winnerSets < loserSets {
		winnerSets, loserSets = loserSets, winnerSets
	}

	delta := rating.MatchDelta(winner.Rating, loser.Rating, winnerSets, loserSets, div.Coef)

	winnerMemb.TotalPoints += 2
	winnerMemb.TotalSetsWon += winnerSets
	winnerMemb.TotalSetsLost += loserSets
	winnerMemb.RatingDelta = rating.Round2(winnerMemb.RatingDelta + delta.Winner)

	loserMemb.TotalPoints += 1
	loserMemb.TotalSetsWon += loserSets
	loserMemb.TotalSetsLost += winnerSets
	loserMemb.RatingDelta = rating.Round2(loserMemb.RatingDelta + delta.Loser)

	playedAt := s.now().UTC()
	settlement := match.Settlement{
		MatchID:  m.ID,
		PlayedAt: playedAt,
		WinnerRating: rating.Update{
			PlayerID:  winner.ID,
			OldRating: winner.Rating,
			NewRating: rating.Round2(winner.Rating + delta.Winner),
			Delta:     delta.Winner,
		},
		LoserRating: rating.Update{
			PlayerID:  loser.ID,
			OldRating: loser.Rating,
			NewRating: rating.Round2(loser.Rating + delta.Loser),
			Delta:     delta.Loser,
		},
		WinnerMembership: winnerMemb,
		LoserMembership:  loserMemb,
	}
	for i, upd := range []rating.Update{settlement.WinnerRating, settlement.LoserRating} {
		entryID, idErr := s.idGen.NewID()
		if idErr != nil {
			return match.Match{}, fmt.Errorf("generate history id: %w", idErr)
		}
		settlement.History[i] = rating.HistoryEntry{
			ID:        entryID,
			PlayerID:  upd.PlayerID,
			MatchID:   m.ID,
			OldRating: upd.OldRating,
			NewRating: upd.NewRating,
			Delta:     upd.Delta,
			CreatedAt: playedAt,
		}
	}

	if err := s.matchRepo.Settle(ctx, settlement); err != nil {
		if errors.Is(err, match.ErrAlreadySettled) {
			return match.Match{}, fmt.Errorf("%w: match was already confirmed", ErrConflict)
		}
		return match.Match{}, fmt.Errorf("settle match: %w", err)
	}

	s.logger.InfoContext(ctx, "match settled",
		"match_id", m.ID,
		"winner_id", winner.ID,
		"loser_id", loser.ID,
		"delta_winner", delta.Winner,
		"delta_loser", delta.Loser,
	)

	m.Status = match.StatusPlayed
	m.PlayedAt = &playedAt
	s.notifyResultConfirmed(ctx, m, confirmerID)
	return m, nil
}

// Reject returns a disputed submission to the unplayed state so the pair
// can submit again.
func (s *MatchService) Reject(ctx context.Context, matchID, rejecterID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Reject")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	rejecterID = strings.TrimSpace(rejecterID)
	if matchID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if rejecterID == "" {
		return fmt.Errorf("%w: rejecter id is required", ErrInvalidInput)
	}

	m, found, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if m.Status != match.StatusPendingConfirm {
		return fmt.Errorf("%w: match is not awaiting confirmation", ErrConflict)
	}
	if !m.Involves(rejecterID) {
		return fmt.Errorf("%w: only participants can reject", ErrUnauthorized)
	}
	if m.SubmittedBy == rejecterID {
		return fmt.Errorf("%w: the submitter cannot reject their own result", ErrUnauthorized)
	}

	if err := s.matchRepo.RevertToUnplayed(ctx, matchID); err != nil {
		return fmt.Errorf("revert match: %w", err)
	}
	s.notifyResultRejected(ctx, m, rejecterID)
	return nil
}

// Preview computes the rating change the player would see if the given
// result were confirmed right now. Read-only.
func (s *MatchService) Preview(ctx context.Context, input PreviewInput) (rating.Preview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Preview")
	defer span.End()

	input.PlayerID = strings.TrimSpace(input.PlayerID)
	input.OpponentID = strings.TrimSpace(input.OpponentID)
	if input.PlayerID == "" || input.OpponentID == "" {
		return rating.Preview{}, fmt.Errorf("%w: player and opponent ids are required", ErrInvalidInput)
	}

	membership, err := s.resolveMembership(ctx, input.PlayerID)
	if err != nil {
		return rating.Preview{}, err
	}
	div, found, err := s.divisionRepo.GetByID(ctx, membership.DivisionID)
	if err != nil {
		return rating.Preview{}, fmt.Errorf("get division: %w", err)
	}
	if !found {
		return rating.Preview{}, fmt.Errorf("%w: division=%s", ErrNotFound, membership.DivisionID)
	}

	me, err := s.requirePlayer(ctx, input.PlayerID)
	if err != nil {
		return rating.Preview{}, err
	}
	opponent, err := s.requirePlayer(ctx, input.OpponentID)
	if err != nil {
		return rating.Preview{}, err
	}

	preview, ok := rating.PreviewDelta(me.Rating, opponent.Rating, input.MySets, input.OppSets, div.Coef)
	if !ok {
		return rating.Preview{}, fmt.Errorf("%w: score %d:%d is not a valid best-of-five result", ErrInvalidInput, input.MySets, input.OppSets)
	}
	return preview, nil
}

// DivisionMatches returns the full match grid for a division.
func (s *MatchService) DivisionMatches(ctx context.Context, divisionID string) ([]match.Match, error) {
	divisionID = strings.TrimSpace(divisionID)
	if divisionID == "" {
		return nil, fmt.Errorf("%w: division id is required", ErrInvalidInput)
	}

	_, found, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("get division: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: division=%s", ErrNotFound, divisionID)
	}

	items, err := s.matchRepo.ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("list division matches: %w", err)
	}
	return items, nil
}

// PendingForPlayer lists results waiting on the player's confirmation.
func (s *MatchService) PendingForPlayer(ctx context.Context, playerID string) ([]match.Match, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	items, err := s.matchRepo.ListPendingForPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list pending matches: %w", err)
	}
	return items, nil
}

func (s *MatchService) resolveMembership(ctx context.Context, playerID string) (division.Membership, error) {
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

func (s *MatchService) requirePlayer(ctx context.Context, playerID string) (player.Player, error) {
	p, found, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !found {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}
	return p, nil
}

func (s *MatchService) requireMembership(ctx context.Context, divisionID, playerID string) (division.Membership, error) {
	m, found, err := s.membershipRepo.GetByDivisionAndPlayer(ctx, divisionID, playerID)
	if err != nil {
		return division.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	if !found {
		return division.Membership{}, fmt.Errorf("%w: player=%s is not in division=%s", ErrNotFound, playerID, divisionID)
	}
	return m, nil
}

func (s *MatchService) notifyResultSubmitted(ctx context.Context, m match.Match, submitterID, opponentID string) {
	if s.notifier == nil {
		return
	}
	s.notifyMatchEvent(ctx, m, submitterID, opponentID, "submitted", s.notifier.NotifyResultSubmitted)
}

func (s *MatchService) notifyResultConfirmed(ctx context.Context, m match.Match, confirmerID string) {
	if s.notifier == nil {
		return
	}
	s.notifyMatchEvent(ctx, m, confirmerID, m.SubmittedBy, "confirmed", s.notifier.NotifyResultConfirmed)
}

func (s *MatchService) notifyResultRejected(ctx context.Context, m match.Match, rejecterID string) {
	if s.notifier == nil {
		return
	}
	s.notifyMatchEvent(ctx, m, rejecterID, m.SubmittedBy, "rejected", s.notifier.NotifyResultRejected)
}

func (s *MatchService) notifyMatchEvent(
	ctx context.Context,
	m match.Match,
	fromID, toID, event string,
	send func(ctx context.Context, to player.Player, from player.Player, m match.Match) error,
) {
	from, foundFrom, err := s.playerRepo.GetByID(ctx, fromID)
	if err != nil || !foundFrom {
		return
	}
	to, foundTo, err := s.playerRepo.GetByID(ctx, toID)
	if err != nil || !foundTo {
		return
	}

	if err := send(ctx, to, from, m); err != nil {
		s.logger.WarnContext(ctx, "result notification failed",
			"match_id", m.ID,
			"event", event,
			"to_player", to.ID,
			"error", err,
		)
	}
}
