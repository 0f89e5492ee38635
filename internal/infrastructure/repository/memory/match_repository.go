package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pingis-club/league-api/internal/domain/match"
)

// MatchRepository keeps match rows plus the cross-entity settlement.
// Settle mirrors the transactional store: the status compare-and-swap
// runs under the write lock, so concurrent confirms settle exactly once.
type MatchRepository struct {
	mu    sync.RWMutex
	items map[string]match.Match

	players     *PlayerRepository
	memberships *MembershipRepository
	history     *RatingHistoryRepository
}

func NewMatchRepository(
	players *PlayerRepository,
	memberships *MembershipRepository,
	history *RatingHistoryRepository,
	seed []match.Match,
) *MatchRepository {
	items := make(map[string]match.Match, len(seed))
	for _, m := range seed {
		items[m.ID] = m
	}
	return &MatchRepository{
		items:       items,
		players:     players,
		memberships: memberships,
		history:     history,
	}
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return cloneMatch(m), true, nil
}

func (r *MatchRepository) FindBetween(_ context.Context, divisionID, playerA, playerB string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.items {
		if m.DivisionID != divisionID {
			continue
		}
		if (m.Player1ID == playerA && m.Player2ID == playerB) ||
			(m.Player1ID == playerB && m.Player2ID == playerA) {
			return cloneMatch(m), true, nil
		}
	}
	return match.Match{}, false, nil
}

func (r *MatchRepository) ListByDivision(_ context.Context, divisionID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, 16)
	for _, m := range r.items {
		if m.DivisionID == divisionID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) ListPendingForPlayer(_ context.Context, playerID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, 4)
	for _, m := range r.items {
		// A player's own open submission waits on the opponent, not them.
		if m.Status == match.StatusPendingConfirm && m.Involves(playerID) && m.SubmittedBy != playerID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) Create(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) UpsertPending(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.Status = match.StatusPendingConfirm
	r.items[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) RevertToUnplayed(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.Status = match.StatusNotPlayed
	m.Score1 = 0
	m.Score2 = 0
	m.SubmittedBy = ""
	m.PlayedAt = nil
	r.items[matchID] = m
	return nil
}

func (r *MatchRepository) Settle(_ context.Context, s match.Settlement) error {
	r.mu.Lock()
	m, ok := r.items[s.MatchID]
	if !ok || m.Status != match.StatusPendingConfirm {
		r.mu.Unlock()
		return match.ErrAlreadySettled
	}
	playedAt := s.PlayedAt
	m.Status = match.StatusPlayed
	m.PlayedAt = &playedAt
	r.items[s.MatchID] = m
	r.mu.Unlock()

	r.players.applyRating(s.WinnerRating.PlayerID, s.WinnerRating.NewRating)
	r.players.applyRating(s.LoserRating.PlayerID, s.LoserRating.NewRating)
	r.memberships.apply(s.WinnerMembership)
	r.memberships.apply(s.LoserMembership)
	r.history.Append(s.History[0], s.History[1])
	return nil
}

func (r *MatchRepository) ListPendingWithHistory(ctx context.Context) ([]match.Match, error) {
	r.mu.RLock()
	pending := make([]match.Match, 0, 4)
	for _, m := range r.items {
		if m.Status == match.StatusPendingConfirm {
			pending = append(pending, cloneMatch(m))
		}
	}
	r.mu.RUnlock()

	out := make([]match.Match, 0, len(pending))
	for _, m := range pending {
		exists, err := r.history.ExistsForMatch(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) CompleteSettlementFlip(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok || m.Status != match.StatusPendingConfirm {
		return match.ErrAlreadySettled
	}
	m.Status = match.StatusPlayed
	r.items[matchID] = m
	return nil
}

func cloneMatch(m match.Match) match.Match {
	copied := m
	if m.PlayedAt != nil {
		at := *m.PlayedAt
		copied.PlayedAt = &at
	}
	return copied
}
