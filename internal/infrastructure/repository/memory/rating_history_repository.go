package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pingis-club/league-api/internal/domain/rating"
)

type RatingHistoryRepository struct {
	mu    sync.RWMutex
	items []rating.HistoryEntry
}

func NewRatingHistoryRepository() *RatingHistoryRepository {
	return &RatingHistoryRepository{}
}

func (r *RatingHistoryRepository) ListByPlayer(_ context.Context, playerID string, limit int) ([]rating.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rating.HistoryEntry, 0, 8)
	for _, e := range r.items {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RatingHistoryRepository) ExistsForMatch(_ context.Context, matchID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.items {
		if e.MatchID == matchID {
			return true, nil
		}
	}
	return false, nil
}

// Append records entries directly, used by settlement and test seeding.
func (r *RatingHistoryRepository) Append(entries ...rating.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, entries...)
}
