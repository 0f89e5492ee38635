package memory

import (
	"context"
	"sync"

	"github.com/pingis-club/league-api/internal/domain/season"
)

type SeasonRepository struct {
	mu    sync.RWMutex
	items map[string]season.Season
}

func NewSeasonRepository(seed []season.Season) *SeasonRepository {
	items := make(map[string]season.Season, len(seed))
	for _, s := range seed {
		items[s.ID] = s
	}
	return &SeasonRepository{items: items}
}

func (r *SeasonRepository) GetActive(_ context.Context) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.Status == season.StatusActive {
			return s, true, nil
		}
	}
	return season.Season{}, false, nil
}
