package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pingis-club/league-api/internal/domain/gamerequest"
)

type GameRequestRepository struct {
	mu    sync.RWMutex
	items map[string]gamerequest.Request
}

func NewGameRequestRepository() *GameRequestRepository {
	return &GameRequestRepository{items: make(map[string]gamerequest.Request)}
}

func (r *GameRequestRepository) GetByID(_ context.Context, requestID string) (gamerequest.Request, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.items[requestID]
	return req, ok, nil
}

func (r *GameRequestRepository) ListOpenByDivision(_ context.Context, divisionID string) ([]gamerequest.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gamerequest.Request, 0, 4)
	for _, req := range r.items {
		if req.DivisionID == divisionID && req.Status == gamerequest.StatusOpen {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *GameRequestRepository) Create(_ context.Context, req gamerequest.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[req.ID] = req
	return nil
}

func (r *GameRequestRepository) Accept(_ context.Context, requestID, byPlayerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[requestID]
	if !ok || req.Status != gamerequest.StatusOpen {
		return gamerequest.ErrNotOpen
	}
	req.Status = gamerequest.StatusAccepted
	req.AcceptedBy = byPlayerID
	r.items[requestID] = req
	return nil
}

func (r *GameRequestRepository) Cancel(_ context.Context, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.items[requestID]
	if !ok || req.Status != gamerequest.StatusOpen {
		return gamerequest.ErrNotOpen
	}
	req.Status = gamerequest.StatusCancelled
	r.items[requestID] = req
	return nil
}
