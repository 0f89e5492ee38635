package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pingis-club/league-api/internal/domain/division"
)

type DivisionRepository struct {
	mu    sync.RWMutex
	items map[string]division.Division
}

func NewDivisionRepository(seed []division.Division) *DivisionRepository {
	items := make(map[string]division.Division, len(seed))
	for _, d := range seed {
		items[d.ID] = d
	}
	return &DivisionRepository{items: items}
}

func (r *DivisionRepository) GetByID(_ context.Context, divisionID string) (division.Division, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[divisionID]
	return d, ok, nil
}

func (r *DivisionRepository) ListBySeason(_ context.Context, seasonID string) ([]division.Division, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]division.Division, 0, len(r.items))
	for _, d := range r.items {
		if d.SeasonID == seasonID {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type MembershipRepository struct {
	mu        sync.RWMutex
	items     map[string]division.Membership
	divisions *DivisionRepository
}

func NewMembershipRepository(divisions *DivisionRepository, seed []division.Membership) *MembershipRepository {
	items := make(map[string]division.Membership, len(seed))
	for _, m := range seed {
		items[m.ID] = m
	}
	return &MembershipRepository{items: items, divisions: divisions}
}

func (r *MembershipRepository) GetByDivisionAndPlayer(_ context.Context, divisionID, playerID string) (division.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.items {
		if m.DivisionID == divisionID && m.PlayerID == playerID {
			return cloneMembership(m), true, nil
		}
	}
	return division.Membership{}, false, nil
}

func (r *MembershipRepository) ListByDivision(_ context.Context, divisionID string) ([]division.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]division.Membership, 0, 8)
	for _, m := range r.items {
		if m.DivisionID == divisionID {
			out = append(out, cloneMembership(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MembershipRepository) FindForPlayerInSeason(ctx context.Context, seasonID, playerID string) (division.Membership, bool, error) {
	divs, err := r.divisions.ListBySeason(ctx, seasonID)
	if err != nil {
		return division.Membership{}, false, err
	}
	inSeason := make(map[string]struct{}, len(divs))
	for _, d := range divs {
		inSeason[d.ID] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.items {
		if m.PlayerID != playerID {
			continue
		}
		if _, ok := inSeason[m.DivisionID]; ok {
			return cloneMembership(m), true, nil
		}
	}
	return division.Membership{}, false, nil
}

// apply is used by settlement to write the post-match aggregates.
func (r *MembershipRepository) apply(m division.Membership) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[m.ID] = cloneMembership(m)
}

func cloneMembership(m division.Membership) division.Membership {
	copied := m
	if m.Position != nil {
		pos := *m.Position
		copied.Position = &pos
	}
	return copied
}
