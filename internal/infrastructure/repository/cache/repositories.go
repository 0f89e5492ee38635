package cache

import (
	"context"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/season"
	basecache "github.com/pingis-club/league-api/internal/platform/cache"
)

type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache}
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "season:active", func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetActive(ctx)
		if err != nil {
			return nil, err
		}
		return cachedSeason{value: item, exists: exists}, nil
	})
	if err != nil {
		return season.Season{}, false, err
	}

	cached, _ := v.(cachedSeason)
	return cached.value, cached.exists, nil
}

type cachedSeason struct {
	value  season.Season
	exists bool
}

type DivisionRepository struct {
	next  division.Repository
	cache *basecache.Store
}

func NewDivisionRepository(next division.Repository, cache *basecache.Store) *DivisionRepository {
	return &DivisionRepository{next: next, cache: cache}
}

func (r *DivisionRepository) GetByID(ctx context.Context, divisionID string) (division.Division, bool, error) {
	key := "division:id:" + divisionID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, divisionID)
		if err != nil {
			return nil, err
		}
		return cachedDivisionByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return division.Division{}, false, err
	}

	cached, _ := v.(cachedDivisionByID)
	return cached.value, cached.exists, nil
}

func (r *DivisionRepository) ListBySeason(ctx context.Context, seasonID string) ([]division.Division, error) {
	key := "division:list:season:" + seasonID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListBySeason(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		return append([]division.Division(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]division.Division)
	return append([]division.Division(nil), items...), nil
}

type cachedDivisionByID struct {
	value  division.Division
	exists bool
}

type MembershipRepository struct {
	next  division.MembershipRepository
	cache *basecache.Store
}

func NewMembershipRepository(next division.MembershipRepository, cache *basecache.Store) *MembershipRepository {
	return &MembershipRepository{next: next, cache: cache}
}

func (r *MembershipRepository) GetByDivisionAndPlayer(ctx context.Context, divisionID, playerID string) (division.Membership, bool, error) {
	key := membershipKey(divisionID, playerID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByDivisionAndPlayer(ctx, divisionID, playerID)
		if err != nil {
			return nil, err
		}
		return cachedMembership{value: cloneMembership(item), exists: exists}, nil
	})
	if err != nil {
		return division.Membership{}, false, err
	}

	cached, _ := v.(cachedMembership)
	return cloneMembership(cached.value), cached.exists, nil
}

func (r *MembershipRepository) ListByDivision(ctx context.Context, divisionID string) ([]division.Membership, error) {
	key := "membership:list:division:" + divisionID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByDivision(ctx, divisionID)
		if err != nil {
			return nil, err
		}
		out := make([]division.Membership, 0, len(items))
		for _, item := range items {
			out = append(out, cloneMembership(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]division.Membership)
	out := make([]division.Membership, 0, len(items))
	for _, item := range items {
		out = append(out, cloneMembership(item))
	}
	return out, nil
}

func (r *MembershipRepository) FindForPlayerInSeason(ctx context.Context, seasonID, playerID string) (division.Membership, bool, error) {
	key := "membership:season:" + seasonID + ":player:" + playerID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.FindForPlayerInSeason(ctx, seasonID, playerID)
		if err != nil {
			return nil, err
		}
		return cachedMembership{value: cloneMembership(item), exists: exists}, nil
	})
	if err != nil {
		return division.Membership{}, false, err
	}

	cached, _ := v.(cachedMembership)
	return cloneMembership(cached.value), cached.exists, nil
}

type cachedMembership struct {
	value  division.Membership
	exists bool
}

func cloneMembership(item division.Membership) division.Membership {
	out := item
	if item.Position != nil {
		pos := *item.Position
		out.Position = &pos
	}
	return out
}

func membershipKey(divisionID, playerID string) string {
	return "membership:division:" + divisionID + ":player:" + playerID
}

// MatchRepository keeps the division match grid cached and is the write
// path that invalidates membership aggregates when a settlement lands.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	return r.next.GetByID(ctx, matchID)
}

func (r *MatchRepository) FindBetween(ctx context.Context, divisionID, playerA, playerB string) (match.Match, bool, error) {
	return r.next.FindBetween(ctx, divisionID, playerA, playerB)
}

func (r *MatchRepository) ListByDivision(ctx context.Context, divisionID string) ([]match.Match, error) {
	key := matchListKey(divisionID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByDivision(ctx, divisionID)
		if err != nil {
			return nil, err
		}
		out := make([]match.Match, 0, len(items))
		for _, item := range items {
			out = append(out, cloneMatch(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		out = append(out, cloneMatch(item))
	}
	return out, nil
}

func (r *MatchRepository) ListPendingForPlayer(ctx context.Context, playerID string) ([]match.Match, error) {
	return r.next.ListPendingForPlayer(ctx, playerID)
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	if err := r.next.Create(ctx, m); err != nil {
		return err
	}
	r.cache.Delete(ctx, matchListKey(m.DivisionID))
	return nil
}

func (r *MatchRepository) UpsertPending(ctx context.Context, m match.Match) error {
	if err := r.next.UpsertPending(ctx, m); err != nil {
		return err
	}
	r.cache.Delete(ctx, matchListKey(m.DivisionID))
	return nil
}

func (r *MatchRepository) RevertToUnplayed(ctx context.Context, matchID string) error {
	if err := r.next.RevertToUnplayed(ctx, matchID); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "match:list:division:")
	return nil
}

func (r *MatchRepository) Settle(ctx context.Context, s match.Settlement) error {
	if err := r.next.Settle(ctx, s); err != nil {
		return err
	}
	r.invalidateSettlement(ctx)
	return nil
}

func (r *MatchRepository) ListPendingWithHistory(ctx context.Context) ([]match.Match, error) {
	return r.next.ListPendingWithHistory(ctx)
}

func (r *MatchRepository) CompleteSettlementFlip(ctx context.Context, matchID string) error {
	if err := r.next.CompleteSettlementFlip(ctx, matchID); err != nil {
		return err
	}
	r.invalidateSettlement(ctx)
	return nil
}

// invalidateSettlement drops every key a settlement can change: the match
// grid plus the membership aggregates feeding the standings projection.
func (r *MatchRepository) invalidateSettlement(ctx context.Context) {
	r.cache.DeletePrefix(ctx, "match:list:division:")
	r.cache.DeletePrefix(ctx, "membership:")
}

func cloneMatch(item match.Match) match.Match {
	out := item
	if item.PlayedAt != nil {
		at := *item.PlayedAt
		out.PlayedAt = &at
	}
	return out
}

func matchListKey(divisionID string) string {
	return "match:list:division:" + divisionID
}
