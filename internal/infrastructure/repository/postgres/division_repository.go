package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pingis-club/league-api/internal/domain/division"
	qb "github.com/pingis-club/league-api/internal/platform/querybuilder"
)

type DivisionRepository struct {
	db *sqlx.DB
}

func NewDivisionRepository(db *sqlx.DB) *DivisionRepository {
	return &DivisionRepository{db: db}
}

func (r *DivisionRepository) GetByID(ctx context.Context, divisionID string) (division.Division, bool, error) {
	query, args, err := qb.Select("*").From("divisions").
		Where(qb.Eq("id", divisionID)).
		ToSQL()
	if err != nil {
		return division.Division{}, false, fmt.Errorf("build get division query: %w", err)
	}

	var row divisionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return division.Division{}, false, nil
		}
		return division.Division{}, false, fmt.Errorf("get division: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *DivisionRepository) ListBySeason(ctx context.Context, seasonID string) ([]division.Division, error) {
	query, args, err := qb.Select("*").From("divisions").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list divisions query: %w", err)
	}

	var rows []divisionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}

	out := make([]division.Division, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) GetByDivisionAndPlayer(ctx context.Context, divisionID, playerID string) (division.Membership, bool, error) {
	query, args, err := qb.Select("*").From("division_players").
		Where(qb.Eq("division_id", divisionID), qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return division.Membership{}, false, fmt.Errorf("build get membership query: %w", err)
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return division.Membership{}, false, nil
		}
		return division.Membership{}, false, fmt.Errorf("get membership: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MembershipRepository) ListByDivision(ctx context.Context, divisionID string) ([]division.Membership, error) {
	query, args, err := qb.Select("*").From("division_players").
		Where(qb.Eq("division_id", divisionID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list memberships query: %w", err)
	}

	var rows []membershipTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	out := make([]division.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MembershipRepository) FindForPlayerInSeason(ctx context.Context, seasonID, playerID string) (division.Membership, bool, error) {
	query, args, err := qb.Select("dp.*").From("division_players dp JOIN divisions d ON d.id = dp.division_id").
		Where(qb.Eq("d.season_id", seasonID), qb.Eq("dp.player_id", playerID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return division.Membership{}, false, fmt.Errorf("build find membership query: %w", err)
	}

	var row membershipTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return division.Membership{}, false, nil
		}
		return division.Membership{}, false, fmt.Errorf("find membership: %w", err)
	}
	return row.toDomain(), true, nil
}
