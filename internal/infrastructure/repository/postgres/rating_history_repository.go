package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pingis-club/league-api/internal/domain/rating"
	qb "github.com/pingis-club/league-api/internal/platform/querybuilder"
)

type RatingHistoryRepository struct {
	db *sqlx.DB
}

func NewRatingHistoryRepository(db *sqlx.DB) *RatingHistoryRepository {
	return &RatingHistoryRepository{db: db}
}

func (r *RatingHistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]rating.HistoryEntry, error) {
	query, args, err := qb.Select("*").From("rating_history").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("created_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rating history query: %w", err)
	}

	var rows []ratingHistoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rating history: %w", err)
	}

	out := make([]rating.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *RatingHistoryRepository) ExistsForMatch(ctx context.Context, matchID string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("rating_history").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build history exists query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check rating history for match: %w", err)
	}
	return count > 0, nil
}
