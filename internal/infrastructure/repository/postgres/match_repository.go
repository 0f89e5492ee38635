package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/rating"
	qb "github.com/pingis-club/league-api/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) FindBetween(ctx context.Context, divisionID, playerA, playerB string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("division_id", divisionID),
			qb.Expr("((player1_id = ? AND player2_id = ?) OR (player1_id = ? AND player2_id = ?))",
				playerA, playerB, playerB, playerA),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build find match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("find match between players: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListByDivision(ctx context.Context, divisionID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("division_id", divisionID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

// ListPendingForPlayer returns results awaiting this player's confirmation.
// The player's own open submissions are excluded: those wait on the
// opponent, not on them.
func (r *MatchRepository) ListPendingForPlayer(ctx context.Context, playerID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.EqLiteral("status", string(match.StatusPendingConfirm)),
			qb.Expr("(player1_id = ? OR player2_id = ?)", playerID, playerID),
			qb.Expr("submitted_by <> ?", playerID),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pending matches: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	model := matchTableModel{
		ID:          m.ID,
		DivisionID:  m.DivisionID,
		Player1ID:   m.Player1ID,
		Player2ID:   m.Player2ID,
		Status:      string(match.StatusNotPlayed),
		CreatedAt:   time.Now().UTC(),
		SubmittedBy: "",
	}
	query, args, err := qb.InsertModel("matches", model,
		"ON CONFLICT (division_id, LEAST(player1_id, player2_id), GREATEST(player1_id, player2_id)) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) UpsertPending(ctx context.Context, m match.Match) error {
	query, args, err := qb.Update("matches").
		Set("status", string(match.StatusPendingConfirm)).
		Set("score1", m.Score1).
		Set("score2", m.Score2).
		Set("submitted_by", m.SubmittedBy).
		Where(qb.Eq("id", m.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build pending result query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store pending result: %w", err)
	}
	return nil
}

func (r *MatchRepository) RevertToUnplayed(ctx context.Context, matchID string) error {
	query, args, err := qb.Update("matches").
		Set("status", string(match.StatusNotPlayed)).
		Set("score1", 0).
		Set("score2", 0).
		Set("submitted_by", "").
		SetExpr("played_at", "NULL").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build revert match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("revert match: %w", err)
	}
	return nil
}

// Settle applies the whole settlement in one transaction. The status
// compare-and-swap goes first: zero affected rows means another confirm
// already won and nothing else is written.
func (r *MatchRepository) Settle(ctx context.Context, s match.Settlement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settle tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	flipQuery, flipArgs, err := qb.Update("matches").
		Set("status", string(match.StatusPlayed)).
		Set("played_at", s.PlayedAt).
		Where(
			qb.Eq("id", s.MatchID),
			qb.EqLiteral("status", string(match.StatusPendingConfirm)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build settle flip query: %w", err)
	}
	res, err := tx.ExecContext(ctx, flipQuery, flipArgs...)
	if err != nil {
		return fmt.Errorf("flip match status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return match.ErrAlreadySettled
	}

	for _, upd := range []rating.Update{s.WinnerRating, s.LoserRating} {
		query, args, err := qb.Update("players").
			Set("rating", upd.NewRating).
			Where(qb.Eq("id", upd.PlayerID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build rating update query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update player rating player=%s: %w", upd.PlayerID, err)
		}
	}

	for _, memb := range []division.Membership{s.WinnerMembership, s.LoserMembership} {
		query, args, err := qb.Update("division_players").
			Set("total_points", memb.TotalPoints).
			Set("total_sets_won", memb.TotalSetsWon).
			Set("total_sets_lost", memb.TotalSetsLost).
			Set("rating_delta", memb.RatingDelta).
			Where(qb.Eq("id", memb.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build membership update query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update membership id=%s: %w", memb.ID, err)
		}
	}

	historyInsert := qb.InsertInto("rating_history").
		Columns("id", "player_id", "match_id", "old_rating", "new_rating", "delta", "created_at")
	for _, entry := range s.History {
		historyInsert = historyInsert.Values(
			entry.ID, entry.PlayerID, entry.MatchID,
			entry.OldRating, entry.NewRating, entry.Delta, entry.CreatedAt,
		)
	}
	query, args, err := historyInsert.ToSQL()
	if err != nil {
		return fmt.Errorf("build history insert query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert rating history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settle tx: %w", err)
	}
	return nil
}

func (r *MatchRepository) ListPendingWithHistory(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.EqLiteral("status", string(match.StatusPendingConfirm)),
			qb.Expr("EXISTS (SELECT 1 FROM rating_history h WHERE h.match_id = matches.id)"),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build interrupted settlements query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list interrupted settlements: %w", err)
	}
	return matchRowsToDomain(rows), nil
}

func (r *MatchRepository) CompleteSettlementFlip(ctx context.Context, matchID string) error {
	query, args, err := qb.Update("matches").
		Set("status", string(match.StatusPlayed)).
		Where(
			qb.Eq("id", matchID),
			qb.EqLiteral("status", string(match.StatusPendingConfirm)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build settlement flip query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete settlement flip: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return match.ErrAlreadySettled
	}
	return nil
}

func matchRowsToDomain(rows []matchTableModel) []match.Match {
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
