package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pingis-club/league-api/internal/domain/gamerequest"
	qb "github.com/pingis-club/league-api/internal/platform/querybuilder"
)

type GameRequestRepository struct {
	db *sqlx.DB
}

func NewGameRequestRepository(db *sqlx.DB) *GameRequestRepository {
	return &GameRequestRepository{db: db}
}

func (r *GameRequestRepository) GetByID(ctx context.Context, requestID string) (gamerequest.Request, bool, error) {
	query, args, err := qb.Select("*").From("game_requests").
		Where(qb.Eq("id", requestID)).
		ToSQL()
	if err != nil {
		return gamerequest.Request{}, false, fmt.Errorf("build get game request query: %w", err)
	}

	var row gameRequestTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return gamerequest.Request{}, false, nil
		}
		return gamerequest.Request{}, false, fmt.Errorf("get game request: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *GameRequestRepository) ListOpenByDivision(ctx context.Context, divisionID string) ([]gamerequest.Request, error) {
	query, args, err := qb.Select("*").From("game_requests").
		Where(
			qb.Eq("division_id", divisionID),
			qb.EqLiteral("status", string(gamerequest.StatusOpen)),
		).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list game requests query: %w", err)
	}

	var rows []gameRequestTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list game requests: %w", err)
	}

	out := make([]gamerequest.Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *GameRequestRepository) Create(ctx context.Context, req gamerequest.Request) error {
	model := gameRequestTableModel{
		ID:         req.ID,
		DivisionID: req.DivisionID,
		FromPlayer: req.FromPlayer,
		ToPlayer:   sql.NullString{String: req.ToPlayer, Valid: req.ToPlayer != ""},
		Kind:       string(req.Kind),
		Status:     string(req.Status),
		CreatedAt:  req.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("game_requests", model, "")
	if err != nil {
		return fmt.Errorf("build insert game request query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert game request: %w", err)
	}
	return nil
}

func (r *GameRequestRepository) Accept(ctx context.Context, requestID, byPlayerID string) error {
	return r.transition(ctx, requestID, gamerequest.StatusAccepted, byPlayerID)
}

func (r *GameRequestRepository) Cancel(ctx context.Context, requestID string) error {
	return r.transition(ctx, requestID, gamerequest.StatusCancelled, "")
}

// transition flips an open request with a compare-and-swap on the status.
func (r *GameRequestRepository) transition(ctx context.Context, requestID string, to gamerequest.Status, byPlayerID string) error {
	builder := qb.Update("game_requests").
		Set("status", string(to)).
		Where(
			qb.Eq("id", requestID),
			qb.EqLiteral("status", string(gamerequest.StatusOpen)),
		)
	if byPlayerID != "" {
		builder = builder.Set("accepted_by", byPlayerID)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build game request transition query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition game request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return gamerequest.ErrNotOpen
	}
	return nil
}
