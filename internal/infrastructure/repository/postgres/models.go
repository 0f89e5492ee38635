package postgres

import (
	"database/sql"
	"time"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/gamerequest"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/rating"
	"github.com/pingis-club/league-api/internal/domain/season"
)

type playerTableModel struct {
	ID         string    `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Name       string    `db:"name"`
	Rating     float64   `db:"rating"`
	CreatedAt  time.Time `db:"created_at"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:         m.ID,
		TelegramID: m.TelegramID,
		Name:       m.Name,
		Rating:     m.Rating,
	}
}

type seasonTableModel struct {
	ID     string `db:"id"`
	Year   int    `db:"year"`
	Month  int    `db:"month"`
	Status string `db:"status"`
}

func (m seasonTableModel) toDomain() season.Season {
	return season.Season{
		ID:     m.ID,
		Year:   m.Year,
		Month:  m.Month,
		Status: m.Status,
	}
}

type divisionTableModel struct {
	ID       string  `db:"id"`
	SeasonID string  `db:"season_id"`
	Number   int     `db:"number"`
	Coef     float64 `db:"coef"`
}

func (m divisionTableModel) toDomain() division.Division {
	return division.Division{
		ID:       m.ID,
		SeasonID: m.SeasonID,
		Number:   m.Number,
		Coef:     m.Coef,
	}
}

type membershipTableModel struct {
	ID            string        `db:"id"`
	DivisionID    string        `db:"division_id"`
	PlayerID      string        `db:"player_id"`
	TotalPoints   int           `db:"total_points"`
	TotalSetsWon  int           `db:"total_sets_won"`
	TotalSetsLost int           `db:"total_sets_lost"`
	RatingDelta   float64       `db:"rating_delta"`
	Position      sql.NullInt64 `db:"position"`
}

func (m membershipTableModel) toDomain() division.Membership {
	out := division.Membership{
		ID:            m.ID,
		DivisionID:    m.DivisionID,
		PlayerID:      m.PlayerID,
		TotalPoints:   m.TotalPoints,
		TotalSetsWon:  m.TotalSetsWon,
		TotalSetsLost: m.TotalSetsLost,
		RatingDelta:   m.RatingDelta,
	}
	if m.Position.Valid {
		pos := int(m.Position.Int64)
		out.Position = &pos
	}
	return out
}

type matchTableModel struct {
	ID          string       `db:"id"`
	DivisionID  string       `db:"division_id"`
	Player1ID   string       `db:"player1_id"`
	Player2ID   string       `db:"player2_id"`
	Status      string       `db:"status"`
	Score1      int          `db:"score1"`
	Score2      int          `db:"score2"`
	SubmittedBy string       `db:"submitted_by"`
	PlayedAt    sql.NullTime `db:"played_at"`
	CreatedAt   time.Time    `db:"created_at"`
}

func (m matchTableModel) toDomain() match.Match {
	out := match.Match{
		ID:          m.ID,
		DivisionID:  m.DivisionID,
		Player1ID:   m.Player1ID,
		Player2ID:   m.Player2ID,
		Status:      match.Status(m.Status),
		Score1:      m.Score1,
		Score2:      m.Score2,
		SubmittedBy: m.SubmittedBy,
	}
	if m.PlayedAt.Valid {
		at := m.PlayedAt.Time
		out.PlayedAt = &at
	}
	return out
}

type ratingHistoryTableModel struct {
	ID        string    `db:"id"`
	PlayerID  string    `db:"player_id"`
	MatchID   string    `db:"match_id"`
	OldRating float64   `db:"old_rating"`
	NewRating float64   `db:"new_rating"`
	Delta     float64   `db:"delta"`
	CreatedAt time.Time `db:"created_at"`
}

func (m ratingHistoryTableModel) toDomain() rating.HistoryEntry {
	return rating.HistoryEntry{
		ID:        m.ID,
		PlayerID:  m.PlayerID,
		MatchID:   m.MatchID,
		OldRating: m.OldRating,
		NewRating: m.NewRating,
		Delta:     m.Delta,
		CreatedAt: m.CreatedAt,
	}
}

type gameRequestTableModel struct {
	ID         string         `db:"id"`
	DivisionID string         `db:"division_id"`
	FromPlayer string         `db:"from_player"`
	ToPlayer   sql.NullString `db:"to_player"`
	Kind       string         `db:"kind"`
	Status     string         `db:"status"`
	AcceptedBy sql.NullString `db:"accepted_by"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (m gameRequestTableModel) toDomain() gamerequest.Request {
	return gamerequest.Request{
		ID:         m.ID,
		DivisionID: m.DivisionID,
		FromPlayer: m.FromPlayer,
		ToPlayer:   m.ToPlayer.String,
		Kind:       gamerequest.Kind(m.Kind),
		Status:     gamerequest.Status(m.Status),
		AcceptedBy: m.AcceptedBy.String,
		CreatedAt:  m.CreatedAt,
	}
}
