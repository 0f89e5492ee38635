package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectToSQL(t *testing.T) {
	sql, args, err := Select("id", "status", "score1", "score2").
		From("matches").
		Where(Eq("division_id", "d1"), EqLiteral("status", "pending_confirm")).
		OrderBy("created_at DESC").
		Limit(10).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id, status, score1, score2 FROM matches WHERE division_id = $1 AND status = 'pending_confirm' ORDER BY created_at DESC LIMIT 10", sql)
	assert.Equal(t, []any{"d1"}, args)
}

func TestSelectRequiresTable(t *testing.T) {
	_, _, err := Select("id").ToSQL()
	require.Error(t, err)
}

func TestSelectInCondition(t *testing.T) {
	sql, args, err := Select("id").
		From("division_players").
		Where(In("player_id", []any{"p1", "p2"})).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM division_players WHERE player_id IN ($1, $2)", sql)
	assert.Equal(t, []any{"p1", "p2"}, args)
}

func TestSelectEmptyInNeverMatches(t *testing.T) {
	sql, args, err := Select("id").
		From("division_players").
		Where(In("player_id", nil)).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM division_players WHERE 1=0", sql)
	assert.Empty(t, args)
}

func TestInsertToSQL(t *testing.T) {
	sql, args, err := InsertInto("rating_history").
		Columns("id", "player_id", "match_id", "delta").
		Values("h1", "p1", "m1", 3.0).
		Values("h2", "p2", "m1", -1.5).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO rating_history (id, player_id, match_id, delta) VALUES ($1, $2, $3, $4), ($5, $6, $7, $8)", sql)
	assert.Len(t, args, 8)
}

func TestInsertRowArityMismatch(t *testing.T) {
	_, _, err := InsertInto("players").
		Columns("id", "name").
		Values("p1").
		ToSQL()
	require.Error(t, err)
}

func TestUpdateToSQL(t *testing.T) {
	sql, args, err := Update("players").
		Set("rating", 102.5).
		Where(Eq("id", "p1")).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "UPDATE players SET rating = $1 WHERE id = $2", sql)
	assert.Equal(t, []any{102.5, "p1"}, args)
}

func TestUpdateSetExprRewritesPlaceholders(t *testing.T) {
	sql, args, err := Update("division_players").
		SetExpr("total_points", "total_points + ?", 2).
		SetExpr("total_sets_won", "total_sets_won + ?", 3).
		Where(Eq("id", "dp1")).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "UPDATE division_players SET total_points = total_points + $1, total_sets_won = total_sets_won + $2 WHERE id = $3", sql)
	assert.Equal(t, []any{2, 3, "dp1"}, args)
}

func TestUpdateWithExprCondition(t *testing.T) {
	sql, args, err := Update("matches").
		Set("status", "played").
		Where(Eq("id", "m1"), Expr("status = ?", "pending_confirm")).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, "UPDATE matches SET status = $1 WHERE id = $2 AND status = $3", sql)
	assert.Equal(t, []any{"played", "m1", "pending_confirm"}, args)
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID     string  `db:"id"`
		Rating float64 `db:"rating"`
		Skip   string  `db:"-"`
	}

	sql, args, err := InsertModel("players", row{ID: "p1", Rating: 100}, "ON CONFLICT (id) DO NOTHING")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO players (id, rating) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING", sql)
	assert.Equal(t, []any{"p1", 100.0}, args)
}
