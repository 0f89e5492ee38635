package memory

import (
	"strconv"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/domain/season"
)

// Seed identifiers referenced by tests and the dev-mode bootstrap.
const (
	SeasonIDCurrent = "season-2026-09"

	DivisionIDFirst  = "division-1"
	DivisionIDSecond = "division-2"

	PlayerIDAnna   = "player-anna"
	PlayerIDBjorn  = "player-bjorn"
	PlayerIDCarlos = "player-carlos"
	PlayerIDDina   = "player-dina"
	PlayerIDErik   = "player-erik"
	PlayerIDFreja  = "player-freja"
)

func SeedSeasons() []season.Season {
	return []season.Season{
		{ID: SeasonIDCurrent, Year: 2026, Month: 9, Status: season.StatusActive},
		{ID: "season-2026-08", Year: 2026, Month: 8, Status: season.StatusClosed},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: PlayerIDAnna, TelegramID: 1001, Name: "Anna", Rating: 100},
		{ID: PlayerIDBjorn, TelegramID: 1002, Name: "Björn", Rating: 100},
		{ID: PlayerIDCarlos, TelegramID: 1003, Name: "Carlos", Rating: 112.5},
		{ID: PlayerIDDina, TelegramID: 1004, Name: "Dina", Rating: 95.25},
		{ID: PlayerIDErik, TelegramID: 1005, Name: "Erik", Rating: 120},
		{ID: PlayerIDFreja, TelegramID: 1006, Name: "Freja", Rating: 88},
	}
}

func SeedDivisions() []division.Division {
	return []division.Division{
		{ID: DivisionIDFirst, SeasonID: SeasonIDCurrent, Number: 1, Coef: 0.30},
		{ID: DivisionIDSecond, SeasonID: SeasonIDCurrent, Number: 2, Coef: 0.25},
	}
}

func SeedMemberships() []division.Membership {
	return []division.Membership{
		{ID: "dp-1", DivisionID: DivisionIDFirst, PlayerID: PlayerIDCarlos},
		{ID: "dp-2", DivisionID: DivisionIDFirst, PlayerID: PlayerIDErik},
		{ID: "dp-3", DivisionID: DivisionIDFirst, PlayerID: PlayerIDFreja},
		{ID: "dp-4", DivisionID: DivisionIDSecond, PlayerID: PlayerIDAnna},
		{ID: "dp-5", DivisionID: DivisionIDSecond, PlayerID: PlayerIDBjorn},
		{ID: "dp-6", DivisionID: DivisionIDSecond, PlayerID: PlayerIDDina},
	}
}

// SeedMatches builds the full round-robin grid for each seeded division,
// all unplayed.
func SeedMatches() []match.Match {
	grids := map[string][]string{
		DivisionIDFirst:  {PlayerIDCarlos, PlayerIDErik, PlayerIDFreja},
		DivisionIDSecond: {PlayerIDAnna, PlayerIDBjorn, PlayerIDDina},
	}

	out := make([]match.Match, 0, 6)
	n := 0
	for _, divisionID := range []string{DivisionIDFirst, DivisionIDSecond} {
		players := grids[divisionID]
		for i := 0; i < len(players); i++ {
			for j := i + 1; j < len(players); j++ {
				n++
				out = append(out, match.Match{
					ID:         "match-" + strconv.Itoa(n),
					DivisionID: divisionID,
					Player1ID:  players[i],
					Player2ID:  players[j],
					Status:     match.StatusNotPlayed,
				})
			}
		}
	}
	return out
}
