package usecase

import (
	"errors"
	"testing"

	"github.com/pingis-club/league-api/internal/domain/season"
	"github.com/pingis-club/league-api/internal/infrastructure/repository/memory"
)

func TestSeasonService_ActiveReturnsDivisionLayout(t *testing.T) {
	seasons := memory.NewSeasonRepository(memory.SeedSeasons())
	divisions := memory.NewDivisionRepository(memory.SeedDivisions())
	service := NewSeasonService(seasons, divisions)

	active, err := service.Active(t.Context())
	if err != nil {
		t.Fatalf("active season: %v", err)
	}
	if active.Season.ID != memory.SeasonIDCurrent {
		t.Fatalf("expected season %s, got %s", memory.SeasonIDCurrent, active.Season.ID)
	}
	if len(active.Divisions) != 2 {
		t.Fatalf("expected 2 divisions, got %d", len(active.Divisions))
	}
	if active.Divisions[0].Number != 1 || active.Divisions[1].Number != 2 {
		t.Fatalf("expected divisions ordered by number, got %d then %d", active.Divisions[0].Number, active.Divisions[1].Number)
	}
}

func TestSeasonService_NoActiveSeason(t *testing.T) {
	seasons := memory.NewSeasonRepository([]season.Season{
		{ID: "season-2026-08", Year: 2026, Month: 8, Status: season.StatusClosed},
	})
	divisions := memory.NewDivisionRepository(nil)
	service := NewSeasonService(seasons, divisions)

	_, err := service.Active(t.Context())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
