package usecase

import (
	"errors"
	"testing"

	"github.com/pingis-club/league-api/internal/infrastructure/repository/memory"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

func newPlayerService() (*PlayerService, *memory.PlayerRepository) {
	players := memory.NewPlayerRepository(memory.SeedPlayers())
	divisions := memory.NewDivisionRepository(memory.SeedDivisions())
	service := NewPlayerService(
		players,
		memory.NewSeasonRepository(memory.SeedSeasons()),
		divisions,
		memory.NewMembershipRepository(divisions, memory.SeedMemberships()),
		memory.NewRatingHistoryRepository(),
		&seqIDGenerator{},
		logging.NewNop(),
	)
	return service, players
}

func TestPlayerService_RegisterByTelegram_NewPlayerGetsDefaultRating(t *testing.T) {
	service, _ := newPlayerService()

	p, err := service.RegisterByTelegram(t.Context(), RegisterPlayerInput{TelegramID: 9001, Name: "Greta"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if p.Rating != 100 {
		t.Fatalf("expected default rating 100, got %v", p.Rating)
	}
	if p.ID == "" {
		t.Fatal("expected generated player id")
	}
}

func TestPlayerService_RegisterByTelegram_Idempotent(t *testing.T) {
	service, _ := newPlayerService()

	// Telegram id 1003 is seeded as Carlos with a non-default rating.
	p, err := service.RegisterByTelegram(t.Context(), RegisterPlayerInput{TelegramID: 1003, Name: "Someone Else"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if p.ID != memory.PlayerIDCarlos {
		t.Fatalf("expected existing player carlos, got %s", p.ID)
	}
	if p.Rating != 112.5 {
		t.Fatalf("expected existing rating preserved, got %v", p.Rating)
	}
}

func TestPlayerService_RegisterByTelegram_InvalidInput(t *testing.T) {
	service, _ := newPlayerService()

	if _, err := service.RegisterByTelegram(t.Context(), RegisterPlayerInput{TelegramID: 0, Name: "X"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing telegram id, got %v", err)
	}
	if _, err := service.RegisterByTelegram(t.Context(), RegisterPlayerInput{TelegramID: 42, Name: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}

func TestPlayerService_GetProfile_IncludesPlacement(t *testing.T) {
	service, _ := newPlayerService()

	profile, err := service.GetProfile(t.Context(), memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.Membership == nil || profile.Membership.DivisionID != memory.DivisionIDSecond {
		t.Fatalf("expected membership in second division, got %+v", profile.Membership)
	}
	if profile.Division == nil || profile.Division.Coef != 0.25 {
		t.Fatalf("expected division coef 0.25, got %+v", profile.Division)
	}
}

func TestPlayerService_TopByRating(t *testing.T) {
	service, _ := newPlayerService()

	top, err := service.TopByRating(t.Context(), 3)
	if err != nil {
		t.Fatalf("top by rating failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 players, got %d", len(top))
	}
	if top[0].ID != memory.PlayerIDErik {
		t.Fatalf("expected erik on top, got %s", top[0].ID)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Rating > top[i-1].Rating {
			t.Fatalf("ratings not descending at index %d", i)
		}
	}
}
