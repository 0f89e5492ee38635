package usecase

import (
	"errors"
	"sync"
	"testing"

	"github.com/pingis-club/league-api/internal/domain/gamerequest"
	"github.com/pingis-club/league-api/internal/infrastructure/repository/memory"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

func newGameRequestService() *GameRequestService {
	divisions := memory.NewDivisionRepository(memory.SeedDivisions())
	return NewGameRequestService(
		memory.NewSeasonRepository(memory.SeedSeasons()),
		memory.NewMembershipRepository(divisions, memory.SeedMemberships()),
		memory.NewPlayerRepository(memory.SeedPlayers()),
		memory.NewGameRequestRepository(),
		nil,
		&seqIDGenerator{},
		logging.NewNop(),
	)
}

func TestGameRequestService_CreateAndAcceptDirected(t *testing.T) {
	service := newGameRequestService()

	req, err := service.Create(t.Context(), CreateGameRequestInput{
		FromPlayerID: memory.PlayerIDAnna,
		ToPlayerID:   memory.PlayerIDBjorn,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if req.Kind != gamerequest.KindDirected {
		t.Fatalf("expected directed request, got %s", req.Kind)
	}

	if _, err := service.Accept(t.Context(), req.ID, memory.PlayerIDDina); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong acceptor, got %v", err)
	}

	accepted, err := service.Accept(t.Context(), req.ID, memory.PlayerIDBjorn)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != gamerequest.StatusAccepted || accepted.AcceptedBy != memory.PlayerIDBjorn {
		t.Fatalf("unexpected accepted request %+v", accepted)
	}

	if _, err := service.Accept(t.Context(), req.ID, memory.PlayerIDBjorn); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second accept, got %v", err)
	}
}

func TestGameRequestService_OpenRequestVisibleToDivisionOnly(t *testing.T) {
	service := newGameRequestService()

	req, err := service.Create(t.Context(), CreateGameRequestInput{FromPlayerID: memory.PlayerIDAnna})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if req.Kind != gamerequest.KindOpen {
		t.Fatalf("expected open request, got %s", req.Kind)
	}

	// Erik is in the other division.
	if _, err := service.Accept(t.Context(), req.ID, memory.PlayerIDErik); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for other division, got %v", err)
	}

	visible, err := service.ListOpenForPlayer(t.Context(), memory.PlayerIDDina)
	if err != nil {
		t.Fatalf("list open failed: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != req.ID {
		t.Fatalf("expected dina to see the open request, got %+v", visible)
	}

	ownView, err := service.ListOpenForPlayer(t.Context(), memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("list own failed: %v", err)
	}
	if len(ownView) != 0 {
		t.Fatalf("expected requester not to see their own request, got %+v", ownView)
	}
}

func TestGameRequestService_CancelGuards(t *testing.T) {
	service := newGameRequestService()

	req, err := service.Create(t.Context(), CreateGameRequestInput{FromPlayerID: memory.PlayerIDAnna})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.Cancel(t.Context(), req.ID, memory.PlayerIDBjorn); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign cancel, got %v", err)
	}
	if err := service.Cancel(t.Context(), req.ID, memory.PlayerIDAnna); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := service.Cancel(t.Context(), req.ID, memory.PlayerIDAnna); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second cancel, got %v", err)
	}
}

func TestGameRequestService_ConcurrentAcceptWinsOnce(t *testing.T) {
	service := newGameRequestService()

	req, err := service.Create(t.Context(), CreateGameRequestInput{FromPlayerID: memory.PlayerIDAnna})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	acceptors := []string{memory.PlayerIDBjorn, memory.PlayerIDDina}
	errCh := make(chan error, len(acceptors))
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(len(acceptors))
	for _, playerID := range acceptors {
		playerID := playerID
		go func() {
			defer wg.Done()
			<-start
			_, err := service.Accept(t.Context(), req.ID, playerID)
			errCh <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errCh)

	var successes int
	for err := range errCh {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful accept, got %d", successes)
	}
}
