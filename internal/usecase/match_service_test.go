package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
	"github.com/pingis-club/league-api/internal/infrastructure/repository/memory"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("generated-%03d", g.n), nil
}

type matchFixture struct {
	service     *MatchService
	players     *memory.PlayerRepository
	memberships *memory.MembershipRepository
	matches     *memory.MatchRepository
	history     *memory.RatingHistoryRepository
}

func newMatchFixture() matchFixture {
	return newMatchFixtureWithNotifier(nil)
}

func newMatchFixtureWithNotifier(notifier Notifier) matchFixture {
	players := memory.NewPlayerRepository(memory.SeedPlayers())
	seasons := memory.NewSeasonRepository(memory.SeedSeasons())
	divisions := memory.NewDivisionRepository(memory.SeedDivisions())
	memberships := memory.NewMembershipRepository(divisions, memory.SeedMemberships())
	history := memory.NewRatingHistoryRepository()
	matches := memory.NewMatchRepository(players, memberships, history, memory.SeedMatches())

	service := NewMatchService(
		seasons,
		divisions,
		memberships,
		players,
		matches,
		notifier,
		&seqIDGenerator{},
		logging.NewNop(),
	)

	return matchFixture{
		service:     service,
		players:     players,
		memberships: memberships,
		matches:     matches,
		history:     history,
	}
}

// notifierCall records one delivered notification for assertions.
type notifierCall struct {
	event string
	to    string
	from  string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (n *recordingNotifier) record(event, to, from string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{event: event, to: to, from: from})
}

func (n *recordingNotifier) NotifyResultSubmitted(_ context.Context, to player.Player, from player.Player, _ match.Match) error {
	n.record("submitted", to.ID, from.ID)
	return nil
}

func (n *recordingNotifier) NotifyResultConfirmed(_ context.Context, to player.Player, from player.Player, _ match.Match) error {
	n.record("confirmed", to.ID, from.ID)
	return nil
}

func (n *recordingNotifier) NotifyResultRejected(_ context.Context, to player.Player, from player.Player, _ match.Match) error {
	n.record("rejected", to.ID, from.ID)
	return nil
}

func (n *recordingNotifier) NotifyGameRequested(_ context.Context, to player.Player, from player.Player) error {
	n.record("requested", to.ID, from.ID)
	return nil
}

func (n *recordingNotifier) last() (notifierCall, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return notifierCall{}, false
	}
	return n.calls[len(n.calls)-1], true
}

func TestMatchService_SubmitResult_CreatesPending(t *testing.T) {
	f := newMatchFixture()

	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	})
	if err != nil {
		t.Fatalf("submit result failed: %v", err)
	}

	if m.Status != match.StatusPendingConfirm {
		t.Fatalf("expected pending_confirm, got %s", m.Status)
	}
	if m.SubmittedBy != memory.PlayerIDAnna {
		t.Fatalf("expected submitted_by anna, got %s", m.SubmittedBy)
	}

	stored, found, err := f.matches.FindBetween(t.Context(), memory.DivisionIDSecond, memory.PlayerIDBjorn, memory.PlayerIDAnna)
	if err != nil || !found {
		t.Fatalf("expected stored pending match, found=%v err=%v", found, err)
	}
	if stored.Status != match.StatusPendingConfirm {
		t.Fatalf("expected stored status pending_confirm, got %s", stored.Status)
	}
}

func TestMatchService_SubmitResult_OrientsScoresToStoredOrder(t *testing.T) {
	f := newMatchFixture()

	// The seeded grid stores Anna as player1. Björn submits a 3:2 win,
	// so the stored scores must be 2:3 from Anna's perspective.
	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDBjorn,
		OpponentID:  memory.PlayerIDAnna,
		MySets:      3,
		OppSets:     2,
	})
	if err != nil {
		t.Fatalf("submit result failed: %v", err)
	}

	if m.Player1ID != memory.PlayerIDAnna {
		t.Fatalf("expected stored player1 anna, got %s", m.Player1ID)
	}
	if m.Score1 != 2 || m.Score2 != 3 {
		t.Fatalf("expected stored score 2:3, got %d:%d", m.Score1, m.Score2)
	}
	if m.WinnerID() != memory.PlayerIDBjorn {
		t.Fatalf("expected winner bjorn, got %s", m.WinnerID())
	}
}

func TestMatchService_SubmitResult_RejectsIllegalScores(t *testing.T) {
	f := newMatchFixture()

	for _, score := range [][2]int{{2, 2}, {4, 1}, {3, 3}, {0, 0}} {
		_, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
			SubmitterID: memory.PlayerIDAnna,
			OpponentID:  memory.PlayerIDBjorn,
			MySets:      score[0],
			OppSets:     score[1],
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("score %d:%d: expected ErrInvalidInput, got %v", score[0], score[1], err)
		}
	}

	stored, _, err := f.matches.FindBetween(t.Context(), memory.DivisionIDSecond, memory.PlayerIDAnna, memory.PlayerIDBjorn)
	if err != nil {
		t.Fatalf("find between failed: %v", err)
	}
	if stored.Status != match.StatusNotPlayed {
		t.Fatalf("expected match untouched after invalid submissions, got %s", stored.Status)
	}
}

func TestMatchService_SubmitResult_OpponentOutsideDivision(t *testing.T) {
	f := newMatchFixture()

	// Erik plays in the first division, Anna in the second.
	_, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDErik,
		MySets:      3,
		OppSets:     0,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMatchService_SubmitResult_AlreadyPlayedEitherOrder(t *testing.T) {
	f := newMatchFixture()

	submitConfirm(t, f, memory.PlayerIDAnna, memory.PlayerIDBjorn, 3, 1)

	_, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     0,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for submitter order, got %v", err)
	}

	_, err = f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDBjorn,
		OpponentID:  memory.PlayerIDAnna,
		MySets:      3,
		OppSets:     0,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for reversed order, got %v", err)
	}
}

func TestMatchService_SubmitResult_ResubmitBySubmitterOverwrites(t *testing.T) {
	f := newMatchFixture()

	first, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	})
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// Anna corrects her own pending score; last write wins.
	second, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     0,
	})
	if err != nil {
		t.Fatalf("resubmit by submitter failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected resubmission on the same match, got %s and %s", first.ID, second.ID)
	}

	stored, _, err := f.matches.GetByID(t.Context(), first.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if stored.Status != match.StatusPendingConfirm || stored.SubmittedBy != memory.PlayerIDAnna {
		t.Fatalf("expected pending match submitted by anna, got %+v", stored)
	}
	if stored.Score1 != 3 || stored.Score2 != 0 {
		t.Fatalf("expected overwritten score 3:0, got %d:%d", stored.Score1, stored.Score2)
	}
}

func TestMatchService_SubmitResult_OpponentCannotOverwritePending(t *testing.T) {
	f := newMatchFixture()

	if _, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDBjorn,
		OpponentID:  memory.PlayerIDAnna,
		MySets:      3,
		OppSets:     2,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for opponent resubmission, got %v", err)
	}
}

func TestMatchService_PendingForPlayer_ExcludesOwnSubmission(t *testing.T) {
	f := newMatchFixture()

	if _, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Anna's own submission waits on Björn, so only his inbox has it.
	mine, err := f.service.PendingForPlayer(t.Context(), memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("pending for submitter failed: %v", err)
	}
	if len(mine) != 0 {
		t.Fatalf("expected no pending items for submitter, got %d", len(mine))
	}

	theirs, err := f.service.PendingForPlayer(t.Context(), memory.PlayerIDBjorn)
	if err != nil {
		t.Fatalf("pending for opponent failed: %v", err)
	}
	if len(theirs) != 1 || theirs[0].SubmittedBy != memory.PlayerIDAnna {
		t.Fatalf("expected one item submitted by anna in opponent inbox, got %+v", theirs)
	}
}

func TestMatchService_Confirm_NotifiesSubmitter(t *testing.T) {
	notifier := &recordingNotifier{}
	f := newMatchFixtureWithNotifier(notifier)

	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if call, ok := notifier.last(); !ok || call.event != "submitted" || call.to != memory.PlayerIDBjorn {
		t.Fatalf("expected submit notification to bjorn, got %+v", call)
	}

	if _, err := f.service.Confirm(t.Context(), m.ID, memory.PlayerIDBjorn); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	call, ok := notifier.last()
	if !ok || call.event != "confirmed" || call.to != memory.PlayerIDAnna || call.from != memory.PlayerIDBjorn {
		t.Fatalf("expected confirm notification to anna from bjorn, got %+v", call)
	}
}

func TestMatchService_Reject_NotifiesSubmitter(t *testing.T) {
	notifier := &recordingNotifier{}
	f := newMatchFixtureWithNotifier(notifier)

	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := f.service.Reject(t.Context(), m.ID, memory.PlayerIDBjorn); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	call, ok := notifier.last()
	if !ok || call.event != "rejected" || call.to != memory.PlayerIDAnna || call.from != memory.PlayerIDBjorn {
		t.Fatalf("expected reject notification to anna from bjorn, got %+v", call)
	}
}

func TestMatchService_RejectThenResubmit(t *testing.T) {
	f := newMatchFixture()

	first, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     0,
	})
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	if err := f.service.Reject(t.Context(), first.ID, memory.PlayerIDBjorn); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	reverted, _, err := f.matches.GetByID(t.Context(), first.ID)
	if err != nil {
		t.Fatalf("get reverted match: %v", err)
	}
	if reverted.Status != match.StatusNotPlayed || reverted.SubmittedBy != "" || reverted.Score1 != 0 || reverted.Score2 != 0 {
		t.Fatalf("expected clean unplayed match after reject, got %+v", reverted)
	}

	second, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDBjorn,
		OpponentID:  memory.PlayerIDAnna,
		MySets:      3,
		OppSets:     2,
	})
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if second.SubmittedBy != memory.PlayerIDBjorn {
		t.Fatalf("expected fresh submitted_by bjorn, got %s", second.SubmittedBy)
	}
}

func TestMatchService_Confirm_GuardsParticipants(t *testing.T) {
	f := newMatchFixture()

	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     1,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := f.service.Confirm(t.Context(), m.ID, memory.PlayerIDAnna); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for submitter self-confirm, got %v", err)
	}
	if _, err := f.service.Confirm(t.Context(), m.ID, memory.PlayerIDErik); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for outsider, got %v", err)
	}
	if err := f.service.Reject(t.Context(), m.ID, memory.PlayerIDAnna); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for submitter self-reject, got %v", err)
	}
}

func TestMatchService_Confirm_EndToEnd(t *testing.T) {
	f := newMatchFixture()

	playedAt := time.Date(2026, 9, 1, 19, 30, 0, 0, time.UTC)
	f.service.now = func() time.Time { return playedAt }

	// Anna and Björn both start at 100 in the division with coef 0.25.
	m := submitConfirm(t, f, memory.PlayerIDAnna, memory.PlayerIDBjorn, 3, 1)

	if m.Status != match.StatusPlayed {
		t.Fatalf("expected played status, got %s", m.Status)
	}
	if m.PlayedAt == nil || !m.PlayedAt.Equal(playedAt) {
		t.Fatalf("expected played_at %v, got %v", playedAt, m.PlayedAt)
	}

	anna, _, err := f.players.GetByID(t.Context(), memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("get anna: %v", err)
	}
	if anna.Rating != 102.5 {
		t.Fatalf("expected anna rating 102.50, got %v", anna.Rating)
	}

	bjorn, _, err := f.players.GetByID(t.Context(), memory.PlayerIDBjorn)
	if err != nil {
		t.Fatalf("get bjorn: %v", err)
	}
	if bjorn.Rating != 98.75 {
		t.Fatalf("expected bjorn rating 98.75, got %v", bjorn.Rating)
	}

	annaMemb, _, err := f.memberships.GetByDivisionAndPlayer(t.Context(), memory.DivisionIDSecond, memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("get anna membership: %v", err)
	}
	if annaMemb.TotalPoints != 2 || annaMemb.TotalSetsWon != 3 || annaMemb.TotalSetsLost != 1 {
		t.Fatalf("unexpected anna aggregates: %+v", annaMemb)
	}
	if annaMemb.RatingDelta != 2.5 {
		t.Fatalf("expected anna rating delta 2.50, got %v", annaMemb.RatingDelta)
	}

	bjornMemb, _, err := f.memberships.GetByDivisionAndPlayer(t.Context(), memory.DivisionIDSecond, memory.PlayerIDBjorn)
	if err != nil {
		t.Fatalf("get bjorn membership: %v", err)
	}
	if bjornMemb.TotalPoints != 1 || bjornMemb.TotalSetsWon != 1 || bjornMemb.TotalSetsLost != 3 {
		t.Fatalf("unexpected bjorn aggregates: %+v", bjornMemb)
	}

	for _, playerID := range []string{memory.PlayerIDAnna, memory.PlayerIDBjorn} {
		entries, err := f.history.ListByPlayer(t.Context(), playerID, 0)
		if err != nil {
			t.Fatalf("list history for %s: %v", playerID, err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected one history entry for %s, got %d", playerID, len(entries))
		}
		if entries[0].MatchID != m.ID {
			t.Fatalf("history entry references %s, want %s", entries[0].MatchID, m.ID)
		}
	}
}

func TestMatchService_Confirm_ConcurrentSettlesOnce(t *testing.T) {
	f := newMatchFixture()

	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: memory.PlayerIDAnna,
		OpponentID:  memory.PlayerIDBjorn,
		MySets:      3,
		OppSets:     0,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	const attempts = 8
	errCh := make(chan error, attempts)
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.Confirm(t.Context(), m.ID, memory.PlayerIDBjorn)
			errCh <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errCh)

	var successes, conflicts int
	for err := range errCh {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected confirm error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful confirm, got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}

	anna, _, err := f.players.GetByID(t.Context(), memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("get anna: %v", err)
	}
	if anna.Rating != 103 {
		t.Fatalf("expected single settlement rating 103.00, got %v", anna.Rating)
	}

	entries, err := f.history.ListByPlayer(t.Context(), memory.PlayerIDAnna, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(entries))
	}
}

func TestMatchService_Preview_MatchesConfirmPath(t *testing.T) {
	f := newMatchFixture()

	preview, err := f.service.Preview(t.Context(), PreviewInput{
		PlayerID:   memory.PlayerIDAnna,
		OpponentID: memory.PlayerIDBjorn,
		MySets:     3,
		OppSets:    1,
	})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Delta != 2.5 || preview.NewRating != 102.5 {
		t.Fatalf("unexpected preview %+v", preview)
	}

	submitConfirm(t, f, memory.PlayerIDAnna, memory.PlayerIDBjorn, 3, 1)

	anna, _, err := f.players.GetByID(t.Context(), memory.PlayerIDAnna)
	if err != nil {
		t.Fatalf("get anna: %v", err)
	}
	if anna.Rating != preview.NewRating {
		t.Fatalf("preview rating %v differs from settled rating %v", preview.NewRating, anna.Rating)
	}

	if _, err := f.service.Preview(t.Context(), PreviewInput{
		PlayerID:   memory.PlayerIDAnna,
		OpponentID: memory.PlayerIDBjorn,
		MySets:     2,
		OppSets:    2,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for illegal preview score, got %v", err)
	}
}

func submitConfirm(t *testing.T, f matchFixture, submitter, opponent string, mySets, oppSets int) match.Match {
	t.Helper()

	m, err := f.service.SubmitResult(t.Context(), SubmitResultInput{
		SubmitterID: submitter,
		OpponentID:  opponent,
		MySets:      mySets,
		OppSets:     oppSets,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	confirmed, err := f.service.Confirm(t.Context(), m.ID, opponent)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	return confirmed
}
