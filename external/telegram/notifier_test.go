package telegram

import (
	"testing"

	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
)

func TestResultSubmittedText_SubmitterSetsFirst(t *testing.T) {
	t.Parallel()

	from := player.Player{ID: "p2", Name: "Carlos"}
	m := match.Match{
		Player1ID: "p1",
		Player2ID: "p2",
		Score1:    1,
		Score2:    3,
	}

	text := resultSubmittedText(from, m)
	want := "Carlos reported 3:1 against you. Confirm or reject the result in the league app."
	if text != want {
		t.Fatalf("unexpected message:\n got=%q\nwant=%q", text, want)
	}
}

func TestResultSubmittedText_SubmitterStoredAsPlayer1(t *testing.T) {
	t.Parallel()

	from := player.Player{ID: "p1", Name: "Anna"}
	m := match.Match{
		Player1ID: "p1",
		Player2ID: "p2",
		Score1:    3,
		Score2:    2,
	}

	text := resultSubmittedText(from, m)
	want := "Anna reported 3:2 against you. Confirm or reject the result in the league app."
	if text != want {
		t.Fatalf("unexpected message:\n got=%q\nwant=%q", text, want)
	}
}

func TestResultConfirmedText_SubmitterSetsFirst(t *testing.T) {
	t.Parallel()

	from := player.Player{ID: "p2", Name: "Carlos"}
	to := player.Player{ID: "p1", Name: "Anna"}
	m := match.Match{
		Player1ID: "p1",
		Player2ID: "p2",
		Score1:    3,
		Score2:    1,
	}

	text := resultConfirmedText(from, to, m)
	want := "Carlos confirmed your 3:1 result. Ratings are updated."
	if text != want {
		t.Fatalf("unexpected message:\n got=%q\nwant=%q", text, want)
	}
}

func TestResultRejectedText(t *testing.T) {
	t.Parallel()

	text := resultRejectedText(player.Player{ID: "p2", Name: "Carlos"})
	want := "Carlos rejected your reported result. Agree on the score and submit again."
	if text != want {
		t.Fatalf("unexpected message:\n got=%q\nwant=%q", text, want)
	}
}

func TestSendMessage_DisabledWithoutToken(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(NotifierConfig{})
	err := notifier.NotifyGameRequested(t.Context(), player.Player{ID: "p1", TelegramID: 42}, player.Player{ID: "p2", Name: "Anna"})
	if err != nil {
		t.Fatalf("expected disabled notifier to drop the message, got error: %v", err)
	}
}

func TestSendMessage_SkipsPlayersWithoutChat(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(NotifierConfig{BotToken: "123:abc"})
	err := notifier.NotifyGameRequested(t.Context(), player.Player{ID: "p1"}, player.Player{ID: "p2", Name: "Anna"})
	if err != nil {
		t.Fatalf("expected message to be dropped for players without a chat, got error: %v", err)
	}
}

func TestDecodeAPIError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "ok payload", raw: `{"ok":true,"result":{}}`, want: ""},
		{name: "error payload", raw: `{"ok":false,"description":"Bad Request: chat not found"}`, want: "Bad Request: chat not found"},
		{name: "garbage payload", raw: `<html>`, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := decodeAPIError([]byte(tc.raw)); got != tc.want {
				t.Fatalf("expected %q, got=%q", tc.want, got)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	retryable := []int{408, 429, 500, 502, 503}
	for _, status := range retryable {
		if !isRetryableStatus(status) {
			t.Fatalf("expected status=%d to be retryable", status)
		}
	}

	final := []int{200, 400, 401, 403, 404}
	for _, status := range final {
		if isRetryableStatus(status) {
			t.Fatalf("expected status=%d to be final", status)
		}
	}
}
