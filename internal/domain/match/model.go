package match

import (
	"time"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/rating"
)

type Status string

const (
	StatusNotPlayed      Status = "not_played"
	StatusPendingConfirm Status = "pending_confirm"
	StatusPlayed         Status = "played"
)

// Match is the single scheduled encounter between two players in a
// division. Player order is fixed at creation; score fields are always
// stored from player1's perspective.
type Match struct {
	ID          string
	DivisionID  string
	Player1ID   string
	Player2ID   string
	Status      Status
	Score1      int
	Score2      int
	SubmittedBy string
	PlayedAt    *time.Time
}

// ValidScore reports whether the pair is a legal best-of-five result.
func ValidScore(s1, s2 int) bool {
	switch {
	case s1 == 3 && s2 >= 0 && s2 <= 2:
		return true
	case s2 == 3 && s1 >= 0 && s1 <= 2:
		return true
	}
	return false
}

func (m Match) WinnerID() string {
	if m.Score1 > m.Score2 {
		return m.Player1ID
	}
	return m.Player2ID
}

func (m Match) LoserID() string {
	if m.Score1 > m.Score2 {
		return m.Player2ID
	}
	return m.Player1ID
}

// Involves reports whether the player is one of the two participants.
func (m Match) Involves(playerID string) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// Settlement is the full write set produced by confirming a pending
// result. Repositories apply it atomically, guarded by a compare-and-swap
// on the match status so concurrent confirms settle exactly once.
type Settlement struct {
	MatchID  string
	PlayedAt time.Time

	WinnerRating rating.Update
	LoserRating  rating.Update

	WinnerMembership division.Membership
	LoserMembership  division.Membership

	History [2]rating.HistoryEntry
}
