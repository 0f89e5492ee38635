package rating

import "time"

// HistoryEntry is an immutable record of one rating change. Two entries
// are written per settled match, one per participant.
type HistoryEntry struct {
	ID        string
	PlayerID  string
	MatchID   string
	OldRating float64
	NewRating float64
	Delta     float64
	CreatedAt time.Time
}
