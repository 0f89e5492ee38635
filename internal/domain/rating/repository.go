package rating

import "context"

type HistoryRepository interface {
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]HistoryEntry, error)
	// ExistsForMatch reports whether the settlement already wrote the pair
	// of entries for a match.
	ExistsForMatch(ctx context.Context, matchID string) (bool, error)
}
