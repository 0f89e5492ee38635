package match

import (
	"context"
	"errors"
)

// ErrAlreadySettled is returned by Settle when the compare-and-swap on the
// pending status misses, i.e. another confirm won the race.
var ErrAlreadySettled = errors.New("match already settled")

type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	// FindBetween looks the match up regardless of which participant is
	// stored as player1.
	FindBetween(ctx context.Context, divisionID, playerA, playerB string) (Match, bool, error)
	ListByDivision(ctx context.Context, divisionID string) ([]Match, error)
	// ListPendingForPlayer lists pending results submitted by the other
	// participant, i.e. items waiting on this player's confirmation.
	ListPendingForPlayer(ctx context.Context, playerID string) ([]Match, error)

	Create(ctx context.Context, m Match) error
	// UpsertPending records a submitted result and moves the match to
	// pending_confirm.
	UpsertPending(ctx context.Context, m Match) error
	// RevertToUnplayed clears a rejected submission back to not_played.
	RevertToUnplayed(ctx context.Context, matchID string) error

	// Settle applies the full settlement write set atomically. The status
	// compare-and-swap runs first; a miss returns ErrAlreadySettled and no
	// other write happens.
	Settle(ctx context.Context, s Settlement) error

	// ListPendingWithHistory returns pending matches that already carry
	// their rating-history pair, i.e. settlements interrupted before the
	// status flip.
	ListPendingWithHistory(ctx context.Context) ([]Match, error)
	// CompleteSettlementFlip finishes an interrupted settlement by flipping
	// the match to played, with the same compare-and-swap guard as Settle.
	CompleteSettlementFlip(ctx context.Context, matchID string) error
}
