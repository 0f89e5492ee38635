package usecase

import (
	"context"

	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/domain/player"
)

// Notifier delivers out-of-band messages to players. Delivery failures
// never fail the owning operation.
type Notifier interface {
	NotifyResultSubmitted(ctx context.Context, to player.Player, from player.Player, m match.Match) error
	NotifyResultConfirmed(ctx context.Context, to player.Player, from player.Player, m match.Match) error
	NotifyResultRejected(ctx context.Context, to player.Player, from player.Player, m match.Match) error
	NotifyGameRequested(ctx context.Context, to player.Player, from player.Player) error
}
