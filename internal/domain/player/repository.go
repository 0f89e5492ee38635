package player

import "context"

type Repository interface {
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (Player, bool, error)
	Create(ctx context.Context, p Player) error
	ListTopByRating(ctx context.Context, limit int) ([]Player, error)
}
