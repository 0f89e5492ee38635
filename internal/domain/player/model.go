package player

// DefaultRating is assigned to newly registered players.
const DefaultRating = 100.0

// Player is a league participant. Rating is mutated only by match settlement.
type Player struct {
	ID         string
	TelegramID int64
	Name       string
	Rating     float64
}
