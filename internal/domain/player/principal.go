package player

// Principal identifies the authenticated caller on API requests.
type Principal struct {
	PlayerID   string
	TelegramID int64
	Name       string
}
