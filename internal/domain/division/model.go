package division

// Division groups players within a season. Number 1 is the top division.
// Coef is the division scoring coefficient fed into the rating formula.
type Division struct {
	ID       string
	SeasonID string
	Number   int
	Coef     float64
}

// Membership links a player to a division for one season and carries the
// season aggregates. Position is nil until an explicit standing is assigned;
// the standings projection then derives order by sorting.
type Membership struct {
	ID            string
	DivisionID    string
	PlayerID      string
	TotalPoints   int
	TotalSetsWon  int
	TotalSetsLost int
	RatingDelta   float64
	Position      *int
}

// SetDifferential is the secondary standings sort key.
func (m Membership) SetDifferential() int {
	return m.TotalSetsWon - m.TotalSetsLost
}
