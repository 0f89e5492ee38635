package season

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Season is a year+month league period. The store keeps at most one active
// season; the service only ever consumes the active one.
type Season struct {
	ID     string
	Year   int
	Month  int
	Status string
}
