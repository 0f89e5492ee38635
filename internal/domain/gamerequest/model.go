package gamerequest

import "time"

type Kind string

const (
	KindOpen     Kind = "open"
	KindDirected Kind = "directed"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusAccepted  Status = "accepted"
	StatusCancelled Status = "cancelled"
)

// Request is an invitation to play: either open to the whole division or
// directed at one opponent.
type Request struct {
	ID         string
	DivisionID string
	FromPlayer string
	ToPlayer   string // empty for open requests
	Kind       Kind
	Status     Status
	AcceptedBy string
	CreatedAt  time.Time
}
