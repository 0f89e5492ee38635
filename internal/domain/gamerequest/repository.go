package gamerequest

import (
	"context"
	"errors"
)

// ErrNotOpen is returned by Accept and Cancel when the request already left
// the open state.
var ErrNotOpen = errors.New("game request not open")

type Repository interface {
	GetByID(ctx context.Context, requestID string) (Request, bool, error)
	ListOpenByDivision(ctx context.Context, divisionID string) ([]Request, error)
	Create(ctx context.Context, r Request) error
	// Accept flips an open request to accepted with a compare-and-swap on
	// the status; a miss returns ErrNotOpen.
	Accept(ctx context.Context, requestID, byPlayerID string) error
	// Cancel flips an open request to cancelled, same guard as Accept.
	Cancel(ctx context.Context, requestID string) error
}
