package division

import "context"

type Repository interface {
	GetByID(ctx context.Context, divisionID string) (Division, bool, error)
	ListBySeason(ctx context.Context, seasonID string) ([]Division, error)
}

type MembershipRepository interface {
	GetByDivisionAndPlayer(ctx context.Context, divisionID, playerID string) (Membership, bool, error)
	ListByDivision(ctx context.Context, divisionID string) ([]Membership, error)
	// FindForPlayerInSeason resolves the single active membership a player
	// holds across the season's divisions.
	FindForPlayerInSeason(ctx context.Context, seasonID, playerID string) (Membership, bool, error)
}
