package season

import "context"

type Repository interface {
	GetActive(ctx context.Context) (Season, bool, error)
}
