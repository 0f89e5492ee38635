package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/player"
)

// StandingRow is the projected table line for one division member.
type StandingRow struct {
	Position    int     `json:"position"`
	PlayerID    string  `json:"player_id"`
	PlayerName  string  `json:"player_name"`
	Rating      float64 `json:"rating"`
	Points      int     `json:"points"`
	SetsWon     int     `json:"sets_won"`
	SetsLost    int     `json:"sets_lost"`
	SetDiff     int     `json:"set_diff"`
	RatingDelta float64 `json:"rating_delta"`
}

type StandingsService struct {
	divisionRepo   division.Repository
	membershipRepo division.MembershipRepository
	playerRepo     player.Repository
}

func NewStandingsService(
	divisionRepo division.Repository,
	membershipRepo division.MembershipRepository,
	playerRepo player.Repository,
) *StandingsService {
	return &StandingsService{
		divisionRepo:   divisionRepo,
		membershipRepo: membershipRepo,
		playerRepo:     playerRepo,
	}
}

// ListByDivision projects the division table. Stored positions win when
// every row carries one; otherwise the order is derived from points and
// set differential.
func (s *StandingsService) ListByDivision(ctx context.Context, divisionID string) ([]StandingRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ListByDivision")
	defer span.End()

	divisionID = strings.TrimSpace(divisionID)
	if divisionID == "" {
		return nil, fmt.Errorf("%w: division id is required", ErrInvalidInput)
	}

	_, exists, err := s.divisionRepo.GetByID(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("get division: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: division=%s", ErrNotFound, divisionID)
	}

	memberships, err := s.membershipRepo.ListByDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("list division members: %w", err)
	}
	if len(memberships) == 0 {
		return []StandingRow{}, nil
	}

	orderByStored := true
	for _, m := range memberships {
		if m.Position == nil {
			orderByStored = false
			break
		}
	}

	if orderByStored {
		sort.SliceStable(memberships, func(i, j int) bool {
			return *memberships[i].Position < *memberships[j].Position
		})
	} else {
		sort.SliceStable(memberships, func(i, j int) bool {
			if memberships[i].TotalPoints != memberships[j].TotalPoints {
				return memberships[i].TotalPoints > memberships[j].TotalPoints
			}
			return memberships[i].SetDifferential() > memberships[j].SetDifferential()
		})
	}

	rows := make([]StandingRow, 0, len(memberships))
	for i, m := range memberships {
		row := StandingRow{
			Position:    i + 1,
			PlayerID:    m.PlayerID,
			Points:      m.TotalPoints,
			SetsWon:     m.TotalSetsWon,
			SetsLost:    m.TotalSetsLost,
			SetDiff:     m.SetDifferential(),
			RatingDelta: m.RatingDelta,
		}
		if orderByStored {
			row.Position = *m.Position
		}

		p, found, err := s.playerRepo.GetByID(ctx, m.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("get player: %w", err)
		}
		if found {
			row.PlayerName = p.Name
			row.Rating = p.Rating
		}
		rows = append(rows, row)
	}

	return rows, nil
}
