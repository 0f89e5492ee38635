package usecase

import (
	"context"
	"fmt"

	"github.com/pingis-club/league-api/internal/domain/division"
	"github.com/pingis-club/league-api/internal/domain/season"
)

// ActiveSeason is the current season together with its division layout.
type ActiveSeason struct {
	Season    season.Season
	Divisions []division.Division
}

type SeasonService struct {
	seasonRepo   season.Repository
	divisionRepo division.Repository
}

func NewSeasonService(seasonRepo season.Repository, divisionRepo division.Repository) *SeasonService {
	return &SeasonService{
		seasonRepo:   seasonRepo,
		divisionRepo: divisionRepo,
	}
}

func (s *SeasonService) Active(ctx context.Context) (ActiveSeason, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Active")
	defer span.End()

	active, found, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return ActiveSeason{}, fmt.Errorf("get active season: %w", err)
	}
	if !found {
		return ActiveSeason{}, fmt.Errorf("%w: no active season", ErrNotFound)
	}

	divisions, err := s.divisionRepo.ListBySeason(ctx, active.ID)
	if err != nil {
		return ActiveSeason{}, fmt.Errorf("list divisions: %w", err)
	}

	return ActiveSeason{Season: active, Divisions: divisions}, nil
}
