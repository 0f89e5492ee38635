package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreCoefficient(t *testing.T) {
	tests := []struct {
		name       string
		winnerSets int
		loserSets  int
		want       float64
	}{
		{name: "sweep", winnerSets: 3, loserSets: 0, want: 1.2},
		{name: "four sets", winnerSets: 3, loserSets: 1, want: 1.0},
		{name: "five sets", winnerSets: 3, loserSets: 2, want: 0.8},
		{name: "sweep reversed order", winnerSets: 0, loserSets: 3, want: 1.2},
		{name: "four sets reversed order", winnerSets: 1, loserSets: 3, want: 1.0},
		{name: "five sets reversed order", winnerSets: 2, loserSets: 3, want: 0.8},
		{name: "zero sets falls back to neutral", winnerSets: 0, loserSets: 0, want: 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreCoefficient(tc.winnerSets, tc.loserSets))
		})
	}
}

func TestMatchDelta(t *testing.T) {
	tests := []struct {
		name         string
		winnerRating float64
		loserRating  float64
		winnerSets   int
		loserSets    int
		coef         float64
		wantWinner   float64
		wantLoser    float64
	}{
		{
			name:         "equal ratings sweep at quarter coef",
			winnerRating: 100, loserRating: 100,
			winnerSets: 3, loserSets: 0, coef: 0.25,
			wantWinner: 3.00, wantLoser: -1.50,
		},
		{
			name:         "equal ratings five sets at quarter coef",
			winnerRating: 100, loserRating: 100,
			winnerSets: 3, loserSets: 2, coef: 0.25,
			wantWinner: 2.00, wantLoser: -1.00,
		},
		{
			name:         "underdog win pays more",
			winnerRating: 90, loserRating: 110,
			winnerSets: 3, loserSets: 1, coef: 0.5,
			wantWinner: 6.00, wantLoser: -3.00,
		},
		{
			name:         "heavy favorite can lose rating by winning",
			winnerRating: 250, loserRating: 100,
			winnerSets: 3, loserSets: 0, coef: 1.0,
			wantWinner: -6.00, wantLoser: 3.00,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := MatchDelta(tc.winnerRating, tc.loserRating, tc.winnerSets, tc.loserSets, tc.coef)
			assert.InDelta(t, tc.wantWinner, d.Winner, 1e-9)
			assert.InDelta(t, tc.wantLoser, d.Loser, 1e-9)
		})
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 2.0, Round2(2.0))
}
