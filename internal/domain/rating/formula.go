package rating

import "math"

// ScoreCoefficient weights the swing by how lopsided the result was.
// Sweeps move the rating more, tight five-setters less. Argument order
// does not matter: 0:3 weighs the same as 3:0.
func ScoreCoefficient(winnerSets, loserSets int) float64 {
	hi, lo := winnerSets, loserSets
	if lo > hi {
		hi, lo = lo, hi
	}
	switch {
	case hi == 3 && lo == 0:
		return 1.2
	case hi == 3 && lo == 1:
		return 1.0
	case hi == 3 && lo == 2:
		return 0.8
	}
	return 1.0
}

// Delta is the pair of signed rating changes produced by one match.
type Delta struct {
	Winner float64
	Loser  float64
}

// MatchDelta computes the rating swing for a confirmed result.
//
// The base term rewards beating stronger opponents and can go negative
// when the winner heavily outrates the loser; that is intentional, the
// formula is handicap-style rather than Elo.
func MatchDelta(winnerRating, loserRating float64, winnerSets, loserSets int, divisionCoef float64) Delta {
	ks := ScoreCoefficient(winnerSets, loserSets)
	base := (100 - (winnerRating - loserRating)) / 10
	return Delta{
		Winner: Round2(base * divisionCoef * ks),
		Loser:  Round2(-(base / 2) * divisionCoef * ks),
	}
}

// Update carries a player's rating transition for one settlement.
type Update struct {
	PlayerID  string
	OldRating float64
	NewRating float64
	Delta     float64
}

// Preview is the estimate shown to a player before submitting a result.
type Preview struct {
	Delta     float64
	NewRating float64
}

// PreviewDelta derives the caller's own delta from their perspective of the
// score. Returns false for anything other than the six legal outcomes. The
// numbers are produced by the same path as settlement, so the preview and
// the committed delta always agree.
func PreviewDelta(myRating, opponentRating float64, mySets, oppSets int, divisionCoef float64) (Preview, bool) {
	legal := (mySets == 3 && oppSets >= 0 && oppSets <= 2) ||
		(oppSets == 3 && mySets >= 0 && mySets <= 2)
	if !legal {
		return Preview{}, false
	}

	var own float64
	if mySets > oppSets {
		d := MatchDelta(myRating, opponentRating, mySets, oppSets, divisionCoef)
		own = d.Winner
	} else {
		d := MatchDelta(opponentRating, myRating, oppSets, mySets, divisionCoef)
		own = d.Loser
	}
	return Preview{Delta: own, NewRating: Round2(myRating + own)}, true
}

// Round2 rounds to two decimals, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
