package card

// ScoreRound applies the German Bridge scoring formula: an exact bid pays
// 10 plus the square of the bid; missing the bid in either direction costs
// the square of the miss.
func ScoreRound(bid, tricksWon int) int {
	if bid == tricksWon {
		return 10 + bid*bid
	}
	miss := tricksWon - bid
	if miss < 0 {
		miss = -miss
	}
	return -(miss * miss)
}
