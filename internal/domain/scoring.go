package domain

import "fmt"

// Make-5 targets and rewards.
const (
	Make5Tricks         = 8
	Make5LeadingTarget  = 5
	Make5OpposingTarget = 4
	Make5LeadingReward  = 5
	Make5OpposingReward = 10
)

// TeamScores holds one integer per team, indexed by Team.
type TeamScores [2]int

// Add returns the element-wise sum.
func (s TeamScores) Add(o TeamScores) TeamScores {
	return TeamScores{s[TeamNS] + o[TeamNS], s[TeamEW] + o[TeamEW]}
}

// Difference is NS minus EW.
func (s TeamScores) Difference() int {
	return s[TeamNS] - s[TeamEW]
}

// Leader returns the team ahead; ok is false on a tie.
func (s TeamScores) Leader() (team Team, ok bool) {
	switch d := s.Difference(); {
	case d > 0:
		return TeamNS, true
	case d < 0:
		return TeamEW, true
	default:
		return TeamNS, false
	}
}

func (s TeamScores) String() string {
	d := s.Difference()
	sign := ""
	if d >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("NS: %d, EW: %d (%s%d)", s[TeamNS], s[TeamEW], sign, d)
}

// ScoreResult is the per-deal delta and the log message describing it.
type ScoreResult struct {
	Delta   TeamScores
	Message string
}

// contractPoints is the success payout; failure costs twice as much.
func contractPoints(bid Bid, roundSize int) int {
	switch {
	case roundSize == 4 && bid == BidGrim:
		return 16
	case roundSize == 4 && bid == BidDoubleGrim:
		return 32
	case roundSize == 8 && bid == BidGrim:
		return 64
	default:
		return 0
	}
}

// ContractScore scores a Grim or DoubleGrim. The declaring team must take
// every one of the roundSize tricks.
func ContractScore(declaring Team, bid Bid, tricksWon, roundSize int) ScoreResult {
	var res ScoreResult
	points := contractPoints(bid, roundSize)
	if points == 0 {
		res.Message = fmt.Sprintf("%s: no payout for %s with %d cards", declaring, bid, roundSize)
		return res
	}

	success := tricksWon == roundSize
	switch {
	case success && bid == BidDoubleGrim:
		res.Message = fmt.Sprintf("%s wins all %d tricks (Double): +%d points", declaring, roundSize, points)
	case success:
		res.Message = fmt.Sprintf("%s wins all %d tricks: +%d points", declaring, roundSize, points)
	case bid == BidDoubleGrim:
		points = -2 * points
		res.Message = fmt.Sprintf("%s fails Double Grim: %d points", declaring, points)
	case roundSize == 8:
		points = -2 * points
		res.Message = fmt.Sprintf("%s fails 8-card Grim: %d points", declaring, points)
	default:
		points = -2 * points
		res.Message = fmt.Sprintf("%s fails Grim: %d points", declaring, points)
	}
	res.Delta[declaring] = points
	return res
}

// Make5Score scores the fallback round. At most one team scores.
func Make5Score(leading Team, leadingTricks int) ScoreResult {
	var res ScoreResult
	opposing := leading.Opponent()
	opposingTricks := Make5Tricks - leadingTricks

	switch {
	case leadingTricks >= Make5LeadingTarget:
		res.Delta[leading] = Make5LeadingReward
		res.Message = fmt.Sprintf("%s takes %d/%d tricks: +%d points", leading, leadingTricks, Make5Tricks, Make5LeadingReward)
	case opposingTricks >= Make5OpposingTarget:
		res.Delta[opposing] = Make5OpposingReward
		res.Message = fmt.Sprintf("%s takes %d/%d tricks: +%d points", opposing, opposingTricks, Make5Tricks, Make5OpposingReward)
	default:
		res.Message = fmt.Sprintf("No team scores (%s: %d, %s: %d)", leading, leadingTricks, opposing, opposingTricks)
	}
	return res
}
