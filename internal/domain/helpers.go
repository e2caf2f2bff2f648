package domain

import "strconv"

// Standing is the final result of a match.
type Standing string

const (
	StandingNS   Standing = "NS"
	StandingEW   Standing = "EW"
	StandingDraw Standing = "Draw"
)

// Standing returns the team with the higher cumulative score, or a draw.
func (m Match) Standing() Standing {
	team, ok := m.Scores.Leader()
	if !ok {
		return StandingDraw
	}
	if team == TeamNS {
		return StandingNS
	}
	return StandingEW
}

// TeamTricks counts the current deal's completed tricks won by team.
func (m Match) TeamTricks(team Team) int {
	return TricksWonBy(m.Deal.Completed, team)
}

// Hand returns a copy of seat's current hand.
func (m Match) Hand(seat Seat) []Card {
	if !seat.Valid() {
		return nil
	}
	return append([]Card(nil), m.Deal.Hands[seat]...)
}

// LegalCards lists what seat may play now; empty when it is not seat's turn to play.
func (m Match) LegalCards(seat Seat) []Card {
	if m.Stage != StagePlaying || seat != m.CurrentPlayer {
		return nil
	}
	return LegalCards(m.Deal.Hands[seat], m.Deal.CurrentTrick.LedSuit)
}

// LegalBids lists what seat may bid now; empty when it is not seat's turn to bid.
func (m Match) LegalBids(seat Seat) []Bid {
	if m.Stage != StageBidding || seat != m.CurrentPlayer {
		return nil
	}
	return m.Deal.Auction.LegalBids()
}

// TrickIndex is the zero-based number of the trick in progress.
func (m Match) TrickIndex() int {
	return len(m.Deal.Completed)
}

// DealSeed derives the seed for randomness scoped to the current deal and round.
func (m Match) DealSeed() string {
	return m.Seed + "_d" + strconv.Itoa(m.Deal.Index) + "_r" + strconv.Itoa(m.Deal.Round)
}

// ActionKind discriminates Action.
type ActionKind int

const (
	ActionBid ActionKind = iota
	ActionRankOrder
	ActionTrump
	ActionPlayCard
)

func (k ActionKind) String() string {
	switch k {
	case ActionBid:
		return "bid"
	case ActionRankOrder:
		return "rank_order"
	case ActionTrump:
		return "trump"
	case ActionPlayCard:
		return "play_card"
	default:
		return "unknown"
	}
}

// Action is a seat's input, whether from a human or the bot policy.
type Action struct {
	Kind  ActionKind
	Bid   Bid
	Order RankOrder
	Trump Trump
	Card  Card
}
