package domain

import "fmt"

// Config is the per-match setup supplied by the presentation layer.
type Config struct {
	Deals int
	Bots  [4]bool
	Names [4]string
}

// Validate rejects configs the engine cannot run.
func (c Config) Validate() error {
	if c.Deals < 1 {
		return fmt.Errorf("%w: deals must be at least 1, got %d", ErrInvalidConfig, c.Deals)
	}
	return nil
}

// CoinToss decides the first dealer.
type CoinToss struct {
	Team   Team
	Dealer Seat
}

// Deal holds everything scoped to one deal. Hands and SetAside are indexed by Seat.
type Deal struct {
	Index       int
	Dealer      Seat
	LeadingTeam Team
	Phase       Phase
	Round       int

	Hands    [4][]Card
	SetAside [4][]Card
	Stock    []Card

	Auction      Auction
	CurrentTrick Trick
	Completed    []Trick

	RankOrder        RankOrder
	Trump            Trump
	PredeclaredTrump Suit
}

// Clone deep-copies the deal.
func (d Deal) Clone() Deal {
	for i := range d.Hands {
		d.Hands[i] = append([]Card(nil), d.Hands[i]...)
		d.SetAside[i] = append([]Card(nil), d.SetAside[i]...)
	}
	d.Stock = append([]Card(nil), d.Stock...)
	d.Auction = d.Auction.Clone()
	d.CurrentTrick = d.CurrentTrick.Clone()
	if d.Completed != nil {
		completed := make([]Trick, len(d.Completed))
		for i, t := range d.Completed {
			completed[i] = t.Clone()
		}
		d.Completed = completed
	}
	return d
}

// RoundSize is the number of tricks the current phase plays.
func (d Deal) RoundSize() int {
	switch d.Phase {
	case PhaseRound1, PhaseRound2:
		return ShortRound
	case PhaseRound3, PhaseMake5:
		return LongRound
	default:
		if d.Round == 3 {
			return LongRound
		}
		return ShortRound
	}
}

// Outcome records how a finished deal scored.
type Outcome struct {
	DealIndex   int
	Dealer      Seat
	Phase       Phase
	Declarer    Seat
	Contract    Bid
	LeadingTeam Team
	Tricks      TeamScores
	Delta       TeamScores
	Message     string
}

// Match is the single state value threaded through every transition.
type Match struct {
	Seed   string
	Config Config

	CoinToss CoinToss
	Tossed   bool

	Stage         Stage
	Deal          Deal
	CurrentPlayer Seat
	Scores        TeamScores
	History       []Outcome
	Log           []string
}

// Clone deep-copies the match so a transition can build a new value.
func (m Match) Clone() Match {
	m.Deal = m.Deal.Clone()
	m.History = append([]Outcome(nil), m.History...)
	m.Log = append([]string(nil), m.Log...)
	return m
}

// Over reports whether the configured number of deals has been played.
func (m Match) Over() bool {
	return m.Stage == StageMatchOver
}

// IsBot reports whether seat is driven by the bot policy.
func (m Match) IsBot(seat Seat) bool {
	return seat.Valid() && m.Config.Bots[seat]
}

// Name returns the display name for seat, falling back to the seat letter.
func (m Match) Name(seat Seat) string {
	if !seat.Valid() || m.Config.Names[seat] == "" {
		return seat.String()
	}
	return m.Config.Names[seat]
}

// AwaitingInput reports whether some seat must act before the match can move.
func (m Match) AwaitingInput() bool {
	switch m.Stage {
	case StageBidding, StageChooseRankOrder, StageChooseTrump, StagePlaying:
		return true
	default:
		return false
	}
}
