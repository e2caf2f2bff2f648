package app

import "grim/internal/domain"

// EventKind identifies emitted match events for host dispatch.
type EventKind string

const (
	EventMatchCreated      EventKind = "match_created"
	EventCoinTossed        EventKind = "coin_tossed"
	EventDealStarted       EventKind = "deal_started"
	EventHandDealt         EventKind = "hand_dealt"
	EventBidPlaced         EventKind = "bid_placed"
	EventAuctionWon        EventKind = "auction_won"
	EventRoundAdvanced     EventKind = "round_advanced"
	EventRankOrderSelected EventKind = "rank_order_selected"
	EventTrumpSelected     EventKind = "trump_selected"
	EventCardPlayed        EventKind = "card_played"
	EventTrickWon          EventKind = "trick_won"
	EventDealScored        EventKind = "deal_scored"
	EventMatchEnded        EventKind = "match_ended"
	EventPlayerRenamed     EventKind = "player_renamed"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []domain.Seat // empty means broadcast
}

// Private reports whether the event is addressed to specific seats only.
func (e Event) Private() bool {
	return len(e.Recipients) > 0
}

type MatchCreatedPayload struct {
	Seed  string
	Deals int
}

type CoinTossedPayload struct {
	Team   domain.Team
	Dealer domain.Seat
	Manual bool
}

type DealStartedPayload struct {
	DealIndex   int
	Dealer      domain.Seat
	LeadingTeam domain.Team
	FirstToAct  domain.Seat
}

type HandDealtPayload struct {
	Seat  domain.Seat
	Phase domain.Phase
	Hand  []domain.Card
}

type BidPlacedPayload struct {
	Seat   domain.Seat
	Bid    domain.Bid
	Round  int
	Next   domain.Seat
	Closed bool
}

type AuctionWonPayload struct {
	Declarer domain.Seat
	Bid      domain.Bid
	Round    int
}

type RoundAdvancedPayload struct {
	From             domain.Phase
	To               domain.Phase
	PredeclaredTrump domain.Suit
	FirstToAct       domain.Seat
}

type RankOrderSelectedPayload struct {
	Seat  domain.Seat
	Order domain.RankOrder
}

type TrumpSelectedPayload struct {
	Seat   domain.Seat
	Trump  domain.Trump
	Leader domain.Seat
}

type CardPlayedPayload struct {
	Seat domain.Seat
	Card domain.Card
	Next domain.Seat
}

type TrickWonPayload struct {
	Winner     domain.Seat
	TrickIndex int
	Trick      domain.Trick
}

type DealScoredPayload struct {
	Outcome domain.Outcome
	Scores  domain.TeamScores
}

type MatchEndedPayload struct {
	Scores   domain.TeamScores
	Standing domain.Standing
}

type PlayerRenamedPayload struct {
	Seat domain.Seat
	Name string
}
