package domain

import "fmt"

// Suit is one of the four card suits.
type Suit string

const (
	SuitSpades   Suit = "S"
	SuitHearts   Suit = "H"
	SuitDiamonds Suit = "D"
	SuitClubs    Suit = "C"
)

// Suits lists the suits in canonical deck order.
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case SuitSpades, SuitHearts, SuitDiamonds, SuitClubs:
		return true
	default:
		return false
	}
}

// Rank is a card rank in the 32-card deck.
type Rank int

const (
	Rank7 Rank = iota
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
)

// Ranks lists the ranks in canonical deck order (7 through Ace).
var Ranks = []Rank{Rank7, Rank8, Rank9, Rank10, RankJ, RankQ, RankK, RankA}

func (r Rank) String() string {
	switch r {
	case Rank7:
		return "7"
	case Rank8:
		return "8"
	case Rank9:
		return "9"
	case Rank10:
		return "10"
	case RankJ:
		return "J"
	case RankQ:
		return "Q"
	case RankK:
		return "K"
	case RankA:
		return "A"
	default:
		return "?"
	}
}

// Card is an immutable playing card. ID is suit letter followed by rank ("S7", "H10", "DA").
type Card struct {
	ID   string
	Suit Suit
	Rank Rank
}

// NewCard builds the canonical card for a suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card{ID: string(suit) + rank.String(), Suit: suit, Rank: rank}
}

// ParseCard resolves a card ID such as "SA" or "H10".
func ParseCard(id string) (Card, error) {
	if len(id) < 2 {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	suit := Suit(id[:1])
	if !suit.Valid() {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	for _, r := range Ranks {
		if r.String() == id[1:] {
			return NewCard(suit, r), nil
		}
	}
	return Card{}, fmt.Errorf("invalid card id %q", id)
}

// Label renders the card rank-first, the way the event log prints it ("7S").
func (c Card) Label() string {
	return c.Rank.String() + string(c.Suit)
}

func (c Card) String() string {
	return c.ID
}

// Seat is a table position. Play proceeds clockwise N -> E -> S -> W.
type Seat int

const (
	SeatNorth Seat = iota
	SeatEast
	SeatSouth
	SeatWest
)

// Seats lists the four seats in clockwise order starting at North.
var Seats = [4]Seat{SeatNorth, SeatEast, SeatSouth, SeatWest}

func (s Seat) String() string {
	switch s {
	case SeatNorth:
		return "N"
	case SeatEast:
		return "E"
	case SeatSouth:
		return "S"
	case SeatWest:
		return "W"
	default:
		return "?"
	}
}

// ParseSeat parses "N", "E", "S" or "W".
func ParseSeat(v string) (Seat, error) {
	for _, s := range Seats {
		if s.String() == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown seat %q", v)
}

// Valid reports whether s is one of the four seats.
func (s Seat) Valid() bool {
	return s >= SeatNorth && s <= SeatWest
}

// Next returns the seat to the left (clockwise).
func (s Seat) Next() Seat {
	return (s + 1) % 4
}

// Partner returns the seat opposite s.
func (s Seat) Partner() Seat {
	return (s + 2) % 4
}

// Team returns the partnership s belongs to.
func (s Seat) Team() Team {
	if s == SeatNorth || s == SeatSouth {
		return TeamNS
	}
	return TeamEW
}

// Team is a partnership.
type Team int

const (
	TeamNS Team = iota
	TeamEW
)

// Teams lists both partnerships, NS first.
var Teams = [2]Team{TeamNS, TeamEW}

func (t Team) String() string {
	if t == TeamNS {
		return "NS"
	}
	return "EW"
}

// ParseTeam parses "NS" or "EW".
func ParseTeam(v string) (Team, error) {
	switch v {
	case "NS":
		return TeamNS, nil
	case "EW":
		return TeamEW, nil
	default:
		return 0, fmt.Errorf("unknown team %q", v)
	}
}

// Opponent returns the other partnership.
func (t Team) Opponent() Team {
	if t == TeamNS {
		return TeamEW
	}
	return TeamNS
}

// Seats returns the team's two seats; the first is its designated dealer seat.
func (t Team) Seats() [2]Seat {
	if t == TeamNS {
		return [2]Seat{SeatNorth, SeatSouth}
	}
	return [2]Seat{SeatEast, SeatWest}
}

// Bid is an auction call. BidNone is the "no current bid" marker and is never placed.
type Bid int

const (
	BidNone Bid = iota
	BidPass
	BidGrim
	BidDoubleGrim
)

func (b Bid) String() string {
	switch b {
	case BidPass:
		return "Pass"
	case BidGrim:
		return "Grim"
	case BidDoubleGrim:
		return "DoubleGrim"
	default:
		return "None"
	}
}

// ParseBid parses "Pass", "Grim" or "DoubleGrim".
func ParseBid(v string) (Bid, error) {
	switch v {
	case "Pass":
		return BidPass, nil
	case "Grim":
		return BidGrim, nil
	case "DoubleGrim":
		return BidDoubleGrim, nil
	default:
		return BidNone, fmt.Errorf("unknown bid %q", v)
	}
}

// RankOrder selects which end of the rank sequence is strongest.
type RankOrder int

const (
	OrderUnset RankOrder = iota
	OrderHigh
	OrderLow
)

func (o RankOrder) String() string {
	switch o {
	case OrderHigh:
		return "High"
	case OrderLow:
		return "Low"
	default:
		return "Unset"
	}
}

// ParseRankOrder parses "High" or "Low".
func ParseRankOrder(v string) (RankOrder, error) {
	switch v {
	case "High":
		return OrderHigh, nil
	case "Low":
		return OrderLow, nil
	default:
		return OrderUnset, fmt.Errorf("unknown rank order %q", v)
	}
}

// Trump is a trump suit or No Trump. The zero value means not chosen yet.
type Trump string

const (
	TrumpUnset Trump = ""
	TrumpNone  Trump = "NT"
)

// Trumps lists every choice a declarer may make.
var Trumps = []Trump{Trump(SuitSpades), Trump(SuitHearts), Trump(SuitDiamonds), Trump(SuitClubs), TrumpNone}

// TrumpOf returns the trump choice naming a suit.
func TrumpOf(s Suit) Trump {
	return Trump(s)
}

// ParseTrump parses a suit letter or "NT".
func ParseTrump(v string) (Trump, error) {
	t := Trump(v)
	if t.Valid() {
		return t, nil
	}
	return TrumpUnset, fmt.Errorf("unknown trump %q", v)
}

// Valid reports whether t is a choosable trump.
func (t Trump) Valid() bool {
	return t == TrumpNone || Suit(t).Valid()
}

// IsTrump reports whether cards of suit s are trump under t.
func (t Trump) IsTrump(s Suit) bool {
	return t != TrumpNone && t != TrumpUnset && Suit(t) == s
}

// Text renders the trump for the event log.
func (t Trump) Text() string {
	if t == TrumpNone {
		return "No Trump"
	}
	return string(t)
}

// Phase is the per-deal round marker. It only moves forward within a deal.
type Phase string

const (
	PhaseRound1 Phase = "Round1"
	PhaseRound2 Phase = "Round2"
	PhaseRound3 Phase = "Round3"
	PhaseMake5  Phase = "Make5"
	PhaseScore  Phase = "Score"
)

// Stage tells a driver what input the match is waiting for.
type Stage string

const (
	StageAwaitingCoinToss Stage = "awaiting_coin_toss"
	StageAwaitingDeal     Stage = "awaiting_deal"
	StageBidding          Stage = "bidding"
	StageChooseRankOrder  Stage = "choose_rank_order"
	StageChooseTrump      Stage = "choose_trump"
	StagePlaying          Stage = "playing"
	StageDealOver         Stage = "deal_over"
	StageMatchOver        Stage = "match_over"
)
