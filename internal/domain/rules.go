package domain

// Strength lists, strongest first.
var (
	highOrder = []Rank{RankA, RankK, RankQ, RankJ, Rank10, Rank9, Rank8, Rank7}
	lowOrder  = []Rank{Rank7, Rank8, Rank9, Rank10, RankJ, RankQ, RankK, RankA}
)

// RankValue returns the position of rank in order's strength list; 0 is strongest.
func RankValue(rank Rank, order RankOrder) int {
	list := highOrder
	if order == OrderLow {
		list = lowOrder
	}
	for i, r := range list {
		if r == rank {
			return i
		}
	}
	return len(list)
}

// CompareRanks is negative when r1 beats r2 under order, positive when r2 wins.
func CompareRanks(r1, r2 Rank, order RankOrder) int {
	return RankValue(r1, order) - RankValue(r2, order)
}

// CompareCards is negative when c1 beats c2. Trump beats non-trump; cards of
// the same suit compare by rank; two different non-trump suits return 0 and
// are left to the led-suit aware WinningPlay.
func CompareCards(c1, c2 Card, order RankOrder, trump Trump) int {
	t1, t2 := trump.IsTrump(c1.Suit), trump.IsTrump(c2.Suit)
	if t1 && !t2 {
		return -1
	}
	if !t1 && t2 {
		return 1
	}
	if c1.Suit == c2.Suit || (t1 && t2) {
		return CompareRanks(c1.Rank, c2.Rank, order)
	}
	return 0
}

// Play is one card laid to a trick.
type Play struct {
	Seat Seat
	Card Card
}

// WinningPlay walks plays in order keeping a running winner. A later play
// takes over when it is the only trump, outranks a trump winner, is the
// first to follow the led suit, or outranks a winner of the led suit.
func WinningPlay(plays []Play, ledSuit Suit, order RankOrder, trump Trump) (Play, error) {
	if len(plays) == 0 {
		return Play{}, ErrNoPlays
	}
	winner := plays[0]
	for _, cur := range plays[1:] {
		winTrump := trump.IsTrump(winner.Card.Suit)
		curTrump := trump.IsTrump(cur.Card.Suit)
		winFollows := winner.Card.Suit == ledSuit
		curFollows := cur.Card.Suit == ledSuit

		switch {
		case curTrump && !winTrump:
			winner = cur
		case curTrump && winTrump:
			if CompareRanks(cur.Card.Rank, winner.Card.Rank, order) < 0 {
				winner = cur
			}
		case !curTrump && !winTrump:
			if curFollows && !winFollows {
				winner = cur
			} else if curFollows && winFollows && CompareRanks(cur.Card.Rank, winner.Card.Rank, order) < 0 {
				winner = cur
			}
		}
	}
	return winner, nil
}

// LegalCards returns the cards a seat may play. With nothing led, or when the
// hand is void in the led suit, the whole hand is legal.
func LegalCards(hand []Card, ledSuit Suit) []Card {
	if ledSuit == "" {
		return append([]Card(nil), hand...)
	}
	following := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c.Suit == ledSuit {
			following = append(following, c)
		}
	}
	if len(following) > 0 {
		return following
	}
	return append([]Card(nil), hand...)
}

// CanPlay reports whether card may be played from hand against ledSuit.
func CanPlay(card Card, hand []Card, ledSuit Suit) bool {
	if ledSuit == "" || card.Suit == ledSuit {
		return true
	}
	for _, c := range hand {
		if c.Suit == ledSuit {
			return false
		}
	}
	return true
}

// Trick is the table's current (or a completed) trick.
type Trick struct {
	LedSuit Suit
	Plays   []Play
	Winner  Seat
	Done    bool
}

// Add returns a copy of t with the play appended; the first play sets the led suit.
func (t Trick) Add(seat Seat, card Card) Trick {
	next := t.Clone()
	if len(next.Plays) == 0 {
		next.LedSuit = card.Suit
	}
	next.Plays = append(next.Plays, Play{Seat: seat, Card: card})
	return next
}

// Full reports whether all four seats have played.
func (t Trick) Full() bool {
	return len(t.Plays) == len(Seats)
}

// Resolve closes a full trick and records its winner.
func (t Trick) Resolve(order RankOrder, trump Trump) (Trick, error) {
	if !t.Full() || t.LedSuit == "" {
		return t, ErrIncompleteTrick
	}
	w, err := WinningPlay(t.Plays, t.LedSuit, order, trump)
	if err != nil {
		return t, err
	}
	next := t.Clone()
	next.Winner = w.Seat
	next.Done = true
	return next, nil
}

// Clone deep-copies the trick.
func (t Trick) Clone() Trick {
	t.Plays = append([]Play(nil), t.Plays...)
	return t
}

// Text renders the trick as "N: 7S, E: AS (E wins)".
func (t Trick) Text() string {
	if len(t.Plays) == 0 {
		return "No cards played"
	}
	out := ""
	for i, p := range t.Plays {
		if i > 0 {
			out += ", "
		}
		out += p.Seat.String() + ": " + p.Card.Label()
	}
	if t.Done {
		out += " (" + t.Winner.String() + " wins)"
	}
	return out
}

// TricksWonBy counts completed tricks won by team.
func TricksWonBy(tricks []Trick, team Team) int {
	n := 0
	for _, t := range tricks {
		if t.Done && t.Winner.Team() == team {
			n++
		}
	}
	return n
}
