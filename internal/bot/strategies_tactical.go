package bot

import (
	"fmt"

	"grim/internal/domain"
)

// TacticalBot bids on hand strength, names its longest suit as trump and
// tries to win each trick as cheaply as possible unless its partner already
// holds it. Every choice is derived from the visible match state only.
type TacticalBot struct {
	Tuning Tuning
}

// Decide implements Brain.
func (b *TacticalBot) Decide(m domain.Match, seat domain.Seat) (domain.Action, error) {
	hand := m.Deal.Hands[seat]
	switch m.Stage {
	case domain.StageBidding:
		return domain.Action{Kind: domain.ActionBid, Bid: b.bid(m.Deal.Auction, seat, hand)}, nil
	case domain.StageChooseRankOrder:
		order, _ := bestOrder(hand)
		return domain.Action{Kind: domain.ActionRankOrder, Order: order}, nil
	case domain.StageChooseTrump:
		return domain.Action{Kind: domain.ActionTrump, Trump: longestSuit(hand, m.Deal.RankOrder)}, nil
	case domain.StagePlaying:
		legal := m.LegalCards(seat)
		if len(legal) == 0 {
			return domain.Action{}, fmt.Errorf("%w: %s has no legal card", domain.ErrInvariant, seat)
		}
		return domain.Action{Kind: domain.ActionPlayCard, Card: b.card(m, seat, legal)}, nil
	default:
		return domain.Action{}, fmt.Errorf("%w: no bot decision in stage %s", domain.ErrInvariant, m.Stage)
	}
}

func (b *TacticalBot) bid(a domain.Auction, seat domain.Seat, hand []domain.Card) domain.Bid {
	if a.HasDeclarer && a.Declarer == seat.Partner() {
		return domain.BidPass
	}
	_, strength := bestOrder(hand)
	switch {
	case a.CanBid(domain.BidDoubleGrim) && strength >= b.Tuning.DoubleStrength:
		return domain.BidDoubleGrim
	case a.CanBid(domain.BidGrim) && strength >= b.Tuning.GrimStrength:
		return domain.BidGrim
	default:
		return domain.BidPass
	}
}

func (b *TacticalBot) card(m domain.Match, seat domain.Seat, legal []domain.Card) domain.Card {
	d := m.Deal
	trick := d.CurrentTrick
	if len(trick.Plays) == 0 {
		return strongest(legal, d.RankOrder, d.Trump)
	}

	current, err := domain.WinningPlay(trick.Plays, trick.LedSuit, d.RankOrder, d.Trump)
	if err == nil && current.Seat == seat.Partner() {
		return weakest(legal, d.RankOrder, d.Trump)
	}

	var best domain.Card
	found := false
	for _, c := range legal {
		plays := append(append([]domain.Play(nil), trick.Plays...), domain.Play{Seat: seat, Card: c})
		w, err := domain.WinningPlay(plays, trick.LedSuit, d.RankOrder, d.Trump)
		if err != nil || w.Seat != seat {
			continue
		}
		if !found || weaker(c, best, d.RankOrder, d.Trump) {
			best, found = c, true
		}
	}
	if found {
		return best
	}
	return weakest(legal, d.RankOrder, d.Trump)
}

// handStrength scores a hand for one rank order, scaled to a 4-card hand:
// 3/2/1 points for the top three ranks plus 2 per extra card in the longest suit.
func handStrength(hand []domain.Card, order domain.RankOrder) int {
	if len(hand) == 0 {
		return 0
	}
	score := 0
	counts := map[domain.Suit]int{}
	for _, c := range hand {
		if v := domain.RankValue(c.Rank, order); v < 3 {
			score += 3 - v
		}
		counts[c.Suit]++
	}
	longest := 0
	for _, n := range counts {
		if n > longest {
			longest = n
		}
	}
	score += 2 * (longest - 1)
	return score * domain.ShortRound / len(hand)
}

func bestOrder(hand []domain.Card) (domain.RankOrder, int) {
	high, low := handStrength(hand, domain.OrderHigh), handStrength(hand, domain.OrderLow)
	if low > high {
		return domain.OrderLow, low
	}
	return domain.OrderHigh, high
}

// minTrumpLength is the shortest suit the tactical bot names as trump.
const minTrumpLength = 3

// longestSuit returns the suit with the most cards, ties broken by the
// strongest card then canonical suit order. A hand with no suit of
// minTrumpLength or more cards plays No Trump.
func longestSuit(hand []domain.Card, order domain.RankOrder) domain.Trump {
	bestSuit := domain.Suit("")
	bestCount, bestTop := 0, 0
	for _, s := range domain.Suits {
		count, top := 0, len(domain.Ranks)
		for _, c := range hand {
			if c.Suit != s {
				continue
			}
			count++
			if v := domain.RankValue(c.Rank, order); v < top {
				top = v
			}
		}
		if count > bestCount || (count == bestCount && count > 0 && top < bestTop) {
			bestSuit, bestCount, bestTop = s, count, top
		}
	}
	if bestCount < minTrumpLength {
		return domain.TrumpNone
	}
	return domain.TrumpOf(bestSuit)
}

// weaker reports whether a is the cheaper card to give up: non-trump before
// trump, then the lower rank under order, then canonical sort order.
func weaker(a, b domain.Card, order domain.RankOrder, trump domain.Trump) bool {
	ta, tb := trump.IsTrump(a.Suit), trump.IsTrump(b.Suit)
	if ta != tb {
		return !ta
	}
	va, vb := domain.RankValue(a.Rank, order), domain.RankValue(b.Rank, order)
	if va != vb {
		return va > vb
	}
	return a.ID < b.ID
}

func weakest(cards []domain.Card, order domain.RankOrder, trump domain.Trump) domain.Card {
	out := cards[0]
	for _, c := range cards[1:] {
		if weaker(c, out, order, trump) {
			out = c
		}
	}
	return out
}

// strongest leads the highest non-trump card, keeping trumps back.
func strongest(cards []domain.Card, order domain.RankOrder, trump domain.Trump) domain.Card {
	out := cards[0]
	for _, c := range cards[1:] {
		ct, ot := trump.IsTrump(c.Suit), trump.IsTrump(out.Suit)
		switch {
		case ct != ot:
			if !ct {
				out = c
			}
		case domain.RankValue(c.Rank, order) < domain.RankValue(out.Rank, order):
			out = c
		}
	}
	return out
}
