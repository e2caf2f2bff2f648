package bot

import (
	"fmt"
	"strconv"

	"grim/internal/domain"
)

// StandardBot draws every choice from a generator seeded by the deal seed,
// the acting seat and a per-decision counter. It holds no state.
type StandardBot struct {
	Tuning Tuning
}

// Decide implements Brain.
func (b *StandardBot) Decide(m domain.Match, seat domain.Seat) (domain.Action, error) {
	seed := m.DealSeed()
	switch m.Stage {
	case domain.StageBidding:
		return domain.Action{Kind: domain.ActionBid, Bid: b.Tuning.ChooseBid(seed, seat, m.Deal.Auction)}, nil
	case domain.StageChooseRankOrder:
		return domain.Action{Kind: domain.ActionRankOrder, Order: ChooseRankOrder(seed, seat)}, nil
	case domain.StageChooseTrump:
		return domain.Action{Kind: domain.ActionTrump, Trump: ChooseTrump(seed, seat)}, nil
	case domain.StagePlaying:
		legal := m.LegalCards(seat)
		if len(legal) == 0 {
			return domain.Action{}, fmt.Errorf("%w: %s has no legal card", domain.ErrInvariant, seat)
		}
		return domain.Action{Kind: domain.ActionPlayCard, Card: ChooseCard(seed, seat, m.TrickIndex(), legal)}, nil
	default:
		return domain.Action{}, fmt.Errorf("%w: no bot decision in stage %s", domain.ErrInvariant, m.Stage)
	}
}

// ChooseBid applies the bid distribution: mostly Pass, Grim on an open
// auction, DoubleGrim over a standing Grim when the round allows it.
func (t Tuning) ChooseBid(seed string, seat domain.Seat, a domain.Auction) domain.Bid {
	r := domain.NewRand(seed + "_bot_bid_" + seat.String() + "_" + strconv.Itoa(len(a.Bids))).Float64()
	switch {
	case r < t.PassBelow:
		return domain.BidPass
	case r < t.GrimBelow && a.CurrentBid == domain.BidNone:
		return domain.BidGrim
	case a.CanBid(domain.BidDoubleGrim):
		return domain.BidDoubleGrim
	default:
		return domain.BidPass
	}
}

// ChooseBid uses DefaultTuning.
func ChooseBid(seed string, seat domain.Seat, a domain.Auction) domain.Bid {
	return DefaultTuning.ChooseBid(seed, seat, a)
}

// ChooseRankOrder is a seeded coin flip, High on heads.
func ChooseRankOrder(seed string, seat domain.Seat) domain.RankOrder {
	if domain.NewRand(seed + "_" + seat.String() + "_rank_order").Bool() {
		return domain.OrderHigh
	}
	return domain.OrderLow
}

// ChooseTrump picks uniformly among the four suits and No Trump.
func ChooseTrump(seed string, seat domain.Seat) domain.Trump {
	return domain.Choice(domain.NewRand(seed+"_"+seat.String()+"_trump"), domain.Trumps)
}

// ChooseCard picks uniformly among legal, which must not be empty.
func ChooseCard(seed string, seat domain.Seat, trickIndex int, legal []domain.Card) domain.Card {
	r := domain.NewRand(seed + "_bot_card_" + seat.String() + "_" + strconv.Itoa(trickIndex))
	return domain.Choice(r, legal)
}
