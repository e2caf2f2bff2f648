package domain

// BidEntry is one call in the auction history.
type BidEntry struct {
	Seat Seat
	Bid  Bid
}

// Auction tracks one round's bidding. RoundSize is the number of cards per
// seat (4 or 8); DoubleGrim has no payout at 8 cards and is refused there.
type Auction struct {
	RoundSize   int
	Bids        []BidEntry
	CurrentBid  Bid
	Declarer    Seat
	HasDeclarer bool
}

// AuctionResult is the outcome of a finished auction.
type AuctionResult struct {
	Done       bool
	AllPassed  bool
	Declarer   Seat
	WinningBid Bid
}

// NewAuction opens an auction for a round dealing roundSize cards per seat.
func NewAuction(roundSize int) Auction {
	return Auction{RoundSize: roundSize, CurrentBid: BidNone}
}

// CanBid reports whether bid is legal now. Pass is always legal.
func (a Auction) CanBid(bid Bid) bool {
	switch bid {
	case BidPass:
		return true
	case BidGrim:
		return a.CurrentBid == BidNone
	case BidDoubleGrim:
		return a.CurrentBid == BidGrim && a.RoundSize != 8
	default:
		return false
	}
}

// LegalBids lists the bids CanBid accepts, Pass first.
func (a Auction) LegalBids() []Bid {
	out := []Bid{BidPass}
	for _, b := range []Bid{BidGrim, BidDoubleGrim} {
		if a.CanBid(b) {
			out = append(out, b)
		}
	}
	return out
}

// Place returns the auction with bid appended. A Grim or DoubleGrim makes
// the bidder the declarer, taking over from any earlier Grim.
func (a Auction) Place(seat Seat, bid Bid) (Auction, error) {
	if a.Complete() || !a.CanBid(bid) {
		return a, ErrIllegalBid
	}
	next := a.Clone()
	next.Bids = append(next.Bids, BidEntry{Seat: seat, Bid: bid})
	if bid != BidPass {
		next.CurrentBid = bid
		next.Declarer = seat
		next.HasDeclarer = true
	}
	return next, nil
}

// Complete reports whether bidding is over: three passes have followed the
// most recent non-Pass bid, or the first four bids were all Pass.
func (a Auction) Complete() bool {
	last := -1
	for i := len(a.Bids) - 1; i >= 0; i-- {
		if a.Bids[i].Bid != BidPass {
			last = i
			break
		}
	}
	if last < 0 {
		return len(a.Bids) >= len(Seats)
	}
	return len(a.Bids)-1-last >= len(Seats)-1
}

// Result summarises a finished auction; Done is false while bidding continues.
func (a Auction) Result() AuctionResult {
	if !a.Complete() {
		return AuctionResult{}
	}
	if a.HasDeclarer {
		return AuctionResult{Done: true, Declarer: a.Declarer, WinningBid: a.CurrentBid}
	}
	return AuctionResult{Done: true, AllPassed: true}
}

// Clone deep-copies the auction.
func (a Auction) Clone() Auction {
	a.Bids = append([]BidEntry(nil), a.Bids...)
	return a
}

// ValidateBidSequence replays bids and reports whether every one was legal.
func ValidateBidSequence(bids []BidEntry, roundSize int) bool {
	a := NewAuction(roundSize)
	for _, b := range bids {
		var err error
		if a, err = a.Place(b.Seat, b.Bid); err != nil {
			return false
		}
	}
	return true
}
