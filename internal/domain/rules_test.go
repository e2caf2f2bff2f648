package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(id string) Card {
	c, err := ParseCard(id)
	if err != nil {
		panic(err)
	}
	return c
}

func cards(ids ...string) []Card {
	out := make([]Card, len(ids))
	for i, id := range ids {
		out[i] = card(id)
	}
	return out
}

func TestCompareRanks(t *testing.T) {
	tests := []struct {
		name  string
		r1    Rank
		r2    Rank
		order RankOrder
		wins  bool
	}{
		{name: "ace beats king high", r1: RankA, r2: RankK, order: OrderHigh, wins: true},
		{name: "seven loses to eight high", r1: Rank7, r2: Rank8, order: OrderHigh, wins: false},
		{name: "seven beats ace low", r1: Rank7, r2: RankA, order: OrderLow, wins: true},
		{name: "ten beats jack low", r1: Rank10, r2: RankJ, order: OrderLow, wins: true},
		{name: "jack beats ten high", r1: RankJ, r2: Rank10, order: OrderHigh, wins: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareRanks(tt.r1, tt.r2, tt.order)
			if tt.wins {
				assert.Negative(t, got)
			} else {
				assert.Positive(t, got)
			}
		})
	}
	assert.Zero(t, CompareRanks(RankQ, RankQ, OrderHigh))
}

func TestCompareCards(t *testing.T) {
	trump := TrumpOf(SuitHearts)

	assert.Negative(t, CompareCards(card("H7"), card("SA"), OrderHigh, trump), "trump beats non-trump")
	assert.Positive(t, CompareCards(card("SA"), card("H7"), OrderHigh, trump))
	assert.Negative(t, CompareCards(card("SA"), card("SK"), OrderHigh, trump), "same suit by rank")
	assert.Negative(t, CompareCards(card("H8"), card("HQ"), OrderLow, trump), "both trump by rank")
	assert.Zero(t, CompareCards(card("SA"), card("D7"), OrderHigh, trump), "different non-trump suits")
	assert.Zero(t, CompareCards(card("HA"), card("D7"), OrderHigh, TrumpNone), "no trump makes hearts ordinary")
}

func TestWinningPlay(t *testing.T) {
	plays := []Play{
		{Seat: SeatNorth, Card: card("S7")},
		{Seat: SeatEast, Card: card("SA")},
		{Seat: SeatSouth, Card: card("SK")},
		{Seat: SeatWest, Card: card("HQ")},
	}

	tests := []struct {
		name  string
		order RankOrder
		trump Trump
		want  Seat
	}{
		{name: "only trump wins", order: OrderHigh, trump: TrumpOf(SuitHearts), want: SeatWest},
		{name: "highest spade wins without trump", order: OrderHigh, trump: TrumpNone, want: SeatEast},
		{name: "low order favours the seven", order: OrderLow, trump: TrumpNone, want: SeatNorth},
		{name: "trump in led suit", order: OrderHigh, trump: TrumpOf(SuitSpades), want: SeatEast},
		{name: "off-suit trump absent", order: OrderHigh, trump: TrumpOf(SuitClubs), want: SeatEast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := WinningPlay(plays, SuitSpades, tt.order, tt.trump)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Seat)
		})
	}

	t.Run("higher trump overtakes", func(t *testing.T) {
		ps := []Play{
			{Seat: SeatNorth, Card: card("D9")},
			{Seat: SeatEast, Card: card("C8")},
			{Seat: SeatSouth, Card: card("CA")},
			{Seat: SeatWest, Card: card("DK")},
		}
		w, err := WinningPlay(ps, SuitDiamonds, OrderHigh, TrumpOf(SuitClubs))
		require.NoError(t, err)
		assert.Equal(t, SeatSouth, w.Seat)
	})

	t.Run("empty plays is an invariant violation", func(t *testing.T) {
		_, err := WinningPlay(nil, SuitSpades, OrderHigh, TrumpNone)
		assert.True(t, errors.Is(err, ErrInvariant))
	})
}

func TestLegalCards(t *testing.T) {
	hand := cards("S7", "SQ", "H9", "DA")

	assert.Equal(t, hand, LegalCards(hand, ""), "nothing led")
	assert.Equal(t, cards("S7", "SQ"), LegalCards(hand, SuitSpades), "must follow")
	assert.Equal(t, hand, LegalCards(hand, SuitClubs), "void in led suit")

	assert.True(t, CanPlay(card("H9"), hand, SuitClubs))
	assert.False(t, CanPlay(card("H9"), hand, SuitSpades))
	assert.True(t, CanPlay(card("SQ"), hand, SuitSpades))
}

func TestTrickResolve(t *testing.T) {
	tr := Trick{}
	tr = tr.Add(SeatNorth, card("S7"))
	assert.Equal(t, SuitSpades, tr.LedSuit)

	_, err := tr.Resolve(OrderHigh, TrumpNone)
	assert.ErrorIs(t, err, ErrIncompleteTrick)
	assert.ErrorIs(t, err, ErrInvariant)

	tr = tr.Add(SeatEast, card("SA")).Add(SeatSouth, card("SK")).Add(SeatWest, card("HQ"))
	done, err := tr.Resolve(OrderHigh, TrumpOf(SuitHearts))
	require.NoError(t, err)
	assert.True(t, done.Done)
	assert.Equal(t, SeatWest, done.Winner)
	assert.False(t, tr.Done, "resolve must not mutate the receiver")
	assert.Equal(t, "N: 7S, E: AS, S: KS, W: QH (W wins)", done.Text())
}

func TestTricksWonBy(t *testing.T) {
	tricks := []Trick{
		{Winner: SeatNorth, Done: true},
		{Winner: SeatSouth, Done: true},
		{Winner: SeatEast, Done: true},
		{Winner: SeatWest},
	}
	assert.Equal(t, 2, TricksWonBy(tricks, TeamNS))
	assert.Equal(t, 1, TricksWonBy(tricks, TeamEW))
}
