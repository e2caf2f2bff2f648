package app

import (
	"testing"

	"grim/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSeed(seed string) func() string {
	return func() string { return seed }
}

func allBots() domain.Config {
	return domain.Config{Deals: 3, Bots: [4]bool{true, true, true, true}}
}

func humans(deals int) domain.Config {
	return domain.Config{Deals: deals}
}

// dealt returns a match at Round1 bidding with the given dealer.
func dealt(t *testing.T, svc *Service, cfg domain.Config, seed string, team domain.Team) domain.Match {
	t.Helper()
	m, _, err := svc.NewMatchWithSeed(cfg, seed)
	require.NoError(t, err)
	m, _, err = svc.SkipCoinToss(m, team)
	require.NoError(t, err)
	m, _, err = svc.StartDeal(m)
	require.NoError(t, err)
	return m
}

func passAround(t *testing.T, svc *Service, m domain.Match) domain.Match {
	t.Helper()
	for i := 0; i < 4; i++ {
		var err error
		m, _, err = svc.PlaceBid(m, m.CurrentPlayer, domain.BidPass)
		require.NoError(t, err)
	}
	return m
}

func TestNewMatch(t *testing.T) {
	svc := NewService(fixedSeed("fixed"))
	m, evs, err := svc.NewMatch(humans(2))
	require.NoError(t, err)
	assert.Equal(t, "fixed", m.Seed)
	assert.Equal(t, domain.StageAwaitingCoinToss, m.Stage)
	require.Len(t, evs, 1)
	assert.Equal(t, EventMatchCreated, evs[0].Kind)

	_, _, err = svc.NewMatch(domain.Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestNewServiceDefaultSeedsDiffer(t *testing.T) {
	svc := NewService(nil)
	a, _, err := svc.NewMatch(humans(1))
	require.NoError(t, err)
	b, _, err := svc.NewMatch(humans(1))
	require.NoError(t, err)
	assert.NotEqual(t, a.Seed, b.Seed)
}

func TestCoinToss(t *testing.T) {
	svc := NewService(nil)
	m, _, err := svc.NewMatchWithSeed(humans(1), "toss")
	require.NoError(t, err)

	a, evs, err := svc.PerformCoinToss(m)
	require.NoError(t, err)
	b, _, err := svc.PerformCoinToss(m)
	require.NoError(t, err)

	assert.Equal(t, a.CoinToss, b.CoinToss, "toss is seed-determined")
	assert.Equal(t, a.CoinToss.Team, a.CoinToss.Dealer.Team())
	assert.Equal(t, a.CoinToss.Dealer, a.Deal.Dealer)
	assert.Equal(t, a.CoinToss.Team.Opponent(), a.Deal.LeadingTeam)
	assert.Equal(t, domain.StageAwaitingDeal, a.Stage)
	require.Len(t, evs, 1)
	assert.Equal(t, EventCoinTossed, evs[0].Kind)

	assert.Equal(t, domain.StageAwaitingCoinToss, m.Stage, "input match is not modified")

	_, _, err = svc.PerformCoinToss(a)
	assert.ErrorIs(t, err, ErrAlreadyTossed)
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
}

func TestSkipCoinToss(t *testing.T) {
	svc := NewService(nil)
	m, _, err := svc.NewMatchWithSeed(humans(1), "manual")
	require.NoError(t, err)

	for _, team := range domain.Teams {
		next, evs, err := svc.SkipCoinToss(m, team)
		require.NoError(t, err)
		assert.Equal(t, team, next.Deal.Dealer.Team())
		assert.Equal(t, team.Opponent(), next.Deal.LeadingTeam)
		assert.True(t, evs[0].Payload.(CoinTossedPayload).Manual)
	}
}

func TestStartDeal(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(1), "deal-seed", domain.TeamNS)

	assert.Equal(t, domain.StageBidding, m.Stage)
	assert.Equal(t, domain.PhaseRound1, m.Deal.Phase)
	assert.Equal(t, m.Deal.Dealer.Next(), m.CurrentPlayer, "auction opens left of dealer")

	seen := map[string]bool{}
	for _, seat := range domain.Seats {
		require.Len(t, m.Deal.Hands[seat], domain.ShortRound)
		for _, c := range m.Deal.Hands[seat] {
			assert.False(t, seen[c.ID])
			seen[c.ID] = true
		}
	}
	assert.Len(t, m.Deal.Stock, 16)
	for _, c := range m.Deal.Stock {
		assert.False(t, seen[c.ID], "stock overlaps a hand")
	}

	// The seat left of the dealer receives the first card of the shuffled deck.
	deck := domain.ShuffleDeck(domain.NewDeck(), "deal-seed"+domain.SeedTagDeal+"0")
	assert.True(t, domain.ContainsCard(m.Deal.Hands[m.Deal.Dealer.Next()], deck[0]))
	assert.Equal(t, m.Deal.Dealer.Next().Team(), m.Deal.LeadingTeam)
}

func TestStartDealRequiresToss(t *testing.T) {
	svc := NewService(nil)
	m, _, err := svc.NewMatchWithSeed(humans(1), "x")
	require.NoError(t, err)
	_, _, err = svc.StartDeal(m)
	assert.ErrorIs(t, err, ErrNotTossed)
}

func TestIllegalActionsLeaveStateUnchanged(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(1), "illegal", domain.TeamEW)
	snapshot := m.Clone()
	wrongSeat := m.CurrentPlayer.Next()

	tests := []struct {
		name   string
		run    func() (domain.Match, []Event, error)
		reason domain.Reason
	}{
		{
			name:   "bid out of turn",
			run:    func() (domain.Match, []Event, error) { return svc.PlaceBid(m, wrongSeat, domain.BidPass) },
			reason: domain.ReasonNotYourTurn,
		},
		{
			name:   "double grim with nothing standing",
			run:    func() (domain.Match, []Event, error) { return svc.PlaceBid(m, m.CurrentPlayer, domain.BidDoubleGrim) },
			reason: domain.ReasonIllegalBid,
		},
		{
			name:   "card during auction",
			run:    func() (domain.Match, []Event, error) { return svc.PlayCard(m, m.CurrentPlayer, m.Deal.Hands[m.CurrentPlayer][0]) },
			reason: domain.ReasonWrongPhase,
		},
		{
			name:   "rank order during auction",
			run:    func() (domain.Match, []Event, error) { return svc.SelectRankOrder(m, m.CurrentPlayer, domain.OrderHigh) },
			reason: domain.ReasonWrongPhase,
		},
		{
			name:   "trump during auction",
			run:    func() (domain.Match, []Event, error) { return svc.SelectTrump(m, m.CurrentPlayer, domain.TrumpNone) },
			reason: domain.ReasonWrongPhase,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, evs, err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrIllegalAction)
			assert.Equal(t, tt.reason, domain.ReasonOf(err))
			assert.Nil(t, evs)
			assert.Equal(t, snapshot, got)
			assert.Equal(t, snapshot, m)
		})
	}
}

func TestWonAuctionFlow(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(1), "won", domain.TeamNS)
	declarer := m.CurrentPlayer

	m, evs, err := svc.PlaceBid(m, declarer, domain.BidGrim)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	for i := 0; i < 3; i++ {
		m, evs, err = svc.PlaceBid(m, m.CurrentPlayer, domain.BidPass)
		require.NoError(t, err)
	}
	require.Len(t, evs, 2)
	assert.Equal(t, EventAuctionWon, evs[1].Kind)
	assert.Equal(t, domain.StageChooseRankOrder, m.Stage)
	assert.Equal(t, declarer, m.CurrentPlayer)

	_, _, err = svc.SelectRankOrder(m, declarer, domain.OrderUnset)
	assert.ErrorIs(t, err, domain.ErrBadChoice)
	_, _, err = svc.SelectRankOrder(m, declarer.Partner(), domain.OrderLow)
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)

	m, _, err = svc.SelectRankOrder(m, declarer, domain.OrderLow)
	require.NoError(t, err)
	_, _, err = svc.SelectTrump(m, declarer, domain.Trump("X"))
	assert.ErrorIs(t, err, domain.ErrBadChoice)
	m, _, err = svc.SelectTrump(m, declarer, domain.TrumpOf(domain.SuitHearts))
	require.NoError(t, err)

	assert.Equal(t, domain.StagePlaying, m.Stage)
	assert.Equal(t, declarer, m.CurrentPlayer, "declarer leads the first trick")

	// Play the round out with the first legal card each turn.
	for m.Stage == domain.StagePlaying {
		seat := m.CurrentPlayer
		legal := m.LegalCards(seat)
		require.NotEmpty(t, legal)
		m, _, err = svc.PlayCard(m, seat, legal[0])
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StageDealOver, m.Stage)
	assert.Equal(t, domain.PhaseScore, m.Deal.Phase)
	require.Len(t, m.Deal.Completed, domain.ShortRound)
	require.Len(t, m.History, 1)

	out := m.History[0]
	assert.Equal(t, declarer, out.Declarer)
	assert.Equal(t, domain.BidGrim, out.Contract)
	want := domain.ContractScore(declarer.Team(), domain.BidGrim, out.Tricks[declarer.Team()], domain.ShortRound)
	assert.Equal(t, want.Delta, m.Scores)
	assert.Contains(t, m.Log, want.Message)
}

func TestPlayCardRules(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(1), "play-rules", domain.TeamNS)
	declarer := m.CurrentPlayer
	m, _, err := svc.PlaceBid(m, declarer, domain.BidGrim)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		m, _, err = svc.PlaceBid(m, m.CurrentPlayer, domain.BidPass)
		require.NoError(t, err)
	}
	m, _, err = svc.SelectRankOrder(m, declarer, domain.OrderHigh)
	require.NoError(t, err)
	m, _, err = svc.SelectTrump(m, declarer, domain.TrumpNone)
	require.NoError(t, err)

	foreign := m.Deal.Hands[declarer.Next()][0]
	_, _, err = svc.PlayCard(m, declarer, foreign)
	assert.ErrorIs(t, err, domain.ErrCardNotInHand)

	// Only the ID identifies the card; a relabelled suit is ignored.
	lead := m.Deal.Hands[declarer][0]
	forged := lead
	for _, s := range domain.Suits {
		if s != lead.Suit {
			forged.Suit = s
			break
		}
	}
	forged.Rank = domain.RankA
	m, evs, err := svc.PlayCard(m, declarer, forged)
	require.NoError(t, err)
	assert.Equal(t, EventCardPlayed, evs[0].Kind)
	assert.Equal(t, declarer.Next(), m.CurrentPlayer)
	assert.Equal(t, lead.Suit, m.Deal.CurrentTrick.LedSuit)
	assert.Equal(t, lead, m.Deal.CurrentTrick.Plays[0].Card)
	assert.Equal(t, lead, evs[0].Payload.(CardPlayedPayload).Card)
	assert.False(t, domain.ContainsCard(m.Deal.Hands[declarer], lead))

	// A follower holding the led suit may not discard.
	follower := m.CurrentPlayer
	hand := m.Deal.Hands[follower]
	legal := domain.LegalCards(hand, lead.Suit)
	if len(legal) < len(hand) {
		for _, c := range hand {
			if c.Suit != lead.Suit {
				_, _, err = svc.PlayCard(m, follower, c)
				assert.ErrorIs(t, err, domain.ErrIllegalCard)

				// Claiming the led suit on an off-suit card does not dodge following.
				disguised := c
				disguised.Suit = lead.Suit
				_, _, err = svc.PlayCard(m, follower, disguised)
				assert.ErrorIs(t, err, domain.ErrIllegalCard)
				break
			}
		}
	}
}

func mustCards(t *testing.T, ids ...string) []domain.Card {
	t.Helper()
	out := make([]domain.Card, 0, len(ids))
	for _, id := range ids {
		c, err := domain.ParseCard(id)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestPlayCardUsesHeldCard(t *testing.T) {
	svc := NewService(nil)
	m := domain.Match{Seed: "held", Config: humans(1), Stage: domain.StagePlaying, CurrentPlayer: domain.SeatNorth}
	m.Deal.Phase = domain.PhaseRound1
	m.Deal.RankOrder = domain.OrderHigh
	m.Deal.Trump = domain.TrumpNone
	m.Deal.Hands[domain.SeatNorth] = mustCards(t, "S7", "D8")
	m.Deal.Hands[domain.SeatEast] = mustCards(t, "S8", "H9")

	t.Run("lead keeps the held suit", func(t *testing.T) {
		forged := mustCards(t, "S7")[0]
		forged.Suit = domain.SuitHearts
		next, _, err := svc.PlayCard(m, domain.SeatNorth, forged)
		require.NoError(t, err)
		assert.Equal(t, domain.SuitSpades, next.Deal.CurrentTrick.LedSuit)
		assert.Equal(t, mustCards(t, "S7")[0], next.Deal.CurrentTrick.Plays[0].Card)
	})

	t.Run("relabelled card must still follow suit", func(t *testing.T) {
		led, _, err := svc.PlayCard(m, domain.SeatNorth, mustCards(t, "S7")[0])
		require.NoError(t, err)

		forged := mustCards(t, "H9")[0]
		forged.Suit = domain.SuitSpades
		after, _, err := svc.PlayCard(led, domain.SeatEast, forged)
		assert.ErrorIs(t, err, domain.ErrIllegalCard)
		assert.Equal(t, led, after)
	})
}

func TestPhaseProgressionOnAllPass(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(1), "all-pass", domain.TeamEW)
	round1 := m.Deal.Hands

	m = passAround(t, svc, m)
	assert.Equal(t, domain.PhaseRound2, m.Deal.Phase)
	assert.Equal(t, domain.StageBidding, m.Stage)
	assert.Equal(t, round1, m.Deal.SetAside)
	assert.Equal(t, domain.PredeclaredTrump, m.Deal.PredeclaredTrump)
	assert.Equal(t, m.Deal.Dealer.Next(), m.CurrentPlayer)
	round2 := m.Deal.Hands
	seen := map[string]bool{}
	for _, seat := range domain.Seats {
		require.Len(t, round2[seat], domain.ShortRound)
		for _, c := range append(append([]domain.Card(nil), round1[seat]...), round2[seat]...) {
			assert.False(t, seen[c.ID], "card %s dealt twice", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, domain.DeckSize)

	m = passAround(t, svc, m)
	assert.Equal(t, domain.PhaseRound3, m.Deal.Phase)
	assert.Equal(t, domain.LongRound, m.Deal.Auction.RoundSize)
	for _, seat := range domain.Seats {
		want := append(append([]domain.Card(nil), round1[seat]...), round2[seat]...)
		assert.ElementsMatch(t, want, m.Deal.Hands[seat])
	}

	m = passAround(t, svc, m)
	assert.Equal(t, domain.PhaseMake5, m.Deal.Phase)
	assert.Equal(t, domain.StagePlaying, m.Stage)
	assert.Equal(t, domain.TrumpOf(domain.PredeclaredTrump), m.Deal.Trump)
	assert.Equal(t, domain.OrderHigh, m.Deal.RankOrder)
	assert.Equal(t, m.Deal.Dealer.Next(), m.CurrentPlayer)

	for m.Stage == domain.StagePlaying {
		m, _, _ = playFirstLegal(t, svc, m)
	}
	require.Len(t, m.Deal.Completed, domain.LongRound)
	require.Len(t, m.History, 1)
	out := m.History[0]
	assert.Equal(t, domain.PhaseMake5, out.Phase)
	assert.Equal(t, domain.Make5Score(out.LeadingTeam, out.Tricks[out.LeadingTeam]).Delta, out.Delta)
	assert.True(t, out.Delta[domain.TeamNS] == 0 || out.Delta[domain.TeamEW] == 0)
	assert.Contains(t, m.Log, "All passed Round 1. Moving to Round 2.")
	assert.Contains(t, m.Log, "All passed Round 3. Make-5 fallback.")
}

func playFirstLegal(t *testing.T, svc *Service, m domain.Match) (domain.Match, []Event, error) {
	t.Helper()
	seat := m.CurrentPlayer
	legal := m.LegalCards(seat)
	require.NotEmpty(t, legal)
	next, evs, err := svc.PlayCard(m, seat, legal[0])
	require.NoError(t, err)
	return next, evs, err
}

func TestDoubleGrimRefusedInRound3(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(1), "r3", domain.TeamNS)
	m = passAround(t, svc, m)
	m = passAround(t, svc, m)
	require.Equal(t, domain.PhaseRound3, m.Deal.Phase)

	m, _, err := svc.PlaceBid(m, m.CurrentPlayer, domain.BidGrim)
	require.NoError(t, err)
	_, _, err = svc.PlaceBid(m, m.CurrentPlayer, domain.BidDoubleGrim)
	assert.ErrorIs(t, err, domain.ErrIllegalBid)
	assert.Equal(t, []domain.Bid{domain.BidPass}, m.LegalBids(m.CurrentPlayer))
}

func TestAdvanceToNextDeal(t *testing.T) {
	svc := NewService(nil)
	m := dealt(t, svc, humans(2), "advance", domain.TeamNS)

	_, _, err := svc.AdvanceToNextDeal(m)
	assert.ErrorIs(t, err, domain.ErrInvariant)

	m.Stage = domain.StageDealOver
	m.Deal.Phase = domain.PhaseScore

	tests := []struct {
		name    string
		scores  domain.TeamScores
		dealer  domain.Seat
		leading domain.Team
	}{
		{name: "NS ahead so EW deals", scores: domain.TeamScores{16, 0}, dealer: domain.SeatEast, leading: domain.TeamNS},
		{name: "EW ahead so NS deals", scores: domain.TeamScores{-32, 5}, dealer: domain.SeatNorth, leading: domain.TeamEW},
		{name: "tie goes to NS", scores: domain.TeamScores{10, 10}, dealer: domain.SeatNorth, leading: domain.TeamEW},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := m.Clone()
			in.Scores = tt.scores
			next, evs, err := svc.AdvanceToNextDeal(in)
			require.NoError(t, err)
			assert.Equal(t, 1, next.Deal.Index)
			assert.Equal(t, tt.dealer, next.Deal.Dealer)
			assert.Equal(t, tt.leading, next.Deal.LeadingTeam)
			assert.Equal(t, domain.StageBidding, next.Stage)
			assert.Equal(t, domain.PhaseRound1, next.Deal.Phase)
			assert.Equal(t, EventDealStarted, evs[0].Kind)
		})
	}

	last := m.Clone()
	last.Deal.Index = 1
	last.Scores = domain.TeamScores{3, 3}
	over, evs, err := svc.AdvanceToNextDeal(last)
	require.NoError(t, err)
	assert.True(t, over.Over())
	assert.Equal(t, domain.StandingDraw, over.Standing())
	require.Len(t, evs, 1)
	assert.Equal(t, EventMatchEnded, evs[0].Kind)

	_, _, err = svc.PlaceBid(over, over.CurrentPlayer, domain.BidPass)
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestUpdatePlayerName(t *testing.T) {
	svc := NewService(nil)
	m, _, err := svc.NewMatchWithSeed(humans(1), "names")
	require.NoError(t, err)

	next, evs, err := svc.UpdatePlayerName(m, domain.SeatWest, "  Ada ")
	require.NoError(t, err)
	assert.Equal(t, "Ada", next.Name(domain.SeatWest))
	assert.Equal(t, "W", m.Name(domain.SeatWest))
	assert.Equal(t, EventPlayerRenamed, evs[0].Kind)

	_, _, err = svc.UpdatePlayerName(m, domain.SeatWest, " ")
	assert.ErrorIs(t, err, ErrBadName)
}

func playBotMatch(t *testing.T, seed string) domain.Match {
	t.Helper()
	svc := NewService(nil)
	m, _, err := svc.NewMatchWithSeed(allBots(), seed)
	require.NoError(t, err)
	m, _, err = svc.PerformCoinToss(m)
	require.NoError(t, err)
	m, _, err = svc.StartDeal(m)
	require.NoError(t, err)

	for !m.Over() {
		m, _, err = svc.RunBots(m)
		require.NoError(t, err)
		require.Equal(t, domain.StageDealOver, m.Stage)
		m, _, err = svc.AdvanceToNextDeal(m)
		require.NoError(t, err)
	}
	return m
}

func TestBotMatchTerminatesAndIsDeterministic(t *testing.T) {
	for _, seed := range []string{"bots-1", "bots-2", "bots-3"} {
		t.Run(seed, func(t *testing.T) {
			a := playBotMatch(t, seed)
			b := playBotMatch(t, seed)

			assert.Equal(t, a, b, "same seed replays identically")
			assert.Len(t, a.History, a.Config.Deals)
			assert.Equal(t, "Game Over!", a.Log[len(a.Log)-1])

			var total domain.TeamScores
			for _, o := range a.History {
				total = total.Add(o.Delta)
			}
			assert.Equal(t, total, a.Scores)
		})
	}
}

func TestRunBotsStopsAtHuman(t *testing.T) {
	svc := NewService(nil)
	cfg := domain.Config{Deals: 1, Bots: [4]bool{false, true, true, true}}
	m := dealt(t, svc, cfg, "mixed", domain.TeamNS)

	m, _, err := svc.RunBots(m)
	require.NoError(t, err)
	if m.AwaitingInput() {
		assert.Equal(t, domain.SeatNorth, m.CurrentPlayer)
	}

	seat, _, ok, err := svc.NextBotAction(m)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.Seat(0), seat)
}
