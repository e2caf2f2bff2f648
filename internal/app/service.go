package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"grim/internal/bot"
	"grim/internal/domain"

	uuid "github.com/satori/go.uuid"
)

// Service contains Grim use-cases operating on match state. Every transition
// takes a match value and returns a new one plus the events it emitted; on
// error the input match is returned unchanged.
type Service struct {
	newSeed func() string
	brains  [4]bot.Brain
}

// NewService constructs a Service with the provided seed source or a UUID v4 default.
// Bot seats use the standard policy until SetBrain replaces it.
func NewService(seedSource func() string) *Service {
	if seedSource == nil {
		seedSource = func() string { return uuid.NewV4().String() }
	}
	s := &Service{newSeed: seedSource}
	for i := range s.brains {
		s.brains[i] = &bot.StandardBot{Tuning: bot.DefaultTuning}
	}
	return s
}

// SetBrain assigns the strategy RunBots uses for seat.
func (s *Service) SetBrain(seat domain.Seat, brain bot.Brain) {
	if seat.Valid() && brain != nil {
		s.brains[seat] = brain
	}
}

var (
	ErrAlreadyTossed = fmt.Errorf("%w: dealer already chosen", domain.ErrWrongPhase)
	ErrNotTossed     = fmt.Errorf("%w: coin toss has not been made", domain.ErrWrongPhase)
	ErrMatchOver     = fmt.Errorf("%w: match is over", domain.ErrWrongPhase)
	ErrBadName       = fmt.Errorf("%w: display name must be 1-%d characters", domain.ErrBadChoice, MaxNameLength)
	ErrBotStalled    = errors.New("bot scheduler exceeded its step budget")
)

// NewMatch creates a match awaiting its coin toss, seeded from the seed source.
func (s *Service) NewMatch(cfg domain.Config) (domain.Match, []Event, error) {
	return s.NewMatchWithSeed(cfg, s.newSeed())
}

// NewMatchWithSeed creates a match with a caller-chosen seed, for replays.
func (s *Service) NewMatchWithSeed(cfg domain.Config, seed string) (domain.Match, []Event, error) {
	if err := cfg.Validate(); err != nil {
		return domain.Match{}, nil, err
	}
	m := domain.Match{
		Seed:   seed,
		Config: cfg,
		Stage:  domain.StageAwaitingCoinToss,
	}
	appendLog(&m, "New game started")
	return m, []Event{{Kind: EventMatchCreated, Payload: MatchCreatedPayload{Seed: seed, Deals: cfg.Deals}}}, nil
}

// Rematch starts a fresh match with the same config and a new seed.
func (s *Service) Rematch(m domain.Match) (domain.Match, []Event, error) {
	return s.NewMatch(m.Config)
}

// PerformCoinToss picks the first dealing team and its dealer seat from the match seed.
func (s *Service) PerformCoinToss(m domain.Match) (domain.Match, []Event, error) {
	if m.Stage != domain.StageAwaitingCoinToss {
		return m, nil, fmt.Errorf("coin toss: %w", ErrAlreadyTossed)
	}
	r := domain.NewRand(m.Seed + domain.SeedTagCoinToss)
	team := domain.TeamEW
	if r.Bool() {
		team = domain.TeamNS
	}
	seats := team.Seats()
	dealer := domain.Choice(r, seats[:])

	next := applyToss(m, team, dealer)
	appendLog(&next, "Coin toss result: Team %s deals first (Seat: %s)", team, dealer)
	return next, []Event{{Kind: EventCoinTossed, Payload: CoinTossedPayload{Team: team, Dealer: dealer}}}, nil
}

// SkipCoinToss lets the caller name the first dealing team; the dealer seat
// within it is still drawn from the match seed.
func (s *Service) SkipCoinToss(m domain.Match, team domain.Team) (domain.Match, []Event, error) {
	if m.Stage != domain.StageAwaitingCoinToss {
		return m, nil, fmt.Errorf("skip coin toss: %w", ErrAlreadyTossed)
	}
	if team != domain.TeamNS && team != domain.TeamEW {
		return m, nil, fmt.Errorf("skip coin toss: %w", domain.ErrBadChoice)
	}
	seats := team.Seats()
	dealer := domain.Choice(domain.NewRand(m.Seed+domain.SeedTagManualToss), seats[:])

	next := applyToss(m, team, dealer)
	appendLog(&next, "Manual selection: Team %s deals first (Seat: %s)", team, dealer)
	return next, []Event{{Kind: EventCoinTossed, Payload: CoinTossedPayload{Team: team, Dealer: dealer, Manual: true}}}, nil
}

func applyToss(m domain.Match, team domain.Team, dealer domain.Seat) domain.Match {
	next := m.Clone()
	next.CoinToss = domain.CoinToss{Team: team, Dealer: dealer}
	next.Tossed = true
	next.Deal = freshDeal(0, dealer)
	next.Stage = domain.StageAwaitingDeal
	next.CurrentPlayer = dealer.Next()
	return next
}

func freshDeal(index int, dealer domain.Seat) domain.Deal {
	return domain.Deal{
		Index:       index,
		Dealer:      dealer,
		LeadingTeam: dealer.Team().Opponent(),
	}
}

// StartDeal shuffles for the current deal, deals Round1 and opens the auction
// with the seat left of the dealer.
func (s *Service) StartDeal(m domain.Match) (domain.Match, []Event, error) {
	switch m.Stage {
	case domain.StageAwaitingDeal:
	case domain.StageAwaitingCoinToss:
		return m, nil, fmt.Errorf("start deal: %w", ErrNotTossed)
	case domain.StageMatchOver:
		return m, nil, fmt.Errorf("start deal: %w", ErrMatchOver)
	default:
		return m, nil, fmt.Errorf("start deal: %w", domain.ErrWrongPhase)
	}

	next := m.Clone()
	d := freshDeal(m.Deal.Index, m.Deal.Dealer)
	deck := domain.ShuffleDeck(domain.NewDeck(), next.Seed+domain.SeedTagDeal+strconv.Itoa(d.Index))
	hands, err := dealFromLeft(deck, d.Dealer)
	if err != nil {
		return m, nil, err
	}
	d.Hands = hands
	d.Stock = append([]domain.Card(nil), deck[domain.ShortRound*len(domain.Seats):]...)
	d.Phase = domain.PhaseRound1
	d.Round = 1
	d.Auction = domain.NewAuction(domain.ShortRound)

	next.Deal = d
	next.Stage = domain.StageBidding
	next.CurrentPlayer = d.Dealer.Next()
	appendLog(&next, "Deal %d: Cards dealt. Auction begins.", d.Index+1)

	events := []Event{{Kind: EventDealStarted, Payload: DealStartedPayload{
		DealIndex:   d.Index,
		Dealer:      d.Dealer,
		LeadingTeam: d.LeadingTeam,
		FirstToAct:  next.CurrentPlayer,
	}}}
	return next, append(events, handEvents(next.Deal)...), nil
}

// dealFromLeft deals ShortRound cards per seat round-robin, the first hand
// going to the seat left of the dealer.
func dealFromLeft(deck []domain.Card, dealer domain.Seat) ([4][]domain.Card, error) {
	var out [4][]domain.Card
	hands, err := domain.DealCards(deck, domain.ShortRound, len(domain.Seats))
	if err != nil {
		return out, err
	}
	seat := dealer.Next()
	for _, h := range hands {
		out[seat] = domain.SortHand(h)
		seat = seat.Next()
	}
	return out, nil
}

func handEvents(d domain.Deal) []Event {
	events := make([]Event, 0, len(domain.Seats))
	for _, seat := range domain.Seats {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: seat, Phase: d.Phase, Hand: append([]domain.Card(nil), d.Hands[seat]...)},
			Recipients: []domain.Seat{seat},
		})
	}
	return events
}

// PlaceBid records seat's bid. A completed auction either hands the declarer
// the rank-order choice or, when everyone passed, escalates the round.
func (s *Service) PlaceBid(m domain.Match, seat domain.Seat, bid domain.Bid) (domain.Match, []Event, error) {
	action := "bid " + bid.String()
	if err := checkTurn(m, seat, domain.StageBidding); err != nil {
		return m, nil, reject(seat, action, err)
	}
	auction, err := m.Deal.Auction.Place(seat, bid)
	if err != nil {
		return m, nil, reject(seat, action, err)
	}

	next := m.Clone()
	next.Deal.Auction = auction
	appendLog(&next, "%s: %s", seat, bid)

	placed := BidPlacedPayload{Seat: seat, Bid: bid, Round: next.Deal.Round}
	if !auction.Complete() {
		next.CurrentPlayer = seat.Next()
		placed.Next = next.CurrentPlayer
		return next, []Event{{Kind: EventBidPlaced, Payload: placed}}, nil
	}

	placed.Closed = true
	result := auction.Result()
	if result.AllPassed {
		next, events, err := advanceRound(next)
		if err != nil {
			return m, nil, err
		}
		placed.Next = next.CurrentPlayer
		return next, append([]Event{{Kind: EventBidPlaced, Payload: placed}}, events...), nil
	}

	next.Stage = domain.StageChooseRankOrder
	next.CurrentPlayer = result.Declarer
	placed.Next = result.Declarer
	appendLog(&next, "%s wins auction with %s", result.Declarer, result.WinningBid)
	return next, []Event{
		{Kind: EventBidPlaced, Payload: placed},
		{Kind: EventAuctionWon, Payload: AuctionWonPayload{Declarer: result.Declarer, Bid: result.WinningBid, Round: next.Deal.Round}},
	}, nil
}

// advanceRound moves an all-passed deal forward: Round1 -> Round2 -> Round3 -> Make5.
func advanceRound(m domain.Match) (domain.Match, []Event, error) {
	d := m.Deal
	from := d.Phase
	var events []Event

	switch d.Phase {
	case domain.PhaseRound1:
		appendLog(&m, "All passed Round 1. Moving to Round 2.")
		d.SetAside = d.Hands
		d.PredeclaredTrump = domain.PredeclaredTrump
		stock := domain.ShuffleDeck(d.Stock, m.Seed+domain.SeedTagDeal+strconv.Itoa(d.Index)+"_r2")
		hands, err := dealFromLeft(stock, d.Dealer)
		if err != nil {
			return m, nil, err
		}
		d.Hands = hands
		d.Stock = append([]domain.Card(nil), stock[domain.ShortRound*len(domain.Seats):]...)
		d.Phase = domain.PhaseRound2
		d.Round = 2
		d.Auction = domain.NewAuction(domain.ShortRound)
		m.Stage = domain.StageBidding

	case domain.PhaseRound2:
		appendLog(&m, "All passed Round 2. Moving to Round 3.")
		var combined [4][]domain.Card
		for _, seat := range domain.Seats {
			hand := append(append([]domain.Card(nil), d.SetAside[seat]...), d.Hands[seat]...)
			combined[seat] = domain.SortHand(hand)
		}
		d.Hands = combined
		d.Phase = domain.PhaseRound3
		d.Round = 3
		d.Auction = domain.NewAuction(domain.LongRound)
		m.Stage = domain.StageBidding

	case domain.PhaseRound3:
		appendLog(&m, "All passed Round 3. Make-5 fallback.")
		d.Phase = domain.PhaseMake5
		d.Trump = domain.TrumpOf(d.PredeclaredTrump)
		d.RankOrder = domain.OrderHigh
		m.Stage = domain.StagePlaying
		appendLog(&m, "Rank order: %s", d.RankOrder)
		appendLog(&m, "Trump: %s", d.Trump.Text())

	default:
		return m, nil, fmt.Errorf("%w: all-pass auction in phase %s", domain.ErrInvariant, d.Phase)
	}

	m.Deal = d
	m.CurrentPlayer = d.Dealer.Next()
	if d.Phase == domain.PhaseMake5 {
		appendLog(&m, "%s leads", m.CurrentPlayer)
	}
	events = append(events, Event{Kind: EventRoundAdvanced, Payload: RoundAdvancedPayload{
		From:             from,
		To:               d.Phase,
		PredeclaredTrump: d.PredeclaredTrump,
		FirstToAct:       m.CurrentPlayer,
	}})
	if from != domain.PhaseRound3 {
		events = append(events, handEvents(d)...)
	}
	return m, events, nil
}

// SelectRankOrder records the declarer's High/Low choice.
func (s *Service) SelectRankOrder(m domain.Match, seat domain.Seat, order domain.RankOrder) (domain.Match, []Event, error) {
	action := "rank order " + order.String()
	if err := checkTurn(m, seat, domain.StageChooseRankOrder); err != nil {
		return m, nil, reject(seat, action, err)
	}
	if order != domain.OrderHigh && order != domain.OrderLow {
		return m, nil, reject(seat, action, domain.ErrBadChoice)
	}

	next := m.Clone()
	next.Deal.RankOrder = order
	next.Stage = domain.StageChooseTrump
	appendLog(&next, "Rank order: %s", order)
	return next, []Event{{Kind: EventRankOrderSelected, Payload: RankOrderSelectedPayload{Seat: seat, Order: order}}}, nil
}

// SelectTrump records the declarer's trump and starts play with the declarer leading.
func (s *Service) SelectTrump(m domain.Match, seat domain.Seat, trump domain.Trump) (domain.Match, []Event, error) {
	action := "trump " + trump.Text()
	if err := checkTurn(m, seat, domain.StageChooseTrump); err != nil {
		return m, nil, reject(seat, action, err)
	}
	if !trump.Valid() {
		return m, nil, reject(seat, action, domain.ErrBadChoice)
	}

	next := m.Clone()
	next.Deal.Trump = trump
	next.Stage = domain.StagePlaying
	next.CurrentPlayer = next.Deal.Auction.Declarer
	appendLog(&next, "Trump: %s", trump.Text())
	appendLog(&next, "%s leads", next.CurrentPlayer)
	return next, []Event{{Kind: EventTrumpSelected, Payload: TrumpSelectedPayload{Seat: seat, Trump: trump, Leader: next.CurrentPlayer}}}, nil
}

// PlayCard plays card from seat's hand. The fourth card closes the trick and
// the winner leads next; the last trick of the round scores the deal.
func (s *Service) PlayCard(m domain.Match, seat domain.Seat, card domain.Card) (domain.Match, []Event, error) {
	action := "play " + card.Label()
	if err := checkTurn(m, seat, domain.StagePlaying); err != nil {
		return m, nil, reject(seat, action, err)
	}
	hand := m.Deal.Hands[seat]
	held, ok := domain.FindCard(hand, card.ID)
	if !ok {
		return m, nil, reject(seat, action, domain.ErrCardNotInHand)
	}
	// Suit and rank come from the hand, never from the caller.
	card = held
	if !domain.CanPlay(card, hand, m.Deal.CurrentTrick.LedSuit) {
		return m, nil, reject(seat, action, domain.ErrIllegalCard)
	}

	next := m.Clone()
	next.Deal.Hands[seat], _ = domain.RemoveCard(hand, card)
	trick := next.Deal.CurrentTrick.Add(seat, card)
	appendLog(&next, "%s plays %s", seat, card.Label())

	if !trick.Full() {
		next.Deal.CurrentTrick = trick
		next.CurrentPlayer = seat.Next()
		return next, []Event{{Kind: EventCardPlayed, Payload: CardPlayedPayload{Seat: seat, Card: card, Next: next.CurrentPlayer}}}, nil
	}

	done, err := trick.Resolve(next.Deal.RankOrder, next.Deal.Trump)
	if err != nil {
		return m, nil, err
	}
	next.Deal.Completed = append(next.Deal.Completed, done)
	next.Deal.CurrentTrick = domain.Trick{}
	next.CurrentPlayer = done.Winner
	appendLog(&next, "%s wins the trick", done.Winner)

	events := []Event{
		{Kind: EventCardPlayed, Payload: CardPlayedPayload{Seat: seat, Card: card, Next: done.Winner}},
		{Kind: EventTrickWon, Payload: TrickWonPayload{Winner: done.Winner, TrickIndex: len(next.Deal.Completed) - 1, Trick: done}},
	}
	if len(next.Deal.Completed) < next.Deal.RoundSize() {
		return next, events, nil
	}
	next, scored := scoreDeal(next)
	return next, append(events, scored...), nil
}

// scoreDeal applies the contract or Make-5 result and closes the deal.
func scoreDeal(m domain.Match) (domain.Match, []Event) {
	d := m.Deal
	outcome := domain.Outcome{
		DealIndex:   d.Index,
		Dealer:      d.Dealer,
		Phase:       d.Phase,
		LeadingTeam: d.LeadingTeam,
		Tricks: domain.TeamScores{
			domain.TricksWonBy(d.Completed, domain.TeamNS),
			domain.TricksWonBy(d.Completed, domain.TeamEW),
		},
	}

	var res domain.ScoreResult
	if d.Phase == domain.PhaseMake5 {
		res = domain.Make5Score(d.LeadingTeam, outcome.Tricks[d.LeadingTeam])
	} else {
		declaring := d.Auction.Declarer.Team()
		outcome.Declarer = d.Auction.Declarer
		outcome.Contract = d.Auction.CurrentBid
		res = domain.ContractScore(declaring, d.Auction.CurrentBid, outcome.Tricks[declaring], d.RoundSize())
	}
	outcome.Delta = res.Delta
	outcome.Message = res.Message

	m.Scores = m.Scores.Add(res.Delta)
	m.History = append(m.History, outcome)
	m.Deal.Phase = domain.PhaseScore
	m.Stage = domain.StageDealOver
	appendLog(&m, "%s", res.Message)
	appendLog(&m, "Scores: NS %d, EW %d", m.Scores[domain.TeamNS], m.Scores[domain.TeamEW])

	return m, []Event{{Kind: EventDealScored, Payload: DealScoredPayload{Outcome: outcome, Scores: m.Scores}}}
}

// AdvanceToNextDeal rotates the dealer to the lower-scoring team (NS on a
// tie) and starts the next deal, or ends the match after the last deal.
func (s *Service) AdvanceToNextDeal(m domain.Match) (domain.Match, []Event, error) {
	if m.Stage != domain.StageDealOver {
		return m, nil, fmt.Errorf("advance to next deal: %w", domain.ErrDealNotOver)
	}

	nextIndex := m.Deal.Index + 1
	if nextIndex >= m.Config.Deals {
		next := m.Clone()
		next.Stage = domain.StageMatchOver
		appendLog(&next, "Game Over!")
		return next, []Event{{Kind: EventMatchEnded, Payload: MatchEndedPayload{Scores: next.Scores, Standing: next.Standing()}}}, nil
	}

	losing := domain.TeamNS
	if m.Scores[domain.TeamNS] > m.Scores[domain.TeamEW] {
		losing = domain.TeamEW
	}
	dealer := losing.Seats()[0]

	next := m.Clone()
	next.Deal = freshDeal(nextIndex, dealer)
	next.Stage = domain.StageAwaitingDeal
	return s.StartDeal(next)
}

// UpdatePlayerName changes a seat's display name. It is cosmetic and allowed at any stage.
func (s *Service) UpdatePlayerName(m domain.Match, seat domain.Seat, name string) (domain.Match, []Event, error) {
	name = strings.TrimSpace(name)
	if !seat.Valid() {
		return m, nil, reject(seat, "rename", domain.ErrBadChoice)
	}
	if name == "" || len([]rune(name)) > MaxNameLength {
		return m, nil, reject(seat, "rename", ErrBadName)
	}
	next := m.Clone()
	next.Config.Names[seat] = name
	return next, []Event{{Kind: EventPlayerRenamed, Payload: PlayerRenamedPayload{Seat: seat, Name: name}}}, nil
}

// Apply dispatches an action to the matching mutator. Humans and bots share it.
func (s *Service) Apply(m domain.Match, seat domain.Seat, act domain.Action) (domain.Match, []Event, error) {
	switch act.Kind {
	case domain.ActionBid:
		return s.PlaceBid(m, seat, act.Bid)
	case domain.ActionRankOrder:
		return s.SelectRankOrder(m, seat, act.Order)
	case domain.ActionTrump:
		return s.SelectTrump(m, seat, act.Trump)
	case domain.ActionPlayCard:
		return s.PlayCard(m, seat, act.Card)
	default:
		return m, nil, reject(seat, act.Kind.String(), domain.ErrBadChoice)
	}
}

// RunBots applies bot decisions while the seat to act is a bot. It stops at
// a human seat or once the deal or match is over.
func (s *Service) RunBots(m domain.Match) (domain.Match, []Event, error) {
	var events []Event
	for steps := 0; m.AwaitingInput() && m.IsBot(m.CurrentPlayer); steps++ {
		if steps >= MaxBotSteps {
			return m, events, ErrBotStalled
		}
		seat := m.CurrentPlayer
		act, err := s.brains[seat].Decide(m, seat)
		if err != nil {
			return m, events, fmt.Errorf("bot %s: %w", seat, err)
		}
		next, evs, err := s.Apply(m, seat, act)
		if err != nil {
			return m, events, fmt.Errorf("bot %s: %w", seat, err)
		}
		m = next
		events = append(events, evs...)
	}
	return m, events, nil
}

// NextBotAction returns the pending bot decision without applying it, so a
// host can delay bot moves for presentation.
func (s *Service) NextBotAction(m domain.Match) (domain.Seat, domain.Action, bool, error) {
	if !m.AwaitingInput() || !m.IsBot(m.CurrentPlayer) {
		return 0, domain.Action{}, false, nil
	}
	seat := m.CurrentPlayer
	act, err := s.brains[seat].Decide(m, seat)
	if err != nil {
		return seat, domain.Action{}, false, err
	}
	return seat, act, true, nil
}

func checkTurn(m domain.Match, seat domain.Seat, stage domain.Stage) error {
	if m.Stage == domain.StageMatchOver {
		return ErrMatchOver
	}
	if m.Stage != stage {
		return domain.ErrWrongPhase
	}
	if seat != m.CurrentPlayer {
		return domain.ErrNotYourTurn
	}
	return nil
}

func reject(seat domain.Seat, action string, err error) error {
	return &domain.ActionError{Seat: seat, Action: action, Err: err}
}

func appendLog(m *domain.Match, format string, args ...any) {
	m.Log = append(m.Log, fmt.Sprintf(format, args...))
}
