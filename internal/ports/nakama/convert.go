package nakama

import (
	"encoding/json"
	"fmt"

	"grim/internal/app"
	"grim/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// encodeStruct renders a JSON-shaped map through structpb so every server
// message shares one wire encoding.
func encodeStruct(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
}

// decodeStruct parses a client payload. An empty payload decodes to an empty map.
func decodeStruct(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return s.AsMap(), nil
}

// stringField reads a required string field.
func stringField(fields map[string]interface{}, key string) (string, error) {
	v, ok := fields[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("payload field %q must be a non-empty string", key)
	}
	return v, nil
}

// actionFromPayload maps a client op code and payload onto a seat action.
func actionFromPayload(opCode int64, data []byte) (domain.Action, error) {
	fields, err := decodeStruct(data)
	if err != nil {
		return domain.Action{}, err
	}
	switch opCode {
	case OpBid:
		v, err := stringField(fields, "bid")
		if err != nil {
			return domain.Action{}, err
		}
		bid, err := domain.ParseBid(v)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.Action{Kind: domain.ActionBid, Bid: bid}, nil
	case OpRankOrder:
		v, err := stringField(fields, "order")
		if err != nil {
			return domain.Action{}, err
		}
		order, err := domain.ParseRankOrder(v)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.Action{Kind: domain.ActionRankOrder, Order: order}, nil
	case OpTrump:
		v, err := stringField(fields, "trump")
		if err != nil {
			return domain.Action{}, err
		}
		trump, err := domain.ParseTrump(v)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.Action{Kind: domain.ActionTrump, Trump: trump}, nil
	case OpPlayCard:
		v, err := stringField(fields, "card")
		if err != nil {
			return domain.Action{}, err
		}
		card, err := domain.ParseCard(v)
		if err != nil {
			return domain.Action{}, err
		}
		return domain.Action{Kind: domain.ActionPlayCard, Card: card}, nil
	default:
		return domain.Action{}, fmt.Errorf("op code %d carries no seat action", opCode)
	}
}

// startRequest is the optional payload of OpStartMatch.
type startRequest struct {
	Deals        int    `json:"deals"`
	SkipCoinToss bool   `json:"skip_coin_toss"`
	Team         string `json:"team"`
}

func parseStartRequest(data []byte) (startRequest, error) {
	var req startRequest
	if len(data) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("invalid start payload: %w", err)
	}
	if req.Deals < 0 {
		return req, fmt.Errorf("invalid start payload: deals %d", req.Deals)
	}
	if req.SkipCoinToss {
		if _, err := domain.ParseTeam(req.Team); err != nil {
			return req, fmt.Errorf("invalid start payload: %w", err)
		}
	}
	return req, nil
}

func cardsToList(cards []domain.Card) []interface{} {
	out := make([]interface{}, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func bidsToList(bids []domain.Bid) []interface{} {
	out := make([]interface{}, 0, len(bids))
	for _, b := range bids {
		out = append(out, b.String())
	}
	return out
}

func scoresToMap(s domain.TeamScores) map[string]interface{} {
	return map[string]interface{}{
		domain.TeamNS.String(): s[domain.TeamNS],
		domain.TeamEW.String(): s[domain.TeamEW],
	}
}

func trickToMap(t domain.Trick) map[string]interface{} {
	plays := make([]interface{}, 0, len(t.Plays))
	for _, p := range t.Plays {
		plays = append(plays, map[string]interface{}{"seat": p.Seat.String(), "card": p.Card.ID})
	}
	out := map[string]interface{}{
		"led_suit": string(t.LedSuit),
		"plays":    plays,
	}
	if t.Done {
		out["winner"] = t.Winner.String()
	}
	return out
}

func outcomeToMap(o domain.Outcome) map[string]interface{} {
	out := map[string]interface{}{
		"deal_index":   o.DealIndex,
		"dealer":       o.Dealer.String(),
		"phase":        string(o.Phase),
		"leading_team": o.LeadingTeam.String(),
		"tricks":       scoresToMap(o.Tricks),
		"delta":        scoresToMap(o.Delta),
		"message":      o.Message,
	}
	if o.Contract != domain.BidNone {
		out["declarer"] = o.Declarer.String()
		out["contract"] = o.Contract.String()
	}
	return out
}

// eventToMap flattens an app event payload into wire fields plus its op code.
func eventToMap(ev app.Event) (int64, map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.MatchCreatedPayload:
		return OpMatchCreated, map[string]interface{}{"seed": p.Seed, "deals": p.Deals}, nil
	case app.CoinTossedPayload:
		return OpCoinTossed, map[string]interface{}{"team": p.Team.String(), "dealer": p.Dealer.String(), "manual": p.Manual}, nil
	case app.DealStartedPayload:
		return OpDealStarted, map[string]interface{}{
			"deal_index":   p.DealIndex,
			"dealer":       p.Dealer.String(),
			"leading_team": p.LeadingTeam.String(),
			"first_to_act": p.FirstToAct.String(),
		}, nil
	case app.HandDealtPayload:
		return OpHandDealt, map[string]interface{}{"seat": p.Seat.String(), "phase": string(p.Phase), "hand": cardsToList(p.Hand)}, nil
	case app.BidPlacedPayload:
		return OpBidPlaced, map[string]interface{}{
			"seat":   p.Seat.String(),
			"bid":    p.Bid.String(),
			"round":  p.Round,
			"next":   p.Next.String(),
			"closed": p.Closed,
		}, nil
	case app.AuctionWonPayload:
		return OpAuctionWon, map[string]interface{}{"declarer": p.Declarer.String(), "bid": p.Bid.String(), "round": p.Round}, nil
	case app.RoundAdvancedPayload:
		return OpRoundAdvanced, map[string]interface{}{
			"from":              string(p.From),
			"to":                string(p.To),
			"predeclared_trump": string(p.PredeclaredTrump),
			"first_to_act":      p.FirstToAct.String(),
		}, nil
	case app.RankOrderSelectedPayload:
		return OpRankOrderSelected, map[string]interface{}{"seat": p.Seat.String(), "order": p.Order.String()}, nil
	case app.TrumpSelectedPayload:
		return OpTrumpSelected, map[string]interface{}{"seat": p.Seat.String(), "trump": string(p.Trump), "leader": p.Leader.String()}, nil
	case app.CardPlayedPayload:
		return OpCardPlayed, map[string]interface{}{"seat": p.Seat.String(), "card": p.Card.ID, "next": p.Next.String()}, nil
	case app.TrickWonPayload:
		return OpTrickWon, map[string]interface{}{"winner": p.Winner.String(), "trick_index": p.TrickIndex, "trick": trickToMap(p.Trick)}, nil
	case app.DealScoredPayload:
		return OpDealScored, map[string]interface{}{"outcome": outcomeToMap(p.Outcome), "scores": scoresToMap(p.Scores)}, nil
	case app.MatchEndedPayload:
		return OpMatchEnded, map[string]interface{}{"scores": scoresToMap(p.Scores), "standing": string(p.Standing)}, nil
	case app.PlayerRenamedPayload:
		return OpPlayerRenamed, map[string]interface{}{"seat": p.Seat.String(), "name": p.Name}, nil
	default:
		return 0, nil, fmt.Errorf("unknown event payload %T for %s", ev.Payload, ev.Kind)
	}
}

// matchView is the table as seen from viewer. Only the viewer's own hand and
// legal moves are included; other seats show card counts.
func matchView(m domain.Match, viewer domain.Seat) map[string]interface{} {
	d := m.Deal
	counts := make([]interface{}, 0, len(domain.Seats))
	names := make([]interface{}, 0, len(domain.Seats))
	for _, seat := range domain.Seats {
		counts = append(counts, len(d.Hands[seat]))
		names = append(names, m.Name(seat))
	}

	view := map[string]interface{}{
		"seed":           m.Seed,
		"deals":          m.Config.Deals,
		"stage":          string(m.Stage),
		"deal_index":     d.Index,
		"dealer":         d.Dealer.String(),
		"leading_team":   d.LeadingTeam.String(),
		"phase":          string(d.Phase),
		"round":          d.Round,
		"current_player": m.CurrentPlayer.String(),
		"scores":         scoresToMap(m.Scores),
		"names":          names,
		"hand_counts":    counts,
		"current_trick":  trickToMap(d.CurrentTrick),
		"tricks_won": scoresToMap(domain.TeamScores{
			m.TeamTricks(domain.TeamNS),
			m.TeamTricks(domain.TeamEW),
		}),
		"standing": string(m.Standing()),
	}
	if d.Auction.HasDeclarer {
		view["declarer"] = d.Auction.Declarer.String()
		view["contract"] = d.Auction.CurrentBid.String()
	}
	if d.RankOrder != domain.OrderUnset {
		view["rank_order"] = d.RankOrder.String()
	}
	if d.Trump != domain.TrumpUnset {
		view["trump"] = string(d.Trump)
	}
	if viewer.Valid() {
		view["seat"] = viewer.String()
		view["hand"] = cardsToList(m.Hand(viewer))
		view["legal_cards"] = cardsToList(m.LegalCards(viewer))
		view["legal_bids"] = bidsToList(m.LegalBids(viewer))
	}
	if n := len(m.Log); n > 0 {
		tail := m.Log
		if n > logTail {
			tail = m.Log[n-logTail:]
		}
		lines := make([]interface{}, 0, len(tail))
		for _, l := range tail {
			lines = append(lines, l)
		}
		view["log"] = lines
	}
	return view
}

const logTail = 20
