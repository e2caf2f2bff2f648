package nakama

import (
	"testing"

	"grim/internal/app"
	"grim/internal/domain"
)

func TestActionFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		opCode  int64
		data    string
		want    domain.Action
		wantErr bool
	}{
		{name: "Bid", opCode: OpBid, data: `{"bid":"DoubleGrim"}`, want: domain.Action{Kind: domain.ActionBid, Bid: domain.BidDoubleGrim}},
		{name: "RankOrder", opCode: OpRankOrder, data: `{"order":"Low"}`, want: domain.Action{Kind: domain.ActionRankOrder, Order: domain.OrderLow}},
		{name: "Trump", opCode: OpTrump, data: `{"trump":"NT"}`, want: domain.Action{Kind: domain.ActionTrump, Trump: domain.TrumpNone}},
		{name: "Card", opCode: OpPlayCard, data: `{"card":"H10"}`, want: domain.Action{Kind: domain.ActionPlayCard, Card: domain.NewCard(domain.SuitHearts, domain.Rank10)}},
		{name: "UnknownBid", opCode: OpBid, data: `{"bid":"Redouble"}`, wantErr: true},
		{name: "MissingField", opCode: OpPlayCard, data: `{}`, wantErr: true},
		{name: "WrongType", opCode: OpTrump, data: `{"trump":3}`, wantErr: true},
		{name: "NotJSON", opCode: OpBid, data: `bid=Grim`, wantErr: true},
		{name: "NoActionOp", opCode: OpNextDeal, data: `{}`, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := actionFromPayload(test.opCode, []byte(test.data))
			if test.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.want {
				t.Fatalf("Got %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestParseStartRequest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    startRequest
		wantErr bool
	}{
		{name: "Empty", data: ``, want: startRequest{}},
		{name: "Deals", data: `{"deals":3}`, want: startRequest{Deals: 3}},
		{name: "Skip", data: `{"skip_coin_toss":true,"team":"NS"}`, want: startRequest{SkipCoinToss: true, Team: "NS"}},
		{name: "SkipWithoutTeam", data: `{"skip_coin_toss":true}`, wantErr: true},
		{name: "NegativeDeals", data: `{"deals":-1}`, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := parseStartRequest([]byte(test.data))
			if (err != nil) != test.wantErr {
				t.Fatalf("err = %v, wantErr %t", err, test.wantErr)
			}
			if !test.wantErr && got != test.want {
				t.Fatalf("Got %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestEventToMap(t *testing.T) {
	trick := domain.Trick{}.
		Add(domain.SeatNorth, domain.NewCard(domain.SuitSpades, domain.RankA)).
		Add(domain.SeatEast, domain.NewCard(domain.SuitSpades, domain.Rank7))

	tests := []struct {
		name   string
		event  app.Event
		opCode int64
		check  func(t *testing.T, fields map[string]interface{})
	}{
		{
			name:   "BidPlaced",
			event:  app.Event{Kind: app.EventBidPlaced, Payload: app.BidPlacedPayload{Seat: domain.SeatEast, Bid: domain.BidGrim, Round: 1, Next: domain.SeatSouth}},
			opCode: OpBidPlaced,
			check: func(t *testing.T, fields map[string]interface{}) {
				if fields["seat"] != "E" || fields["bid"] != "Grim" || fields["next"] != "S" {
					t.Fatalf("Unexpected fields %v", fields)
				}
			},
		},
		{
			name:   "TrickWon",
			event:  app.Event{Kind: app.EventTrickWon, Payload: app.TrickWonPayload{Winner: domain.SeatNorth, TrickIndex: 2, Trick: trick}},
			opCode: OpTrickWon,
			check: func(t *testing.T, fields map[string]interface{}) {
				plays := fields["trick"].(map[string]interface{})["plays"].([]interface{})
				if len(plays) != 2 || fields["winner"] != "N" {
					t.Fatalf("Unexpected fields %v", fields)
				}
			},
		},
		{
			name:   "DealScored",
			event:  app.Event{Kind: app.EventDealScored, Payload: app.DealScoredPayload{Outcome: domain.Outcome{Contract: domain.BidGrim, Declarer: domain.SeatWest, Delta: domain.TeamScores{0, 16}}, Scores: domain.TeamScores{0, 16}}},
			opCode: OpDealScored,
			check: func(t *testing.T, fields map[string]interface{}) {
				outcome := fields["outcome"].(map[string]interface{})
				if outcome["declarer"] != "W" || outcome["contract"] != "Grim" {
					t.Fatalf("Unexpected outcome %v", outcome)
				}
				if fields["scores"].(map[string]interface{})["EW"] != 16 {
					t.Fatalf("Unexpected scores %v", fields["scores"])
				}
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opCode, fields, err := eventToMap(test.event)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if opCode != test.opCode {
				t.Fatalf("opCode = %d, want %d", opCode, test.opCode)
			}
			test.check(t, fields)
			if _, err := encodeStruct(fields); err != nil {
				t.Fatalf("Fields must encode: %v", err)
			}
		})
	}

	if _, _, err := eventToMap(app.Event{Kind: "bogus", Payload: 42}); err == nil {
		t.Fatalf("Expected error for unknown payload")
	}
}
