package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// MatchNameGrim is the authoritative match handler name registered with Nakama.
	MatchNameGrim = "grim_match"

	// GameLabel tags Grim matches in the match listing.
	GameLabel = "grim"
)

// Op codes for client messages and server events. Every payload is a JSON
// object; server events are encoded from structpb values.
const (
	// Client -> Server
	OpStartMatch int64 = 1 // {"deals"?: int, "skip_coin_toss"?: bool, "team"?: "NS"|"EW"}
	OpBid        int64 = 2 // {"bid": "Pass"|"Grim"|"DoubleGrim"}
	OpRankOrder  int64 = 3 // {"order": "High"|"Low"}
	OpTrump      int64 = 4 // {"trump": "S"|"H"|"D"|"C"|"NT"}
	OpPlayCard   int64 = 5 // {"card": "SA"}
	OpNextDeal   int64 = 6
	OpRematch    int64 = 7
	OpRename     int64 = 8 // {"name": "..."}

	// Server -> Client events
	OpMatchState        int64 = 100 // per-viewer snapshot
	OpMatchCreated      int64 = 101
	OpCoinTossed        int64 = 102
	OpDealStarted       int64 = 103
	OpHandDealt         int64 = 104 // sent privately
	OpBidPlaced         int64 = 105
	OpAuctionWon        int64 = 106
	OpRoundAdvanced     int64 = 107
	OpRankOrderSelected int64 = 108
	OpTrumpSelected     int64 = 109
	OpCardPlayed        int64 = 110
	OpTrickWon          int64 = 111
	OpDealScored        int64 = 112
	OpMatchEnded        int64 = 113
	OpPlayerRenamed     int64 = 114
	OpMatchSettled      int64 = 115
	OpGameError         int64 = 199
)

// Match label keys and states.
const (
	MatchLabelKey_OpenSeats = "open"
	MatchLabelKey_Game      = "game"
	MatchLabelKey_State     = "state"

	labelStateLobby   = "lobby"
	labelStatePlaying = "playing"
	labelStateOver    = "over"
)
