package nakama

import (
	"context"
	"database/sql"
	"math"
	"math/rand"
	"strconv"

	"grim/internal/app"
	"grim/internal/app/settlement"
	"grim/internal/bot"
	"grim/internal/config"
	"grim/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// tickRate is the number of MatchLoop calls per second.
const tickRate = 2

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     [4]string                   `json:"seats"`      // Array of user IDs, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	Tick      int64                       `json:"tick"`       // Current tick of the match
	MatchID   string                      `json:"match_id"`
	Presences map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App       *app.Service                `json:"-"` // Grim app service with game logic
	Match     *domain.Match               `json:"-"` // Current match state (nil while in lobby)
	Config    domain.Config               `json:"-"` // Base setup for new matches; bots and names are filled at start

	BotsEnabled      bool         `json:"bots_enabled"`        // Whether AI players are allowed
	BotLevel         bot.BotLevel `json:"bot_level"`           // Strategy for bots seated by this match
	BotMinDelay      float64      `json:"bot_min_delay"`       // Min seconds a bot waits
	BotMaxDelay      float64      `json:"bot_max_delay"`       // Max seconds a bot waits
	BotAutoFillDelay int          `json:"bot_auto_fill_delay"` // Seconds to wait before filling empty seats with bots
	BotWaitUntil     int64        `json:"bot_wait_until"`      // Tick when the bot should act
	LobbyWaitSince   int64        `json:"lobby_wait_since"`    // Tick when humans started waiting on empty seats

	Bots       map[string]*bot.Agent `json:"-"` // Active bot agents keyed by user ID
	Settlement *settlement.Service   `json:"-"`
	Settled    bool                  `json:"settled"`
	Receipt    string                `json:"receipt"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// seatOf returns the seat occupied by userID.
func (ms *MatchState) seatOf(userID string) (domain.Seat, bool) {
	if userID == "" {
		return 0, false
	}
	for i, id := range ms.Seats {
		if id == userID {
			return domain.Seat(i), true
		}
	}
	return 0, false
}

// displayName resolves the name shown for a seat occupant.
func (ms *MatchState) displayName(userID string) string {
	if p, ok := ms.Presences[userID]; ok && p.GetUsername() != "" {
		return p.GetUsername()
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	return userID
}

// seatName is the name shown for seat: the match's name once it runs, else a
// lobby rename, else the occupant's display name.
func (ms *MatchState) seatName(seat domain.Seat) string {
	if ms.Match != nil {
		return ms.Match.Name(seat)
	}
	if name := ms.Config.Names[seat]; name != "" {
		return name
	}
	return ms.displayName(ms.Seats[seat])
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// newMatchState builds the lobby state from the loaded game config and the
// optional "deals" match parameter.
func newMatchState(gc *config.GameConfig, params map[string]interface{}) *MatchState {
	state := &MatchState{
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(nil),
		OwnerSeat:        -1,
		Config:           domain.Config{Deals: gc.Deals},
		BotsEnabled:      true,
		BotMinDelay:      gc.BotMinDelaySeconds,
		BotMaxDelay:      gc.BotMaxDelaySeconds,
		BotAutoFillDelay: gc.BotAutoFillDelaySeconds,
		Bots:             make(map[string]*bot.Agent),
	}
	if level, err := gc.Level(); err == nil {
		state.BotLevel = level
	}
	switch v := params["deals"].(type) {
	case float64:
		if v >= 1 {
			state.Config.Deals = int(v)
		}
	case int:
		if v >= 1 {
			state.Config.Deals = v
		}
	}
	return state
}

// applyEnv reads the grim_* runtime environment overrides.
func (ms *MatchState) applyEnv(env map[string]string) {
	if val, ok := env["grim_bots_enabled"]; ok {
		ms.BotsEnabled = val == "true"
	}
	if val, ok := env["grim_bot_min_delay_sec"]; ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
			ms.BotMinDelay = f
		}
	}
	if val, ok := env["grim_bot_max_delay_sec"]; ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f >= 0 {
			ms.BotMaxDelay = f
		}
	}
	if val, ok := env["grim_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil && i >= 0 {
			ms.BotAutoFillDelay = i
		}
	}
	if val, ok := env["grim_bot_level"]; ok {
		if level, err := bot.ParseLevel(val); err == nil {
			ms.BotLevel = level
		}
	}
	if ms.BotMaxDelay < ms.BotMinDelay {
		ms.BotMaxDelay = ms.BotMinDelay
	}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config, using defaults: %v", err)
	}

	gc := config.GetGameConfig()
	state := newMatchState(gc, params)
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		state.applyEnv(env)
	}
	if matchID, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok {
		state.MatchID = matchID
	}
	if nk != nil {
		state.Settlement = settlement.NewService(NewNakamaResultsAdapter(nk), app.NewReceiptService(gc.ReceiptSecret, gc.ReceiptIssuer))
	}

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Reconnects always get their seat back.
	if _, seated := matchState.seatOf(presence.GetUserId()); seated {
		return state, true, ""
	}

	// Allow join if there is an empty seat OR a bot to replace (if the match hasn't started)
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Match == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		if _, seated := matchState.seatOf(p.GetUserId()); seated {
			logger.Debug("MatchJoin: User %s reconnected.", p.GetUserId())
			continue
		}

		// Assign seat: Try empty seats first, then bots (if lobby)
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && matchState.Match == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, p.GetUserId(), i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = p.GetUserId()
					matchState.Config.Names[i] = ""
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", p.GetUserId())
			continue
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match. A seat left
// mid-match is handed to a bot so the deal can finish.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		seat, seated := matchState.seatOf(p.GetUserId())
		if !seated {
			continue
		}
		if matchState.Match != nil && !matchState.Match.Over() {
			mh.seatBot(matchState, seat, logger)
			logger.Info("MatchLeave: User %s left mid-match, bot took seat %s.", p.GetUserId(), seat)
			continue
		}
		matchState.Seats[seat] = ""
		matchState.Config.Names[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %s freed.", p.GetUserId(), seat)
	}

	if newOwnerSeat := findFirstHumanSeat(matchState.Seats[:]); newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartMatch:
			mh.handleStartMatch(ctx, matchState, dispatcher, logger, msg)
		case OpBid, OpRankOrder, OpTrump, OpPlayCard:
			mh.handleAction(ctx, matchState, dispatcher, logger, msg)
		case OpNextDeal:
			mh.handleNextDeal(ctx, matchState, dispatcher, logger, msg)
		case OpRematch:
			mh.handleRematch(ctx, matchState, dispatcher, logger, msg)
		case OpRename:
			mh.handleRename(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// seatBot puts a bot identity and agent into seat. During a match the seat
// is also switched to bot control in the match config.
func (mh *matchHandler) seatBot(state *MatchState, seat domain.Seat, logger runtime.Logger) {
	identity := bot.GetBotIdentity(int(seat))
	for k := 1; k < 4; k++ {
		if _, taken := state.seatOf(identity.UserID); !taken {
			break
		}
		identity = bot.GetBotIdentity(int(seat) + k*len(domain.Seats))
	}
	level := state.BotLevel
	if identity.Difficulty != "" {
		level = identity.Level()
	}
	agent, err := bot.NewAgent(identity.UserID, identity.DisplayName, seat, level)
	if err != nil {
		logger.Error("Failed to create bot agent for %s: %v", identity.UserID, err)
		return
	}
	state.Seats[seat] = identity.UserID
	state.Bots[identity.UserID] = agent
	if state.Match != nil {
		state.Match.Config.Bots[seat] = true
	}
	logger.Info("Seated bot %s (%s) at %s, level %s", identity.Username, identity.UserID, seat, level)
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Fill empty lobby seats with bots once humans have waited long enough.
	if state.Match == nil {
		if state.GetHumanPlayerCount() > 0 && state.GetOpenSeatsCount() > 0 {
			if state.LobbyWaitSince == 0 {
				state.LobbyWaitSince = state.Tick
				logger.Debug("processBots: Open seats detected, starting auto-fill timer.")
			}

			if state.Tick-state.LobbyWaitSince >= int64(state.BotAutoFillDelay*tickRate) {
				for i, seat := range state.Seats {
					if seat == "" {
						mh.seatBot(state, domain.Seat(i), logger)
					}
				}
				mh.updateLabel(state, dispatcher, logger)
				mh.broadcastMatchState(state, dispatcher, logger)
				state.LobbyWaitSince = 0
			}
		} else {
			state.LobbyWaitSince = 0
		}
		return
	}

	// 2. Handle bot turns in-match.
	m := *state.Match
	if !m.AwaitingInput() || !m.IsBot(m.CurrentPlayer) {
		state.BotWaitUntil = 0
		return
	}

	seat := m.CurrentPlayer
	userID := state.Seats[seat]
	if state.BotWaitUntil == 0 {
		delay := state.BotMinDelay + rand.Float64()*(state.BotMaxDelay-state.BotMinDelay)
		state.BotWaitUntil = state.Tick + int64(math.Ceil(delay*tickRate))
		logger.Debug("processBots: Bot %s (seat %s) will act at tick %d (current %d)", userID, seat, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[userID]
	if !exists || agent.Seat != seat {
		mh.seatBot(state, seat, logger)
		agent, exists = state.Bots[state.Seats[seat]]
		if !exists {
			return
		}
	}

	act, err := agent.Decide(m)
	if err != nil {
		logger.Error("processBots: Bot %s failed to decide: %v", userID, err)
		return
	}
	next, events, err := state.App.Apply(m, seat, act)
	if err != nil {
		logger.Error("processBots: Bot %s action %s rejected: %v", userID, act.Kind, err)
		return
	}
	mh.commit(ctx, state, dispatcher, logger, next, events)
}

// commit stores the new match value, broadcasts its events and settles the
// match when it has just ended.
func (mh *matchHandler) commit(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, next domain.Match, events []app.Event) {
	state.Match = &next
	ended := false
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
		ended = ended || ev.Kind == app.EventMatchEnded
	}
	if ended {
		mh.settle(ctx, state, dispatcher, logger)
		mh.updateLabel(state, dispatcher, logger)
	}
	mh.broadcastMatchState(state, dispatcher, logger)
}

func (mh *matchHandler) settle(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Settled || state.Match == nil || state.Settlement == nil {
		return
	}
	state.Settled = true

	result, err := state.Settlement.SettleMatch(ctx, state.MatchID, *state.Match, state.Seats, isBotUserId)
	if err != nil {
		logger.Error("Failed to settle match %s: %v", state.MatchID, err)
		return
	}
	if result.ReceiptErr != nil {
		logger.Warn("Match %s settled without receipt: %v", state.MatchID, result.ReceiptErr)
	}
	state.Receipt = result.Receipt

	data, err := encodeStruct(map[string]interface{}{
		"receipt":  result.Receipt,
		"credited": len(result.Updates),
		"scores":   scoresToMap(state.Match.Scores),
		"standing": string(state.Match.Standing()),
	})
	if err != nil {
		logger.Error("Failed to marshal settlement: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchSettled, data, nil, nil, true)
}

func (mh *matchHandler) senderSeat(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) (domain.Seat, bool) {
	seat, ok := state.seatOf(msg.GetUserId())
	if !ok {
		logger.Warn("Message %d from unseated user %s", msg.GetOpCode(), msg.GetUserId())
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrNotYourTurn)
	}
	return seat, ok
}

func (mh *matchHandler) requireOwner(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) bool {
	seat, ok := mh.senderSeat(state, dispatcher, logger, msg)
	if !ok {
		return false
	}
	if int(seat) != state.OwnerSeat {
		logger.Warn("User %s sent op %d but is not owner (owner_seat=%d)", msg.GetUserId(), msg.GetOpCode(), state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrNotYourTurn)
		return false
	}
	return true
}

func (mh *matchHandler) handleStartMatch(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if !mh.requireOwner(state, dispatcher, logger, msg) {
		return
	}
	if state.Match != nil {
		logger.Warn("StartMatch: Match already running.")
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrWrongPhase)
		return
	}
	if occupied := state.GetOccupiedSeatCount(); occupied < len(domain.Seats) {
		logger.Warn("StartMatch: Cannot start with %d players. Need %d.", occupied, len(domain.Seats))
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrWrongPhase)
		return
	}
	req, err := parseStartRequest(msg.GetData())
	if err != nil {
		logger.Warn("StartMatch: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrBadChoice)
		return
	}

	cfg := state.Config
	if req.Deals > 0 {
		cfg.Deals = req.Deals
	}
	for i, userID := range state.Seats {
		cfg.Bots[i] = isBotUserId(userID)
		cfg.Names[i] = state.seatName(domain.Seat(i))
	}

	m, events, err := state.App.NewMatch(cfg)
	if err != nil {
		logger.Error("StartMatch: Failed to create match: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	if !mh.openMatch(ctx, state, dispatcher, logger, msg.GetUserId(), m, events, req) {
		return
	}
	logger.Info("StartMatch: Match %s started, seed %s, %d deals.", state.MatchID, m.Seed, cfg.Deals)
}

// openMatch runs the coin toss and the first deal, then commits. Failures are
// reported to ownerID and leave the state untouched.
func (mh *matchHandler) openMatch(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ownerID string, m domain.Match, events []app.Event, req startRequest) bool {
	var (
		evs []app.Event
		err error
	)
	if req.SkipCoinToss {
		team, _ := domain.ParseTeam(req.Team)
		m, evs, err = state.App.SkipCoinToss(m, team)
	} else {
		m, evs, err = state.App.PerformCoinToss(m)
	}
	if err != nil {
		logger.Error("StartMatch: Coin toss failed: %v", err)
		mh.sendError(state, dispatcher, logger, ownerID, err)
		return false
	}
	events = append(events, evs...)

	m, evs, err = state.App.StartDeal(m)
	if err != nil {
		logger.Error("StartMatch: Failed to deal: %v", err)
		mh.sendError(state, dispatcher, logger, ownerID, err)
		return false
	}
	events = append(events, evs...)

	state.Settled = false
	state.Receipt = ""
	state.BotWaitUntil = 0
	for i, userID := range state.Seats {
		if agent, ok := state.Bots[userID]; ok {
			agent.Seat = domain.Seat(i)
		}
	}
	mh.commit(ctx, state, dispatcher, logger, m, events)
	mh.updateLabel(state, dispatcher, logger)
	return true
}

func (mh *matchHandler) handleAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	seat, ok := mh.senderSeat(state, dispatcher, logger, msg)
	if !ok {
		return
	}
	if state.Match == nil {
		logger.Warn("handleAction: Match not started.")
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrWrongPhase)
		return
	}

	act, err := actionFromPayload(msg.GetOpCode(), msg.GetData())
	if err != nil {
		logger.Warn("handleAction: User %s sent a bad payload: %v", msg.GetUserId(), err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrBadChoice)
		return
	}

	next, events, err := state.App.Apply(*state.Match, seat, act)
	if err != nil {
		logger.Warn("handleAction: User %s (seat %s) action %s rejected: %v", msg.GetUserId(), seat, act.Kind, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	mh.commit(ctx, state, dispatcher, logger, next, events)
}

func (mh *matchHandler) handleNextDeal(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if !mh.requireOwner(state, dispatcher, logger, msg) {
		return
	}
	if state.Match == nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrWrongPhase)
		return
	}
	next, events, err := state.App.AdvanceToNextDeal(*state.Match)
	if err != nil {
		logger.Warn("handleNextDeal: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	mh.commit(ctx, state, dispatcher, logger, next, events)
}

func (mh *matchHandler) handleRematch(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if !mh.requireOwner(state, dispatcher, logger, msg) {
		return
	}
	if state.Match == nil || !state.Match.Over() {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrWrongPhase)
		return
	}
	req, err := parseStartRequest(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrBadChoice)
		return
	}
	m, events, err := state.App.Rematch(*state.Match)
	if err != nil {
		logger.Error("handleRematch: %v", err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	mh.openMatch(ctx, state, dispatcher, logger, msg.GetUserId(), m, events, req)
}

func (mh *matchHandler) handleRename(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	seat, ok := mh.senderSeat(state, dispatcher, logger, msg)
	if !ok {
		return
	}
	fields, err := decodeStruct(msg.GetData())
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.ErrBadChoice)
		return
	}
	name, _ := fields["name"].(string)

	if state.Match == nil {
		// Lobby renames are kept in the base config and carried into the match at start.
		var lobby domain.Match
		renamed, _, err := state.App.UpdatePlayerName(lobby, seat, name)
		if err != nil {
			mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
			return
		}
		state.Config.Names[seat] = renamed.Config.Names[seat]
		mh.broadcastMatchState(state, dispatcher, logger)
		return
	}
	next, events, err := state.App.UpdatePlayerName(*state.Match, seat, name)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	mh.commit(ctx, state, dispatcher, logger, next, events)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, fields, err := eventToMap(ev)
	if err != nil {
		logger.Warn("broadcastEvent: %v", err)
		return
	}
	data, err := encodeStruct(fields)
	if err != nil {
		logger.Error("Failed to marshal event %s: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if ev.Private() {
		for _, seat := range ev.Recipients {
			if !seat.Valid() {
				continue
			}
			if p, ok := state.Presences[state.Seats[seat]]; ok {
				recipients = append(recipients, p)
			}
		}

		// Private events for seats with no connected presence (bots) go nowhere.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, data, recipients, nil, true)
}

// broadcastMatchState sends every connected player a snapshot of the table
// from their own seat.
func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID, presence := range state.Presences {
		data, err := encodeStruct(mh.snapshot(state, userID))
		if err != nil {
			logger.Error("Failed to marshal snapshot for %s: %v", userID, err)
			continue
		}
		dispatcher.BroadcastMessage(OpMatchState, data, []runtime.Presence{presence}, nil, true)
	}
}

func (mh *matchHandler) snapshot(state *MatchState, viewerID string) map[string]interface{} {
	seats := make([]interface{}, 0, len(state.Seats))
	players := make([]interface{}, 0, len(state.Seats))
	for i, userID := range state.Seats {
		seats = append(seats, userID)
		if userID == "" {
			continue
		}
		player := map[string]interface{}{
			"user_id":      userID,
			"seat":         domain.Seat(i).String(),
			"display_name": state.seatName(domain.Seat(i)),
			"is_owner":     i == state.OwnerSeat,
			"is_bot":       isBotUserId(userID),
		}
		if agent, ok := state.Bots[userID]; ok {
			player["level"] = agent.Level.String()
		}
		players = append(players, player)
	}

	out := map[string]interface{}{
		"seats":      seats,
		"owner_seat": state.OwnerSeat,
		"tick":       state.Tick,
		"players":    players,
		"state":      labelState(state),
	}
	if state.Match != nil {
		viewer := domain.Seat(-1)
		if seat, ok := state.seatOf(viewerID); ok {
			viewer = seat
		}
		out["match"] = matchView(*state.Match, viewer)
	}
	if state.Receipt != "" {
		out["receipt"] = state.Receipt
	}
	return out
}

// sendError sends an error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	data, err := encodeStruct(map[string]interface{}{
		"code":    400,
		"reason":  string(domain.ReasonOf(cause)),
		"message": cause.Error(),
	})
	if err != nil {
		logger.Error("Failed to marshal error event: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true)
}

func labelState(state *MatchState) string {
	switch {
	case state.Match == nil:
		return labelStateLobby
	case state.Match.Over():
		return labelStateOver
	default:
		return labelStatePlaying
	}
}

func matchLabel(state *MatchState) (string, error) {
	data, err := encodeStruct(map[string]interface{}{
		MatchLabelKey_OpenSeats: state.GetOpenSeatsCount(),
		MatchLabelKey_Game:      GameLabel,
		MatchLabelKey_State:     labelState(state),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
