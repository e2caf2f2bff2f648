// Command grimsim plays Grim in the terminal. Seats listed in the config's
// bot_seats are played by bots and the rest are prompted in turn; -auto
// hands every seat to a bot.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"grim/internal/app"
	"grim/internal/bot"
	"grim/internal/config"
	"grim/internal/domain"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

func main() {
	seedFlag := flag.String("seed", "", "match seed; random when empty")
	dealsFlag := flag.Int("deals", 0, "number of deals; overrides the config file")
	autoFlag := flag.Bool("auto", false, "let bots play every seat")
	levelFlag := flag.String("level", "", "bot level: standard or tactical")
	configFlag := flag.String("config", "", "path to a game config JSON file")
	teamFlag := flag.String("deal-first", "", "skip the coin toss and let NS or EW deal first")
	flag.Parse()

	// Create a new slog handler with the default PTerm logger
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	gc, err := loadConfig(*configFlag)
	if err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if *levelFlag != "" {
		gc.BotLevel = *levelFlag
	}
	cfg, err := matchConfig(gc, *dealsFlag, *autoFlag)
	if err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	level, err := gc.Level()
	if err != nil {
		logger.Error("invalid bot level", "error", err)
		os.Exit(1)
	}

	svc := app.NewService(nil)
	for _, seat := range domain.Seats {
		brain, err := bot.NewBrain(level)
		if err != nil {
			logger.Error("failed to build bot", "error", err)
			os.Exit(1)
		}
		svc.SetBrain(seat, brain)
	}

	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("G", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("rim", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	s := &session{svc: svc, logger: logger, auto: allBots(cfg)}
	var m domain.Match
	if *seedFlag != "" {
		m, _, err = svc.NewMatchWithSeed(cfg, *seedFlag)
	} else {
		m, _, err = svc.NewMatch(cfg)
	}
	if err != nil {
		logger.Error("failed to create match", "error", err)
		os.Exit(1)
	}

	for {
		m, err = s.play(m, *teamFlag)
		if err != nil {
			logger.Error("match aborted", "error", err)
			os.Exit(1)
		}
		if s.auto {
			return
		}
		again, _ := pterm.DefaultInteractiveConfirm.WithDefaultText("Play a rematch?").Show()
		if !again {
			return
		}
		if m, _, err = svc.Rematch(m); err != nil {
			logger.Error("rematch failed", "error", err)
			os.Exit(1)
		}
	}
}

// matchConfig applies the command-line overrides to the file config. Without
// -auto the bot_seats setting decides which seats are prompted.
func matchConfig(gc config.GameConfig, deals int, auto bool) (domain.Config, error) {
	cfg, err := gc.MatchConfig()
	if err != nil {
		return domain.Config{}, err
	}
	if deals > 0 {
		cfg.Deals = deals
	}
	if auto {
		for _, seat := range domain.Seats {
			cfg.Bots[seat] = true
		}
	}
	return cfg, nil
}

func allBots(cfg domain.Config) bool {
	for _, isBot := range cfg.Bots {
		if !isBot {
			return false
		}
	}
	return true
}

func loadConfig(path string) (config.GameConfig, error) {
	if path == "" {
		gc := config.Default()
		return gc, gc.ApplyEnv()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config.GameConfig{}, fmt.Errorf("failed to read game config: %w", err)
	}
	gc, err := config.Parse(data)
	if err != nil {
		return config.GameConfig{}, err
	}
	return gc, gc.ApplyEnv()
}

type session struct {
	svc     *app.Service
	logger  *slog.Logger
	auto    bool
	printed int
}

// play drives m from the coin toss to the end of the match.
func (s *session) play(m domain.Match, dealFirst string) (domain.Match, error) {
	var err error
	s.printed = 0
	if dealFirst != "" {
		team, perr := domain.ParseTeam(dealFirst)
		if perr != nil {
			return m, perr
		}
		m, _, err = s.svc.SkipCoinToss(m, team)
	} else {
		m, _, err = s.svc.PerformCoinToss(m)
	}
	if err != nil {
		return m, err
	}
	if m, _, err = s.svc.StartDeal(m); err != nil {
		return m, err
	}
	s.logger.Info("match started", "seed", m.Seed, "deals", m.Config.Deals)

	for !m.Over() {
		if m, _, err = s.svc.RunBots(m); err != nil {
			return m, err
		}
		s.flushLog(m)

		switch {
		case m.Stage == domain.StageDealOver:
			printOutcome(m)
			if !s.auto {
				_, _ = pterm.DefaultInteractiveContinue.WithDefaultText("Next deal?").WithOptions([]string{"yes"}).Show()
			}
			if m, _, err = s.svc.AdvanceToNextDeal(m); err != nil {
				return m, err
			}
		case m.AwaitingInput():
			next, err := s.humanTurn(m)
			if err != nil {
				pterm.Error.Println(err.Error())
				continue
			}
			m = next
		default:
			return m, fmt.Errorf("stuck in stage %s", m.Stage)
		}
	}
	s.flushLog(m)
	pterm.Success.Printfln("Final %s, standing: %s", m.Scores, m.Standing())
	return m, nil
}

func (s *session) flushLog(m domain.Match) {
	for ; s.printed < len(m.Log); s.printed++ {
		pterm.Info.Println(m.Log[s.printed])
	}
}

// humanTurn prompts for the current stage and applies the choice.
func (s *session) humanTurn(m domain.Match) (domain.Match, error) {
	seat := m.CurrentPlayer
	printTable(m, seat, true)

	var act domain.Action
	switch m.Stage {
	case domain.StageBidding:
		bids := m.LegalBids(seat)
		options := make([]string, len(bids))
		for i, b := range bids {
			options[i] = b.String()
		}
		choice, _ := pterm.DefaultInteractiveSelect.WithDefaultText(m.Name(seat) + ", your bid").WithOptions(options).Show()
		bid, err := domain.ParseBid(choice)
		if err != nil {
			return m, err
		}
		act = domain.Action{Kind: domain.ActionBid, Bid: bid}
	case domain.StageChooseRankOrder:
		choice, _ := pterm.DefaultInteractiveSelect.WithDefaultText(m.Name(seat) + ", rank order").WithOptions([]string{"High", "Low"}).Show()
		order, err := domain.ParseRankOrder(choice)
		if err != nil {
			return m, err
		}
		act = domain.Action{Kind: domain.ActionRankOrder, Order: order}
	case domain.StageChooseTrump:
		options := make([]string, len(domain.Trumps))
		for i, t := range domain.Trumps {
			options[i] = string(t)
		}
		choice, _ := pterm.DefaultInteractiveSelect.WithDefaultText(m.Name(seat) + ", trump").WithOptions(options).Show()
		trump, err := domain.ParseTrump(choice)
		if err != nil {
			return m, err
		}
		act = domain.Action{Kind: domain.ActionTrump, Trump: trump}
	case domain.StagePlaying:
		legal := m.LegalCards(seat)
		options := make([]string, len(legal))
		for i, c := range legal {
			options[i] = c.ID
		}
		choice, _ := pterm.DefaultInteractiveSelect.WithDefaultText(m.Name(seat) + ", play a card").WithOptions(options).Show()
		card, err := domain.ParseCard(choice)
		if err != nil {
			return m, err
		}
		act = domain.Action{Kind: domain.ActionPlayCard, Card: card}
	default:
		return m, fmt.Errorf("no input expected in stage %s", m.Stage)
	}

	next, _, err := s.svc.Apply(m, seat, act)
	if err != nil {
		s.logger.Warn("action rejected", "seat", seat.String(), "reason", string(domain.ReasonOf(err)))
		return m, err
	}
	return next, nil
}
