package bot

import (
	"fmt"
	"strings"

	"grim/internal/domain"
)

// Brain is the interface that all bot strategies must implement.
// Decide must be a pure function of the match value: the same match yields
// the same action, so replays reproduce every bot choice.
type Brain interface {
	Decide(m domain.Match, seat domain.Seat) (domain.Action, error)
}

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelStandard BotLevel = iota
	BotLevelTactical
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelStandard:
		return "standard"
	case BotLevelTactical:
		return "tactical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a config or identity difficulty string to a level.
// Empty and "easy" select the standard policy.
func ParseLevel(v string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "easy", "standard":
		return BotLevelStandard, nil
	case "medium", "hard", "tactical":
		return BotLevelTactical, nil
	default:
		return BotLevelStandard, fmt.Errorf("unknown bot level %q", v)
	}
}
