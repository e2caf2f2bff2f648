package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"grim/internal/bot"
	"grim/internal/domain"

	"github.com/joeshaw/envdecode"
)

type GameConfig struct {
	Deals    int      `json:"deals"`
	BotSeats []string `json:"bot_seats"`
	BotLevel string   `json:"bot_level"`
	Names    []string `json:"names"`

	BotMinDelaySeconds float64 `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds float64 `json:"bot_max_delay_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before filling empty seats with bots.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	ReceiptSecret string `json:"receipt_secret"`
	ReceiptIssuer string `json:"receipt_issuer"`
}

// envOverrides are read from the process environment after the file.
type envOverrides struct {
	Deals         int    `env:"GRIM_DEALS"`
	BotSeats      string `env:"GRIM_BOT_SEATS"`
	BotLevel      string `env:"GRIM_BOT_LEVEL"`
	ReceiptSecret string `env:"GRIM_RECEIPT_SECRET"`
	ReceiptIssuer string `env:"GRIM_RECEIPT_ISSUER"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Default is a full-length match with bots on E, S and W.
func Default() GameConfig {
	return GameConfig{
		Deals:                   domain.DefaultDeals,
		BotSeats:                []string{"E", "S", "W"},
		BotLevel:                "standard",
		BotMinDelaySeconds:      1,
		BotMaxDelaySeconds:      2,
		BotAutoFillDelaySeconds: 5,
		ReceiptIssuer:           "grim",
	}
}

// LoadGameConfig loads the game configuration from the given path, then
// applies GRIM_* environment overrides.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c, err := Parse(data)
		if err != nil {
			loadErr = err
			return
		}
		if err := c.ApplyEnv(); err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults when
// nothing has been loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		c := Default()
		return &c
	}
	return cfg
}

// Parse overlays JSON data on the defaults and validates the result.
func Parse(data []byte) (GameConfig, error) {
	c := Default()
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return GameConfig{}, err
	}
	return c, nil
}

// ApplyEnv overrides fields from GRIM_* variables. Unset variables leave
// the field alone.
func (c *GameConfig) ApplyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	if env.Deals != 0 {
		c.Deals = env.Deals
	}
	if env.BotSeats != "" {
		c.BotSeats = splitList(env.BotSeats)
	}
	if env.BotLevel != "" {
		c.BotLevel = env.BotLevel
	}
	if env.ReceiptSecret != "" {
		c.ReceiptSecret = env.ReceiptSecret
	}
	if env.ReceiptIssuer != "" {
		c.ReceiptIssuer = env.ReceiptIssuer
	}
	return c.Validate()
}

// Validate checks every field the engine or the bot layer consumes.
func (c GameConfig) Validate() error {
	if _, err := c.MatchConfig(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.BotMinDelaySeconds < 0 || c.BotMaxDelaySeconds < c.BotMinDelaySeconds {
		return fmt.Errorf("invalid bot delay range [%v, %v]", c.BotMinDelaySeconds, c.BotMaxDelaySeconds)
	}
	return nil
}

// MatchConfig converts the file form into the engine's match setup.
func (c GameConfig) MatchConfig() (domain.Config, error) {
	mc := domain.Config{Deals: c.Deals}
	for _, v := range c.BotSeats {
		seat, err := domain.ParseSeat(strings.ToUpper(strings.TrimSpace(v)))
		if err != nil {
			return domain.Config{}, fmt.Errorf("bot_seats: %w", err)
		}
		mc.Bots[seat] = true
	}
	if len(c.Names) > len(domain.Seats) {
		return domain.Config{}, fmt.Errorf("names: at most %d entries, got %d", len(domain.Seats), len(c.Names))
	}
	copy(mc.Names[:], c.Names)
	if err := mc.Validate(); err != nil {
		return domain.Config{}, err
	}
	return mc, nil
}

// Level returns the configured bot strategy.
func (c GameConfig) Level() (bot.BotLevel, error) {
	return bot.ParseLevel(c.BotLevel)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
