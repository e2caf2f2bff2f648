package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
	uuid "github.com/satori/go.uuid"
)

// BotIdentity is one entry of the bot profile pool.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "easy", "standard", "medium", "hard", "tactical"
	AvatarIndex int    `json:"avatar_index"`
}

// Level maps the identity's difficulty to a strategy. Unknown values were
// rejected at load time, so the error is only possible for hand-built values.
func (i BotIdentity) Level() BotLevel {
	level, err := ParseLevel(i.Difficulty)
	if err != nil {
		return BotLevelStandard
	}
	return level
}

// fallbackNamespace scopes the deterministic IDs handed out when no pool is loaded.
var fallbackNamespace = uuid.NewV5(uuid.NamespaceURL, "grim/bots")

var (
	mu            sync.RWMutex
	botIdentities []BotIdentity
	botConfigMap  map[string]BotIdentity
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		identities, err := parseIdentities(data)
		if err != nil {
			loadErr = err
			return
		}
		setIdentities(identities)
	})
	return loadErr
}

func parseIdentities(data []byte) ([]BotIdentity, error) {
	var identities []BotIdentity
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot identities: %w", err)
	}
	for _, identity := range identities {
		if _, err := ParseLevel(identity.Difficulty); err != nil {
			return nil, fmt.Errorf("bot %q: %w", identity.Username, err)
		}
	}
	return identities, nil
}

func setIdentities(identities []BotIdentity) {
	mu.Lock()
	defer mu.Unlock()
	botIdentities = identities
	botConfigMap = make(map[string]BotIdentity)
	for _, identity := range identities {
		if identity.UserID != "" {
			botConfigMap[identity.UserID] = identity
		}
	}
}

// ProvisionBots ensures that bot accounts exist in the Nakama database and have the is_bot metadata.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	provisionOnce.Do(func() {
		mu.RLock()
		identities := append([]BotIdentity(nil), botIdentities...)
		mu.RUnlock()

		for i := range identities {
			identity := &identities[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"difficulty":   identity.Difficulty,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, err)
			}
			logger.Info("ProvisionBots: Bot %s (%s) is ready. Level: %s", identity.DisplayName, userID, identity.Level())
		}
		setIdentities(identities)
	})
}

// GetBotConfig returns the full identity configuration for a given bot ID.
func GetBotConfig(userID string) (BotIdentity, bool) {
	mu.RLock()
	defer mu.RUnlock()
	config, ok := botConfigMap[userID]
	return config, ok
}

// GetBotDisplayName returns the display name for a bot ID, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	identity, ok := GetBotConfig(userID)
	if !ok {
		return ""
	}
	if identity.DisplayName == "" {
		return identity.Username
	}
	return identity.DisplayName
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
// Without a pool it mints a stable UUID per index and registers it, so
// IsBot still recognises the seat.
func GetBotIdentity(index int) BotIdentity {
	mu.RLock()
	if len(botIdentities) > 0 {
		identity := botIdentities[index%len(botIdentities)]
		mu.RUnlock()
		return identity
	}
	mu.RUnlock()

	identity := BotIdentity{
		UserID:      uuid.NewV5(fallbackNamespace, fmt.Sprintf("grim-bot-%d", index)).String(),
		Username:    fmt.Sprintf("grim-bot-%d", index),
		DisplayName: fmt.Sprintf("AI Player %d", index+1),
		Difficulty:  "standard",
	}
	mu.Lock()
	if botConfigMap == nil {
		botConfigMap = make(map[string]BotIdentity)
	}
	botConfigMap[identity.UserID] = identity
	mu.Unlock()
	return identity
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	_, ok := GetBotConfig(userID)
	return ok
}
